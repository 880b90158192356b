package report

import "errors"

var (
	ErrEntryNotFound  = errors.New("report entry not found")
	ErrEntryImmutable = errors.New("report entries are append-only and cannot be modified")
)
