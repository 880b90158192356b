package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	createdBy := uuid.New()

	t.Run("maps a successful run", func(t *testing.T) {
		cmd := &CreateEntryCommand{
			FileName:           "visit.txt",
			FileSize:           512,
			TextBytes:          498,
			OutputFormat:       "soap",
			DetailLevel:        "comprehensive",
			IncludeICD10:       true,
			IncludeMedications: true,
			Status:             StatusOK,
			ProcessingMS:       42,
			ReportText:         "CLINICAL REPORT",
			CreatedBy:          createdBy,
		}

		e := NewEntry(cmd)

		assert.Equal(t, "visit.txt", e.FileName)
		assert.Equal(t, int64(512), e.FileSize)
		assert.Equal(t, 498, e.TextBytes)
		assert.Equal(t, "soap", e.OutputFormat)
		assert.Equal(t, "comprehensive", e.DetailLevel)
		assert.True(t, e.IncludeICD10)
		assert.True(t, e.IncludeMedications)
		assert.Equal(t, StatusOK, e.Status)
		assert.Empty(t, e.ErrorMessage)
		assert.Equal(t, int64(42), e.ProcessingMS)
		assert.Equal(t, "CLINICAL REPORT", e.ReportText)
		assert.Equal(t, createdBy, e.CreatedBy)
	})

	t.Run("failed run drops report text", func(t *testing.T) {
		cmd := &CreateEntryCommand{
			FileName:     "bad.pdf",
			Status:       StatusError,
			ErrorMessage: "decoding document: not a PDF",
			ReportText:   "should not survive",
			CreatedBy:    createdBy,
		}

		e := NewEntry(cmd)

		assert.Equal(t, StatusError, e.Status)
		assert.Equal(t, "decoding document: not a PDF", e.ErrorMessage)
		assert.Empty(t, e.ReportText)
	})
}
