package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "windows line endings",
			input: "line one\r\nline two\r\n",
			want:  "line one\nline two",
		},
		{
			name:  "bare carriage returns",
			input: "line one\rline two",
			want:  "line one\nline two",
		},
		{
			name:  "non printable characters dropped",
			input: "BP\x00: 120/80 \x07mmHgé",
			want:  "BP: 120/80 mmHg",
		},
		{
			name:  "newline runs collapse to two",
			input: "para one\n\n\n\n\npara two",
			want:  "para one\n\npara two",
		},
		{
			name:  "horizontal whitespace collapses",
			input: "chest   pain\t\tfor  two days",
			want:  "chest pain for two days",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  \n\t report body \n ",
			want:  "report body",
		},
		{
			name:  "only control characters",
			input: "\x00\x01\x02",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"a\r\nb\rc\n\n\n\nd",
		"  spaced\t\tout   text \x00 with junk  ",
		"already\n\nnormalized text",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "Normalize must be idempotent for %q", input)
	}
}
