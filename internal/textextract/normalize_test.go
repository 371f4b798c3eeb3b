package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\n\t ", ""},
		{"collapses blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"keeps single blank line", "a\n\nb", "a\n\nb"},
		{"trims", "  Para1\n\n\n\nPara2   ", "Para1\n\nPara2"},
		{"leaves inner spaces", "a  b\n\n\n c", "a  b\n\n c"},
		{"marker only", "\n\n--- Page Break ---\n\n", "--- Page Break ---"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestNormalize_IdempotentOnAwkwardInputs(t *testing.T) {
	inputs := []string{
		"\n\n\n\n\n",
		"x\n \n\n\ny",
		"\r\n\r\n\r\n\r\nz",
		"a\n\n\n\n\n\n\n\n\nb\n\n\n",
		" \n\n\n \n\n\n ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
