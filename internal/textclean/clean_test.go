package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"only noise", "  \n|||\n--- ~~ ---\n\n", ""},
		{
			"drops symbol lines and keeps order",
			"TONYMOLY\n•••\nCeramide   Mochi\tToner\n\n== ==\nEXP: 12/2026",
			"TONYMOLY\nCeramide Mochi Toner\nEXP: 12/2026",
		},
		{"drops single characters", "a\nOK\n7\nBB", "OK\nBB"},
		{"trims and collapses", "   Water,    Glycerin   ", "Water, Glycerin"},
		{"windows newlines", "Line one\r\nLine two\r\n", "Line one\nLine two"},
		{"keeps non-latin text", "토너\n에센스 50ml", "토너\n에센스 50ml"},
		{"digit-only lines survive", "12/2026\n##", "12/2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	raw := "  Brand\n\n*** \nIngredients:   Water ,  Aloe\n x \n"
	once := Clean(raw)
	assert.Equal(t, once, Clean(once))
}
