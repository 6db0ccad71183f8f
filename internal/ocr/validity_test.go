package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       bool
		wantReason string
	}{
		{"label line", "Ceramide Mochi Toner", true, ""},
		{"multi line label", "TONYMOLY\nCeramide Mochi Toner\nEXP: 12/2026", true, ""},
		{"empty", "", false, "too short"},
		{"short after trim", "   Water   ", false, "too short"},
		{"letter ratio 0.2", "a1!@#$%^&*b", false, "letter ratio below minimum"},
		{"digits dominate", "12345678 90/12", false, "letter ratio below minimum"},
		{"punctuated noise", "ab,cd,ef,gh,ij,kl", false, "special character ratio above maximum"},
		{"long without spaces", strings.Repeat("abcdefghij", 5), false, "long text without word breaks"},
		{"accented copy", "Crème hydratante délicate", false, "too many non-ASCII or noise symbols"},
		{"one accent is tolerated", "Creme hydratante delicate et douce pour peau sensible, hé", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := CheckText(tt.text)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.want, IsValidText(tt.text))
		})
	}
}

func TestCheckText_LongTextNeedsTwoSpaces(t *testing.T) {
	oneSpace := strings.Repeat("a", 25) + " " + strings.Repeat("b", 20)
	twoSpaces := strings.Repeat("a", 15) + " " + strings.Repeat("b", 15) + " " + strings.Repeat("c", 15)

	assert.False(t, IsValidText(oneSpace))
	assert.True(t, IsValidText(twoSpaces))
}

func TestCheckText_AllowNonASCII(t *testing.T) {
	ok, _ := checkText("Crème hydratante délicate", true)
	assert.True(t, ok)

	// Deny-listed symbols are noise even when non-ASCII output is expected.
	ok, _ = checkText("¢¢ abcdefgh ¢¢", true)
	assert.False(t, ok)
}
