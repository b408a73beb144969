package textnorm

import (
	"testing"
	"unicode"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "The Sky Is Blue", "the sky is blue"},
		{"strips punctuation", "Hello, world!", "hello world"},
		{"keeps digits", "Top 10 results.", "top 10 results"},
		{"trims", "  padded  ", "padded"},
		{"blank", "   \t\n", ""},
		{"empty", "", ""},
		{"unicode letters survive", "Café №5", "café 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"The sky is blue",
		"What?! No... way — really?",
		"Straßenbahn 42",
		"already normalized text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_OutputAlphabet(t *testing.T) {
	out := Normalize("Mixed: CASE, 123 – sym&bols / and\ttabs!")
	for _, r := range out {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			t.Fatalf("unexpected rune %q in %q", r, out)
		}
	}
}
