package textnorm

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "hola", "hola"},
		{"uppercase", "HOLA", "hola"},
		{"diacritics", "¿Cómo estás?", "como estas"},
		{"leet", "h0l4", "hola"},
		{"leet at symbol", "4yud@", "ayuda"},
		{"punctuation collapses", "hola!!! amigo...", "hola amigo"},
		{"inner punctuation separates", "hola,amigo", "hola amigo"},
		{"whitespace collapses", "  hola   amigo  ", "hola amigo"},
		{"exclamation not leet", "hola!!!", "hola"},
		{"empty", "", ""},
		{"only punctuation", "...!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"¡SOCORRO!", "Llama a la policía", "h0l@ qué t4l", "  x  "}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestNormalizeLeet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"4yud@", "Ayuda"},
		{"Acapulc@", "Acapulca"},
		{"h0la", "hola"},
		{"JUAN", "JUAN"},
	}
	for _, tt := range tests {
		if got := NormalizeLeet(tt.input); got != tt.want {
			t.Errorf("NormalizeLeet(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStripDiacritics(t *testing.T) {
	t.Parallel()

	if got := StripDiacritics("médico"); got != "medico" {
		t.Errorf("StripDiacritics = %q, want medico", got)
	}
	if got := StripDiacritics("Émigré"); got != "Emigre" {
		t.Errorf("StripDiacritics = %q, want Emigre (casing preserved)", got)
	}
	if got := StripDiacritics("año"); got != "ano" {
		t.Errorf("StripDiacritics = %q, want ano", got)
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	if got := Tokens("hola que tal"); !reflect.DeepEqual(got, []string{"hola", "que", "tal"}) {
		t.Errorf("Tokens = %v", got)
	}
	if got := Tokens("   "); got != nil {
		t.Errorf("Tokens of whitespace = %v, want nil", got)
	}
}
