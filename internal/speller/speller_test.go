package speller

import (
	"reflect"
	"testing"
)

func TestSpellLetters(t *testing.T) {
	t.Parallel()

	got, total := Spell("Juan", true)
	want := []string{"J", "U", "A", "N"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Spell = %v, want %v", got, want)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}

func TestSpellDigraphs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{"llave", []string{"LL", "A", "V", "E"}},
		{"perro", []string{"P", "E", "RR", "O"}},
		{"chico", []string{"CH", "I", "C", "O"}},
		{"Llull", []string{"LL", "U", "LL"}},
	}
	for _, tt := range tests {
		got, total := Spell(tt.input, true)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Spell(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if total != len(tt.want) {
			t.Errorf("Spell(%q) total = %d, want %d", tt.input, total, len(tt.want))
		}
	}
}

func TestSpellSpaces(t *testing.T) {
	t.Parallel()

	withSpaces, total := Spell("Hola Mundo", true)
	if total != 10 {
		t.Errorf("total with spaces = %d, want 10", total)
	}
	if withSpaces[4] != "espacio" {
		t.Errorf("token 4 = %q, want espacio", withSpaces[4])
	}

	_, total = Spell("Hola Mundo", false)
	if total != 9 {
		t.Errorf("total without spaces = %d, want 9", total)
	}
}

func TestSpellPunctuation(t *testing.T) {
	t.Parallel()

	got, _ := Spell("a.b", true)
	want := []string{"A", "punto", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Spell = %v, want %v", got, want)
	}

	got, _ = Spell("@", true)
	if got[0] != "arroba" {
		t.Errorf("Spell(@) = %v, want arroba", got)
	}

	got, _ = Spell("¡hola!", true)
	if got[0] != "exclamación" || got[len(got)-1] != "exclamación" {
		t.Errorf("Spell(¡hola!) = %v", got)
	}
}

func TestSpellDigitsAndUnknown(t *testing.T) {
	t.Parallel()

	got, total := Spell("a1", true)
	if !reflect.DeepEqual(got, []string{"A", "1"}) || total != 2 {
		t.Errorf("Spell(a1) = %v (%d)", got, total)
	}

	got, _ = Spell("a§", true)
	if got[1] != "carácter especial: §" {
		t.Errorf("unknown symbol token = %q", got[1])
	}
}

func TestSpellEmpty(t *testing.T) {
	t.Parallel()

	got, total := Spell("", true)
	if got != nil || total != 0 {
		t.Errorf("Spell(\"\") = %v (%d), want nil, 0", got, total)
	}
}
