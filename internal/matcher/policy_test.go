package matcher

import (
	"testing"

	"github.com/JMJuarez/modulo-pln-vf/internal/inventory"
)

func testInventory(t *testing.T) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	return inv
}

func TestLooksLikeProperNoun(t *testing.T) {
	t.Parallel()

	inv := testInventory(t)

	tests := []struct {
		name   string
		query  string
		tokens []string
		score  float64
		want   bool
	}{
		{"capitalised low score", "Juan", []string{"juan"}, 0.4, true},
		{"capitalised near-exact match", "Hola", []string{"hola"}, 0.99, false},
		{"title-cased multi token", "Juan Pablo", []string{"juan", "pablo"}, 0.3, true},
		{"sentence-cased multi token", "Ayuda por favor", []string{"ayuda", "por", "favor"}, 0.3, false},
		{"all-caps name via names list", "JUAN", []string{"juan"}, 0.3, true},
		{"known name lowercase", "maria", []string{"maria"}, 0.3, true},
		{"known place lowercase", "acapulco", []string{"acapulco"}, 0.3, true},
		{"vocabulary word lowercase", "gracias", []string{"gracias"}, 0.5, false},
		{"unknown single token", "xolotl", []string{"xolotl"}, 0.2, true},
		{"unknown token too short", "x", []string{"x"}, 0.2, false},
		{"lowercase multi token", "que pasa amigo", []string{"que", "pasa", "amigo"}, 0.3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := looksLikeProperNoun(tt.query, tt.tokens, tt.score, inv)
			if got != tt.want {
				t.Errorf("looksLikeProperNoun(%q, score %.2f) = %v, want %v", tt.query, tt.score, got, tt.want)
			}
		})
	}
}
