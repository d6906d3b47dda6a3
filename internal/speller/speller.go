// Package speller decomposes text into a sequence of named characters for
// assistive spell-out ("deletreo"). Letters are emitted upper-cased, the
// Spanish digraphs LL, RR and CH are emitted as single units, spaces become
// the explicit token "espacio", and punctuation is named in Spanish
// ("arroba", "punto", "exclamación", ...).
package speller

import (
	"fmt"
	"unicode"
)

// specialNames maps punctuation and symbols to their Spanish names.
var specialNames = map[rune]string{
	'.':  "punto",
	',':  "coma",
	';':  "punto y coma",
	':':  "dos puntos",
	'!':  "exclamación",
	'¡':  "exclamación",
	'?':  "interrogación",
	'¿':  "interrogación",
	'-':  "guión",
	'_':  "guión bajo",
	'@':  "arroba",
	'#':  "numeral",
	'$':  "dólar",
	'%':  "porcentaje",
	'&':  "ampersand",
	'/':  "barra",
	'\\': "barra invertida",
	'(':  "paréntesis abierto",
	')':  "paréntesis cerrado",
	'[':  "corchete abierto",
	']':  "corchete cerrado",
	'{':  "llave abierta",
	'}':  "llave cerrada",
	'+':  "más",
	'=':  "igual",
	'*':  "asterisco",
	'"':  "comillas",
	'\'': "comilla simple",
}

// digraphs lists the Spanish letter pairs spelled as a single unit, in the
// order they are tested at each position.
var digraphs = [][2]rune{
	{'L', 'L'},
	{'R', 'R'},
	{'C', 'H'},
}

// Spell decomposes text character by character. It returns the ordered token
// sequence and the token count (which equals len of the returned slice).
//
// When includeSpaces is true each space becomes an "espacio" token; when
// false, spaces are omitted from both the sequence and the count.
func Spell(text string, includeSpaces bool) ([]string, int) {
	if text == "" {
		return nil, 0
	}

	runes := []rune(text)
	for i, r := range runes {
		runes[i] = unicode.ToUpper(r)
	}

	var out []string
	i := 0
	for i < len(runes) {
		if tok, ok := digraphAt(runes, i); ok {
			out = append(out, tok)
			i += 2
			continue
		}

		r := runes[i]
		switch {
		case r == ' ':
			if includeSpaces {
				out = append(out, "espacio")
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			out = append(out, string(r))
		default:
			name, ok := specialNames[r]
			if !ok {
				name = fmt.Sprintf("carácter especial: %c", r)
			}
			out = append(out, name)
		}
		i++
	}
	return out, len(out)
}

// digraphAt reports whether a spellable digraph starts at position i.
func digraphAt(runes []rune, i int) (string, bool) {
	if i+1 >= len(runes) {
		return "", false
	}
	for _, d := range digraphs {
		if runes[i] == d[0] && runes[i+1] == d[1] {
			return string(d[0]) + string(d[1]), true
		}
	}
	return "", false
}
