package matcher

// knownNames lists lowercase proper nouns (given names and place names) that
// the spell-out policy recognises directly. The list is deliberately small:
// it only needs to cover names a caller plausibly types at this service, and
// the capitalisation and out-of-vocabulary signals catch the rest.
var knownNames = []string{
	"juan", "maria", "jose", "carlos", "ana", "luis", "carmen", "pedro",
	"laura", "miguel", "sofia", "diego", "lucia", "pablo", "elena",
	"javier", "marta", "andres", "isabel", "fernando", "raquel", "sergio",
	"patricia", "alberto", "cristina", "ricardo", "beatriz", "alejandro",
	"teresa", "manuel", "rosa", "antonio", "claudia", "francisco",
	"veronica", "roberto", "daniela", "eduardo", "gabriela", "oscar",
	"monica", "acapulco", "madrid", "barcelona", "guadalajara", "monterrey",
}

var knownNameSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(knownNames))
	for _, n := range knownNames {
		m[n] = struct{}{}
	}
	return m
}()
