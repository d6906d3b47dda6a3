package matcher

import "math"

// cosine returns the cosine similarity of a and b, or 0 when either vector
// is zero or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mean returns the element-wise mean of the vectors. All vectors must share
// the same length; the caller guarantees vs is non-empty.
func mean(vs [][]float32) []float32 {
	out := make([]float32, len(vs[0]))
	for _, v := range vs {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float32(len(vs))
	for i := range out {
		out[i] /= n
	}
	return out
}

// clip01 clamps x to the [0, 1] interval. Boosted scores can exceed 1 and
// penalised ones can go negative; reported similarities never do.
func clip01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
