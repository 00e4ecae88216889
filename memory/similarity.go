package memory

import (
	"math"
	"strings"
	"unicode"
)

// stopwords are excluded from lexical similarity.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"will": true, "would": true, "could": true, "should": true, "can": true,
	"and": true, "or": true, "but": true, "if": true, "so": true,
	"as": true, "at": true, "by": true, "for": true, "from": true,
	"in": true, "into": true, "of": true, "on": true, "to": true,
	"with": true, "about": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"i": true, "me": true, "my": true, "you": true, "your": true,
	"we": true, "they": true, "them": true, "us": true,
}

// Terms returns the term frequency vector of text without stopwords.
func Terms(text string) map[string]float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tf := make(map[string]float64, len(words))
	for _, w := range words {
		if len(w) < 2 || stopwords[w] {
			continue
		}
		tf[w]++
	}
	return tf
}

// TermCosine is the cosine similarity of two term vectors, in [0,1].
func TermCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot, na, nb float64
	for term, wa := range a {
		dot += wa * b[term]
		na += wa * wa
	}
	for _, wb := range b {
		nb += wb * wb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// VectorCosine is the cosine similarity of two dense vectors mapped to [0,1].
func VectorCosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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
	return UnitScore(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// UnitScore maps a cosine in [-1,1] onto [0,1]; negative similarity counts as unrelated.
func UnitScore(cos float64) float64 {
	if math.IsNaN(cos) || cos < 0 {
		return 0
	}
	return math.Min(1, cos)
}
