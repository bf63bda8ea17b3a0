// Package features builds fixed-width numeric feature vectors for the
// catalog from genre tags: term weighting (TF-IDF) followed by
// dimensionality reduction (truncated SVD).
package features

import (
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// stopWords are filler tokens excluded from the vocabulary. Covers the
// common English fillers that show up in genre strings and free text
// ("no" from "(no genres listed)" among them).
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// tokenize lowercases the tags, splits them on non-alphanumeric runs,
// and drops single characters and stop words. Applied identically
// whether the input is genre tags or free text.
func tokenize(tags []string) []string {
	var tokens []string
	for _, tag := range tags {
		fields := strings.FieldsFunc(strings.ToLower(tag), func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		for _, f := range fields {
			if len(f) < 2 {
				continue
			}
			if _, stop := stopWords[f]; stop {
				continue
			}
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Vectorizer is a fitted TF-IDF transform over the genre-tag vocabulary.
// Fields are exported for gob persistence.
type Vectorizer struct {
	Vocab map[string]int // token -> column
	IDF   []float64      // smoothed inverse document frequency per column
}

// FitVectorizer learns the vocabulary and idf weights from the corpus.
// idf uses the smoothed form ln((1+n)/(1+df)) + 1.
func FitVectorizer(corpus [][]string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocab: make(map[string]int, len(terms)),
		IDF:   make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, t := range terms {
		v.Vocab[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

// Dims returns the vocabulary size.
func (v *Vectorizer) Dims() int { return len(v.IDF) }

// Transform produces the L2-normalized TF-IDF row for one document.
// Tokens outside the fitted vocabulary are ignored.
func (v *Vectorizer) Transform(tags []string) ([]float64, error) {
	if v.Vocab == nil {
		return nil, domain.ErrModelNotFitted
	}

	row := make([]float64, len(v.IDF))
	for _, tok := range tokenize(tags) {
		if col, ok := v.Vocab[tok]; ok {
			row[col] += v.IDF[col]
		}
	}

	var norm float64
	for _, x := range row {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row {
			row[i] /= norm
		}
	}
	return row, nil
}
