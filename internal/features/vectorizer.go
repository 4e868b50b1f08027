package features

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// MaxFeatures caps the vocabulary size.
const MaxFeatures = 5000

var (
	// ErrNotFitted is returned by Transform before any fit or state restore.
	ErrNotFitted = errors.New("features: vectorizer has no fitted vocabulary")
	// ErrEmptyVocabulary is returned when a corpus yields no usable terms.
	ErrEmptyVocabulary = errors.New("features: empty vocabulary, documents contain only stop words")
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// FeatureVector is a dense TF-IDF row. It is only meaningful relative to the
// vocabulary that produced it.
type FeatureVector []float64

// Vectorizer is a unigram+bigram TF-IDF vectorizer with English stop words
// removed and L2-normalized output. Once fitted it is read-only and safe for
// concurrent Transform calls; FitTransform must not race with Transform.
type Vectorizer struct {
	maxFeatures int
	vocabulary  map[string]int
	terms       []string
	idf         []float64
}

// State is the serializable form of a fitted vectorizer.
type State struct {
	MaxFeatures int       `yaml:"max_features"`
	Terms       []string  `yaml:"terms"`
	IDF         []float64 `yaml:"idf"`
}

// NewVectorizer returns an unfitted vectorizer capped at MaxFeatures terms.
func NewVectorizer() *Vectorizer {
	return NewVectorizerWithLimit(MaxFeatures)
}

// NewVectorizerWithLimit returns an unfitted vectorizer with a custom cap.
func NewVectorizerWithLimit(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = MaxFeatures
	}
	return &Vectorizer{maxFeatures: maxFeatures}
}

// FromState restores a fitted vectorizer.
func FromState(s State) (*Vectorizer, error) {
	if len(s.Terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("features: %d terms but %d idf weights", len(s.Terms), len(s.IDF))
	}
	v := NewVectorizerWithLimit(s.MaxFeatures)
	v.terms = append([]string(nil), s.Terms...)
	v.idf = append([]float64(nil), s.IDF...)
	v.vocabulary = make(map[string]int, len(v.terms))
	for i, t := range v.terms {
		if _, dup := v.vocabulary[t]; dup {
			return nil, fmt.Errorf("features: duplicate term %q", t)
		}
		v.vocabulary[t] = i
	}
	return v, nil
}

// State returns a copy of the fitted state.
func (v *Vectorizer) State() State {
	return State{
		MaxFeatures: v.maxFeatures,
		Terms:       append([]string(nil), v.terms...),
		IDF:         append([]float64(nil), v.idf...),
	}
}

// IsFitted reports whether a vocabulary is available.
func (v *Vectorizer) IsFitted() bool {
	return v != nil && len(v.terms) > 0
}

// Size is the vocabulary size, i.e. the feature vector length.
func (v *Vectorizer) Size() int {
	return len(v.terms)
}

// Term returns the vocabulary term for a feature index.
func (v *Vectorizer) Term(i int) string {
	if i < 0 || i >= len(v.terms) {
		return ""
	}
	return v.terms[i]
}

// FitTransform learns the vocabulary and idf weights from corpus and returns
// its TF-IDF matrix.
func (v *Vectorizer) FitTransform(corpus []string) ([]FeatureVector, error) {
	docs := make([][]string, len(corpus))
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for i, text := range corpus {
		docs[i] = analyze(text)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, term := range docs[i] {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}
	if len(termFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if len(terms) > v.maxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return termFreq[terms[i]] > termFreq[terms[j]]
		})
		terms = terms[:v.maxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(corpus))
	v.terms = terms
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, t := range terms {
		v.vocabulary[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	out := make([]FeatureVector, len(docs))
	for i, doc := range docs {
		out[i] = v.vectorize(doc)
	}
	return out, nil
}

// Transform vectorizes text with the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) (FeatureVector, error) {
	if !v.IsFitted() {
		return nil, ErrNotFitted
	}
	return v.vectorize(analyze(text)), nil
}

func (v *Vectorizer) vectorize(terms []string) FeatureVector {
	vec := make(FeatureVector, len(v.terms))
	for _, t := range terms {
		if idx, ok := v.vocabulary[t]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for i, c := range vec {
		if c == 0 {
			continue
		}
		vec[i] = c * v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// analyze tokenizes, drops stop words and emits unigrams followed by bigrams.
func analyze(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
