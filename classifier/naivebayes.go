package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"
)

// Class names a model must define.
const (
	ClassPhishing = "phishing"
	ClassSafe     = "safe"
)

// ClassModel holds the parameters for one class.
type ClassModel struct {
	// Prior is the class prior probability.
	Prior float64 `json:"prior"`

	// Tokens maps a token or "a b" bigram to its log-likelihood.
	Tokens map[string]float64 `json:"tokens"`
}

// Model is the persisted form of a multinomial naive Bayes classifier.
type Model struct {
	Classes map[string]ClassModel `json:"classes"`

	// UnknownLogProb is the log-likelihood used for tokens absent from a
	// class vocabulary.
	UnknownLogProb float64 `json:"unknown_log_prob"`
}

// Validate checks that m can score text.
func (m *Model) Validate() error {
	for _, name := range []string{ClassPhishing, ClassSafe} {
		c, ok := m.Classes[name]
		if !ok {
			return fmt.Errorf("%w: missing class %q", ErrInvalidModel, name)
		}
		if c.Prior <= 0 || c.Prior >= 1 {
			return fmt.Errorf("%w: class %q prior %v outside (0,1)", ErrInvalidModel, name, c.Prior)
		}
		for tok, lp := range c.Tokens {
			if lp > 0 || math.IsNaN(lp) || math.IsInf(lp, 0) {
				return fmt.Errorf("%w: class %q token %q log-likelihood %v", ErrInvalidModel, name, tok, lp)
			}
		}
	}
	if m.UnknownLogProb > 0 || math.IsNaN(m.UnknownLogProb) || math.IsInf(m.UnknownLogProb, 0) {
		return fmt.Errorf("%w: unknown_log_prob %v", ErrInvalidModel, m.UnknownLogProb)
	}
	return nil
}

// NaiveBayes scores text with a loaded Model. It is safe for concurrent use.
type NaiveBayes struct {
	model Model
}

var _ Classifier = (*NaiveBayes)(nil)

// NewNaiveBayes returns a classifier for m after validating it.
func NewNaiveBayes(m Model) (*NaiveBayes, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &NaiveBayes{model: m}, nil
}

// ReadModel decodes a JSON model from r.
func ReadModel(r io.Reader) (*NaiveBayes, error) {
	var m Model
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return NewNaiveBayes(m)
}

// LoadModel reads a JSON model file.
func LoadModel(path string) (*NaiveBayes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	nb, err := ReadModel(f)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return nb, nil
}

// Score returns the posterior probability of the phishing class.
func (nb *NaiveBayes) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	phish := nb.model.Classes[ClassPhishing]
	safe := nb.model.Classes[ClassSafe]

	lp := math.Log(phish.Prior)
	ls := math.Log(safe.Prior)
	for _, tok := range Features(text) {
		lp += nb.logLikelihood(phish, tok)
		ls += nb.logLikelihood(safe, tok)
	}

	// Normalize in log space: p = 1 / (1 + exp(ls - lp)).
	return 1 / (1 + math.Exp(ls-lp)), nil
}

func (nb *NaiveBayes) logLikelihood(c ClassModel, tok string) float64 {
	if v, ok := c.Tokens[tok]; ok {
		return v
	}
	return nb.model.UnknownLogProb
}

// Tokenize lowercases text and splits it into alphanumeric runs.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Features returns the unigrams of text followed by its bigrams.
func Features(text string) []string {
	words := Tokenize(text)
	if len(words) == 0 {
		return nil
	}
	feats := make([]string, 0, 2*len(words)-1)
	feats = append(feats, words...)
	for i := 1; i < len(words); i++ {
		feats = append(feats, words[i-1]+" "+words[i])
	}
	return feats
}
