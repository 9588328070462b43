// Package classifier provides the optional text-classification signal: a
// probability that a message body is phishing.
package classifier

//go:generate mockgen -source=classifier.go -destination=mocks/mocks.go -package=mocks Classifier

import (
	"context"
	"errors"
)

// ErrInvalidModel indicates a model file that cannot be used for scoring.
var ErrInvalidModel = errors.New("classifier: invalid model")

// Classifier scores text. Score returns the probability in [0, 1] that text
// is phishing.
type Classifier interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Func adapts an ordinary function to the Classifier interface.
type Func func(ctx context.Context, text string) (float64, error)

// Score calls f(ctx, text).
func (f Func) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}
