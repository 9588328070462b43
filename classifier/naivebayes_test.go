package classifier

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `{
  "classes": {
    "phishing": {
      "prior": 0.5,
      "tokens": {
        "verify": -1.0,
        "account": -1.2,
        "urgent": -1.1,
        "verify account": -1.5
      }
    },
    "safe": {
      "prior": 0.5,
      "tokens": {
        "meeting": -1.0,
        "lunch": -1.1,
        "tomorrow": -1.2
      }
    }
  },
  "unknown_log_prob": -8.0
}`

func loadTestModel(t *testing.T) *NaiveBayes {
	t.Helper()
	nb, err := ReadModel(strings.NewReader(testModel))
	require.NoError(t, err)
	return nb
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"verify", "your", "account", "now", "2fa"}, Tokenize("Verify YOUR account, now! (2FA)"))
	assert.Empty(t, Tokenize(" ... "))
}

func TestFeatures(t *testing.T) {
	assert.Equal(t, []string{"verify", "account", "verify account"}, Features("verify account"))
	assert.Equal(t, []string{"hello"}, Features("Hello!"))
	assert.Nil(t, Features(""))
}

func TestNaiveBayes_Score(t *testing.T) {
	nb := loadTestModel(t)
	ctx := context.Background()

	phish, err := nb.Score(ctx, "URGENT: verify account")
	require.NoError(t, err)
	assert.Greater(t, phish, 0.99)

	safe, err := nb.Score(ctx, "lunch meeting tomorrow")
	require.NoError(t, err)
	assert.Less(t, safe, 0.01)

	neutral, err := nb.Score(ctx, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, neutral, 1e-9)
}

func TestNaiveBayes_ScoreBounded(t *testing.T) {
	nb := loadTestModel(t)
	long := strings.Repeat("verify account urgent ", 5000)
	p, err := nb.Score(context.Background(), long)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(p))
	assert.LessOrEqual(t, p, 1.0)
	assert.GreaterOrEqual(t, p, 0.0)
}

func TestNaiveBayes_ScoreCanceled(t *testing.T) {
	nb := loadTestModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := nb.Score(ctx, "verify")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadModel_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":         `{`,
		"unknown field":    `{"classes":{},"bogus":1}`,
		"missing safe":     `{"classes":{"phishing":{"prior":0.5,"tokens":{}}},"unknown_log_prob":-5}`,
		"prior zero":       `{"classes":{"phishing":{"prior":0,"tokens":{}},"safe":{"prior":0.5,"tokens":{}}},"unknown_log_prob":-5}`,
		"positive token":   `{"classes":{"phishing":{"prior":0.5,"tokens":{"a":1}},"safe":{"prior":0.5,"tokens":{}}},"unknown_log_prob":-5}`,
		"positive unknown": `{"classes":{"phishing":{"prior":0.5,"tokens":{}},"safe":{"prior":0.5,"tokens":{}}},"unknown_log_prob":2}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadModel(strings.NewReader(data))
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(testModel), 0o600))

	nb, err := LoadModel(path)
	require.NoError(t, err)
	p, err := nb.Score(context.Background(), "verify")
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidModel))
}

func TestFunc(t *testing.T) {
	var c Classifier = Func(func(_ context.Context, text string) (float64, error) {
		if text == "" {
			return 0, errors.New("empty")
		}
		return 0.75, nil
	})

	p, err := c.Score(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 0.75, p)

	_, err = c.Score(context.Background(), "")
	assert.Error(t, err)
}
