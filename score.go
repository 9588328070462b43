package phishcheck

import (
	"github.com/synqronlabs/phishcheck/check"
)

// CheckOutcome is the result of one checker invocation.
type CheckOutcome = check.Outcome

// Source identifies the check a signal was derived from.
type Source string

const (
	SourceSPF        Source = "spf"
	SourceDMARC      Source = "dmarc"
	SourceURL        Source = "url"
	SourceTLS        Source = "tls"
	SourceClassifier Source = "classifier"
)

// Classification is the binary label of a verdict.
type Classification string

const (
	Phishing    Classification = "Phishing"
	NonPhishing Classification = "Non-Phishing"
)

// Reasons attached to positive signals.
const (
	ReasonSPF        = "SPF validation failed."
	ReasonDMARC      = "DMARC validation failed."
	ReasonURL        = "The URL is invalid or does not exist."
	ReasonTLS        = "The SSL certificate is invalid or expired."
	ReasonClassifier = "The message content resembles known phishing text."
)

// Signal is the weighted contribution of one check to the score.
type Signal struct {
	Source Source `json:"source"`
	Weight int    `json:"weight"`
	Reason string `json:"reason,omitempty"`
}

// Verdict is the final classification. Classification is Phishing iff
// Score > 0.
type Verdict struct {
	Classification Classification `json:"classification"`
	Score          int            `json:"score"`
	Reasons        []string       `json:"reasons"`
}

// IsPhishing reports whether the verdict is Phishing.
func (v Verdict) IsPhishing() bool {
	return v.Classification == Phishing
}

// ClassifierResult is the text classifier's contribution to an evaluation.
type ClassifierResult struct {
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
	Weight      int     `json:"weight"`
}

// Outcomes collects the outcome of every check in one evaluation.
type Outcomes struct {
	SPF   CheckOutcome `json:"spf"`
	DMARC CheckOutcome `json:"dmarc"`
	URL   CheckOutcome `json:"url"`

	// TLS is Skipped whenever URL did not succeed.
	TLS CheckOutcome `json:"tls"`

	// Classifier is nil when no classifier ran or it failed.
	Classifier *ClassifierResult `json:"classifier,omitempty"`
}

// Signals derives the weighted signals from o in evaluation order.
func Signals(o Outcomes) []Signal {
	signals := []Signal{
		authSignal(SourceSPF, o.SPF, ReasonSPF),
		authSignal(SourceDMARC, o.DMARC, ReasonDMARC),
	}

	switch {
	case !o.URL.Skipped && (o.URL.Status == check.StatusNotFound || o.URL.Status == check.StatusProtocolError):
		// An unusable URL outweighs its certificate.
		signals = append(signals, Signal{Source: SourceURL, Weight: 2, Reason: ReasonURL})
	default:
		signals = append(signals, Signal{Source: SourceURL}, tlsSignal(o.TLS))
	}

	if c := o.Classifier; c != nil {
		s := Signal{Source: SourceClassifier}
		if c.Probability >= c.Threshold {
			s.Weight = c.Weight
			if s.Weight > 0 {
				s.Reason = ReasonClassifier
			}
		}
		signals = append(signals, s)
	}

	return signals
}

func authSignal(src Source, o CheckOutcome, reason string) Signal {
	switch {
	case o.OK():
		return Signal{Source: src, Weight: -1}
	case o.Failed():
		return Signal{Source: src, Weight: 1, Reason: reason}
	default:
		return Signal{Source: src}
	}
}

func tlsSignal(o CheckOutcome) Signal {
	switch {
	case o.Skipped:
		return Signal{Source: SourceTLS}
	case o.OK():
		return Signal{Source: SourceTLS, Weight: -1}
	case o.Status == check.StatusProtocolError, o.Status == check.StatusUnreachable:
		return Signal{Source: SourceTLS, Weight: 1, Reason: ReasonTLS}
	default:
		return Signal{Source: SourceTLS}
	}
}

// Tally sums signals into a verdict.
func Tally(signals []Signal) Verdict {
	v := Verdict{Reasons: []string{}}
	for _, s := range signals {
		v.Score += s.Weight
		if s.Reason != "" {
			v.Reasons = append(v.Reasons, s.Reason)
		}
	}
	if v.Score > 0 {
		v.Classification = Phishing
	} else {
		v.Classification = NonPhishing
	}
	return v
}

// Score computes the verdict for o. It is a pure function of its input.
func Score(o Outcomes) Verdict {
	return Tally(Signals(o))
}
