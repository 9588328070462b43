package phishcheck

import (
	"log/slog"
	"time"

	"github.com/synqronlabs/phishcheck/classifier"
	"github.com/synqronlabs/phishcheck/dns"
	"github.com/synqronlabs/phishcheck/metrics"
)

// Builder provides a fluent API for configuring an Evaluator.
type Builder struct {
	config EvaluatorConfig
}

// New creates a new Builder with default settings.
func New() *Builder {
	return &Builder{config: DefaultEvaluatorConfig()}
}

// Resolver sets the DNS resolver used by the SPF, DMARC and URL checks.
func (b *Builder) Resolver(r dns.Resolver) *Builder {
	b.config.Resolver = r
	return b
}

// CertChecker sets the certificate checker.
func (b *Builder) CertChecker(c CertChecker) *Builder {
	b.config.CertChecker = c
	return b
}

// Classifier enables the text classification signal. Bodies scoring at or
// above threshold add weight to the score.
func (b *Builder) Classifier(c classifier.Classifier, threshold float64, weight int) *Builder {
	b.config.Classifier = c
	b.config.ClassifierThreshold = threshold
	b.config.ClassifierWeight = weight
	return b
}

// DNSTimeout sets the deadline for each DNS-based check.
func (b *Builder) DNSTimeout(d time.Duration) *Builder {
	b.config.DNSTimeout = d
	return b
}

// TLSTimeout sets the deadline for the certificate check.
func (b *Builder) TLSTimeout(d time.Duration) *Builder {
	b.config.TLSTimeout = d
	return b
}

// ClassifierTimeout sets the deadline for the classifier.
func (b *Builder) ClassifierTimeout(d time.Duration) *Builder {
	b.config.ClassifierTimeout = d
	return b
}

// DMARCOrgFallback retries the organizational domain when a subdomain
// publishes no DMARC record.
func (b *Builder) DMARCOrgFallback(enabled bool) *Builder {
	b.config.DMARCOrgFallback = enabled
	return b
}

// Logger sets the structured logger.
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.config.Logger = logger
	return b
}

// Metrics sets the Prometheus instrumentation.
func (b *Builder) Metrics(m *metrics.Metrics) *Builder {
	b.config.Metrics = m
	return b
}

// Clock sets the time source for report timestamps.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.config.Now = now
	return b
}

// Build creates the Evaluator.
func (b *Builder) Build() (*Evaluator, error) {
	return NewEvaluator(b.config)
}
