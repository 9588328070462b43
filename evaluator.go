package phishcheck

//go:generate mockgen -source=evaluator.go -destination=mocks/mocks.go -package=mocks CertChecker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/classifier"
	"github.com/synqronlabs/phishcheck/dmarc"
	"github.com/synqronlabs/phishcheck/dns"
	"github.com/synqronlabs/phishcheck/metrics"
	"github.com/synqronlabs/phishcheck/spf"
	"github.com/synqronlabs/phishcheck/tlscheck"
	"github.com/synqronlabs/phishcheck/urlcheck"
)

// Skip details for checks that had no input.
const (
	detailNoDomain = "no domain found in email"
	detailNoURL    = "no URL provided"
	detailNoTLS    = "certificate check not run: URL did not resolve"
)

// CertChecker inspects the TLS certificate served by a host.
type CertChecker interface {
	Check(ctx context.Context, host string) tlscheck.Result
}

// EvaluatorConfig contains configuration options for an Evaluator.
// Prefer using the builder pattern via phishcheck.New().
type EvaluatorConfig struct {
	Resolver            dns.Resolver
	CertChecker         CertChecker
	Classifier          classifier.Classifier
	ClassifierThreshold float64
	ClassifierWeight    int
	DNSTimeout          time.Duration
	TLSTimeout          time.Duration
	ClassifierTimeout   time.Duration
	DMARCOrgFallback    bool
	Logger              *slog.Logger
	Metrics             *metrics.Metrics
	Now                 func() time.Time
}

// DefaultEvaluatorConfig returns an EvaluatorConfig with sensible defaults.
// Resolver and CertChecker are created by NewEvaluator when left nil.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		ClassifierThreshold: 0.5,
		ClassifierWeight:    1,
		DNSTimeout:          5 * time.Second,
		TLSTimeout:          5 * time.Second,
		ClassifierTimeout:   5 * time.Second,
		Logger:              slog.Default(),
		Now:                 time.Now,
	}
}

// Evaluator runs the checks for a submission and scores them. It holds only
// immutable configuration and is safe for concurrent use.
type Evaluator struct {
	config EvaluatorConfig
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator from config, filling unset collaborators.
func NewEvaluator(config EvaluatorConfig) (*Evaluator, error) {
	if config.ClassifierThreshold < 0 || config.ClassifierThreshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, config.ClassifierThreshold)
	}
	if config.DNSTimeout < 0 || config.TLSTimeout < 0 || config.ClassifierTimeout < 0 {
		return nil, ErrInvalidTimeout
	}

	defaults := DefaultEvaluatorConfig()
	if config.DNSTimeout == 0 {
		config.DNSTimeout = defaults.DNSTimeout
	}
	if config.TLSTimeout == 0 {
		config.TLSTimeout = defaults.TLSTimeout
	}
	if config.ClassifierTimeout == 0 {
		config.ClassifierTimeout = defaults.ClassifierTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	if config.Resolver == nil {
		config.Resolver = dns.NewResolver(dns.ResolverConfig{Timeout: config.DNSTimeout})
	}
	if config.CertChecker == nil {
		config.CertChecker = &tlscheck.Checker{Timeout: config.TLSTimeout}
	}

	return &Evaluator{
		config: config,
		logger: config.Logger,
	}, nil
}

// Evaluate checks the sender domain of email and the host of url and returns
// the verdict. It never fails: every checker error becomes an outcome.
func (e *Evaluator) Evaluate(ctx context.Context, email, url string) Verdict {
	return e.Inspect(ctx, Submission{Email: email, URL: url}).Verdict
}

// Inspect evaluates sub and returns the full report.
func (e *Evaluator) Inspect(ctx context.Context, sub Submission) *Report {
	start := time.Now()
	now := e.config.Now()

	report := &Report{
		ID:          newID(now),
		EvaluatedAt: now.UTC(),
		Email:       sub.Email,
		URL:         sub.URL,
	}

	domain, err := DomainFromEmail(sub.Email)
	if err == nil {
		report.Domain = domain
	}

	g, gctx := errgroup.WithContext(ctx)

	if domain == "" {
		report.Outcomes.SPF = check.Skip(detailNoDomain)
		report.Outcomes.DMARC = check.Skip(detailNoDomain)
	} else {
		g.Go(func() error {
			report.Outcomes.SPF = e.run(gctx, "spf", e.config.DNSTimeout, func(ctx context.Context) check.Outcome {
				res := spf.Check(ctx, e.config.Resolver, domain)
				if res.Record != nil {
					report.SPFRecord = res.Record.String()
					report.SPFAll = res.Record.All()
				}
				return res.Outcome
			})
			return nil
		})

		g.Go(func() error {
			report.Outcomes.DMARC = e.run(gctx, "dmarc", e.config.DNSTimeout, func(ctx context.Context) check.Outcome {
				var res dmarc.Result
				if e.config.DMARCOrgFallback {
					res = dmarc.CheckOrganizational(ctx, e.config.Resolver, domain)
				} else {
					res = dmarc.Check(ctx, e.config.Resolver, domain)
				}
				report.DMARCDomain = res.Domain
				if res.Record != nil {
					report.DMARCPolicy = string(res.Record.Policy)
				}
				return res.Outcome
			})
			return nil
		})
	}

	if sub.URL == "" {
		report.Outcomes.URL = check.Skip(detailNoURL)
		report.Outcomes.TLS = check.Skip(detailNoURL)
	} else {
		g.Go(func() error {
			e.urlChain(gctx, sub.URL, report)
			return nil
		})
	}

	if e.config.Classifier != nil && sub.Body != "" {
		g.Go(func() error {
			report.Outcomes.Classifier = e.classify(gctx, sub.Body)
			return nil
		})
	}

	_ = g.Wait()

	report.Signals = Signals(report.Outcomes)
	report.Verdict = Tally(report.Signals)
	report.Duration = time.Since(start)

	e.config.Metrics.IncrementVerdict(string(report.Verdict.Classification))
	e.config.Metrics.ObserveEvaluateLatency(report.Duration)

	e.logger.Info("evaluation complete",
		slog.String("evaluation_id", report.ID),
		slog.String("domain", report.Domain),
		slog.String("classification", string(report.Verdict.Classification)),
		slog.Int("score", report.Verdict.Score),
		slog.Duration("duration", report.Duration),
	)

	return report
}

// urlChain resolves the URL host and, when it resolves, checks its
// certificate.
func (e *Evaluator) urlChain(ctx context.Context, rawURL string, report *Report) {
	var host string
	report.Outcomes.URL = e.run(ctx, "url", e.config.DNSTimeout, func(ctx context.Context) check.Outcome {
		res := urlcheck.Check(ctx, e.config.Resolver, rawURL)
		host = res.Host
		report.Host = res.Host
		for _, ip := range res.Addresses {
			report.Addresses = append(report.Addresses, ip.String())
		}
		return res.Outcome
	})

	if !report.Outcomes.URL.OK() {
		report.Outcomes.TLS = check.Skip(detailNoTLS)
		return
	}

	report.Outcomes.TLS = e.run(ctx, "tls", e.config.TLSTimeout, func(ctx context.Context) check.Outcome {
		res := e.config.CertChecker.Check(ctx, host)
		report.Certificate = res.Cert
		return res.Outcome
	})
}

// classify scores body. Classifier failures are logged and yield nil.
func (e *Evaluator) classify(ctx context.Context, body string) (result *ClassifierResult) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ClassifierTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("classifier panicked", slog.Any("panic", r))
			result = nil
		}
	}()

	p, err := e.config.Classifier.Score(ctx, body)
	d := time.Since(start)
	if err != nil {
		e.config.Metrics.ObserveCheck("classifier", "error", d)
		e.logger.Warn("classifier failed", slog.Any("error", err), slog.Duration("duration", d))
		return nil
	}

	e.config.Metrics.ObserveCheck("classifier", "success", d)
	e.logger.Debug("check complete",
		slog.String("check", "classifier"),
		slog.Float64("probability", p),
		slog.Duration("duration", d),
	)
	return &ClassifierResult{
		Probability: p,
		Threshold:   e.config.ClassifierThreshold,
		Weight:      e.config.ClassifierWeight,
	}
}

// run executes fn under its own deadline, converting a panic into a
// ProtocolError outcome, and records the result.
func (e *Evaluator) run(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) check.Outcome) check.Outcome {
	start := time.Now()
	out := e.guard(ctx, timeout, fn)
	d := time.Since(start)

	e.config.Metrics.ObserveCheck(name, out.Status.String(), d)
	e.logger.Debug("check complete",
		slog.String("check", name),
		slog.String("status", out.Status.String()),
		slog.String("detail", out.Detail),
		slog.Duration("duration", d),
	)
	return out
}

func (e *Evaluator) guard(ctx context.Context, timeout time.Duration, fn func(context.Context) check.Outcome) (out check.Outcome) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer check.Recover(&out)
	return fn(ctx)
}
