package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/synqronlabs/phishcheck"
	"github.com/synqronlabs/phishcheck/classifier"
	"github.com/synqronlabs/phishcheck/config"
	"github.com/synqronlabs/phishcheck/metrics"
	"github.com/synqronlabs/phishcheck/tlscheck"
)

// Output formats for check.
const (
	formatText    = "text"
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

// evaluatorFactory builds the evaluator for one invocation.
type evaluatorFactory func(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*phishcheck.Evaluator, error)

func buildEvaluator(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*phishcheck.Evaluator, error) {
	b := phishcheck.New().
		Resolver(cfg.Resolver()).
		CertChecker(&tlscheck.Checker{Timeout: cfg.TLS.Timeout, Port: cfg.TLS.Port}).
		DNSTimeout(cfg.DNS.Timeout).
		TLSTimeout(cfg.TLS.Timeout).
		DMARCOrgFallback(cfg.DMARC.OrgFallback).
		Logger(logger).
		Metrics(m)

	if cfg.Classifier.Model != "" {
		nb, err := classifier.LoadModel(cfg.Classifier.Model)
		if err != nil {
			return nil, err
		}
		b.Classifier(nb, cfg.Classifier.Threshold, cfg.Classifier.Weight)
	}
	return b.Build()
}

type checkOptions struct {
	email    string
	url      string
	body     string
	bodyFile string
	format   string
	metrics  bool
}

func newCheckCmd(build evaluatorFactory) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a sender address and a link",
		Long: `Evaluate a sender address and a link and print the report.

Exits 0 when the message is classified Non-Phishing and 2 when it is
classified Phishing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, build, opts)
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "Sender email address")
	cmd.Flags().StringVar(&opts.url, "url", "", "URL found in the message")
	cmd.Flags().StringVar(&opts.body, "body", "", "Message text for the classifier")
	cmd.Flags().StringVar(&opts.bodyFile, "body-file", "", "Read message text from a file (- for stdin)")
	cmd.Flags().StringVar(&opts.format, "format", formatText, "Output format: text|json|msgpack")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print Prometheus metrics after the report")
	return cmd
}

func runCheck(cmd *cobra.Command, build evaluatorFactory, opts checkOptions) error {
	switch opts.format {
	case formatText, formatJSON, formatMsgpack:
	default:
		return fmt.Errorf("invalid --format %q (want text, json or msgpack)", opts.format)
	}
	if opts.email == "" && opts.url == "" {
		return errors.New("at least one of --email or --url is required")
	}
	if opts.body != "" && opts.bodyFile != "" {
		return errors.New("--body and --body-file are mutually exclusive")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	body := opts.body
	if opts.bodyFile != "" {
		if body, err = readBody(cmd, opts.bodyFile); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	evaluator, err := build(cfg, cfg.Logger(cmd.ErrOrStderr()), metrics.New(reg))
	if err != nil {
		return fmt.Errorf("build evaluator: %w", err)
	}

	report := evaluator.Inspect(cmd.Context(), phishcheck.Submission{
		Email: opts.email,
		URL:   opts.url,
		Body:  body,
	})

	out := cmd.OutOrStdout()
	if err := writeReport(out, report, opts.format); err != nil {
		return err
	}
	if opts.metrics {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}

	if report.Verdict.IsPhishing() {
		return &ExitError{code: exitPhishing}
	}
	return nil
}

func readBody(cmd *cobra.Command, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func writeReport(w io.Writer, report *phishcheck.Report, format string) error {
	switch format {
	case formatJSON:
		b, err := report.ToJSONIndent()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatMsgpack:
		b, err := report.ToMessagePack()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return report.WriteText(w)
	}
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
