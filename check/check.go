// Package check defines the outcome value every checker produces.
package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/synqronlabs/phishcheck/dns"
)

// Status classifies how a single check ended.
type Status string

const (
	// StatusSuccess indicates the check found the evidence it looked for.
	StatusSuccess Status = "success"

	// StatusNotFound indicates the queried name has no DNS presence at all.
	StatusNotFound Status = "not_found"

	// StatusNoAnswer indicates the name exists but the evidence is absent.
	StatusNoAnswer Status = "no_answer"

	// StatusTimedOut indicates the check exceeded its deadline.
	StatusTimedOut Status = "timed_out"

	// StatusProtocolError covers malformed input, verification failures and
	// every error not classified otherwise.
	StatusProtocolError Status = "protocol_error"

	// StatusUnreachable indicates the remote endpoint refused or could not
	// be reached.
	StatusUnreachable Status = "unreachable"
)

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// Outcome is the result of one checker invocation.
type Outcome struct {
	Status Status `json:"status"`

	// Detail carries the evidence or diagnostic. Never empty.
	Detail string `json:"detail"`

	// Skipped marks an outcome synthesized because the input needed for the
	// check was absent or malformed. Skipped outcomes are neutral in scoring.
	Skipped bool `json:"skipped,omitempty"`
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Failed reports whether the outcome is a real, non-successful check.
func (o Outcome) Failed() bool {
	return !o.Skipped && o.Status != StatusSuccess
}

// String formats the outcome for logs.
func (o Outcome) String() string {
	if o.Skipped {
		return fmt.Sprintf("%s (skipped): %s", o.Status, o.Detail)
	}
	return fmt.Sprintf("%s: %s", o.Status, o.Detail)
}

// New returns an outcome with the given status and detail. An empty detail
// is replaced by the status name.
func New(status Status, detail string) Outcome {
	if detail == "" {
		detail = status.String()
	}
	return Outcome{Status: status, Detail: detail}
}

// Newf is New with a format string.
func Newf(status Status, format string, args ...any) Outcome {
	return New(status, fmt.Sprintf(format, args...))
}

// Skip returns a neutral NoAnswer outcome for a check that was not run.
func Skip(detail string) Outcome {
	o := New(StatusNoAnswer, detail)
	o.Skipped = true
	return o
}

// StatusFromDNSError maps a resolver error to a status.
func StatusFromDNSError(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case dns.IsNotFound(err):
		return StatusNotFound
	case dns.IsNoAnswer(err):
		return StatusNoAnswer
	case dns.IsTimeout(err), errors.Is(err, context.Canceled):
		return StatusTimedOut
	default:
		return StatusProtocolError
	}
}

// Recover converts a panic in a checker into a ProtocolError outcome.
// Use it as: defer check.Recover(&out).
func Recover(out *Outcome) {
	if r := recover(); r != nil {
		*out = Newf(StatusProtocolError, "check panicked: %v", r)
	}
}
