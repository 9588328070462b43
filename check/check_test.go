package check

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/synqronlabs/phishcheck/dns"
)

func TestStatusFromDNSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusSuccess},
		{"nxdomain", dns.ErrDNSNotFound, StatusNotFound},
		{"nodata", dns.ErrDNSNoAnswer, StatusNoAnswer},
		{"timeout", dns.ErrDNSTimeout, StatusTimedOut},
		{"wrapped timeout", fmt.Errorf("lookup: %w", dns.ErrDNSTimeout), StatusTimedOut},
		{"deadline", context.DeadlineExceeded, StatusTimedOut},
		{"canceled", context.Canceled, StatusTimedOut},
		{"servfail", dns.ErrDNSServFail, StatusProtocolError},
		{"unknown", errors.New("boom"), StatusProtocolError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromDNSError(tt.err); got != tt.want {
				t.Errorf("StatusFromDNSError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewNeverEmpty(t *testing.T) {
	o := New(StatusTimedOut, "")
	if o.Detail == "" {
		t.Error("Detail should never be empty")
	}
}

func TestSkip(t *testing.T) {
	o := Skip("no URL provided")
	if !o.Skipped || o.Status != StatusNoAnswer {
		t.Errorf("Skip() = %+v, want skipped no_answer", o)
	}
	if o.Failed() {
		t.Error("skipped outcome must not count as failed")
	}
	if New(StatusNoAnswer, "x").Failed() != true {
		t.Error("real no_answer outcome must count as failed")
	}
}

func TestRecover(t *testing.T) {
	run := func() (out Outcome) {
		defer Recover(&out)
		panic("kaboom")
	}
	out := run()
	if out.Status != StatusProtocolError || !strings.Contains(out.Detail, "kaboom") {
		t.Errorf("Recover() = %+v", out)
	}
}
