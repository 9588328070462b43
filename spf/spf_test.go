package spf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/dns"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSPF   bool
		wantErr   error
		wantAll   string
		checkFunc func(t *testing.T, r *Record)
	}{
		{
			name:    "fail all",
			input:   "v=spf1 -all",
			wantSPF: true,
			wantAll: "-",
		},
		{
			name:    "default qualifier",
			input:   "v=spf1 all",
			wantSPF: true,
			wantAll: "+",
		},
		{
			name:    "no all",
			input:   "v=spf1 include:_spf.example.com",
			wantSPF: true,
			wantAll: "",
		},
		{
			name:    "mixed case marker",
			input:   "V=SPF1 mx ~all",
			wantSPF: true,
			wantAll: "~",
		},
		{
			name:    "mechanisms and modifiers",
			input:   "v=spf1 ip4:192.0.2.0/24 a:colo.example.com/28 redirect=_spf.Example.com exp=explain.example.com foo=bar",
			wantSPF: true,
			checkFunc: func(t *testing.T, r *Record) {
				if len(r.Directives) != 2 {
					t.Fatalf("expected 2 directives, got %d", len(r.Directives))
				}
				if r.Directives[0].Mechanism != "ip4" || r.Directives[0].Value != ":192.0.2.0/24" {
					t.Errorf("unexpected first directive %+v", r.Directives[0])
				}
				if r.Redirect != "_spf.example.com" {
					t.Errorf("Redirect = %q", r.Redirect)
				}
				if r.Explanation != "explain.example.com" {
					t.Errorf("Explanation = %q", r.Explanation)
				}
				if len(r.Other) != 1 || r.Other[0].Key != "foo" {
					t.Errorf("Other = %+v", r.Other)
				}
			},
		},
		{
			name:    "marker needs a boundary",
			input:   "v=spf10 -all",
			wantSPF: false,
		},
		{
			name:    "not spf",
			input:   "google-site-verification=abc",
			wantSPF: false,
		},
		{
			name:    "unknown mechanism",
			input:   "v=spf1 bogus -all",
			wantSPF: true,
			wantErr: ErrInvalidMechanism,
		},
		{
			name:    "all with argument",
			input:   "v=spf1 all:example.com",
			wantSPF: true,
			wantErr: ErrRecordSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, isSPF, err := ParseRecord(tt.input)
			if isSPF != tt.wantSPF {
				t.Fatalf("isSPF = %v, want %v", isSPF, tt.wantSPF)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !isSPF {
				return
			}
			if got := r.All(); got != tt.wantAll && tt.checkFunc == nil {
				t.Errorf("All() = %q, want %q", got, tt.wantAll)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, r)
			}
		})
	}
}

func TestRecordString(t *testing.T) {
	in := "v=spf1 ip4:192.0.2.0/24 -all redirect=example.net"
	r, _, err := ParseRecord(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.String(); got != in {
		t.Errorf("String() = %q, want %q", got, in)
	}
}

func TestCheck(t *testing.T) {
	resolver := dns.MockResolver{
		TXT: map[string][]string{
			"good.example.":   {"google-site-verification=xyz", "v=spf1 include:_spf.good.example -all"},
			"other.example.":  {"some unrelated text"},
			"sloppy.example.": {"v=spf1 bogus ~all"},
		},
		A: map[string][]string{
			"bare.example.": {"192.0.2.1"},
		},
		Fail:    []string{"txt broken.example."},
		Timeout: []string{"txt slow.example."},
	}

	tests := []struct {
		domain     string
		wantStatus check.Status
		wantDetail string
		wantRecord bool
	}{
		{"good.example", check.StatusSuccess, "v=spf1 include:_spf.good.example -all", true},
		{"good.example.", check.StatusSuccess, "v=spf1 include:_spf.good.example -all", true},
		{"sloppy.example", check.StatusSuccess, "v=spf1 bogus ~all", false},
		{"other.example", check.StatusNoAnswer, "No SPF record found.", false},
		{"bare.example", check.StatusNoAnswer, "No SPF record found in the DNS records.", false},
		{"absent.example", check.StatusNotFound, "No DNS records found for the domain.", false},
		{"slow.example", check.StatusTimedOut, "DNS query timed out for SPF check.", false},
		{"broken.example", check.StatusProtocolError, "SPF check error:", false},
		{"", check.StatusProtocolError, "SPF check error: empty domain", false},
		{"exa..mple.com", check.StatusProtocolError, "SPF check error: invalid domain", false},
		{`a.b"c`, check.StatusProtocolError, "SPF check error: invalid domain", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			res := Check(context.Background(), resolver, tt.domain)
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v (%s)", res.Status, tt.wantStatus, res.Detail)
			}
			if !strings.HasPrefix(res.Detail, tt.wantDetail) {
				t.Errorf("Detail = %q, want prefix %q", res.Detail, tt.wantDetail)
			}
			if (res.Record != nil) != tt.wantRecord {
				t.Errorf("Record = %v, wantRecord %v", res.Record, tt.wantRecord)
			}
		})
	}
}
