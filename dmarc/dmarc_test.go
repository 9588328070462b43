package dmarc

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/dns"
)

func TestParseBad(t *testing.T) {
	bad := func(s string) {
		t.Helper()
		_, isDMARC, err := ParseRecord(s)
		if !isDMARC {
			t.Fatalf("%q not recognized as DMARC", s)
		}
		if !errors.Is(err, ErrSyntax) {
			t.Fatalf("got %v for %q, expected ErrSyntax", err, s)
		}
	}

	bad("v=DMARC1")                     // missing p, no rua
	bad("v=DMARC1;")                    // missing p, no rua
	bad("v=DMARC1; p=none; p=none")     // dup
	bad("v=DMARC1; p=badvalue")         // bad policy
	bad("v=DMARC1; p=none; sp=bad")     // bad subdomain policy
	bad("v=DMARC1; p=none; adkim=x")    // bad value
	bad("v=DMARC1; p=none; aspf=123")   // bad value
	bad("v=DMARC1; p=none; pct=110")    // out of range
	bad("v=DMARC1; p=none; pct=bogus")  // not a number
	bad("v=DMARC1; p=none; rua=bogus")  // not a URI
	bad("v=DMARC1; p=reject; P=reject") // dup, case-insensitive
}

func TestParseValid(t *testing.T) {
	record := func(r Record) Record {
		rr := DefaultRecord
		rr.Policy = r.Policy
		rr.SubdomainPolicy = r.SubdomainPolicy
		rr.AggregateReportAddresses = r.AggregateReportAddresses
		if r.ADKIM != "" {
			rr.ADKIM = r.ADKIM
		}
		if r.Percentage != 0 {
			rr.Percentage = r.Percentage
		}
		return rr
	}

	valid := func(s string, exp Record) {
		t.Helper()
		r, isDMARC, err := ParseRecord(s)
		if !isDMARC || err != nil {
			t.Fatalf("ParseRecord(%q) = isDMARC %v, err %v", s, isDMARC, err)
		}
		if !reflect.DeepEqual(*r, exp) {
			t.Fatalf("ParseRecord(%q):\n got %#v\nwant %#v", s, *r, exp)
		}
	}

	valid("v=DMARC1; p=reject", record(Record{Policy: PolicyReject}))
	valid("v=DMARC1;p=none;", record(Record{Policy: PolicyNone}))
	valid("v = DMARC1 ; p = Quarantine", record(Record{Policy: PolicyQuarantine}))
	valid("v=DMARC1; rua=mailto:agg@example.com", record(Record{
		Policy:                   PolicyNone,
		AggregateReportAddresses: []string{"mailto:agg@example.com"},
	}))
	valid("v=DMARC1; p=reject; sp=none; adkim=s; pct=20; fo=1", record(Record{
		Policy:          PolicyReject,
		SubdomainPolicy: PolicyNone,
		ADKIM:           AlignStrict,
		Percentage:      20,
	}))
}

func TestIsRecord(t *testing.T) {
	tests := []struct {
		txt  string
		want bool
	}{
		{"v=DMARC1; p=none", true},
		{"v=DMARC1", true},
		{"v=dmarc1; p=none", false}, // version value is case-sensitive
		{"v=DMARC12; p=none", false},
		{"v=spf1 -all", false},
		{"p=none; v=DMARC1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsRecord(tt.txt); got != tt.want {
			t.Errorf("IsRecord(%q) = %v, want %v", tt.txt, got, tt.want)
		}
	}
}

func TestRecordString(t *testing.T) {
	r := DefaultRecord
	r.Policy = PolicyReject
	r.AggregateReportAddresses = []string{"mailto:a@example.com"}
	r.Percentage = 50
	want := "v=DMARC1; p=reject; rua=mailto:a@example.com; pct=50"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func testResolver() dns.MockResolver {
	return dns.MockResolver{
		TXT: map[string][]string{
			"_dmarc.good.example.":   {"v=DMARC1; p=reject; rua=mailto:dmarc@good.example"},
			"_dmarc.sloppy.example.": {"v=DMARC1; p=sometimes"},
			"_dmarc.other.example.":  {"v=spf1 -all"},
			"_dmarc.example.co.uk.":  {"v=DMARC1; p=quarantine"},
			"_dmarc.empty.example.":  nil,
			"mail.example.co.uk.":    {"v=spf1 -all"},
		},
		Fail:    []string{"txt _dmarc.broken.example."},
		Timeout: []string{"txt _dmarc.slow.example."},
	}
}

func TestCheck(t *testing.T) {
	resolver := testResolver()

	tests := []struct {
		domain     string
		wantStatus check.Status
		wantDetail string
		wantPolicy Policy
	}{
		{"good.example", check.StatusSuccess, "v=DMARC1; p=reject; rua=mailto:dmarc@good.example", PolicyReject},
		{"GOOD.example.", check.StatusSuccess, "v=DMARC1; p=reject", PolicyReject},
		{"sloppy.example", check.StatusSuccess, "v=DMARC1; p=sometimes", ""},
		{"other.example", check.StatusNoAnswer, "No DMARC record found.", ""},
		{"empty.example", check.StatusNoAnswer, "No DMARC record found in the DNS records.", ""},
		{"absent.example", check.StatusNotFound, "No DNS records found for the domain.", ""},
		{"slow.example", check.StatusTimedOut, "DNS query timed out for DMARC check.", ""},
		{"broken.example", check.StatusProtocolError, "DMARC check error:", ""},
		{" ", check.StatusProtocolError, "DMARC check error: empty domain", ""},
		{"foo..bar", check.StatusProtocolError, "DMARC check error: invalid domain", ""},
		{"exa mple.com", check.StatusProtocolError, "DMARC check error: invalid domain", ""},
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
			var policy Policy
			if res.Record != nil {
				policy = res.Record.Policy
			}
			if policy != tt.wantPolicy {
				t.Errorf("Policy = %q, want %q", policy, tt.wantPolicy)
			}
		})
	}
}

func TestCheckOrganizational(t *testing.T) {
	resolver := testResolver()
	ctx := context.Background()

	res := CheckOrganizational(ctx, resolver, "mail.example.co.uk")
	if !res.OK() {
		t.Fatalf("Status = %v, want success via organizational domain", res.Status)
	}
	if res.Domain != "example.co.uk" {
		t.Errorf("Domain = %q, want example.co.uk", res.Domain)
	}

	// Without the fallback the subdomain has no record.
	if plain := Check(ctx, resolver, "mail.example.co.uk"); plain.OK() {
		t.Errorf("Check() unexpectedly succeeded: %+v", plain)
	}

	// Organizational domain itself: no second lookup.
	res = CheckOrganizational(ctx, resolver, "absent.example")
	if res.Status != check.StatusNotFound || res.Domain != "absent.example" {
		t.Errorf("CheckOrganizational(absent.example) = %+v", res)
	}
}

func TestOrganizationalDomain(t *testing.T) {
	tests := map[string]string{
		"example.com":        "example.com",
		"sub.example.com":    "example.com",
		"a.b.example.co.uk.": "example.co.uk",
		"localhost":          "localhost",
		"":                   "",
	}
	for in, want := range tests {
		if got := OrganizationalDomain(in); got != want {
			t.Errorf("OrganizationalDomain(%q) = %q, want %q", in, got, want)
		}
	}
	if !IsOrganizationalDomain("example.com") || IsOrganizationalDomain("www.example.com") {
		t.Error("IsOrganizationalDomain mismatch")
	}
}
