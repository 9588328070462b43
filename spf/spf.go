// Package spf looks up the Sender Policy Framework record a domain publishes
// in DNS (RFC 7208). It reports whether a policy exists; it does not
// evaluate the policy against a sending IP.
package spf

import (
	"context"
	"strings"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/dns"
)

// Result is the outcome of an SPF policy lookup.
type Result struct {
	check.Outcome

	// Record is the parsed policy, nil unless the lookup succeeded and the
	// record parsed cleanly.
	Record *Record

	// ParseErr is set when the record carries the marker but its terms are
	// malformed. The outcome is still a success.
	ParseErr error

	// Authentic indicates if the DNS response was DNSSEC-validated.
	Authentic bool
}

// Check queries the TXT records of domain and reports the first one that
// carries the "v=spf1" marker.
func Check(ctx context.Context, resolver dns.Resolver, domain string) (res Result) {
	defer check.Recover(&res.Outcome)

	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return Result{Outcome: check.New(check.StatusProtocolError, "SPF check error: empty domain")}
	}
	if !dns.IsValidName(domain) {
		return Result{Outcome: check.Newf(check.StatusProtocolError, "SPF check error: invalid domain %q", domain)}
	}

	result, err := resolver.LookupTXT(ctx, domain)
	res.Authentic = result.Authentic
	if err != nil {
		switch check.StatusFromDNSError(err) {
		case check.StatusNotFound:
			res.Outcome = check.New(check.StatusNotFound, "No DNS records found for the domain.")
		case check.StatusNoAnswer:
			res.Outcome = check.New(check.StatusNoAnswer, "No SPF record found in the DNS records.")
		case check.StatusTimedOut:
			res.Outcome = check.New(check.StatusTimedOut, "DNS query timed out for SPF check.")
		default:
			res.Outcome = check.Newf(check.StatusProtocolError, "SPF check error: %v", err)
		}
		return res
	}

	for _, txt := range result.Records {
		record, isSPF, perr := ParseRecord(txt)
		if !isSPF {
			continue
		}
		res.Outcome = check.New(check.StatusSuccess, txt)
		res.ParseErr = perr
		if perr == nil {
			res.Record = record
		}
		return res
	}

	res.Outcome = check.New(check.StatusNoAnswer, "No SPF record found.")
	return res
}
