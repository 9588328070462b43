package dmarc

import (
	"context"
	"errors"
	"strings"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/dns"
)

// ErrSyntax indicates the DMARC record has invalid syntax.
var ErrSyntax = errors.New("dmarc: malformed DMARC DNS record")

// Policy determines how receivers should handle messages that fail DMARC.
type Policy string

const (
	// PolicyNone requests no specific action be taken for failing messages.
	PolicyNone Policy = "none"

	// PolicyQuarantine requests that failing messages be treated as suspicious.
	PolicyQuarantine Policy = "quarantine"

	// PolicyReject requests that failing messages be rejected.
	PolicyReject Policy = "reject"
)

// Align specifies the alignment mode for identifier comparison.
type Align string

const (
	// AlignRelaxed requires the organizational domains to match.
	AlignRelaxed Align = "r"

	// AlignStrict requires exact domain matches.
	AlignStrict Align = "s"
)

// Result is the outcome of a DMARC policy lookup.
type Result struct {
	check.Outcome

	// Domain is the domain whose _dmarc record produced the outcome. It is
	// the organizational domain when the fallback was used.
	Domain string

	// Record is the parsed policy, nil unless the lookup succeeded and the
	// record parsed cleanly.
	Record *Record

	// ParseErr is set when the record carries the version tag but the other
	// tags are malformed. The outcome is still a success.
	ParseErr error

	// Authentic indicates if the DNS response was DNSSEC-validated.
	Authentic bool
}

// Check queries the TXT records at "_dmarc.<domain>" and reports the first
// one that starts with "v=DMARC1".
func Check(ctx context.Context, resolver dns.Resolver, domain string) (res Result) {
	defer check.Recover(&res.Outcome)

	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if domain == "" {
		return Result{Outcome: check.New(check.StatusProtocolError, "DMARC check error: empty domain")}
	}
	if !dns.IsValidName(domain) {
		return Result{Outcome: check.Newf(check.StatusProtocolError, "DMARC check error: invalid domain %q", domain)}
	}
	res.Domain = domain

	result, err := resolver.LookupTXT(ctx, "_dmarc."+domain)
	res.Authentic = result.Authentic
	if err != nil {
		switch check.StatusFromDNSError(err) {
		case check.StatusNotFound:
			res.Outcome = check.New(check.StatusNotFound, "No DNS records found for the domain.")
		case check.StatusNoAnswer:
			res.Outcome = check.New(check.StatusNoAnswer, "No DMARC record found in the DNS records.")
		case check.StatusTimedOut:
			res.Outcome = check.New(check.StatusTimedOut, "DNS query timed out for DMARC check.")
		default:
			res.Outcome = check.Newf(check.StatusProtocolError, "DMARC check error: %v", err)
		}
		return res
	}

	for _, txt := range result.Records {
		record, isDMARC, perr := ParseRecord(txt)
		if !isDMARC {
			continue
		}
		res.Outcome = check.New(check.StatusSuccess, txt)
		res.Record = record
		res.ParseErr = perr
		return res
	}

	res.Outcome = check.New(check.StatusNoAnswer, "No DMARC record found.")
	return res
}

// CheckOrganizational is Check with the RFC 7489 Section 6.6.3 fallback:
// when a subdomain publishes no record, the organizational domain's record
// is consulted.
func CheckOrganizational(ctx context.Context, resolver dns.Resolver, domain string) Result {
	res := Check(ctx, resolver, domain)
	if res.Status != check.StatusNotFound && res.Status != check.StatusNoAnswer {
		return res
	}

	org := OrganizationalDomain(res.Domain)
	if org == "" || org == res.Domain {
		return res
	}

	orgRes := Check(ctx, resolver, org)
	if orgRes.OK() {
		return orgRes
	}
	return res
}
