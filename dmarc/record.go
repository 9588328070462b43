package dmarc

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a parsed DMARC DNS TXT record.
//
// Example record:
//
//	v=DMARC1; p=reject; rua=mailto:dmarc@example.com
type Record struct {
	// Version must be "DMARC1".
	Version string

	// Policy is the requested policy for messages that fail DMARC.
	Policy Policy

	// SubdomainPolicy is the policy for subdomains. If empty, Policy applies.
	SubdomainPolicy Policy

	// AggregateReportAddresses are URIs for aggregate reports (rua tag).
	AggregateReportAddresses []string

	// ADKIM is the DKIM alignment mode: "r" (relaxed) or "s" (strict).
	ADKIM Align

	// ASPF is the SPF alignment mode: "r" (relaxed) or "s" (strict).
	ASPF Align

	// Percentage is the percentage of messages to which the policy applies.
	Percentage int
}

// DefaultRecord holds the default values for a DMARC record.
var DefaultRecord = Record{
	Version:    "DMARC1",
	ADKIM:      AlignRelaxed,
	ASPF:       AlignRelaxed,
	Percentage: 100,
}

// String returns the DMARC record formatted for DNS TXT.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString("v=")
	b.WriteString(r.Version)

	write := func(do bool, tag, value string) {
		if do {
			fmt.Fprintf(&b, "; %s=%s", tag, value)
		}
	}

	write(r.Policy != "", "p", string(r.Policy))
	write(r.SubdomainPolicy != "", "sp", string(r.SubdomainPolicy))
	write(len(r.AggregateReportAddresses) > 0, "rua", strings.Join(r.AggregateReportAddresses, ","))
	write(r.ADKIM != AlignRelaxed, "adkim", string(r.ADKIM))
	write(r.ASPF != AlignRelaxed, "aspf", string(r.ASPF))
	write(r.Percentage != 100, "pct", strconv.Itoa(r.Percentage))

	return b.String()
}

// splitTags splits a record into trimmed tag=value pairs, dropping the
// empty element a trailing semicolon leaves.
func splitTags(s string) [][2]string {
	var tags [][2]string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		tags = append(tags, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
	}
	return tags
}

// IsRecord reports whether txt starts with the "v=DMARC1" version tag.
func IsRecord(txt string) bool {
	tags := splitTags(txt)
	return len(tags) > 0 && strings.EqualFold(tags[0][0], "v") && tags[0][1] == "DMARC1"
}

// ParseRecord parses a DMARC TXT record.
//
// Returns the parsed record, whether the string carries the DMARC version
// tag, and any syntax error in the remaining tags. Unknown tags are ignored
// per RFC 7489 Section 6.3.
func ParseRecord(s string) (record *Record, isDMARC bool, err error) {
	if !IsRecord(s) {
		return nil, false, nil
	}

	r := DefaultRecord
	seen := map[string]bool{}

	for _, tag := range splitTags(s)[1:] {
		name := strings.ToLower(tag[0])
		value := tag[1]
		if seen[name] {
			return nil, true, fmt.Errorf("%w: duplicate tag %q", ErrSyntax, tag[0])
		}
		seen[name] = true

		switch name {
		case "p", "sp":
			p := Policy(strings.ToLower(value))
			if p != PolicyNone && p != PolicyQuarantine && p != PolicyReject {
				return nil, true, fmt.Errorf("%w: invalid %s=%q", ErrSyntax, name, value)
			}
			if name == "p" {
				r.Policy = p
			} else {
				r.SubdomainPolicy = p
			}
		case "rua":
			for _, uri := range strings.Split(value, ",") {
				uri = strings.TrimSpace(uri)
				if !strings.Contains(uri, ":") {
					return nil, true, fmt.Errorf("%w: invalid rua URI %q", ErrSyntax, uri)
				}
				r.AggregateReportAddresses = append(r.AggregateReportAddresses, uri)
			}
		case "adkim", "aspf":
			a := Align(strings.ToLower(value))
			if a != AlignRelaxed && a != AlignStrict {
				return nil, true, fmt.Errorf("%w: invalid %s=%q", ErrSyntax, name, value)
			}
			if name == "adkim" {
				r.ADKIM = a
			} else {
				r.ASPF = a
			}
		case "pct":
			pct, perr := strconv.Atoi(value)
			if perr != nil || pct < 0 || pct > 100 {
				return nil, true, fmt.Errorf("%w: invalid pct=%q", ErrSyntax, value)
			}
			r.Percentage = pct
		}
	}

	// RFC 7489 Section 6.6.3: a record without p= but with rua= is treated
	// as p=none.
	if r.Policy == "" {
		if len(r.AggregateReportAddresses) == 0 {
			return nil, true, fmt.Errorf("%w: missing p= tag", ErrSyntax)
		}
		r.Policy = PolicyNone
	}

	return &r, true, nil
}
