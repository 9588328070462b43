// Package urlcheck resolves the host of a submitted URL to confirm the
// destination domain exists.
package urlcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	mdns "github.com/miekg/dns"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/dns"
)

// ErrMalformedURL indicates the input cannot yield a host to resolve.
var ErrMalformedURL = errors.New("urlcheck: malformed URL")

// Result is the outcome of resolving a URL's host.
type Result struct {
	check.Outcome

	// Host is the lowercased host extracted from the URL, empty when the URL
	// is malformed.
	Host string

	// Addresses are the resolved A and AAAA records.
	Addresses []net.IP
}

// Host extracts the host component of rawURL. The URL must carry a scheme
// and a host; IPv6 literals are returned without brackets.
func Host(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformedURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: %q has no scheme", ErrMalformedURL, rawURL)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrMalformedURL, rawURL)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	if _, ok := mdns.IsDomainName(host); !ok || strings.ContainsAny(host, " _/\\") {
		return "", fmt.Errorf("%w: invalid host %q", ErrMalformedURL, host)
	}

	return host, nil
}

// Check extracts the host of rawURL and resolves it to addresses.
func Check(ctx context.Context, resolver dns.Resolver, rawURL string) (res Result) {
	defer check.Recover(&res.Outcome)

	host, err := Host(rawURL)
	if err != nil {
		res.Outcome = check.Newf(check.StatusProtocolError, "URL analysis error: %v", err)
		return res
	}
	res.Host = host

	if ip := net.ParseIP(host); ip != nil {
		res.Addresses = []net.IP{ip}
		res.Outcome = check.Newf(check.StatusSuccess, "Resolved IPs: [%s]", ip)
		return res
	}

	result, err := resolver.LookupIP(ctx, host)
	if err != nil {
		switch check.StatusFromDNSError(err) {
		case check.StatusNotFound:
			res.Outcome = check.New(check.StatusNotFound, "The domain does not exist. It may be malicious or inactive.")
		case check.StatusNoAnswer:
			res.Outcome = check.New(check.StatusNoAnswer, "No DNS records found for the domain.")
		case check.StatusTimedOut:
			res.Outcome = check.New(check.StatusTimedOut, "DNS query timed out for the URL.")
		default:
			res.Outcome = check.Newf(check.StatusProtocolError, "URL analysis error: %v", err)
		}
		return res
	}

	res.Addresses = result.Records
	addrs := make([]string, len(result.Records))
	for i, ip := range result.Records {
		addrs[i] = ip.String()
	}
	res.Outcome = check.Newf(check.StatusSuccess, "Resolved IPs: [%s]", strings.Join(addrs, ", "))
	return res
}
