// Package dns provides the resolver abstraction used by the policy and
// resolution checkers.
//
// Two implementations are available: DNSResolver talks to nameservers
// directly using github.com/miekg/dns and can tell a nonexistent name
// (NXDOMAIN) apart from a name that exists without records of the requested
// type (NODATA). StdResolver wraps net.Resolver and reports both as
// ErrDNSNotFound. MockResolver serves fixed records for tests.
package dns

import (
	"context"
	"errors"
	"net"
)

// DNS lookup errors.
var (
	// ErrDNSNotFound indicates the queried name does not exist (NXDOMAIN).
	ErrDNSNotFound = errors.New("dns: name not found")

	// ErrDNSNoAnswer indicates the name exists but has no records of the
	// requested type.
	ErrDNSNoAnswer = errors.New("dns: no answer for record type")

	// ErrDNSTimeout indicates the query did not complete before its deadline.
	ErrDNSTimeout = errors.New("dns: query timed out")

	// ErrDNSServFail indicates the server reported a failure (SERVFAIL).
	ErrDNSServFail = errors.New("dns: server failure")

	// ErrDNSRefused indicates the server refused the query.
	ErrDNSRefused = errors.New("dns: query refused")

	// ErrDNSBogus indicates DNSSEC validation failed upstream.
	ErrDNSBogus = errors.New("dns: DNSSEC validation failed")
)

// Result holds the records returned by a lookup.
type Result[T any] struct {
	Records []T

	// Authentic is true when the response was DNSSEC-validated by the
	// upstream resolver.
	Authentic bool
}

// Resolver is the set of lookups the checkers need.
type Resolver interface {
	// LookupTXT retrieves TXT records for name. Multi-string records are
	// joined into a single string.
	LookupTXT(ctx context.Context, name string) (Result[string], error)

	// LookupIP retrieves A and AAAA records for host.
	LookupIP(ctx context.Context, host string) (Result[net.IP], error)
}

// IsNotFound reports whether err indicates a nonexistent name.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDNSNotFound)
}

// IsNoAnswer reports whether err indicates an existing name without records
// of the requested type.
func IsNoAnswer(err error) bool {
	return errors.Is(err, ErrDNSNoAnswer)
}

// IsTimeout reports whether err indicates a query deadline was exceeded.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDNSTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsServFail reports whether err indicates a server failure.
func IsServFail(err error) bool {
	return errors.Is(err, ErrDNSServFail)
}

// IsTemporary reports whether a later attempt might succeed.
func IsTemporary(err error) bool {
	return IsTimeout(err) || IsServFail(err)
}
