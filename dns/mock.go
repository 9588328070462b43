package dns

import (
	"context"
	"net"
	"slices"
	"time"
)

// MockResolver is a Resolver used for testing.
// Set DNS records in the fields, which map FQDNs (with trailing dot) to values.
//
// A name that appears in any of the record maps exists; looking up a record
// type it has no values for returns ErrDNSNoAnswer. Names absent from every
// map return ErrDNSNotFound.
type MockResolver struct {
	A    map[string][]string
	AAAA map[string][]string
	TXT  map[string][]string

	// Fail contains records that will return a server failure (SERVFAIL).
	// Format: "type name", e.g. "txt example.com." where type is lowercase.
	Fail []string

	// Timeout contains records that will return ErrDNSTimeout.
	Timeout []string

	// Delay is applied before every answer. A context deadline shorter than
	// Delay yields ErrDNSTimeout.
	Delay time.Duration

	// AllAuthentic sets Authentic on every response.
	AllAuthentic bool
}

var _ Resolver = MockResolver{}

// mockReq represents a mock DNS request.
type mockReq struct {
	Type string // E.g. "txt", "a", "aaaa"
	Name string // FQDN with trailing dot
}

func (mr mockReq) String() string {
	return mr.Type + " " + mr.Name
}

// ensureFQDN ensures the name ends with a dot.
func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

func (r MockResolver) exists(fqdn string) bool {
	for _, m := range []map[string][]string{r.A, r.AAAA, r.TXT} {
		if _, ok := m[fqdn]; ok {
			return true
		}
	}
	return false
}

// wait applies Delay and the configured failures for mr.
func (r MockResolver) wait(ctx context.Context, mr mockReq) error {
	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ErrDNSTimeout
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return convertError(err)
	}
	if slices.Contains(r.Timeout, mr.String()) {
		return ErrDNSTimeout
	}
	if slices.Contains(r.Fail, mr.String()) {
		return ErrDNSServFail
	}
	return nil
}

// LookupTXT returns TXT records for the given name.
func (r MockResolver) LookupTXT(ctx context.Context, name string) (Result[string], error) {
	fqdn := ensureFQDN(name)
	result := Result[string]{Authentic: r.AllAuthentic}

	if err := r.wait(ctx, mockReq{"txt", fqdn}); err != nil {
		return result, err
	}
	if !r.exists(fqdn) {
		return result, ErrDNSNotFound
	}
	records := r.TXT[fqdn]
	if len(records) == 0 {
		return result, ErrDNSNoAnswer
	}

	result.Records = records
	return result, nil
}

// LookupIP returns A and AAAA records for the given host.
func (r MockResolver) LookupIP(ctx context.Context, host string) (Result[net.IP], error) {
	fqdn := ensureFQDN(host)
	result := Result[net.IP]{Authentic: r.AllAuthentic}

	if err := r.wait(ctx, mockReq{"a", fqdn}); err != nil {
		return result, err
	}
	if err := r.wait(ctx, mockReq{"aaaa", fqdn}); err != nil {
		return result, err
	}
	if !r.exists(fqdn) {
		return result, ErrDNSNotFound
	}

	var ips []net.IP
	for _, ip := range r.A[fqdn] {
		ips = append(ips, net.ParseIP(ip))
	}
	for _, ip := range r.AAAA[fqdn] {
		ips = append(ips, net.ParseIP(ip))
	}
	if len(ips) == 0 {
		return result, ErrDNSNoAnswer
	}

	result.Records = ips
	return result, nil
}
