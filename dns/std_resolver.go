package dns

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// StdResolver implements Resolver using the standard library net package.
// It cannot distinguish NXDOMAIN from NODATA: both surface as ErrDNSNotFound.
// Authentic is always false.
type StdResolver struct {
	resolver *net.Resolver
}

// NewStdResolver creates a resolver using the standard library.
func NewStdResolver() *StdResolver {
	return &StdResolver{
		resolver: net.DefaultResolver,
	}
}

// NewStdResolverWithDialer creates a resolver using a custom dialer.
// This allows configuring custom DNS servers while using the stdlib interface.
func NewStdResolverWithDialer(dial func(ctx context.Context, network, address string) (net.Conn, error)) *StdResolver {
	return &StdResolver{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial:     dial,
		},
	}
}

// NameserverDialer returns a dial function for NewStdResolverWithDialer that
// sends every query to servers, trying them in order until one connects.
// Servers without a port use 53.
func NameserverDialer(servers []string, timeout time.Duration) func(ctx context.Context, network, address string) (net.Conn, error) {
	addrs := make([]string, 0, len(servers))
	for _, s := range servers {
		addrs = append(addrs, withDefaultPort(s))
	}
	d := &net.Dialer{Timeout: timeout}

	return func(ctx context.Context, network, _ string) (net.Conn, error) {
		if len(addrs) == 0 {
			return nil, errors.New("dns: no nameservers configured")
		}
		var lastErr error
		for _, addr := range addrs {
			conn, err := d.DialContext(ctx, network, addr)
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

// withDefaultPort appends port 53 to a bare host or IP.
func withDefaultPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}

// LookupTXT retrieves TXT records using the standard library.
func (r *StdResolver) LookupTXT(ctx context.Context, name string) (Result[string], error) {
	name = strings.TrimSuffix(name, ".")

	records, err := r.resolver.LookupTXT(ctx, name)
	if err != nil {
		return Result[string]{}, convertError(err)
	}
	if len(records) == 0 {
		return Result[string]{}, ErrDNSNoAnswer
	}

	return Result[string]{Records: records}, nil
}

// LookupIP retrieves A and AAAA records using the standard library.
func (r *StdResolver) LookupIP(ctx context.Context, host string) (Result[net.IP], error) {
	host = strings.TrimSuffix(host, ".")

	ips, err := r.resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return Result[net.IP]{}, convertError(err)
	}
	if len(ips) == 0 {
		return Result[net.IP]{}, ErrDNSNoAnswer
	}

	return Result[net.IP]{Records: ips}, nil
}
