// Package dmarc looks up the Domain-based Message Authentication, Reporting,
// and Conformance policy (RFC 7489) a domain publishes as a TXT record under
// "_dmarc.<domain>".
//
// Only policy presence is assessed: no From-header alignment is evaluated.
//
// # Basic Usage
//
//	resolver := dns.NewResolver(dns.ResolverConfig{})
//
//	res := dmarc.Check(ctx, resolver, "example.com")
//	if res.OK() {
//	    fmt.Println(res.Detail, res.Record.Policy)
//	}
//
// # Organizational Domain
//
// CheckOrganizational falls back to the organizational domain when a
// subdomain publishes nothing. The organizational domain is determined using
// the Public Suffix List:
//   - example.com has organizational domain example.com
//   - sub.example.com has organizational domain example.com
//   - sub.example.co.uk has organizational domain example.co.uk
//
// # References
//
//   - RFC 7489: Domain-based Message Authentication, Reporting, and Conformance (DMARC)
package dmarc
