package dmarc

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// OrganizationalDomain returns the organizational domain for the given domain.
//
// The organizational domain is the domain directly under the public suffix.
// For example:
//   - example.com -> example.com
//   - sub.example.com -> example.com
//   - sub.example.co.uk -> example.co.uk
func OrganizationalDomain(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if domain == "" {
		return ""
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// "localhost", bare suffixes and other names without an eTLD+1.
		return domain
	}

	return etld1
}

// IsOrganizationalDomain returns true if the domain is directly below the
// public suffix.
func IsOrganizationalDomain(domain string) bool {
	d := strings.TrimSuffix(strings.ToLower(domain), ".")
	return OrganizationalDomain(d) == d
}
