package phishcheck

import (
	"net/mail"
	"strings"
)

// Submission is the input to one evaluation.
type Submission struct {
	// Email is the sender address. Display-name forms are accepted.
	Email string `json:"email"`

	// URL is a link found in the message.
	URL string `json:"url"`

	// Body is the message text, used only by the optional classifier.
	Body string `json:"body,omitempty"`
}

// DomainFromEmail returns the lowercased domain of email. A parsable
// address yields its domain part. Anything else yields the text between the
// first '@' and the next one, passed through unvalidated so the policy
// checks report a malformed domain. ErrNoDomain is returned only when email
// has no '@' or nothing follows it.
func DomainFromEmail(email string) (string, error) {
	email = strings.TrimSpace(email)

	var domain string
	if addr, err := mail.ParseAddress(email); err == nil {
		domain = addr.Address[strings.LastIndexByte(addr.Address, '@')+1:]
	} else {
		_, rest, ok := strings.Cut(email, "@")
		if !ok {
			return "", ErrNoDomain
		}
		domain, _, _ = strings.Cut(rest, "@")
	}

	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return "", ErrNoDomain
	}
	return domain, nil
}
