package phishcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "example.com"},
		{"Alice@Example.COM", "example.com"},
		{"  bob@mail.example.org.  ", "mail.example.org"},
		{"Alice Smith <alice@example.net>", "example.net"},
		{`"odd@local"@example.com`, "example.com"},
		{"a@b@c.example", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := DomainFromEmail(tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainFromEmail_NoDomain(t *testing.T) {
	for _, email := range []string{
		"",
		"not-an-email",
		"user@",
		"user@ ",
		"user@.",
		"@",
	} {
		t.Run(email, func(t *testing.T) {
			_, err := DomainFromEmail(email)
			assert.ErrorIs(t, err, ErrNoDomain)
		})
	}
}

func TestDomainFromEmail_MalformedDomainPassesThrough(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"x@exa..mple.com", "exa..mple.com"},
		{"x@foo..bar", "foo..bar"},
		{`x@a.b"c`, `a.b"c`},
		{"user@Exa mple.com", "exa mple.com"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := DomainFromEmail(tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
