// Package tlscheck connects to a host over TLS and reports whether the
// presented leaf certificate is trusted and within its validity window.
package tlscheck

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/synqronlabs/phishcheck/check"
)

// Default values for Checker.
const (
	DefaultTimeout = 5 * time.Second
	DefaultPort    = 443
)

// dateLayout formats certificate dates in details.
const dateLayout = "2006-01-02 15:04:05 MST"

// Validity classifies a certificate against the checker's clock.
type Validity string

const (
	ValidityValid       Validity = "valid"
	ValidityExpired     Validity = "expired"
	ValidityNotYetValid Validity = "not_yet_valid"
	ValidityUntrusted   Validity = "untrusted"
)

// CertInfo holds the leaf certificate facts the check reports.
type CertInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	Validity  Validity  `json:"validity"`
}

// Result is the outcome of a certificate check.
type Result struct {
	check.Outcome

	// Cert is set whenever a leaf certificate was received, including
	// certificates rejected by verification.
	Cert *CertInfo
}

// Checker dials hosts and inspects their certificates. The zero value is
// usable and verifies against the system roots with the wall clock.
type Checker struct {
	// Timeout bounds the dial and the handshake together.
	Timeout time.Duration

	// Port is the TCP port to connect to.
	Port int

	// RootCAs overrides the system trust store.
	RootCAs *x509.CertPool

	// Now is the clock used for verification and the validity window.
	Now func() time.Time
}

func (c *Checker) timeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Checker) port() int {
	if c == nil || c.Port <= 0 {
		return DefaultPort
	}
	return c.Port
}

func (c *Checker) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Check performs a TLS handshake with host and evaluates the leaf
// certificate.
func (c *Checker) Check(ctx context.Context, host string) (res Result) {
	defer check.Recover(&res.Outcome)

	if host == "" {
		res.Outcome = check.New(check.StatusProtocolError, "SSL check error: empty host")
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var rootCAs *x509.CertPool
	if c != nil {
		rootCAs = c.RootCAs
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.timeout()},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    rootCAs,
			MinVersion: tls.VersionTLS12,
			Time:       c.now,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(c.port())))
	if err != nil {
		return c.fromError(err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		res.Outcome = check.New(check.StatusProtocolError, "SSL check error: no peer certificate")
		return res
	}

	info := Describe(state.PeerCertificates[0], c.now())
	res.Cert = &info
	res.Outcome = info.Outcome()
	return res
}

// fromError maps a dial or handshake failure to a result. Only an expired
// leaf is reported by its validity window; any other chain failure,
// including an expired intermediate, is a verification failure.
func (c *Checker) fromError(err error) Result {
	var verr *tls.CertificateVerificationError
	if !errors.As(err, &verr) {
		return Result{Outcome: outcomeFromError(err)}
	}

	res := Result{Outcome: check.Newf(check.StatusProtocolError, "SSL certificate verification failed: %v", verr.Err)}
	if len(verr.UnverifiedCertificates) == 0 {
		return res
	}

	leaf := verr.UnverifiedCertificates[0]
	var invalid x509.CertificateInvalidError
	if errors.As(verr.Err, &invalid) && invalid.Reason == x509.Expired && leaf.Equal(invalid.Cert) {
		info := Describe(leaf, c.now())
		return Result{Outcome: info.Outcome(), Cert: &info}
	}

	info := Describe(leaf, c.now())
	info.Validity = ValidityUntrusted
	res.Cert = &info
	return res
}

func outcomeFromError(err error) check.Outcome {
	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr) && netErr.Timeout():
		return check.New(check.StatusTimedOut, "Connection to the domain timed out.")
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.As(err, &dnsErr):
		return check.Newf(check.StatusUnreachable, "SSL check error: %v", err)
	default:
		return check.Newf(check.StatusProtocolError, "SSL check error: %v", err)
	}
}

// Describe extracts the reported facts from cert and classifies its
// validity window at now.
func Describe(cert *x509.Certificate, now time.Time) CertInfo {
	issuer := "Unknown"
	if len(cert.Issuer.Organization) > 0 && cert.Issuer.Organization[0] != "" {
		issuer = cert.Issuer.Organization[0]
	}
	return CertInfo{
		Subject:   cert.Subject.CommonName,
		Issuer:    issuer,
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		Validity:  ValidityAt(cert.NotBefore, cert.NotAfter, now),
	}
}

// ValidityAt classifies now against the window [notBefore, notAfter].
func ValidityAt(notBefore, notAfter, now time.Time) Validity {
	switch {
	case now.After(notAfter):
		return ValidityExpired
	case now.Before(notBefore):
		return ValidityNotYetValid
	default:
		return ValidityValid
	}
}

// Outcome converts the certificate facts to a check outcome.
func (i CertInfo) Outcome() check.Outcome {
	switch i.Validity {
	case ValidityValid:
		return check.Newf(check.StatusSuccess, "SSL certificate is valid. Issued by: %s. Valid until: %s.",
			i.Issuer, i.NotAfter.UTC().Format(dateLayout))
	case ValidityExpired:
		return check.Newf(check.StatusProtocolError, "SSL certificate expired on %s.",
			i.NotAfter.UTC().Format(dateLayout))
	case ValidityNotYetValid:
		return check.Newf(check.StatusProtocolError, "SSL certificate is not yet valid (valid from %s).",
			i.NotBefore.UTC().Format(dateLayout))
	default:
		return check.New(check.StatusProtocolError, "SSL certificate verification failed.")
	}
}
