package config

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synqronlabs/phishcheck/dns"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5*time.Second, cfg.DNS.Timeout)
	assert.Equal(t, BackendMiekg, cfg.DNS.Backend)
	assert.Equal(t, 5*time.Second, cfg.TLS.Timeout)
	assert.Equal(t, 443, cfg.TLS.Port)
	assert.False(t, cfg.DMARC.OrgFallback)
	assert.Empty(t, cfg.Classifier.Model)
	assert.Equal(t, 0.5, cfg.Classifier.Threshold)
	assert.Equal(t, 1, cfg.Classifier.Weight)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, FormatText, cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
dns:
  nameservers: ["192.0.2.53:53"]
  timeout: 2s
  backend: miekg
  dnssec: true
  retries: 2
tls:
  timeout: 1500ms
  port: 8443
dmarc:
  org_fallback: true
classifier:
  model: /var/lib/phishcheck/model.json
  threshold: 0.8
  weight: 2
log:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.53:53"}, cfg.DNS.Nameservers)
	assert.Equal(t, 2*time.Second, cfg.DNS.Timeout)
	assert.Equal(t, BackendMiekg, cfg.DNS.Backend)
	assert.True(t, cfg.DNS.DNSSEC)
	assert.Equal(t, 2, cfg.DNS.Retries)
	assert.Equal(t, 1500*time.Millisecond, cfg.TLS.Timeout)
	assert.Equal(t, 8443, cfg.TLS.Port)
	assert.True(t, cfg.DMARC.OrgFallback)
	assert.Equal(t, "/var/lib/phishcheck/model.json", cfg.Classifier.Model)
	assert.Equal(t, 0.8, cfg.Classifier.Threshold)
	assert.Equal(t, 2, cfg.Classifier.Weight)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, FormatJSON, cfg.Log.Format)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":          "dns: [",
		"bad backend":       "dns: {backend: carrier-pigeon}",
		"negative dns":      "dns: {timeout: -1s}",
		"negative retries":  "dns: {retries: -1}",
		"dnssec via system": "dns: {backend: system, dnssec: true}",
		"negative tls":      "tls: {timeout: -1s}",
		"bad port":          "tls: {port: 70000}",
		"threshold range":   "classifier: {threshold: 1.5}",
		"negative weight":   "classifier: {weight: -1}",
		"bad level":         "log: {level: loud}",
		"bad format":        "log: {format: xml}",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phishcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dns:\n  timeout: 2s\nlog:\n  level: warn\n"), 0o600))

	t.Setenv("PHISHCHECK_DNS_NAMESERVERS", "192.0.2.1:53, 192.0.2.2:53,")
	t.Setenv("PHISHCHECK_DNS_TIMEOUT", "3s")
	t.Setenv("PHISHCHECK_TLS_PORT", "10443")
	t.Setenv("PHISHCHECK_DMARC_ORG_FALLBACK", "true")
	t.Setenv("PHISHCHECK_CLASSIFIER_THRESHOLD", "0.9")
	t.Setenv("PHISHCHECK_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:53", "192.0.2.2:53"}, cfg.DNS.Nameservers)
	assert.Equal(t, 3*time.Second, cfg.DNS.Timeout)
	assert.Equal(t, 10443, cfg.TLS.Port)
	assert.True(t, cfg.DMARC.OrgFallback)
	assert.Equal(t, 0.9, cfg.Classifier.Threshold)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, FormatJSON, cfg.Log.Format)
}

func TestLoad_InvalidEnv(t *testing.T) {
	for key, value := range map[string]string{
		"PHISHCHECK_DNS_TIMEOUT":          "soon",
		"PHISHCHECK_TLS_PORT":             "https",
		"PHISHCHECK_DNS_DNSSEC":           "maybe",
		"PHISHCHECK_CLASSIFIER_THRESHOLD": "high",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PHISHCHECK_TLS_PORT=9443\n"), 0o600))

	t.Setenv("PHISHCHECK_TLS_PORT", "")
	require.NoError(t, os.Unsetenv("PHISHCHECK_TLS_PORT"))
	require.NoError(t, LoadDotEnv(path))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9443, cfg.TLS.Port)

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadDotEnv_DefaultFileOptional(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadDotEnv())
}

func TestResolver(t *testing.T) {
	cfg := Default()
	_, ok := cfg.Resolver().(*dns.DNSResolver)
	assert.True(t, ok)

	cfg.DNS.Backend = BackendSystem
	_, ok = cfg.Resolver().(*dns.StdResolver)
	assert.True(t, ok)
}

func TestResolver_SystemBackendUsesNameservers(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := func(w mdns.ResponseWriter, req *mdns.Msg) {
		m := new(mdns.Msg)
		m.SetReply(req)
		if q := req.Question[0]; q.Name == "policy.example." && q.Qtype == mdns.TypeTXT {
			rr, _ := mdns.NewRR(`policy.example. 300 IN TXT "v=spf1 -all"`)
			m.Answer = append(m.Answer, rr)
		} else {
			m.Rcode = mdns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	}

	started := make(chan struct{})
	server := &mdns.Server{
		PacketConn:        pc,
		Handler:           mdns.HandlerFunc(handler),
		NotifyStartedFunc: func() { close(started) },
	}
	go func() { _ = server.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	cfg, err := LoadFromBytes([]byte("dns:\n  backend: system\n  timeout: 2s\n  nameservers: [\"" + pc.LocalAddr().String() + "\"]\n"))
	require.NoError(t, err)

	resolver := cfg.Resolver()
	_, ok := resolver.(*dns.StdResolver)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := resolver.LookupTXT(ctx, "policy.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"v=spf1 -all"}, res.Records)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = FormatJSON
	cfg.Log.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"key":"value"`)
}
