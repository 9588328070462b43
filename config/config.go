// Package config loads phishcheck settings from YAML, an optional .env file
// and PHISHCHECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/synqronlabs/phishcheck/dns"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHISHCHECK_"

// DNS backends.
const (
	BackendMiekg  = "miekg"
	BackendSystem = "system"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	DNS        DNSConfig        `yaml:"dns"`
	TLS        TLSConfig        `yaml:"tls"`
	DMARC      DMARCConfig      `yaml:"dmarc"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Log        LogConfig        `yaml:"log"`
}

type DNSConfig struct {
	Nameservers []string      `yaml:"nameservers"`
	Timeout     time.Duration `yaml:"timeout"`
	Backend     string        `yaml:"backend"`
	DNSSEC      bool          `yaml:"dnssec"`
	Retries     int           `yaml:"retries"`
}

type TLSConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Port    int           `yaml:"port"`
}

type DMARCConfig struct {
	// OrgFallback retries the organizational domain when a subdomain
	// publishes no DMARC record.
	OrgFallback bool `yaml:"org_fallback"`
}

type ClassifierConfig struct {
	// Model is the path to a naive Bayes model. Empty disables the signal.
	Model     string  `yaml:"model"`
	Threshold float64 `yaml:"threshold"`
	Weight    int     `yaml:"weight"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path, applies defaults and environment overrides, and validates
// the result. An empty path loads only defaults and the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromBytes loads configuration from bytes without applying environment
// overrides.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads files into the process environment without overriding
// variables already set. With no files it loads ".env" when present.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DNS.Timeout == 0 {
		cfg.DNS.Timeout = 5 * time.Second
	}
	if cfg.DNS.Backend == "" {
		cfg.DNS.Backend = BackendMiekg
	}
	if cfg.TLS.Timeout == 0 {
		cfg.TLS.Timeout = 5 * time.Second
	}
	if cfg.TLS.Port == 0 {
		cfg.TLS.Port = 443
	}
	if cfg.Classifier.Threshold == 0 {
		cfg.Classifier.Threshold = 0.5
	}
	if cfg.Classifier.Weight == 0 {
		cfg.Classifier.Weight = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = FormatText
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := getenv("DNS_NAMESERVERS"); v != "" {
		var servers []string
		for s := range strings.SplitSeq(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				servers = append(servers, s)
			}
		}
		cfg.DNS.Nameservers = servers
	}
	if err := envDuration("DNS_TIMEOUT", &cfg.DNS.Timeout); err != nil {
		return err
	}
	if v := getenv("DNS_BACKEND"); v != "" {
		cfg.DNS.Backend = v
	}
	if err := envBool("DNS_DNSSEC", &cfg.DNS.DNSSEC); err != nil {
		return err
	}
	if err := envInt("DNS_RETRIES", &cfg.DNS.Retries); err != nil {
		return err
	}
	if err := envDuration("TLS_TIMEOUT", &cfg.TLS.Timeout); err != nil {
		return err
	}
	if err := envInt("TLS_PORT", &cfg.TLS.Port); err != nil {
		return err
	}
	if err := envBool("DMARC_ORG_FALLBACK", &cfg.DMARC.OrgFallback); err != nil {
		return err
	}
	if v := getenv("CLASSIFIER_MODEL"); v != "" {
		cfg.Classifier.Model = v
	}
	if v := getenv("CLASSIFIER_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sCLASSIFIER_THRESHOLD %q: %w", EnvPrefix, v, err)
		}
		cfg.Classifier.Threshold = f
	}
	if err := envInt("CLASSIFIER_WEIGHT", &cfg.Classifier.Weight); err != nil {
		return err
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func envDuration(key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
	}
	*dst = d
	return nil
}

func envInt(key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
	}
	*dst = b
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DNS.Timeout < 0 {
		return fmt.Errorf("dns.timeout must be >= 0")
	}
	switch c.DNS.Backend {
	case BackendMiekg, BackendSystem:
	default:
		return fmt.Errorf("invalid dns.backend %q", c.DNS.Backend)
	}
	if c.DNS.DNSSEC && c.DNS.Backend == BackendSystem {
		return fmt.Errorf("dns.dnssec requires the %s backend", BackendMiekg)
	}
	if c.DNS.Retries < 0 {
		return fmt.Errorf("dns.retries must be >= 0")
	}
	if c.TLS.Timeout < 0 {
		return fmt.Errorf("tls.timeout must be >= 0")
	}
	if c.TLS.Port < 1 || c.TLS.Port > 65535 {
		return fmt.Errorf("invalid tls.port %d", c.TLS.Port)
	}
	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("classifier.threshold must be within [0,1], got %v", c.Classifier.Threshold)
	}
	if c.Classifier.Weight < 0 {
		return fmt.Errorf("classifier.weight must be >= 0")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	return nil
}

// Resolver builds the DNS resolver selected by the configuration. The system
// backend uses the host's resolver unless nameservers are configured.
func (c *Config) Resolver() dns.Resolver {
	if c.DNS.Backend == BackendSystem {
		if len(c.DNS.Nameservers) == 0 {
			return dns.NewStdResolver()
		}
		return dns.NewStdResolverWithDialer(dns.NameserverDialer(c.DNS.Nameservers, c.DNS.Timeout))
	}
	return dns.NewResolver(dns.ResolverConfig{
		Nameservers: c.DNS.Nameservers,
		DNSSEC:      c.DNS.DNSSEC,
		Timeout:     c.DNS.Timeout,
		Retries:     c.DNS.Retries,
	})
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q", s)
	}
	return level, nil
}
