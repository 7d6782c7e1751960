// Package config loads the demo server configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/flow"
)

// Config holds demo server configuration. Environment variables (FLOW_*
// prefix) override YAML values.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	// TrustProxy is "none", "all", "loopback", or a comma-separated CIDR list.
	TrustProxy      string `env:"TRUST_PROXY"`
	SubdomainOffset int    `env:"SUBDOMAIN_OFFSET"`
	// ETagMode is "strong", "weak", or "off".
	ETagMode string `env:"ETAG_MODE"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	DrainTimeout    time.Duration `env:"DRAIN_TIMEOUT"`

	// CacheBackend is "off", "memory", or "memcached".
	CacheBackend          string        `env:"CACHE_BACKEND"`
	CacheTTL              time.Duration `env:"CACHE_TTL"`
	MemcachedAddrs        string        `env:"MEMCACHED_ADDRS"`
	MemcachedTimeout      time.Duration `env:"MEMCACHED_TIMEOUT"`
	MemcachedMaxIdleConns int           `env:"MEMCACHED_MAX_IDLE_CONNS"`
}

type fileConfig struct {
	Server struct {
		ListenAddr  string `yaml:"listen_addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`

	Proxy struct {
		Trust           string `yaml:"trust"`
		SubdomainOffset *int   `yaml:"subdomain_offset"`
	} `yaml:"proxy"`

	ETag string `yaml:"etag"`

	Reliability struct {
		RateLimitRPS    int    `yaml:"rate_limit_rps"`
		RateLimitBurst  int    `yaml:"rate_limit_burst"`
		RequestTimeout  string `yaml:"request_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		DrainTimeout    string `yaml:"drain_timeout"`
	} `yaml:"reliability"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`
}

// Load reads config/{ENV_NAME}.yaml (default dev) when present, then applies
// FLOW_-prefixed environment overrides. A missing file is not an error; a
// malformed one is.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      ":8080",
		MetricsAddr:     ":9090",
		TrustProxy:      "none",
		SubdomainOffset: 2,
		ETagMode:        "strong",
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DrainTimeout:    5 * time.Second,
		CacheBackend:    "off",
		CacheTTL:        time.Minute,
	}

	envName := os.Getenv("ENV_NAME")
	if envName == "" {
		envName = "dev"
	}
	path := filepath.Join("config", envName+".yaml")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if err := cfg.applyFile(&fc); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "FLOW_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) applyFile(fc *fileConfig) error {
	setString(&c.ListenAddr, fc.Server.ListenAddr)
	setString(&c.MetricsAddr, fc.Server.MetricsAddr)
	setString(&c.TrustProxy, fc.Proxy.Trust)
	if fc.Proxy.SubdomainOffset != nil {
		c.SubdomainOffset = *fc.Proxy.SubdomainOffset
	}
	setString(&c.ETagMode, fc.ETag)
	if fc.Reliability.RateLimitRPS > 0 {
		c.RateLimitRPS = fc.Reliability.RateLimitRPS
	}
	if fc.Reliability.RateLimitBurst > 0 {
		c.RateLimitBurst = fc.Reliability.RateLimitBurst
	}
	if err := setDuration(&c.RequestTimeout, fc.Reliability.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if err := setDuration(&c.ShutdownTimeout, fc.Reliability.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown_timeout: %w", err)
	}
	if err := setDuration(&c.DrainTimeout, fc.Reliability.DrainTimeout); err != nil {
		return fmt.Errorf("drain_timeout: %w", err)
	}
	setString(&c.CacheBackend, fc.Cache.Backend)
	if err := setDuration(&c.CacheTTL, fc.Cache.TTL); err != nil {
		return fmt.Errorf("cache ttl: %w", err)
	}
	setString(&c.MemcachedAddrs, fc.Cache.Memcached.Addrs)
	if err := setDuration(&c.MemcachedTimeout, fc.Cache.Memcached.Timeout); err != nil {
		return fmt.Errorf("memcached timeout: %w", err)
	}
	if fc.Cache.Memcached.MaxIdleConns > 0 {
		c.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	}
	return nil
}

func (c *Config) validate() error {
	switch c.ETagMode {
	case "strong", "weak", "off":
	default:
		return fmt.Errorf("etag mode %q (want strong, weak, or off)", c.ETagMode)
	}
	switch c.CacheBackend {
	case "off", "memory", "memcached":
	default:
		return fmt.Errorf("cache backend %q (want off, memory, or memcached)", c.CacheBackend)
	}
	if c.SubdomainOffset < 0 {
		return fmt.Errorf("subdomain offset %d (want >= 0)", c.SubdomainOffset)
	}
	if _, err := c.TrustPolicy(); err != nil {
		return err
	}
	return nil
}

// TrustPolicy resolves the TrustProxy setting to a policy function.
func (c *Config) TrustPolicy() (flow.TrustFunc, error) {
	switch strings.ToLower(strings.TrimSpace(c.TrustProxy)) {
	case "", "none":
		return nil, nil
	case "all":
		return flow.TrustAll, nil
	case "loopback":
		return flow.TrustLoopback, nil
	default:
		trust, err := flow.TrustCIDR(strings.Split(c.TrustProxy, ",")...)
		if err != nil {
			return nil, fmt.Errorf("trust proxy %q: %w", c.TrustProxy, err)
		}
		return trust, nil
	}
}

// ETag resolves the ETagMode setting.
func (c *Config) ETag() flow.ETagMode {
	switch c.ETagMode {
	case "weak":
		return flow.ETagWeak
	case "off":
		return flow.ETagOff
	default:
		return flow.ETagStrong
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
