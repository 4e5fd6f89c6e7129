// Package config assembles the server-wide sip2.Policy from
// environment variables and an account file, the same env-var-driven
// style the teacher's cmd/gateway uses for DB_PROVIDER/DB_PATH/DB_DSN.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

// Config is the fully resolved server configuration.
type Config struct {
	ListenAddr      string
	AdminListenAddr string
	MaxConnections  int
	IdleTimeoutSecs int

	Delimiter byte
	Timeout   int
	Retries   int
	Renewal   bool

	AuditBackend string // "memory" | "sqlite" | "postgres"
	AuditDSN     string

	AccountsFile string

	policy *staticPolicy
}

// Load reads the SIP2_*, ADMIN_LISTEN_ADDR and AUDIT_* environment
// variables below, applying defaults so a fresh checkout runs with
// zero configuration. The other ADMIN_*, SMTP_* and OTEL_* variables
// are read by the packages that use them.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      getenvDefault("SIP2_LISTEN_ADDR", "0.0.0.0:6001"),
		AdminListenAddr: getenvDefault("ADMIN_LISTEN_ADDR", "0.0.0.0:8899"),
		MaxConnections:  getenvInt("SIP2_MAX_CONNECTIONS", 256),
		IdleTimeoutSecs: getenvInt("SIP2_IDLE_TIMEOUT_SECS", 300),
		Delimiter:       getenvByte("SIP2_DELIMITER", sip2.DefaultDelimiter),
		Timeout:         getenvInt("SIP2_TIMEOUT", 300),
		Retries:         getenvInt("SIP2_RETRIES", 3),
		Renewal:         getenvBool("SIP2_RENEWAL_POLICY", true),
		AuditBackend:    getenvDefault("AUDIT_BACKEND", "memory"),
		AuditDSN:        os.Getenv("AUDIT_DSN"),
		AccountsFile:    os.Getenv("SIP2_ACCOUNTS_FILE"),
	}

	accounts, err := loadAccounts(cfg.AccountsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts file: %w", err)
	}
	cfg.policy = &staticPolicy{
		accounts:  accounts,
		delimiter: cfg.Delimiter,
		timeout:   cfg.Timeout,
		retries:   cfg.Retries,
		renewal:   cfg.Renewal,
	}
	return cfg, nil
}

// Policy returns the sip2.Policy this configuration assembled.
func (c *Config) Policy() sip2.Policy { return c.policy }

type staticPolicy struct {
	accounts  map[string]*sip2.Account
	delimiter byte
	timeout   int
	retries   int
	renewal   bool
}

func (p *staticPolicy) LookupAccount(uid string) (*sip2.Account, bool) {
	a, ok := p.accounts[uid]
	return a, ok
}

func (p *staticPolicy) Delimiter() byte     { return p.delimiter }
func (p *staticPolicy) Timeout() int        { return p.timeout }
func (p *staticPolicy) Retries() int        { return p.retries }
func (p *staticPolicy) RenewalPolicy() bool { return p.renewal }

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvByte(key string, fallback byte) byte {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v[0]
}
