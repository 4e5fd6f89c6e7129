package config

import (
	"os"
	"testing"

	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"SIP2_LISTEN_ADDR", "ADMIN_LISTEN_ADDR", "SIP2_MAX_CONNECTIONS",
		"SIP2_IDLE_TIMEOUT_SECS", "SIP2_DELIMITER", "SIP2_TIMEOUT",
		"SIP2_RETRIES", "SIP2_RENEWAL_POLICY", "AUDIT_BACKEND", "AUDIT_DSN",
		"SIP2_ACCOUNTS_FILE",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:6001" {
		t.Errorf("ListenAddr = %q; want 0.0.0.0:6001", cfg.ListenAddr)
	}
	if cfg.MaxConnections != 256 {
		t.Errorf("MaxConnections = %d; want 256", cfg.MaxConnections)
	}
	if cfg.Delimiter != sip2.DefaultDelimiter {
		t.Errorf("Delimiter = %q; want %q", cfg.Delimiter, sip2.DefaultDelimiter)
	}
	if !cfg.Renewal {
		t.Errorf("Renewal default = false; want true")
	}
	if cfg.AuditBackend != "memory" {
		t.Errorf("AuditBackend = %q; want memory", cfg.AuditBackend)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("SIP2_LISTEN_ADDR", "127.0.0.1:7001")
	os.Setenv("SIP2_MAX_CONNECTIONS", "10")
	os.Setenv("SIP2_RENEWAL_POLICY", "false")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:7001" {
		t.Errorf("ListenAddr = %q; want 127.0.0.1:7001", cfg.ListenAddr)
	}
	if cfg.MaxConnections != 10 {
		t.Errorf("MaxConnections = %d; want 10", cfg.MaxConnections)
	}
	if cfg.Renewal {
		t.Errorf("Renewal = true; want false (overridden)")
	}
}

func TestLoadSeedsDevAccountWithEmptyAccountsFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	policy := cfg.Policy()
	account, ok := policy.LookupAccount("term1")
	if !ok {
		t.Fatal("expected dev account term1 to be seeded")
	}
	if account.Institution != "MAIN" {
		t.Errorf("Institution = %q; want MAIN", account.Institution)
	}
}

func TestLoadInvalidIntFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	os.Setenv("SIP2_MAX_CONNECTIONS", "not-a-number")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConnections != 256 {
		t.Errorf("MaxConnections = %d; want default 256 on invalid input", cfg.MaxConnections)
	}
}
