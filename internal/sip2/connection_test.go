package sip2_test

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/yourusername/sip2-acs-server/internal/audit"
	"github.com/yourusername/sip2-acs-server/internal/ils"
	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

type fixedPolicy struct {
	accounts map[string]*sip2.Account
}

func (p fixedPolicy) LookupAccount(uid string) (*sip2.Account, bool) {
	a, ok := p.accounts[uid]
	return a, ok
}
func (p fixedPolicy) Delimiter() byte     { return '|' }
func (p fixedPolicy) Timeout() int        { return 60 }
func (p fixedPolicy) Retries() int        { return 3 }
func (p fixedPolicy) RenewalPolicy() bool { return true }

func startTestServer(t *testing.T) net.Addr {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	hash, err := sip2.HashPassword("term1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	policy := fixedPolicy{accounts: map[string]*sip2.Account{
		"term1": {UID: "term1", PasswordHash: hash, ID: "term1", Institution: "MAIN"},
	}}

	cfg := sip2.ConnConfig{
		ILS:    ils.NewMemoryBackend("MAIN"),
		Policy: policy,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Audit:  audit.NewMemoryStore(10),
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go sip2.ServeConn(conn, "test-conn", cfg)
		}
	}()

	t.Cleanup(func() { listener.Close() })
	return listener.Addr()
}

func TestConnectionLoginAndPatronStatus(t *testing.T) {
	addr := startTestServer(t)
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	if _, err := conn.Write([]byte("9300CNterm1|COterm1|CPMAIN|\r")); err != nil {
		t.Fatalf("write login failed: %v", err)
	}
	loginResp, err := reader.ReadString('\r')
	if err != nil {
		t.Fatalf("read login response failed: %v", err)
	}
	if loginResp[:3] != "941" {
		t.Errorf("login response = %q; want to start with 941", loginResp)
	}

	statusFrame := "23001" + sip2.Now() + "AOMAIN|AA1234|\r"
	if _, err := conn.Write([]byte(statusFrame)); err != nil {
		t.Fatalf("write patron status failed: %v", err)
	}
	statusResp, err := reader.ReadString('\r')
	if err != nil {
		t.Fatalf("read patron status response failed: %v", err)
	}
	if statusResp[:2] != "24" {
		t.Errorf("patron status response = %q; want to start with 24", statusResp)
	}
}

func TestConnectionRejectsBeforeLogin(t *testing.T) {
	addr := startTestServer(t)
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	statusFrame := "23001" + sip2.Now() + "AOMAIN|AA1234|\r"
	if _, err := conn.Write([]byte(statusFrame)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err == nil && n > 0 {
		t.Errorf("expected no response before login, got %q", string(buf[:n]))
	}
}
