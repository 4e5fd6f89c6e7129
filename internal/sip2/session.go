package sip2

import (
	"log/slog"
	"time"
)

// Account is one entry from the server's login-account table (§6.5):
// the credentials and institution context a Login message activates.
// Loaded once at startup; read-only at runtime, so sharing it across
// connections needs no locking.
type Account struct {
	UID         string
	PasswordHash string
	ID          string
	Institution string
	PrintWidth  int
}

// Session is the per-connection mutable state (§3). It is owned
// exclusively by its connection's goroutine — no cross-task sharing,
// no locking required. ConnID and RemoteAddr exist purely for
// logging/tracing/admin-listing and never influence parsing or
// dispatch.
type Session struct {
	Delimiter       byte
	ErrorDetection  bool
	ProtocolVersion string
	Account         *Account
	LastResponse    string

	ConnID     string
	RemoteAddr string
	StartedAt  time.Time
	LastActive time.Time

	// Logger is bound once per connection with conn_id/remote_addr
	// attributes already attached, so handlers never have to thread
	// those through by hand.
	Logger *slog.Logger
}

// NewSession returns a session in its initial state: 1.00 protocol,
// no error detection, no account, matching §3's listed defaults. The
// delimiter is the server-wide configured value (§6.1/§6.5), not
// necessarily DefaultDelimiter.
func NewSession(connID, remoteAddr string, delim byte, logger *slog.Logger) *Session {
	now := time.Now()
	return &Session{
		Delimiter:       delim,
		ErrorDetection:  false,
		ProtocolVersion: ProtocolVersion1,
		ConnID:          connID,
		RemoteAddr:      remoteAddr,
		StartedAt:       now,
		LastActive:      now,
		Logger:          logger.With("conn_id", connID, "remote_addr", remoteAddr),
	}
}

// LoggedIn reports whether a Login has succeeded on this session.
func (s *Session) LoggedIn() bool {
	return s.Account != nil
}

// Touch records the time of the latest dispatched message in
// LastActive. Registry.List does not report it.
func (s *Session) Touch() {
	s.LastActive = time.Now()
}
