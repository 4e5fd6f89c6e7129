package sip2

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/yourusername/sip2-acs-server/internal/audit"
	"github.com/yourusername/sip2-acs-server/internal/ops"
	"github.com/yourusername/sip2-acs-server/internal/telemetry"
)

// DeviceNotifier receives an alert when an SC Status frame reports a
// device condition (out of paper, shutting down). A separate interface
// from sip2.ILS/Policy since it concerns the physical terminal, not
// circulation business rules.
type DeviceNotifier = ops.Notifier

// ConnConfig bundles everything a connection needs beyond the socket
// itself: the backend it dispatches against, the server-wide policy,
// an idle timeout, and the logger each session's messages are attached
// to.
type ConnConfig struct {
	ILS         ILS
	Policy      Policy
	IdleTimeout time.Duration
	Logger      *slog.Logger
	Notifier    DeviceNotifier
	Registry    *Registry
	Audit       audit.Store
}

// ServeConn runs one SC connection to completion: read a terminated
// frame, run it through the error-detection envelope, parse it against
// the session's negotiated protocol version, dispatch it, and write
// back whatever the dispatcher produced — looping until the peer
// closes the socket or goes idle past IdleTimeout. It never returns an
// error; all failures are logged and end the connection.
func ServeConn(conn net.Conn, connID string, cfg ConnConfig) {
	defer conn.Close()

	sess := NewSession(connID, conn.RemoteAddr().String(), cfg.Policy.Delimiter(), cfg.Logger)
	sess.Logger.Info("connection opened")
	defer sess.Logger.Info("connection closed")

	if cfg.Registry != nil {
		cfg.Registry.register(connID, sess, conn)
		defer cfg.Registry.unregister(connID)
	}

	reader := bufio.NewReader(conn)
	var expectedReply string

	for {
		if cfg.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout))
		}

		rawBytes, err := reader.ReadBytes('\r')
		if err != nil {
			sess.Logger.Info("connection read ended", "error", err)
			return
		}
		raw := trimCR(DecodeFrameText(rawBytes))
		if raw == "" {
			continue
		}

		ctx, span := telemetry.Tracer().Start(context.Background(), "sip2.connection")
		outcome := HandleInbound(raw, sess, sess.Logger)

		switch outcome.Outcome {
		case OutcomeChecksumFailed:
			sess.Logger.Warn("checksum verification failed, requesting resend")
			writeFrame(conn, sess, CodeRequestSCResend+"\r")
			span.End()
			continue
		case OutcomeResendDemand:
			writeFrame(conn, sess, Resend(sess))
			span.End()
			continue
		}

		if outcome.Inner == CodeRequestACSResend {
			writeFrame(conn, sess, Resend(sess))
			span.End()
			continue
		}

		msg, ok := ParseMessage(outcome.Inner, sess.ProtocolVersion, sess.Delimiter, sess.Logger)
		if !ok {
			span.End()
			continue
		}

		if msg.Code == CodeSCStatus && cfg.Notifier != nil && len(msg.Fixed) > 0 {
			ops.ReportSCStatus(cfg.Notifier, sess.ConnID, sess.RemoteAddr, msg.Fixed[0])
		}

		result := Dispatch(ctx, msg, sess, cfg.ILS, cfg.Policy, expectedReply, sess.Logger)
		span.End()
		recordAudit(ctx, cfg.Audit, sess, msg, result)
		if !result.Responded {
			continue
		}

		frame := EmitResponse(result.Body, outcome.Seq, sess)
		if _, err := conn.Write(EncodeFrameText(frame)); err != nil {
			sess.Logger.Warn("write failed, closing connection", "error", err)
			return
		}

		expectedReply = nextExpectedReply(msg.Code)
	}
}

// writeFrame sends a pre-built frame (already carrying its own "\r",
// and its own trailer if applicable) without touching LastResponse —
// used for resend replays and for the "96" request-SC-resend answer to
// a bad checksum, neither of which records a new LastResponse.
func writeFrame(conn net.Conn, sess *Session, frame string) {
	if _, err := conn.Write(EncodeFrameText(frame)); err != nil {
		sess.Logger.Warn("write failed during resend", "error", err)
	}
}

// recordAudit appends a completed transaction to the audit log. It is
// fire-and-forget: a logging failure is itself logged but never
// affects the SC's response.
func recordAudit(ctx context.Context, store audit.Store, sess *Session, msg *ParsedMessage, result DispatchOutcome) {
	if store == nil || !result.Responded {
		return
	}
	accountUID := ""
	if sess.Account != nil {
		accountUID = sess.Account.UID
	}
	entry := audit.Entry{
		Time:       time.Now(),
		ConnID:     sess.ConnID,
		RemoteAddr: sess.RemoteAddr,
		AccountUID: accountUID,
		Code:       msg.Code,
		Name:       msg.Name,
		OK:         len(result.Body) > 0,
	}
	if err := store.Record(ctx, entry); err != nil {
		sess.Logger.Warn("audit record failed", "error", err)
	}
}

// nextExpectedReply supplies the expected-reply code Dispatch gates on.
// No request this ACS answers sets one, so it always returns "" and
// the gate stays open.
func nextExpectedReply(code string) string {
	switch code {
	case CodeLogin:
		return ""
	default:
		return ""
	}
}
