package sip2

import "log/slog"

// InboundOutcome tells the connection loop what to do with a frame
// after the error-detection envelope has looked at it.
type InboundOutcome int

const (
	// OutcomeProcess means: hand Inner to the parser/dispatcher.
	OutcomeProcess InboundOutcome = iota
	// OutcomeChecksumFailed means: a trailer was present but its
	// checksum didn't verify. The caller must send "96\r" and loop
	// back to reading, without invoking the handler.
	OutcomeChecksumFailed
	// OutcomeResendDemand means: the bare, trailer-less "97" frame
	// arrived, enabling error detection from this point on. The
	// caller should still run it through the normal resend-handler
	// path (there is no prior last_response yet, so it degrades to
	// the "96" case in practice, but the knob lives in the
	// dispatcher so this just marks error detection as now-on).
	OutcomeResendDemand
)

// InboundFrame is the result of running one raw frame (terminator
// already stripped) through the inbound half of §4.4.
type InboundFrame struct {
	Outcome InboundOutcome
	Inner   string
	Seq     byte
}

// HandleInbound implements §4.4's inbound algorithm exactly:
//   - the bare "97" frame (no trailer) enables error detection and is
//     reported as a resend demand;
//   - a frame carrying a well-formed trailer enables error detection
//     and is checksum-verified: failure reports OutcomeChecksumFailed,
//     success strips the trailer, records seq, and reports the inner
//     frame for parsing;
//   - a frame with no trailer, when error detection was previously on,
//     logs a protocol violation, turns error detection back off, and
//     is processed anyway (it carries no sequence number, so Seq is
//     left zero — there is no trailer to echo back).
//   - otherwise the frame is processed as-is with error detection
//     left whatever it already was.
func HandleInbound(raw string, sess *Session, logger *slog.Logger) InboundFrame {
	if raw == CodeRequestACSResend {
		sess.ErrorDetection = true
		return InboundFrame{Outcome: OutcomeResendDemand, Inner: raw}
	}

	if HasTrailer(raw) {
		sess.ErrorDetection = true
		if !VerifyChecksum(raw) {
			return InboundFrame{Outcome: OutcomeChecksumFailed}
		}
		inner, seq, _ := StripTrailer(raw)
		return InboundFrame{Outcome: OutcomeProcess, Inner: inner, Seq: seq}
	}

	if sess.ErrorDetection {
		logger.Warn("protocol violation: expected error-detection trailer, none present", "conn_id", sess.ConnID)
		sess.ErrorDetection = false
	}
	return InboundFrame{Outcome: OutcomeProcess, Inner: raw}
}

// EmitResponse implements §4.4's outbound half: terminate with "\r",
// and when error detection is enabled, append the "AY{seq}AZ{cksum}"
// trailer reusing the inbound sequence number. The emitted frame (with
// its trailer, if any) is remembered as last_response for resend
// arbitration.
func EmitResponse(body string, seq byte, sess *Session) string {
	var frame string
	if sess.ErrorDetection {
		frame = EmitWithChecksum(body, seq)
	} else {
		frame = body + "\r"
	}
	sess.LastResponse = frame
	return frame
}

// Resend implements the "97" resend-arbitration rule of §4.4: replay
// the most recent response, stripping its sequence trailer (a resent
// message carries no sequence number), or ask for a fresh resend if
// there is nothing to replay.
func Resend(sess *Session) string {
	if sess.LastResponse == "" {
		return CodeRequestSCResend + "\r"
	}
	if !HasTrailer(trimCR(sess.LastResponse)) {
		return sess.LastResponse
	}
	inner, _, _ := StripTrailer(trimCR(sess.LastResponse))
	return inner + "\r"
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
