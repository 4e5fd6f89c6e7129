package sip2

import "testing"

func TestHandleInboundBareResendEnablesErrorDetection(t *testing.T) {
	sess := NewSession("c1", "127.0.0.1:1", DefaultDelimiter, discardLogger())
	outcome := HandleInbound(CodeRequestACSResend, sess, discardLogger())
	if outcome.Outcome != OutcomeResendDemand {
		t.Errorf("Outcome = %v; want OutcomeResendDemand", outcome.Outcome)
	}
	if !sess.ErrorDetection {
		t.Errorf("bare 97 should enable error detection")
	}
}

func TestHandleInboundVerifiesChecksum(t *testing.T) {
	sess := NewSession("c1", "127.0.0.1:1", DefaultDelimiter, discardLogger())
	good := trimCR(EmitWithChecksum("9900302.00", '1'))
	outcome := HandleInbound(good, sess, discardLogger())
	if outcome.Outcome != OutcomeProcess {
		t.Fatalf("Outcome = %v; want OutcomeProcess", outcome.Outcome)
	}
	if outcome.Inner != "9900302.00" {
		t.Errorf("Inner = %q; want 9900302.00", outcome.Inner)
	}
	if outcome.Seq != '1' {
		t.Errorf("Seq = %q; want '1'", outcome.Seq)
	}
}

func TestHandleInboundRejectsTamperedChecksum(t *testing.T) {
	sess := NewSession("c1", "127.0.0.1:1", DefaultDelimiter, discardLogger())
	frame := trimCR(EmitWithChecksum("9900302.00", '1'))
	tampered := frame[:len(frame)-1] + "0"
	outcome := HandleInbound(tampered, sess, discardLogger())
	if outcome.Outcome != OutcomeChecksumFailed {
		t.Errorf("Outcome = %v; want OutcomeChecksumFailed", outcome.Outcome)
	}
}

func TestResendWithNoPriorResponse(t *testing.T) {
	sess := NewSession("c1", "127.0.0.1:1", DefaultDelimiter, discardLogger())
	if got := Resend(sess); got != CodeRequestSCResend+"\r" {
		t.Errorf("Resend with empty history = %q; want %q", got, CodeRequestSCResend+"\r")
	}
}

func TestResendReplaysWithoutSequence(t *testing.T) {
	sess := NewSession("c1", "127.0.0.1:1", DefaultDelimiter, discardLogger())
	sess.ErrorDetection = true
	frame := EmitResponse("941", '5', sess)
	if frame != sess.LastResponse {
		t.Fatalf("EmitResponse should record LastResponse")
	}
	resent := Resend(sess)
	if resent == frame {
		t.Errorf("a resent message must not carry the original sequence trailer")
	}
	inner, _, ok := StripTrailer(trimCR(frame))
	if !ok {
		t.Fatalf("original frame should carry a trailer")
	}
	if resent != inner+"\r" {
		t.Errorf("Resend = %q; want %q", resent, inner+"\r")
	}
}
