package sip2

import (
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseMessageCheckout(t *testing.T) {
	raw := "11YN20260101    084237                  AOMAIN|AApatron1|ABitem1|"
	msg, ok := ParseMessage(raw, ProtocolVersion1, DefaultDelimiter, discardLogger())
	if !ok {
		t.Fatal("ParseMessage failed on a well-formed Checkout frame")
	}
	if msg.Code != CodeCheckout {
		t.Errorf("Code = %s; want %s", msg.Code, CodeCheckout)
	}
	if len(msg.Fixed) != 4 {
		t.Fatalf("Fixed has %d entries; want 4", len(msg.Fixed))
	}
	if msg.Fixed[0] != "Y" || msg.Fixed[1] != "N" {
		t.Errorf("Fixed[0:2] = %q, %q; want Y, N", msg.Fixed[0], msg.Fixed[1])
	}
	if ao, ok := msg.Field("AO"); !ok || ao != "MAIN" {
		t.Errorf("AO field = %q, ok=%v; want MAIN, true", ao, ok)
	}
	if ab, ok := msg.Field("AB"); !ok || ab != "item1" {
		t.Errorf("AB field = %q, ok=%v; want item1, true", ab, ok)
	}
}

func TestParseMessageUnknownCode(t *testing.T) {
	if _, ok := ParseMessage("ZZsomething", ProtocolVersion2, DefaultDelimiter, discardLogger()); ok {
		t.Errorf("ParseMessage should reject an unknown code")
	}
}

func TestParseMessageShortFrame(t *testing.T) {
	msg, ok := ParseMessage("11Y", ProtocolVersion1, DefaultDelimiter, discardLogger())
	if !ok {
		t.Fatal("ParseMessage should tolerate a short fixed section, not fail outright")
	}
	for i, f := range msg.Fixed {
		if f != "" {
			t.Errorf("Fixed[%d] = %q on a truncated frame; want empty", i, f)
		}
	}
}

func TestParseMessageUnrecognizedFieldIgnored(t *testing.T) {
	raw := "17000000000000000000ABitem1|ZZbogus|"
	msg, ok := ParseMessage(raw, ProtocolVersion1, DefaultDelimiter, discardLogger())
	if !ok {
		t.Fatal("ParseMessage failed on Item Information frame")
	}
	if _, ok := msg.Field("ZZ"); ok {
		t.Errorf("unrecognized field ZZ should not appear in Fields")
	}
	if ab, _ := msg.Field("AB"); ab != "item1" {
		t.Errorf("AB = %q; want item1", ab)
	}
}
