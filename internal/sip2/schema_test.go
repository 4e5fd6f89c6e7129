package sip2

import "testing"

func TestLookupSchemaCheckoutWidths(t *testing.T) {
	s, ok := LookupSchema(CodeCheckout, ProtocolVersion1)
	if !ok {
		t.Fatal("Checkout schema not found for 1.00")
	}
	if s.FixedLen != 38 {
		t.Errorf("Checkout FixedLen = %d; want 38 (CCA18A18)", s.FixedLen)
	}
	if !s.AllowedFields["AB"] {
		t.Errorf("Checkout schema should allow AB (item identifier)")
	}
}

func TestLookupSchemaPatronInfoWidths(t *testing.T) {
	s, ok := LookupSchema(CodePatronInfo, ProtocolVersion2)
	if !ok {
		t.Fatal("Patron Info schema not found for 2.00")
	}
	if s.FixedLen != 31 {
		t.Errorf("Patron Info FixedLen = %d; want 31 (A3A18A10)", s.FixedLen)
	}
}

func TestV2OnlyCodeRejectedUnder1_00(t *testing.T) {
	v2OnlyCodes := []string{CodeHold, CodePatronEnable, CodeFeePaid, CodePatronInfo, CodeRenewAll}
	for _, code := range v2OnlyCodes {
		if _, ok := LookupSchema(code, ProtocolVersion1); ok {
			t.Errorf("code %s should not resolve under protocol 1.00", code)
		}
		if _, ok := LookupSchema(code, ProtocolVersion2); !ok {
			t.Errorf("code %s should resolve under protocol 2.00", code)
		}
	}
}

func TestV1SchemaInheritedUnder2_00(t *testing.T) {
	s1, ok1 := LookupSchema(CodeCheckin, ProtocolVersion1)
	s2, ok2 := LookupSchema(CodeCheckin, ProtocolVersion2)
	if !ok1 || !ok2 {
		t.Fatal("Checkin should resolve under both protocol versions")
	}
	if s1.FixedLen != s2.FixedLen {
		t.Errorf("Checkin schema should be identical across versions: v1=%d v2=%d", s1.FixedLen, s2.FixedLen)
	}
}

func TestLookupSchemaUnknownCode(t *testing.T) {
	if _, ok := LookupSchema("ZZ", ProtocolVersion2); ok {
		t.Errorf("unknown code ZZ should not resolve")
	}
}
