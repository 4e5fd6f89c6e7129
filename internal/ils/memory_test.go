package ils

import (
	"context"
	"testing"

	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

func TestLookupPatronAndItem(t *testing.T) {
	b := NewMemoryBackend("MAIN")

	patron, ok := b.LookupPatron(context.Background(), "1234")
	if !ok {
		t.Fatal("expected seeded patron 1234 to be found")
	}
	if patron.Name() != "David J. Fiander" {
		t.Errorf("Name = %q; want David J. Fiander", patron.Name())
	}
	if !patron.CheckPassword("6789") {
		t.Errorf("CheckPassword(6789) = false; want true")
	}
	if patron.CheckPassword("wrong") {
		t.Errorf("CheckPassword(wrong) = true; want false")
	}

	item, ok := b.LookupItem(context.Background(), "3010046100404")
	if !ok {
		t.Fatal("expected seeded item to be found")
	}
	if !item.Available() {
		t.Errorf("seeded item should start available")
	}

	if _, ok := b.LookupPatron(context.Background(), "nobody"); ok {
		t.Errorf("unknown patron should not be found")
	}
}

func TestCheckoutAndCheckin(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	ctx := context.Background()

	status := b.Checkout(ctx, "1234", "3010046100404", "6789")
	if !status.OK() {
		t.Fatalf("Checkout failed: %s", status.ScreenMessage())
	}
	if status.Item().Available() {
		t.Errorf("item should be unavailable after checkout")
	}

	// A second checkout of the same item should fail since it's not available.
	blocked := b.Checkout(ctx, "1234", "3010046100404", "6789")
	if blocked.OK() {
		t.Errorf("checkout of an already-charged item should fail")
	}

	checkinStatus := b.Checkin(ctx, "3010046100404", "stacks")
	if !checkinStatus.OK() {
		t.Fatalf("Checkin failed: %s", checkinStatus.ScreenMessage())
	}
	if !checkinStatus.Item().Available() {
		t.Errorf("item should be available again after checkin")
	}
}

func TestCheckoutUnknownPatronOrItem(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	ctx := context.Background()

	if b.Checkout(ctx, "nobody", "3010046100404", "").OK() {
		t.Errorf("checkout with unknown patron should fail")
	}
	if b.Checkout(ctx, "1234", "nonexistent-item", "6789").OK() {
		t.Errorf("checkout with unknown item should fail")
	}
}

func TestRenewRespectsPatronRenewOK(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	ctx := context.Background()

	b.Checkout(ctx, "1234", "3010046100404", "6789")
	status := b.Renew(ctx, "1234", "3010046100404", "6789", false, false, "")
	if !status.OK() {
		t.Fatalf("Renew failed: %s", status.ScreenMessage())
	}

	b.BlockPatron(ctx, "1234", true, "card retained")
	blocked := b.Renew(ctx, "1234", "3010046100404", "6789", false, false, "")
	if blocked.OK() {
		t.Errorf("Renew for a blocked patron should fail")
	}
}

func TestAddAndCancelHold(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	ctx := context.Background()

	status := b.AddHold(ctx, "1234", "3010046100404", "", "MAIN")
	if !status.OK() {
		t.Fatalf("AddHold failed: %s", status.ScreenMessage())
	}
	patron, _ := b.LookupPatron(ctx, "1234")
	if len(patron.HoldItems()) != 1 {
		t.Fatalf("expected 1 hold item, got %d", len(patron.HoldItems()))
	}

	cancelStatus := b.CancelHold(ctx, "1234", "3010046100404", "")
	if !cancelStatus.OK() {
		t.Fatalf("CancelHold failed: %s", cancelStatus.ScreenMessage())
	}
	if len(patron.HoldItems()) != 0 {
		t.Errorf("expected holds to be cleared, got %d", len(patron.HoldItems()))
	}
}

func TestBlockAndEnablePatron(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	ctx := context.Background()

	patron, ok := b.BlockPatron(ctx, "1234", true, "lost card")
	if !ok {
		t.Fatal("BlockPatron should succeed for a known patron")
	}
	if patron.ChargeOK() {
		t.Errorf("a blocked patron should not have ChargeOK")
	}

	_, ok = b.PatronEnable(ctx, "1234", "6789")
	if !ok {
		t.Fatal("PatronEnable should succeed for a known patron")
	}
	if !patron.ChargeOK() {
		t.Errorf("ChargeOK should be restored after PatronEnable")
	}
}

func TestRenewAll(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	ctx := context.Background()

	b.Checkout(ctx, "1234", "3010046100404", "6789")
	renewed, unrenewed := b.RenewAll(ctx, "1234", "6789")
	if len(renewed) != 1 || len(unrenewed) != 0 {
		t.Errorf("RenewAll = renewed:%v unrenewed:%v; want 1 renewed, 0 unrenewed", renewed, unrenewed)
	}
}

func TestInstitutionAndCapabilities(t *testing.T) {
	b := NewMemoryBackend("MAIN")
	if b.Institution() != "MAIN" {
		t.Errorf("Institution() = %q; want MAIN", b.Institution())
	}
	if !b.CheckInstID(context.Background(), "MAIN") {
		t.Errorf("CheckInstID should accept its own institution id")
	}
	if !b.CheckInstID(context.Background(), "") {
		t.Errorf("CheckInstID should accept an empty id")
	}
	if b.CheckInstID(context.Background(), "OTHER") {
		t.Errorf("CheckInstID should reject a mismatched institution")
	}
	if !b.Supports(sip2.CapMagneticMedia) {
		t.Errorf("seeded backend should support magnetic media")
	}
	if b.Supports("nonexistent capability") {
		t.Errorf("unknown capability should not be supported")
	}
}
