// Package ils is a reference circulation backend implementing
// internal/sip2's ILS/Patron/Item/TransactionStatus contracts entirely
// in memory, for development and for the sipcheck debug client. A real
// deployment would replace it with an adapter over the site's actual
// integrated library system.
package ils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

// patronRecord is the in-memory Patron implementation. Fields are
// unexported; methods satisfy sip2.Patron.
type patronRecord struct {
	mu sync.RWMutex

	id          string
	name        string
	password    string
	homeAddress string
	email       string
	homePhone   string
	birthdate   string
	class       string

	chargeOK, renewOK, recallOK, holdOK bool
	cardLost                            bool
	blocked                             bool
	feeAmount                           float64
	screenMessage, printLine            string

	holdItems, overdueItems, chargedItems []string
	fineItems, recallItems, unavailHolds  []string
}

func (p *patronRecord) ID() string          { return p.id }
func (p *patronRecord) Name() string        { return p.name }
func (p *patronRecord) HomeAddress() string { return p.homeAddress }
func (p *patronRecord) EMail() string       { return p.email }
func (p *patronRecord) HomePhone() string   { return p.homePhone }
func (p *patronRecord) Birthdate() string   { return p.birthdate }
func (p *patronRecord) PatronClass() string { return p.class }

func (p *patronRecord) ChargeOK() bool { return p.chargeOK && !p.blocked }
func (p *patronRecord) RenewOK() bool  { return p.renewOK && !p.blocked }
func (p *patronRecord) RecallOK() bool { return p.recallOK && !p.blocked }
func (p *patronRecord) HoldOK() bool   { return p.holdOK && !p.blocked }
func (p *patronRecord) CardLost() bool { return p.cardLost }

func (p *patronRecord) TooManyCharged() bool     { return len(p.chargedItems) >= 50 }
func (p *patronRecord) TooManyOverdue() bool     { return len(p.overdueItems) >= 10 }
func (p *patronRecord) TooManyRenewal() bool     { return false }
func (p *patronRecord) TooManyClaimReturn() bool { return false }
func (p *patronRecord) TooManyLost() bool        { return false }
func (p *patronRecord) ExcessiveFines() bool     { return p.feeAmount >= 50 }
func (p *patronRecord) ExcessiveFees() bool      { return false }
func (p *patronRecord) RecallOverdue() bool      { return false }
func (p *patronRecord) TooManyBilled() bool      { return false }

func (p *patronRecord) FeeAmount() float64 { return p.feeAmount }

func (p *patronRecord) CheckPassword(pw string) bool {
	if p.password == "" {
		return true
	}
	return p.password == pw
}

func (p *patronRecord) HoldItems() []string            { return p.holdItems }
func (p *patronRecord) OverdueItems() []string          { return p.overdueItems }
func (p *patronRecord) ChargedItems() []string          { return p.chargedItems }
func (p *patronRecord) FineItems() []string             { return p.fineItems }
func (p *patronRecord) RecallItems() []string           { return p.recallItems }
func (p *patronRecord) UnavailableHoldItems() []string  { return p.unavailHolds }

func (p *patronRecord) ScreenMessage() string { return p.screenMessage }
func (p *patronRecord) PrintLine() string     { return p.printLine }

// itemRecord is the in-memory Item implementation.
type itemRecord struct {
	id, titleID               string
	magnetic, available       bool
	dueDate, recallDate       string
	holdPickupDate            string
	mediaType, itemProperties string
	fee                       float64
	holdQueue                 int
	owner, currentLoc, permLoc string
	circStatus, securityMark, feeType string
	screenMessage, printLine  string
}

func (i *itemRecord) ID() string                 { return i.id }
func (i *itemRecord) TitleID() string             { return i.titleID }
func (i *itemRecord) Magnetic() bool              { return i.magnetic }
func (i *itemRecord) Available() bool             { return i.available }
func (i *itemRecord) DueDate() string             { return i.dueDate }
func (i *itemRecord) RecallDate() string          { return i.recallDate }
func (i *itemRecord) HoldPickupDate() string       { return i.holdPickupDate }
func (i *itemRecord) SIPMediaType() string        { return i.mediaType }
func (i *itemRecord) SIPItemProperties() string   { return i.itemProperties }
func (i *itemRecord) Fee() float64                { return i.fee }
func (i *itemRecord) HoldQueue() int              { return i.holdQueue }
func (i *itemRecord) Owner() string                { return i.owner }
func (i *itemRecord) CurrentLocation() string      { return i.currentLoc }
func (i *itemRecord) PermanentLocation() string    { return i.permLoc }
func (i *itemRecord) CirculationStatus() string    { return i.circStatus }
func (i *itemRecord) SecurityMarker() string       { return i.securityMark }
func (i *itemRecord) FeeType() string              { return i.feeType }
func (i *itemRecord) ScreenMessage() string        { return i.screenMessage }
func (i *itemRecord) PrintLine() string            { return i.printLine }

// txnStatus is the uniform result every mutating ILS operation below
// returns.
type txnStatus struct {
	ok                                   bool
	screenMessage, printLine             string
	feeAmount                            float64
	feeType, transactionID               string
	patron                               sip2.Patron
	item                                 sip2.Item
	renewOK, desensitize, resensitize, alert bool
	sortBin                              string
}

func (t *txnStatus) OK() bool               { return t.ok }
func (t *txnStatus) ScreenMessage() string  { return t.screenMessage }
func (t *txnStatus) PrintLine() string      { return t.printLine }
func (t *txnStatus) FeeAmount() float64     { return t.feeAmount }
func (t *txnStatus) FeeType() string        { return t.feeType }
func (t *txnStatus) TransactionID() string  { return t.transactionID }
func (t *txnStatus) Patron() sip2.Patron    { return t.patron }
func (t *txnStatus) Item() sip2.Item        { return t.item }
func (t *txnStatus) RenewOK() bool          { return t.renewOK }
func (t *txnStatus) Desensitize() bool      { return t.desensitize }
func (t *txnStatus) Resensitize() bool      { return t.resensitize }
func (t *txnStatus) Alert() bool            { return t.alert }
func (t *txnStatus) SortBin() string        { return t.sortBin }

func fail(msg string) *txnStatus {
	return &txnStatus{ok: false, screenMessage: msg}
}

// MemoryBackend is the reference ILS: an in-process, mutex-guarded
// catalog and patron file seeded with one patron and one item, sufficient
// to drive sipcheck and the package's own tests without any external
// dependency.
type MemoryBackend struct {
	mu sync.RWMutex

	institution  string
	currency     string
	language     string
	checkinOK    bool
	checkoutOK   bool
	statusOK     bool
	offlineOK    bool
	capabilities map[string]bool

	patrons map[string]*patronRecord
	items   map[string]*itemRecord
}

// NewMemoryBackend returns a backend seeded with a small demo
// collection and patron file under the given institution id.
func NewMemoryBackend(institution string) *MemoryBackend {
	b := &MemoryBackend{
		institution: institution,
		currency:    "USD",
		language:    "001",
		checkinOK:   true,
		checkoutOK:  true,
		statusOK:    true,
		offlineOK:   false,
		capabilities: map[string]bool{
			sip2.CapMagneticMedia:   true,
			sip2.CapSecurityInhibit: true,
			sip2.CapDesensitize:     true,
		},
		patrons: map[string]*patronRecord{
			"1234": {
				id: "1234", name: "David J. Fiander", password: "6789",
				class: "3", chargeOK: true, renewOK: true, recallOK: true, holdOK: true,
			},
		},
		items: map[string]*itemRecord{
			"3010046100404": {
				id: "3010046100404", titleID: "Computer Networks",
				available: true, mediaType: "001", circStatus: "available",
				securityMark: "tattle-tape", feeType: "01", permLoc: "stacks", currentLoc: "stacks",
			},
		},
	}
	return b
}

func (b *MemoryBackend) Institution() string  { return b.institution }
func (b *MemoryBackend) CurrencyType() string { return b.currency }
func (b *MemoryBackend) Language() string     { return b.language }

func (b *MemoryBackend) CheckInstID(ctx context.Context, id string) bool {
	return id == "" || id == b.institution
}

func (b *MemoryBackend) Supports(capability string) bool {
	return b.capabilities[capability]
}

func (b *MemoryBackend) StatusUpdateOK() bool { return b.statusOK }
func (b *MemoryBackend) CheckinOK() bool      { return b.checkinOK }
func (b *MemoryBackend) CheckoutOK() bool     { return b.checkoutOK }
func (b *MemoryBackend) OfflineOK() bool      { return b.offlineOK }

func (b *MemoryBackend) LookupPatron(ctx context.Context, barcode string) (sip2.Patron, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.patrons[barcode]
	return p, ok
}

func (b *MemoryBackend) LookupItem(ctx context.Context, barcode string) (sip2.Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.items[barcode]
	return i, ok
}

func (b *MemoryBackend) Checkout(ctx context.Context, patronID, itemID, password string) sip2.TransactionStatus {
	return b.checkout(patronID, itemID, password, "", false)
}

func (b *MemoryBackend) CheckoutNoBlock(ctx context.Context, patronID, itemID, password, due string) sip2.TransactionStatus {
	return b.checkout(patronID, itemID, password, due, true)
}

func (b *MemoryBackend) checkout(patronID, itemID, password, due string, noBlock bool) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	item, ok := b.items[itemID]
	if !ok {
		return fail("unknown item")
	}
	if !noBlock && !patron.ChargeOK() {
		return &txnStatus{ok: false, patron: patron, item: item, screenMessage: "checkout blocked"}
	}
	if !noBlock && !item.available {
		return &txnStatus{ok: false, patron: patron, item: item, screenMessage: "item not available"}
	}

	item.available = false
	if due != "" {
		item.dueDate = due
	} else {
		item.dueDate = sip2.Timestamp(time.Now().AddDate(0, 0, 21))
	}
	item.circStatus = "charged"
	patron.chargedItems = append(patron.chargedItems, itemID)

	return &txnStatus{ok: true, patron: patron, item: item, renewOK: true, desensitize: true}
}

func (b *MemoryBackend) Checkin(ctx context.Context, itemID, currentLocation string) sip2.TransactionStatus {
	return b.checkin(itemID, currentLocation, "")
}

func (b *MemoryBackend) CheckinNoBlock(ctx context.Context, itemID, currentLocation, returnDate string) sip2.TransactionStatus {
	return b.checkin(itemID, currentLocation, returnDate)
}

func (b *MemoryBackend) checkin(itemID, currentLocation, returnDate string) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[itemID]
	if !ok {
		return fail("unknown item")
	}
	item.available = true
	item.circStatus = "available"
	item.dueDate = ""
	if currentLocation != "" {
		item.currentLoc = currentLocation
	}

	for _, patron := range b.patrons {
		patron.chargedItems = removeItem(patron.chargedItems, itemID)
	}

	return &txnStatus{ok: true, item: item, resensitize: true}
}

func removeItem(items []string, id string) []string {
	out := items[:0]
	for _, it := range items {
		if it != id {
			out = append(out, it)
		}
	}
	return out
}

func (b *MemoryBackend) BlockPatron(ctx context.Context, patronID string, cardRetained bool, cardRetainedMsg string) (sip2.Patron, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return nil, false
	}
	patron.blocked = true
	patron.cardLost = cardRetained
	patron.screenMessage = cardRetainedMsg
	return patron, true
}

func (b *MemoryBackend) PayFee(ctx context.Context, patronID, feeType, payType, currency, feeID string) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	patron.feeAmount = 0
	return &txnStatus{ok: true, patron: patron, transactionID: fmt.Sprintf("fee-%s-%s", patronID, feeID)}
}

func (b *MemoryBackend) EndPatronSession(ctx context.Context, patronID string) sip2.TransactionStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	return &txnStatus{ok: true, patron: patron}
}

func (b *MemoryBackend) AddHold(ctx context.Context, patronID, itemID, titleID, pickupLocn string) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	if !patron.HoldOK() {
		return &txnStatus{ok: false, patron: patron, screenMessage: "holds blocked"}
	}
	var item *itemRecord
	if itemID != "" {
		item = b.items[itemID]
		if item != nil {
			item.holdQueue++
		}
	}
	patron.holdItems = append(patron.holdItems, itemID)
	return &txnStatus{ok: true, patron: patron, item: item}
}

func (b *MemoryBackend) CancelHold(ctx context.Context, patronID, itemID, titleID string) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	patron.holdItems = removeItem(patron.holdItems, itemID)
	return &txnStatus{ok: true, patron: patron}
}

func (b *MemoryBackend) AlterHold(ctx context.Context, patronID, itemID, titleID, pickupLocn string) sip2.TransactionStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	return &txnStatus{ok: true, patron: patron}
}

func (b *MemoryBackend) Renew(ctx context.Context, patronID, itemID, password string, thirdParty, noBlock bool, nbDueDate string) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return fail("unknown patron")
	}
	item, ok := b.items[itemID]
	if !ok {
		return fail("unknown item")
	}
	if !noBlock && !patron.RenewOK() {
		return &txnStatus{ok: false, patron: patron, item: item, screenMessage: "renewal blocked"}
	}
	if nbDueDate != "" {
		item.dueDate = nbDueDate
	} else {
		item.dueDate = sip2.Timestamp(time.Now().AddDate(0, 0, 21))
	}
	return &txnStatus{ok: true, patron: patron, item: item, renewOK: true}
}

func (b *MemoryBackend) RenewAll(ctx context.Context, patronID, password string) (renewed, unrenewed []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return nil, nil
	}
	if !patron.RenewOK() {
		return nil, patron.chargedItems
	}
	for _, itemID := range patron.chargedItems {
		if item, ok := b.items[itemID]; ok {
			item.dueDate = sip2.Timestamp(time.Now().AddDate(0, 0, 21))
			renewed = append(renewed, itemID)
		} else {
			unrenewed = append(unrenewed, itemID)
		}
	}
	return renewed, unrenewed
}

func (b *MemoryBackend) ItemStatusUpdate(ctx context.Context, itemID, properties string) sip2.TransactionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[itemID]
	if !ok {
		return &txnStatus{ok: false}
	}
	item.itemProperties = properties
	return &txnStatus{ok: true, item: item}
}

func (b *MemoryBackend) PatronEnable(ctx context.Context, patronID, password string) (sip2.Patron, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	patron, ok := b.patrons[patronID]
	if !ok {
		return nil, false
	}
	patron.blocked = false
	return patron, true
}
