package sip2

import "context"

// Capability names passed to ILS.Supports (§9 design note: "duck-typed"
// status objects become an interface with a capability method plus
// fixed accessors; unsupported capabilities get a defined default).
const (
	CapMagneticMedia   = "magnetic media"
	CapSecurityInhibit = "security inhibit"
	CapDesensitize     = "desensitize"
)

// Patron is the read-only view of a patron account the ILS hands back.
// The core never mutates it; handlers only read accessors and compose
// responses.
type Patron interface {
	ID() string
	Name() string
	HomeAddress() string
	EMail() string
	HomePhone() string
	Birthdate() string
	PatronClass() string

	ChargeOK() bool
	RenewOK() bool
	RecallOK() bool
	HoldOK() bool
	CardLost() bool
	TooManyCharged() bool
	TooManyOverdue() bool
	TooManyRenewal() bool
	TooManyClaimReturn() bool
	TooManyLost() bool
	ExcessiveFines() bool
	ExcessiveFees() bool
	RecallOverdue() bool
	TooManyBilled() bool

	FeeAmount() float64

	CheckPassword(pw string) bool

	HoldItems() []string
	OverdueItems() []string
	ChargedItems() []string
	FineItems() []string
	RecallItems() []string
	UnavailableHoldItems() []string

	// ScreenMessage and PrintLine carry any message the ILS wants
	// surfaced to the terminal alongside this patron, independent of
	// any particular transaction (e.g. "membership expires soon").
	ScreenMessage() string
	PrintLine() string
}

// Item is the read-only view of a bibliographic item the ILS hands
// back.
type Item interface {
	ID() string
	TitleID() string
	Magnetic() bool
	Available() bool
	DueDate() string
	RecallDate() string
	HoldPickupDate() string
	SIPMediaType() string
	SIPItemProperties() string
	Fee() float64
	HoldQueue() int
	Owner() string
	CurrentLocation() string
	PermanentLocation() string
	CirculationStatus() string
	SecurityMarker() string
	FeeType() string

	ScreenMessage() string
	PrintLine() string
}

// TransactionStatus is the result of any ILS operation: ok/failure plus
// whatever screen message, print line, and fee the ILS wants surfaced,
// along with the (possibly updated) Patron/Item involved.
type TransactionStatus interface {
	OK() bool
	ScreenMessage() string
	PrintLine() string
	FeeAmount() float64
	FeeType() string
	TransactionID() string
	Patron() Patron
	Item() Item
	RenewOK() bool
	Desensitize() bool
	Resensitize() bool
	Alert() bool
	SortBin() string
}

// ILS is the abstract circulation backend (§6.4). The core never
// implements business rules against it directly; it only calls these
// operations and composes the response from what comes back.
type ILS interface {
	Institution() string
	CurrencyType() string
	// Language is the three-digit language code (§4.6) echoed in the
	// Patron Status and Patron Information responses, e.g. "001" for
	// English.
	Language() string
	CheckInstID(ctx context.Context, id string) bool
	Supports(capability string) bool

	StatusUpdateOK() bool
	CheckinOK() bool
	CheckoutOK() bool
	OfflineOK() bool

	LookupPatron(ctx context.Context, barcode string) (Patron, bool)
	LookupItem(ctx context.Context, barcode string) (Item, bool)

	Checkout(ctx context.Context, patronID, itemID, password string) TransactionStatus
	CheckoutNoBlock(ctx context.Context, patronID, itemID, password string, due string) TransactionStatus
	Checkin(ctx context.Context, itemID, currentLocation string) TransactionStatus
	CheckinNoBlock(ctx context.Context, itemID, currentLocation string, returnDate string) TransactionStatus

	BlockPatron(ctx context.Context, patronID string, cardRetained bool, cardRetainedMsg string) (Patron, bool)

	PayFee(ctx context.Context, patronID, feeType, payType, currency, feeID string) TransactionStatus
	EndPatronSession(ctx context.Context, patronID string) TransactionStatus
	AddHold(ctx context.Context, patronID, itemID, titleID, pickupLocn string) TransactionStatus
	CancelHold(ctx context.Context, patronID, itemID, titleID string) TransactionStatus
	AlterHold(ctx context.Context, patronID, itemID, titleID, pickupLocn string) TransactionStatus
	Renew(ctx context.Context, patronID, itemID, password string, thirdParty bool, noBlock bool, nbDueDate string) TransactionStatus
	RenewAll(ctx context.Context, patronID, password string) (renewed, unrenewed []string)

	ItemStatusUpdate(ctx context.Context, itemID, properties string) TransactionStatus
	PatronEnable(ctx context.Context, patronID, password string) (Patron, bool)
}
