package sip2

// Message codes. The set is closed: these are the only codes this ACS
// accepts from an SC.
const (
	CodeBlockPatron           = "01"
	CodeCheckin               = "09"
	CodeCheckout              = "11"
	CodeHold                  = "15"
	CodeItemInformation       = "17"
	CodeItemStatusUpdate      = "19"
	CodePatronStatusRequest   = "23"
	CodePatronEnable          = "25"
	CodeRenew                 = "29"
	CodeEndPatronSession      = "35"
	CodeFeePaid               = "37"
	CodePatronInfo            = "63"
	CodeRenewAll              = "65"
	CodeLogin                 = "93"
	CodeRequestACSResend      = "97"
	CodeSCStatus              = "99"

	CodePatronStatusResponse  = "24"
	CodeCheckinResponse       = "10"
	CodeCheckoutResponse      = "12"
	CodeHoldResponse          = "16"
	CodeItemInformationResp   = "18"
	CodeItemStatusUpdateResp  = "20"
	CodePatronEnableResponse  = "26"
	CodeRenewResponse         = "30"
	CodeEndSessionResponse    = "36"
	CodeFeePaidResponse       = "38"
	CodePatronInfoResponse    = "64"
	CodeRenewAllResponse      = "66"
	CodeLoginResponse         = "94"
	CodeRequestSCResend       = "96"
	CodeACSStatus             = "98"
)

// ProtocolVersion1 and ProtocolVersion2 are the two negotiated
// protocol versions a session may run.
const (
	ProtocolVersion1 = "1.00"
	ProtocolVersion2 = "2.00"
)

// Schema is the per-{code,version} field contract: the ordered fixed
// template (each slot's width in characters), the total fixed length,
// and the set of variable field IDs recognized in this message's
// variable section.
type Schema struct {
	Name          string
	FixedTemplate []int
	FixedLen      int
	AllowedFields map[string]bool
}

func newSchema(name string, widths []int, fields ...string) Schema {
	total := 0
	for _, w := range widths {
		total += w
	}
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	return Schema{Name: name, FixedTemplate: widths, FixedLen: total, AllowedFields: allowed}
}

// schemaEntry is one row of the declarative table below: a code, its
// v1.00 schema (nil if the code was introduced in 2.00), and its
// v2.00 schema (nil if 2.00 carries the same contract as 1.00).
type schemaEntry struct {
	code string
	v1   *Schema
	v2   *Schema
}

func sp(s Schema) *Schema { return &s }

// rawSchemaTable is the closed table of request-message schemas. It
// must be preserved bit-for-bit: every code, its fixed template
// widths, and its allowed variable field IDs per version. Codes
// introduced in SIP2 2.00 (Hold, Patron Enable, Fee Paid, Patron Info,
// Renew All) carry no v1.00 entry and are rejected when a 1.00 session
// sends them (§4.2).
var rawSchemaTable = []schemaEntry{
	{
		code: CodeBlockPatron,
		v1: sp(newSchema("Block Patron", []int{1, 18},
			"AO", "AL", "AA", "AC")),
	},
	{
		code: CodeCheckin,
		v1: sp(newSchema("Checkin", []int{1, 18, 18},
			"AP", "AO", "AB", "AC", "CH", "BI")),
	},
	{
		code: CodeCheckout,
		v1: sp(newSchema("Checkout", []int{1, 1, 18, 18},
			"AO", "AA", "AB", "AC", "AD", "CH", "BO", "BI")),
	},
	{
		code: CodeHold,
		v2: sp(newSchema("Hold", []int{1, 18},
			"AO", "AA", "AD", "AB", "AJ", "BS", "BY", "BO")),
	},
	{
		code: CodeItemInformation,
		v1: sp(newSchema("Item Information", []int{18},
			"AO", "AB", "AC")),
	},
	{
		code: CodeItemStatusUpdate,
		v1: sp(newSchema("Item Status Update", []int{18},
			"AO", "AB", "AC", "CH", "CK")),
	},
	{
		code: CodePatronStatusRequest,
		v1: sp(newSchema("Patron Status", []int{3, 18},
			"AO", "AA", "AC", "AD")),
	},
	{
		code: CodePatronEnable,
		v2: sp(newSchema("Patron Enable", []int{18},
			"AO", "AA", "AC", "AD")),
	},
	{
		code: CodeRenew,
		v1: sp(newSchema("Renew", []int{1, 1, 18, 18},
			"AO", "AA", "AD", "AB", "AJ", "CH", "BO", "BI")),
	},
	{
		code: CodeEndPatronSession,
		v1: sp(newSchema("End Patron Session", []int{18},
			"AO", "AA", "AC", "AD")),
	},
	{
		code: CodeFeePaid,
		v2: sp(newSchema("Fee Paid", []int{18, 2, 2, 3},
			"AO", "AA", "AC", "AD", "BK", "CG", "BV")),
	},
	{
		code: CodePatronInfo,
		v2: sp(newSchema("Patron Info", []int{3, 18, 10},
			"AO", "AA", "AC", "AD")),
	},
	{
		code: CodeRenewAll,
		v2: sp(newSchema("Renew All", []int{18},
			"AO", "AA", "AC", "AD")),
	},
	{
		code: CodeLogin,
		v1: sp(newSchema("Login", []int{1, 1},
			"CN", "CO", "CP")),
	},
	{
		code: CodeRequestACSResend,
		v1: sp(newSchema("Request ACS Resend", nil)),
	},
	{
		code: CodeSCStatus,
		v1: sp(newSchema("SC Status", []int{1, 3, 4})),
	},
}

// schemaTable is schemaTable[code][version], precomputed once at
// package init rather than resolved by a chained v1->v2 lookup at
// request time (§9 design note).
var schemaTable = buildSchemaTable()

func buildSchemaTable() map[string]map[string]Schema {
	table := make(map[string]map[string]Schema, len(rawSchemaTable))
	for _, e := range rawSchemaTable {
		versions := make(map[string]Schema, 2)
		switch {
		case e.v1 != nil && e.v2 != nil:
			versions[ProtocolVersion1] = *e.v1
			versions[ProtocolVersion2] = *e.v2
		case e.v1 != nil:
			versions[ProtocolVersion1] = *e.v1
			versions[ProtocolVersion2] = *e.v1
		case e.v2 != nil:
			versions[ProtocolVersion2] = *e.v2
		}
		table[e.code] = versions
	}
	return table
}

// LookupSchema returns the schema for code under the given protocol
// version, or false if the code is unknown or not available in that
// version (e.g. a 2.00-only code sent by a 1.00 session).
func LookupSchema(code, version string) (Schema, bool) {
	byVersion, ok := schemaTable[code]
	if !ok {
		return Schema{}, false
	}
	s, ok := byVersion[version]
	return s, ok
}

// fieldCatalog documents the closed set of variable field IDs this
// implementation recognizes, for reference and logging. Unknown IDs
// encountered on the wire are logged and ignored (§3).
var fieldCatalog = map[string]string{
	"AA": "patron identifier",
	"AB": "item identifier",
	"AC": "terminal password",
	"AD": "patron password",
	"AE": "personal name",
	"AF": "screen message",
	"AG": "print line",
	"AH": "due date",
	"AJ": "title identifier",
	"AL": "blocked card msg",
	"AO": "institution id",
	"AP": "current location",
	"AQ": "permanent location",
	"AS": "hold items",
	"AT": "overdue items",
	"AU": "charged items",
	"AV": "fine items",
	"BD": "home address",
	"BE": "e-mail address",
	"BF": "home phone number",
	"BG": "owner",
	"BH": "currency type",
	"BI": "security inhibit",
	"BK": "transaction id",
	"BL": "valid patron",
	"BM": "renewed items",
	"BN": "unrenewed items",
	"BO": "fee acknowledged",
	"BR": "queue position",
	"BS": "pickup location",
	"BT": "fee type",
	"BU": "recall items",
	"BV": "fee amount",
	"BW": "expiration date",
	"BX": "supported messages",
	"BY": "hold type",
	"CD": "unavailable hold items",
	"CF": "hold queue length",
	"CG": "fee identifier",
	"CH": "item properties",
	"CI": "security inhibit supported",
	"CJ": "recall date",
	"CK": "media type",
	"CL": "sort bin",
	"CM": "hold pickup date",
	"CN": "login user id",
	"CO": "login password",
	"CP": "location code",
	"CQ": "valid patron password",
	"PB": "patron birth date",
	"PC": "patron class",
}
