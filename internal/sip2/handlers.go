package sip2

import (
	"context"
)

// patronStatusString renders the 14-character patron status block
// shared by the Patron Status Response and the Patron Information
// Response: the four "denied" bits (blank/Y, inverted sense) followed
// by ten condition bits (blank/Y, plain sense).
func patronStatusString(p Patron) string {
	b := make([]byte, 14)
	b[0] = denied(p.ChargeOK())
	b[1] = denied(p.RenewOK())
	b[2] = denied(p.RecallOK())
	b[3] = denied(p.HoldOK())
	b[4] = boolspace(p.CardLost())
	b[5] = boolspace(p.TooManyCharged())
	b[6] = boolspace(p.TooManyOverdue())
	b[7] = boolspace(p.TooManyRenewal())
	b[8] = boolspace(p.TooManyClaimReturn())
	b[9] = boolspace(p.TooManyLost())
	b[10] = boolspace(p.ExcessiveFines())
	b[11] = boolspace(p.ExcessiveFees())
	b[12] = boolspace(p.RecallOverdue())
	b[13] = boolspace(p.TooManyBilled())
	return string(b)
}

// echoAO returns the institution id a response should echo: whatever
// the request sent in AO, falling back to the ILS's own institution
// when the field was absent (malformed or very old SCs).
func echoAO(msg *ParsedMessage, ils ILS) string {
	if ao, ok := msg.Field("AO"); ok {
		return ao
	}
	return ils.Institution()
}

// magneticOrU renders a tri-state magnetic media bit: 'Y', 'N', or 'U'
// (unknown/unsupported) when the ILS doesn't carry the capability.
func magneticOrU(ils ILS, magnetic bool) byte {
	if !ils.Supports(CapMagneticMedia) {
		return 'U'
	}
	return sipbool(magnetic)
}

// feeQuartet formats a fee amount as SIP2's "N N.NN"-free decimal
// string — plain fixed-point, two fraction digits, no currency symbol.
func feeQuartet(amount float64) string {
	if amount < 0 {
		amount = 0
	}
	whole := int64(amount*100 + 0.5)
	return formatCents(whole)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + itoaPad(cents/100) + "." + twoDigits(cents%100)
}

func itoaPad(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + itoaPad(n)
	}
	return itoaPad(n)
}

// joinItemFields concatenates a list of item identifiers into repeated
// tagged AS/AT/AU/AV/BU/CD fields, one occurrence per item, in the
// order the ILS returned them.
func joinItemFields(tag string, items []string, delim byte) string {
	out := ""
	for _, it := range items {
		out += AddField(tag, it, delim)
	}
	return out
}

// buildPatronStatusResponse composes the patron status body used by the
// Patron Status Response (24) and the Patron Enable Response (26),
// with the ILS's configured language. The Patron Information Response
// (64) shares only patronStatusString; handlePatronInfo composes the
// rest of its body itself.
func buildPatronStatusResponse(code string, p Patron, ils ILS, msg *ParsedMessage, delim byte) string {
	return buildPatronStatusResponseLang(code, ils.Language(), p, ils, msg, delim)
}

// buildPatronStatusResponseLang is buildPatronStatusResponse with an
// explicit language override: Block Patron (§4.6) mandates lang="000"
// regardless of the ILS's configured language, since the message is a
// card-seizure notice rather than an ordinary status report.
func buildPatronStatusResponseLang(code, lang string, p Patron, ils ILS, msg *ParsedMessage, delim byte) string {
	body := code
	body += patronStatusString(p)
	body += lang
	body += Now()
	body += AddField("AO", echoAO(msg, ils), delim)
	body += AddField("AA", p.ID(), delim)
	body += AddField("AE", p.Name(), delim)
	body += AddField("BL", sipboolStr(true), delim)
	body += AddField("CQ", sipboolStr(p.CheckPassword(passwordFromRequest(msg))), delim)
	body += MaybeAdd("BV", feeQuartet(p.FeeAmount()), delim)
	body += MaybeAdd("AF", p.ScreenMessage(), delim)
	body += MaybeAdd("AG", p.PrintLine(), delim)
	return body
}

func sipboolStr(b bool) string { return string(sipbool(b)) }

// passwordFromRequest extracts the patron password field (AD) a
// request carries, defaulting to empty so CheckPassword reports false
// against an unset password rather than panicking on a missing field.
func passwordFromRequest(msg *ParsedMessage) string {
	pw, _ := msg.Field("AD")
	return pw
}

// handlePatronStatus implements the Patron Status Request / Patron
// Status Response pair (23/24).
func handlePatronStatus(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	patronID, _ := msg.Field("AA")
	patron, ok := ils.LookupPatron(ctx, patronID)
	if !ok {
		return unknownPatronStatus(CodePatronStatusResponse, msg, ils, sess.Delimiter)
	}
	return buildPatronStatusResponse(CodePatronStatusResponse, patron, ils, msg, sess.Delimiter)
}

// unknownPatronStatus answers a lookup miss with every privilege
// denied and BL/CQ both 'N', matching how the reference ILS reports a
// patron it has never heard of instead of refusing to answer at all.
// code is the caller's response prefix: Patron Status (24), Block
// Patron (24), or Patron Enable (26) each share this body shape but
// must keep their own response code.
func unknownPatronStatus(code string, msg *ParsedMessage, ils ILS, delim byte) string {
	body := code
	body += "YYYY          "
	body += ils.Language()
	body += Now()
	patronID, _ := msg.Field("AA")
	body += AddField("AO", echoAO(msg, ils), delim)
	body += AddField("AA", patronID, delim)
	body += AddField("AE", "", delim)
	body += AddField("BL", "N", delim)
	body += AddField("CQ", "N", delim)
	return body
}

// handleBlockPatron implements Block Patron (01) -> Patron Status
// Response (24): the card is retained and the ILS is told to block the
// account, then the same status body as a status request is returned.
func handleBlockPatron(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	cardRetained := msg.Fixed[0] == "Y"
	patronID, _ := msg.Field("AA")
	cardMsg, _ := msg.Field("AL")
	patron, ok := ils.BlockPatron(ctx, patronID, cardRetained, cardMsg)
	if !ok {
		return unknownPatronStatus(CodePatronStatusResponse, msg, ils, sess.Delimiter)
	}
	return buildPatronStatusResponseLang(CodePatronStatusResponse, "000", patron, ils, msg, sess.Delimiter)
}

// handleCheckout implements Checkout (11) -> Checkout Response (12).
func handleCheckout(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	scRenewal := msg.Fixed[0] == "Y"
	noBlock := msg.Fixed[1] == "Y"
	due := msg.Fixed[3]
	patronID, _ := msg.Field("AA")
	itemID, _ := msg.Field("AB")
	password, _ := msg.Field("AD")

	var txn TransactionStatus
	if noBlock {
		txn = ils.CheckoutNoBlock(ctx, patronID, itemID, password, due)
	} else {
		txn = ils.Checkout(ctx, patronID, itemID, password)
	}

	_ = scRenewal
	item := txn.Item()
	body := CodeCheckoutResponse
	body += string(sipbool(txn.OK()))
	body += string(sipbool(txn.RenewOK()))
	body += string(magneticOrU(ils, item != nil && item.Magnetic()))
	body += string(desensitizeBit(ils, txn))
	body += Now()
	var dueDate string
	if item != nil {
		dueDate = item.DueDate()
	}
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AA", patronID, sess.Delimiter)
	body += AddField("AB", itemID, sess.Delimiter)
	body += AddField("AJ", titleOf(item), sess.Delimiter)
	body += AddField("AH", dueDate, sess.Delimiter)
	body += MaybeAdd("BT", txn.FeeType(), sess.Delimiter)
	body += MaybeAdd("BV", feeAmountIfSet(txn), sess.Delimiter)
	body += MaybeAdd("CI", securityInhibitSupported(ils), sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

func titleOf(item Item) string {
	if item == nil {
		return ""
	}
	return item.TitleID()
}

func feeAmountIfSet(txn TransactionStatus) string {
	if txn.FeeAmount() <= 0 {
		return ""
	}
	return feeQuartet(txn.FeeAmount())
}

func desensitizeBit(ils ILS, txn TransactionStatus) byte {
	if !ils.Supports(CapDesensitize) {
		return 'U'
	}
	return sipbool(txn.Desensitize())
}

func securityInhibitSupported(ils ILS) string {
	if !ils.Supports(CapSecurityInhibit) {
		return ""
	}
	return "Y"
}

// handleCheckin implements Checkin (09) -> Checkin Response (10).
func handleCheckin(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	noBlock := msg.Fixed[0] == "Y"
	returnDate := msg.Fixed[2]
	currentLocation, _ := msg.Field("AP")
	itemID, _ := msg.Field("AB")

	var txn TransactionStatus
	if noBlock {
		txn = ils.CheckinNoBlock(ctx, itemID, currentLocation, returnDate)
	} else {
		txn = ils.Checkin(ctx, itemID, currentLocation)
	}

	item := txn.Item()
	body := CodeCheckinResponse
	body += string(sipbool(txn.OK()))
	body += string(resensitizeBit(ils, txn))
	body += string(boolOrU(txn.Alert()))
	body += string(magneticOrU(ils, item != nil && item.Magnetic()))
	body += Now()
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AB", itemID, sess.Delimiter)
	body += AddField("AQ", permanentOf(item), sess.Delimiter)
	body += AddField("AJ", titleOf(item), sess.Delimiter)
	body += MaybeAdd("AP", currentLocationOf(item, currentLocation), sess.Delimiter)
	body += MaybeAdd("CL", txn.SortBin(), sess.Delimiter)
	body += MaybeAdd("CK", mediaTypeOf(item), sess.Delimiter)
	body += MaybeAdd("CH", itemPropertiesOf(item), sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

func resensitizeBit(ils ILS, txn TransactionStatus) byte {
	if !ils.Supports(CapDesensitize) {
		return 'U'
	}
	return sipbool(txn.Resensitize())
}

func boolOrU(b bool) byte {
	return sipbool(b)
}

func permanentOf(item Item) string {
	if item == nil {
		return ""
	}
	return item.PermanentLocation()
}

func currentLocationOf(item Item, fallback string) string {
	if item == nil {
		return fallback
	}
	return item.CurrentLocation()
}

func mediaTypeOf(item Item) string {
	if item == nil {
		return ""
	}
	return item.SIPMediaType()
}

func itemPropertiesOf(item Item) string {
	if item == nil {
		return ""
	}
	return item.SIPItemProperties()
}

// handleHold implements Hold (15) -> Hold Response (16). The hold type
// field (BY) is accepted by the Hold schema but not read here; the
// hold mode comes from fixed slot 0.
func handleHold(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	holdMode := msg.Fixed[0]
	patronID, _ := msg.Field("AA")
	itemID, _ := msg.Field("AB")
	titleID, _ := msg.Field("AJ")
	pickupLocn, _ := msg.Field("BS")

	var txn TransactionStatus
	switch holdMode {
	case "-":
		txn = ils.CancelHold(ctx, patronID, itemID, titleID)
	case "*":
		txn = ils.AlterHold(ctx, patronID, itemID, titleID, pickupLocn)
	default:
		txn = ils.AddHold(ctx, patronID, itemID, titleID, pickupLocn)
	}

	item := txn.Item()
	body := CodeHoldResponse
	body += string(sipbool(txn.OK()))
	body += string(boolOrU(item != nil && item.Available()))
	body += Now()
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AA", patronID, sess.Delimiter)
	body += MaybeAdd("AB", itemID, sess.Delimiter)
	body += MaybeAdd("AJ", titleOf(item), sess.Delimiter)
	body += MaybeAdd("CL", sortBinOf(txn), sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

func sortBinOf(txn TransactionStatus) string {
	if txn == nil {
		return ""
	}
	return txn.SortBin()
}

// handleItemInformation implements Item Information (17) -> Item
// Information Response (18).
func handleItemInformation(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	itemID, _ := msg.Field("AB")
	item, ok := ils.LookupItem(ctx, itemID)
	if !ok {
		body := CodeItemInformationResp
		body += "01" + "01" + "01"
		body += Now()
		body += AddField("AB", itemID, sess.Delimiter)
		body += AddField("AJ", "", sess.Delimiter)
		return body
	}

	body := CodeItemInformationResp
	body += circulationStatusCode(item)
	body += securityMarkerCode(item)
	body += feeTypeCode(item)
	body += Now()
	body += MaybeAdd("CF", FormatCount(item.HoldQueue()), sess.Delimiter)
	body += AddField("AJ", item.TitleID(), sess.Delimiter)
	body += AddField("AB", item.ID(), sess.Delimiter)
	body += MaybeAdd("BG", item.Owner(), sess.Delimiter)
	body += MaybeAdd("BH", ils.CurrencyType(), sess.Delimiter)
	body += MaybeAdd("BV", feeIfNonZero(item.Fee()), sess.Delimiter)
	body += MaybeAdd("CK", item.SIPMediaType(), sess.Delimiter)
	body += MaybeAdd("AQ", item.PermanentLocation(), sess.Delimiter)
	body += MaybeAdd("AP", item.CurrentLocation(), sess.Delimiter)
	body += MaybeAdd("CH", item.SIPItemProperties(), sess.Delimiter)
	body += MaybeAdd("AH", item.DueDate(), sess.Delimiter)
	body += MaybeAdd("CJ", item.RecallDate(), sess.Delimiter)
	body += MaybeAdd("CM", item.HoldPickupDate(), sess.Delimiter)
	body += MaybeAdd("AF", item.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", item.PrintLine(), sess.Delimiter)
	return body
}

func feeIfNonZero(amount float64) string {
	if amount <= 0 {
		return ""
	}
	return feeQuartet(amount)
}

// circulationStatusCode, securityMarkerCode and feeTypeCode translate
// the ILS's free-text classifications into the two-character numeric
// codes the Item Information Response's fixed section carries. All
// three tables are closed: an ILS value this ACS does not recognize maps to
// the catch-all "other" code rather than being rejected.
func circulationStatusCode(item Item) string {
	switch item.CirculationStatus() {
	case "other":
		return "01"
	case "on order":
		return "02"
	case "available":
		return "03"
	case "charged":
		return "04"
	case "charged, not to be recalled":
		return "05"
	case "in process":
		return "06"
	case "recalled":
		return "07"
	case "waiting on hold shelf":
		return "08"
	case "waiting to be reshelved":
		return "09"
	case "in transit":
		return "10"
	case "claimed returned":
		return "11"
	case "lost":
		return "12"
	case "missing":
		return "13"
	default:
		return "01"
	}
}

func securityMarkerCode(item Item) string {
	switch item.SecurityMarker() {
	case "none":
		return "00"
	case "tattle-tape":
		return "01"
	case "whisper tape":
		return "02"
	default:
		return "00"
	}
}

func feeTypeCode(item Item) string {
	switch item.FeeType() {
	case "overdue":
		return "02"
	case "lost item":
		return "04"
	default:
		return "01"
	}
}

// handleItemStatusUpdate implements Item Status Update (19) -> Item
// Status Update Response (20). AF/AG are only emitted in the
// valid-item branch: an unknown item has nothing for the ILS to have
// said about it.
func handleItemStatusUpdate(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	itemID, _ := msg.Field("AB")
	properties, _ := msg.Field("CH")
	txn := ils.ItemStatusUpdate(ctx, itemID, properties)

	body := CodeItemStatusUpdateResp
	if txn == nil || txn.Item() == nil {
		body += "2"
		body += Now()
		body += AddField("AB", itemID, sess.Delimiter)
		return body
	}

	if txn.OK() {
		body += "0"
	} else {
		body += "1"
	}
	body += Now()
	body += AddField("AB", itemID, sess.Delimiter)
	body += MaybeAdd("AJ", titleOf(txn.Item()), sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

// handlePatronEnable implements Patron Enable (25) -> Patron Enable
// Response (26): identical shape to the Patron Status Response, over a
// patron the ILS has just re-activated.
func handlePatronEnable(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	patronID, _ := msg.Field("AA")
	password, _ := msg.Field("AD")
	patron, ok := ils.PatronEnable(ctx, patronID, password)
	if !ok {
		return unknownPatronStatus(CodePatronEnableResponse, msg, ils, sess.Delimiter)
	}
	return buildPatronStatusResponse(CodePatronEnableResponse, patron, ils, msg, sess.Delimiter)
}

// handleRenew implements Renew (29) -> Renew Response (30).
func handleRenew(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	thirdParty := msg.Fixed[0] == "Y"
	noBlock := msg.Fixed[1] == "Y"
	nbDue := msg.Fixed[3]
	patronID, _ := msg.Field("AA")
	itemID, _ := msg.Field("AB")
	password, _ := msg.Field("AD")

	txn := ils.Renew(ctx, patronID, itemID, password, thirdParty, noBlock, nbDue)
	item := txn.Item()

	body := CodeRenewResponse
	body += string(sipbool(txn.OK()))
	body += string(sipbool(txn.RenewOK()))
	body += string(magneticOrU(ils, item != nil && item.Magnetic()))
	body += string(desensitizeBit(ils, txn))
	body += Now()
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AA", patronID, sess.Delimiter)
	body += AddField("AB", itemID, sess.Delimiter)
	body += AddField("AJ", titleOf(item), sess.Delimiter)
	var dueDate string
	if item != nil {
		dueDate = item.DueDate()
	}
	body += AddField("AH", dueDate, sess.Delimiter)
	body += MaybeAdd("BT", txn.FeeType(), sess.Delimiter)
	body += MaybeAdd("BV", feeAmountIfSet(txn), sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

// handleRenewAll implements Renew All (65) -> Renew All Response (66).
func handleRenewAll(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	patronID, _ := msg.Field("AA")
	password, _ := msg.Field("AD")
	renewed, unrenewed := ils.RenewAll(ctx, patronID, password)

	body := CodeRenewAllResponse
	body += string(sipbool(len(renewed) > 0 || len(unrenewed) == 0))
	body += FormatCount(len(renewed))
	body += FormatCount(len(unrenewed))
	body += Now()
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += joinItemFields("BM", renewed, sess.Delimiter)
	body += joinItemFields("BN", unrenewed, sess.Delimiter)
	return body
}

// handleEndPatronSession implements End Patron Session (35) -> End
// Session Response (36).
func handleEndPatronSession(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	patronID, _ := msg.Field("AA")
	txn := ils.EndPatronSession(ctx, patronID)

	body := CodeEndSessionResponse
	body += string(sipbool(txn.OK()))
	body += Now()
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AA", patronID, sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

// handleFeePaid implements Fee Paid (37) -> Fee Paid Response (38). Fee
// type, payment type and currency are read from fixed slots 1-3; the
// transaction date in slot 0 is not passed to the ILS, and the
// response carries its own Now() timestamp.
func handleFeePaid(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	feeType := msg.Fixed[1]
	payType := msg.Fixed[2]
	currency := msg.Fixed[3]
	patronID, _ := msg.Field("AA")
	feeID, _ := msg.Field("CG")

	txn := ils.PayFee(ctx, patronID, feeType, payType, currency, feeID)

	body := CodeFeePaidResponse
	body += string(sipbool(txn.OK()))
	body += Now()
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AA", patronID, sess.Delimiter)
	body += MaybeAdd("BK", txn.TransactionID(), sess.Delimiter)
	body += MaybeAdd("AF", txn.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", txn.PrintLine(), sess.Delimiter)
	return body
}

// patronInfoSummaryFields maps the single non-blank position of the
// Patron Info request's 10-character "summary" fixed slot to the item
// list the response should detail in BM/BN-equivalent repeated AS/AT/
// AU/AV/BU/CD fields. Position is 0-indexed; a request with no
// position set (all blanks) asks for the status block alone.
var patronInfoSummaryFields = [...]string{
	"AS", // hold items
	"AT", // overdue items
	"AU", // charged items
	"AV", // fine items
	"BU", // recall items
	"CD", // unavailable hold items
}

// handlePatronInfo implements Patron Info (63) -> Patron Information
// Response (64): the shared status block plus item-detail lists gated
// by the summary position the request asked for, plus the six summary
// counts always reported in the fixed section.
func handlePatronInfo(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	patronID, _ := msg.Field("AA")
	patron, ok := ils.LookupPatron(ctx, patronID)
	if !ok {
		return unknownPatronInfo(msg, ils, sess.Delimiter)
	}

	summary := msg.Fixed[2]
	body := CodePatronInfoResponse
	body += patronStatusString(patron)
	body += ils.Language()
	body += Now()
	body += FormatCount(len(patron.HoldItems()))
	body += FormatCount(len(patron.OverdueItems()))
	body += FormatCount(len(patron.ChargedItems()))
	body += FormatCount(len(patron.FineItems()))
	body += FormatCount(len(patron.RecallItems()))
	body += FormatCount(len(patron.UnavailableHoldItems()))
	body += AddField("AO", echoAO(msg, ils), sess.Delimiter)
	body += AddField("AA", patron.ID(), sess.Delimiter)
	body += AddField("AE", patron.Name(), sess.Delimiter)
	body += MaybeAdd("BZ", FormatCount(0), sess.Delimiter)
	body += MaybeAdd("CA", FormatCount(0), sess.Delimiter)
	body += MaybeAdd("CB", FormatCount(0), sess.Delimiter)
	body += MaybeAdd("BL", sipboolStr(true), sess.Delimiter)
	body += MaybeAdd("CQ", sipboolStr(patron.CheckPassword(passwordFromRequest(msg))), sess.Delimiter)
	body += MaybeAdd("BV", feeIfNonZero(patron.FeeAmount()), sess.Delimiter)
	body += MaybeAdd("BD", patron.HomeAddress(), sess.Delimiter)
	body += MaybeAdd("BE", patron.EMail(), sess.Delimiter)
	body += MaybeAdd("BF", patron.HomePhone(), sess.Delimiter)
	body += MaybeAdd("PB", patron.Birthdate(), sess.Delimiter)
	body += MaybeAdd("PC", patron.PatronClass(), sess.Delimiter)

	body += patronInfoItemList(summary, 0, patron.HoldItems(), sess.Delimiter)
	body += patronInfoItemList(summary, 1, patron.OverdueItems(), sess.Delimiter)
	body += patronInfoItemList(summary, 2, patron.ChargedItems(), sess.Delimiter)
	body += patronInfoItemList(summary, 3, patron.FineItems(), sess.Delimiter)
	body += patronInfoItemList(summary, 4, patron.RecallItems(), sess.Delimiter)
	body += patronInfoItemList(summary, 5, patron.UnavailableHoldItems(), sess.Delimiter)

	body += MaybeAdd("AF", patron.ScreenMessage(), sess.Delimiter)
	body += MaybeAdd("AG", patron.PrintLine(), sess.Delimiter)
	return body
}

// patronInfoItemList emits items under tag only when position is the
// one non-blank slot in summary, matching the closed-table lookup
// pattern the rest of this package uses rather than chained ifs.
func patronInfoItemList(summary string, position int, items []string, delim byte) string {
	if position >= len(summary) || summary[position] != 'Y' {
		return ""
	}
	return joinItemFields(patronInfoSummaryFields[position], items, delim)
}

func unknownPatronInfo(msg *ParsedMessage, ils ILS, delim byte) string {
	body := CodePatronInfoResponse
	body += "YYYY          "
	body += ils.Language()
	body += Now()
	body += "0000" + "0000" + "0000" + "0000" + "0000" + "0000"
	patronID, _ := msg.Field("AA")
	body += AddField("AO", echoAO(msg, ils), delim)
	body += AddField("AA", patronID, delim)
	body += AddField("AE", "", delim)
	body += AddField("BL", "N", delim)
	body += AddField("CQ", "N", delim)
	return body
}

// handleLogin implements Login (93) -> Login Response (94): the one
// handler permitted before a session has an account, and the one that
// installs it. A session that logs in a second time simply replaces
// its account rather than being rejected (§4.6 Login note).
func handleLogin(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	if len(msg.Fixed) < 2 || msg.Fixed[0] != "0" || msg.Fixed[1] != "0" {
		sess.Logger.Warn("login rejected: non-plaintext algorithm requested")
		return CodeLoginResponse + "0"
	}

	uid, _ := msg.Field("CN")
	password, _ := msg.Field("CO")

	account, ok := policy.LookupAccount(uid)
	if !ok || !checkAccountPassword(account, password) {
		sess.Logger.Warn("login failed", "uid", uid)
		return CodeLoginResponse + "0"
	}

	sess.Account = account
	if sess.ProtocolVersion == ProtocolVersion1 {
		sess.ProtocolVersion = ProtocolVersion2
	}
	return CodeLoginResponse + "1"
}

// handleSCStatus implements SC Status (99) -> ACS Status (98), §4.7:
// the capability/configuration advertisement, plus a 1.00->2.00
// protocol upgrade whenever the SC reports version 2.00. It installs
// no account.
func handleSCStatus(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string {
	scStatusCode := msg.Fixed[0]
	requestedVersion := ""
	if len(msg.Fixed) > 2 {
		requestedVersion = msg.Fixed[2]
	}
	negotiateProtocolVersion(sess, requestedVersion)

	body := CodeACSStatus
	body += string(sipbool(true))
	body += string(sipbool(ils.CheckinOK()))
	body += string(sipbool(ils.CheckoutOK()))
	body += string(sipbool(ils.StatusUpdateOK()))
	body += string(sipbool(ils.Supports(CapDesensitize)))
	body += string(sipbool(false)) // timeout-retry unsupported: one request per connection round trip
	body += string(sipbool(policy.RenewalPolicy()))
	body += string(sipbool(ils.OfflineOK()))
	body += FormatCount(policy.Timeout())
	body += FormatCount(policy.Retries())
	body += Now()
	body += sess.ProtocolVersion
	body += AddField("AO", ils.Institution(), sess.Delimiter)
	body += AddField("BX", supportedMessagesMask(ils), sess.Delimiter)
	body += MaybeAdd("AN", "", sess.Delimiter)
	body += MaybeAdd("BH", ils.CurrencyType(), sess.Delimiter)
	body += MaybeAdd("AF", scStatusScreenMessage(scStatusCode), sess.Delimiter)
	return body
}

// negotiateProtocolVersion implements §4.2's version handshake: an SC
// that reports 2.00 support is answered in 2.00; one that reports
// nothing or 1.00 leaves the session's version unchanged (it is never
// lowered).
func negotiateProtocolVersion(sess *Session, requested string) {
	if requested == ProtocolVersion2 {
		sess.ProtocolVersion = ProtocolVersion2
	}
}

// supportedMessagesMask renders the 16-bit BX capability mask this ACS
// advertises: every message this implementation can answer is marked
// supported, in the fixed bit order the protocol defines.
func supportedMessagesMask(ils ILS) string {
	bits := []bool{
		true,               // patron status request
		ils.CheckoutOK(),   // checkout
		ils.CheckinOK(),    // checkin
		true,               // block patron
		true,               // SC/ACS status
		true,               // request SC/ACS resend
		true,               // login
		true,               // patron information
		true,               // end patron session
		true,               // fee paid
		true,               // item information
		ils.StatusUpdateOK(), // item status update
		true,               // patron enable
		true,               // hold
		true,               // renew
		true,               // renew all
	}
	out := make([]byte, len(bits))
	for i, b := range bits {
		out[i] = sipbool(b)
	}
	return string(out)
}

func scStatusScreenMessage(code string) string {
	switch code {
	case "1":
		return "printer out of paper"
	case "2":
		return "shutting down"
	default:
		return ""
	}
}

func checkAccountPassword(account *Account, password string) bool {
	if account == nil {
		return false
	}
	return verifyPasswordHash(account.PasswordHash, password)
}
