package sip2

import (
	"context"
	"log/slog"
)

// Handler produces a response body (no trailer, no "\r" — the envelope
// attaches those) for one parsed request against the current session
// and ILS.
type Handler func(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy) string

// handlerTable is a registry of handler values keyed by code — a
// tagged-variant dispatch without reflection or function-pointer
// tables carrying display names (§9 design note).
var handlerTable = map[string]Handler{
	CodeBlockPatron:         handleBlockPatron,
	CodeCheckin:             handleCheckin,
	CodeCheckout:            handleCheckout,
	CodeHold:                handleHold,
	CodeItemInformation:     handleItemInformation,
	CodeItemStatusUpdate:    handleItemStatusUpdate,
	CodePatronStatusRequest: handlePatronStatus,
	CodePatronEnable:        handlePatronEnable,
	CodeRenew:               handleRenew,
	CodeEndPatronSession:    handleEndPatronSession,
	CodeFeePaid:             handleFeePaid,
	CodePatronInfo:          handlePatronInfo,
	CodeRenewAll:            handleRenewAll,
	CodeLogin:               handleLogin,
	CodeSCStatus:            handleSCStatus,
}

// codesRequiringNoLogin are the handlers the connection loop will run
// even before Login has succeeded (§4.6 Login note, gate in §4.7).
var codesRequiringNoLogin = map[string]bool{
	CodeLogin:    true,
	CodeSCStatus: true,
}

// DispatchOutcome distinguishes "ran a handler and here is the
// response" from "nothing to send" (gated frames, unknown codes).
type DispatchOutcome struct {
	Responded bool
	Body      string
}

// Dispatch implements §4.5's expected-reply gate plus the login gate
// described in §4.6's Login handler and §4.7: when expectedReply is
// set, any inbound code other than it (barring "97", always honored)
// is acknowledged but not run; when the session has no account yet,
// only Login and SC Status may run.
func Dispatch(ctx context.Context, msg *ParsedMessage, sess *Session, ils ILS, policy Policy, expectedReply string, logger *slog.Logger) DispatchOutcome {
	if expectedReply != "" && msg.Code != expectedReply && msg.Code != CodeRequestACSResend {
		logger.Warn("inbound code does not match expected reply, short-circuiting", "code", msg.Code, "expected", expectedReply)
		return DispatchOutcome{Responded: false}
	}

	if !sess.LoggedIn() && !codesRequiringNoLogin[msg.Code] {
		logger.Warn("rejecting message before login", "code", msg.Code, "conn_id", sess.ConnID)
		return DispatchOutcome{Responded: false}
	}

	handler, ok := handlerTable[msg.Code]
	if !ok {
		logger.Warn("no handler registered for code", "code", msg.Code)
		return DispatchOutcome{Responded: false}
	}

	sess.Touch()
	return DispatchOutcome{Responded: true, Body: handler(ctx, msg, sess, ils, policy)}
}
