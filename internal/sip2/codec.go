// Package sip2 implements the 3M Standard Interchange Protocol, version
// 2.00 with 1.00 fallback, as spoken between self-service terminals
// ("SCs") and this server acting as the Automated Circulation System
// ("ACS").
package sip2

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDelimiter is the default field delimiter; sessions may override it
// per-server (never per-account, since login happens before an account
// is selected).
const DefaultDelimiter = '|'

// Timestamp renders t in the SIP2 18-character form "YYYYMMDDZZZZHHMMSS".
// The spec's ZZZZ timezone slot is rendered as four blanks (UTC/local
// wall clock, no offset reported) exactly like the reference
// implementation's date formatting.
func Timestamp(t time.Time) string {
	return t.Format("20060102    150405")
}

// Now is Timestamp(time.Now()); split out so callers needing a fixed
// instant (tests, replay) can call Timestamp directly.
func Now() string {
	return Timestamp(time.Now())
}

// sipbool renders a straightforward boolean as 'Y' or 'N'.
func sipbool(b bool) byte {
	if b {
		return 'Y'
	}
	return 'N'
}

// denied renders the inverted-sense bits used in the patron status
// string's first four positions: blank means "allowed", 'Y' means
// "denied".
func denied(ok bool) byte {
	if ok {
		return ' '
	}
	return 'Y'
}

// boolspace renders the patron status string's bits 4-13: 'Y' when the
// condition holds, blank otherwise.
func boolspace(b bool) byte {
	if b {
		return 'Y'
	}
	return ' '
}

// AddField always emits "{id}{value}{delim}", even when value is empty.
func AddField(id, value string, delim byte) string {
	return id + value + string(delim)
}

// MaybeAdd emits AddField(id, value, delim) unless value is empty, in
// which case it emits nothing. Required fields use AddField; optional
// fields that should be omitted when unset use MaybeAdd.
func MaybeAdd(id, value string, delim byte) string {
	if value == "" {
		return ""
	}
	return AddField(id, value, delim)
}

// FormatCount zero-pads n into SIP2's four-character decimal count
// slot. Counts larger than 9999 are clamped to 9999 rather than
// overflowing the fixed width.
func FormatCount(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 9999 {
		n = 9999
	}
	return fmt.Sprintf("%04d", n)
}

// AddCount emits a tagged, zero-padded four-digit count variable field.
// Most handlers embed counts directly in the fixed section via
// FormatCount; AddCount exists for the rarer case of a tagged count
// field.
func AddCount(tag string, n int, delim byte) string {
	return AddField(tag, FormatCount(n), delim)
}

// checksumOf sums the bytes of data and returns the four-hex-digit
// two's complement such that (sum(data) + value) mod 0x10000 == 0.
func checksumOf(data string) string {
	var sum int
	for i := 0; i < len(data); i++ {
		sum += int(data[i])
	}
	check := (-sum) & 0xFFFF
	return fmt.Sprintf("%04X", check)
}

// EmitWithChecksum appends the "AY{seq}AZ{cksum}\r" error-detection
// trailer to body and returns the full frame. seq is the single ASCII
// digit echoed from the inbound request.
func EmitWithChecksum(body string, seq byte) string {
	prefix := body + "AY" + string(seq) + "AZ"
	return prefix + checksumOf(prefix) + "\r"
}

// VerifyChecksum reports whether raw (with its "\r" terminator already
// stripped) carries a well-formed nine-character "AY{d}AZ{HHHH}"
// trailer whose checksum is correct.
func VerifyChecksum(raw string) bool {
	if len(raw) < 11 {
		return false
	}
	trailer := raw[len(raw)-9:]
	if trailer[0:2] != "AY" || trailer[3:5] != "AZ" {
		return false
	}
	dataAndPrefix := raw[:len(raw)-4]
	return strings.EqualFold(trailer[5:9], checksumOf(dataAndPrefix))
}

// HasTrailer reports whether raw looks like it carries an
// "AY{d}AZ{HHHH}" trailer, independent of whether the checksum is
// valid.
func HasTrailer(raw string) bool {
	if len(raw) < 11 {
		return false
	}
	trailer := raw[len(raw)-9:]
	return trailer[0:2] == "AY" && trailer[3:5] == "AZ"
}

// StripTrailer removes a well-formed nine-character trailer from raw
// and returns the inner frame plus the single-digit sequence number.
func StripTrailer(raw string) (inner string, seq byte, ok bool) {
	if !HasTrailer(raw) {
		return raw, 0, false
	}
	trailer := raw[len(raw)-9:]
	return raw[:len(raw)-9], trailer[2], true
}
