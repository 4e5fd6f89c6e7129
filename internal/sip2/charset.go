package sip2

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// DecodeFrameText converts a raw 8-bit SIP2 frame into a valid UTF-8
// Go string. Self-check terminals in the field send patron and title
// text in whatever local code page their firmware defaults to; SIP2
// itself (§6.1) says only "encoding is 8-bit", so the server has to
// guess. UTF-8 is tried first since most modern SCs already send it,
// then a short list of legacy code pages, then generic sniffing, with
// the raw bytes as a last resort so a frame is never dropped over a
// charset mismatch.
func DecodeFrameText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if utf8.Valid(data) {
		return string(data)
	}

	for _, enc := range []encoding.Encoding{
		simplifiedchinese.GBK,
		traditionalchinese.Big5,
		japanese.ShiftJIS,
		korean.EUCKR,
	} {
		if decoded, err := decodeWith(data, enc); err == nil {
			return decoded
		}
	}

	if enc, _, _ := charset.DetermineEncoding(data, ""); enc != nil {
		if decoded, err := decodeWith(data, enc); err == nil {
			return decoded
		}
	}

	// ISO-8859-1 is a total function over every byte value, so it never
	// fails to "decode" — it goes last or it would shadow every CJK
	// encoding above.
	if decoded, err := decodeWith(data, charmap.ISO8859_1); err == nil {
		return decoded
	}

	return string(data)
}

// EncodeFrameText renders s back to Latin-1 bytes for wire transmission
// when it carries no non-Latin-1 text, otherwise leaves it as UTF-8;
// most ILS backends and terminals only round-trip Latin-1 cleanly.
func EncodeFrameText(s string) []byte {
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	r := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
