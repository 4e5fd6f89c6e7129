package sip2

import "log/slog"

// ParsedMessage is a decoded inbound frame: the two-character code, the
// schema's display name, the ordered fixed-position substrings, and
// the recognized variable fields. Keys in Fields are always a subset
// of the schema's AllowedFields (§3 invariant).
type ParsedMessage struct {
	Code   string
	Name   string
	Fixed  []string
	Fields map[string]string
}

// Field returns the value of a recognized variable field, or "" plus
// false if it was not present in the frame.
func (m *ParsedMessage) Field(id string) (string, bool) {
	v, ok := m.Fields[id]
	return v, ok
}

// ParseMessage parses a raw frame (error-detection trailer already
// stripped by the envelope) against the schema for (code, version),
// scanning variable fields for the given delimiter (§6.1/§6.5: the
// delimiter is a per-server setting, not a protocol constant). It
// implements §4.3 verbatim: unknown codes are reported via ok=false
// so the connection can log a warning and keep the frame from reaching
// dispatch, without tearing down the connection.
func ParseMessage(raw, version string, delim byte, logger *slog.Logger) (*ParsedMessage, bool) {
	if len(raw) < 2 {
		logger.Warn("frame too short to carry a message code", "raw", raw)
		return nil, false
	}
	code := raw[0:2]

	schema, ok := LookupSchema(code, version)
	if !ok {
		logger.Warn("unknown message code for protocol version", "code", code, "version", version)
		return nil, false
	}

	body := raw[2:]
	fixed := make([]string, len(schema.FixedTemplate))
	if len(body) < schema.FixedLen {
		logger.Warn("frame shorter than schema's fixed section", "code", code, "have", len(body), "want", schema.FixedLen)
		body = ""
		for i := range fixed {
			fixed[i] = ""
		}
	} else {
		offset := 0
		for i, width := range schema.FixedTemplate {
			fixed[i] = body[offset : offset+width]
			offset += width
		}
		body = body[schema.FixedLen:]
	}

	fields := make(map[string]string)
	i := 0
	for i < len(body) {
		if i+2 > len(body) {
			logger.Warn("trailing partial field id", "code", code)
			break
		}
		id := body[i : i+2]
		rest := body[i+2:]

		delimIdx := -1
		for j := 0; j < len(rest); j++ {
			if rest[j] == delim {
				delimIdx = j
				break
			}
		}

		var value string
		var consumed int
		if delimIdx == -1 {
			logger.Warn("unterminated variable field, treating end-of-frame as terminator", "code", code, "field", id)
			value = rest
			consumed = len(rest)
		} else {
			value = rest[:delimIdx]
			consumed = delimIdx + 1
		}

		if !schema.AllowedFields[id] {
			logger.Warn("unrecognized field id for message, ignoring", "code", code, "field", id)
		} else if _, dup := fields[id]; dup {
			logger.Warn("duplicate field, keeping first occurrence", "code", code, "field", id)
		} else {
			fields[id] = value
		}

		i += 2 + consumed
	}

	return &ParsedMessage{
		Code:   code,
		Name:   schema.Name,
		Fixed:  fixed,
		Fields: fields,
	}, true
}
