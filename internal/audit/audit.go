// Package audit records every completed SIP2 transaction (not raw
// frames — the error-detection envelope and its replay arbitration
// stay purely in-memory per §4.4) to a durable sink an operator can
// review independent of the library's own circulation records. This
// is deliberately NOT the offline transaction queue a real ACS would
// replay against the ILS after an outage; it is a read-only ledger.
package audit

import (
	"context"
	"time"
)

// Entry is one recorded transaction.
type Entry struct {
	ID         int64
	Time       time.Time
	ConnID     string
	RemoteAddr string
	AccountUID string
	Code       string
	Name       string
	OK         bool
	Detail     string
}

// Store is the abstract sink Entry values are appended to and later
// read back from for the admin API.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}
