package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ActivityRecord is one confirmed ledger operation as reported by the
// contract. The sequence is append-only from the client's perspective; past
// records are never edited locally.
type ActivityRecord struct {
	Action    Action          `json:"action"`
	Amount    decimal.Decimal `json:"amount"`
	Recipient *common.Address `json:"recipient,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// ActivityRecordEntry bundles a record with the log index it was persisted
// under, for replay-after-index reads.
type ActivityRecordEntry struct {
	Index  uint64
	Record ActivityRecord
}

// Equal compares two records field by field. Used to diff refreshed history
// against what is already persisted.
func (r ActivityRecord) Equal(other ActivityRecord) bool {
	if r.Action != other.Action || !r.Amount.Equal(other.Amount) || !r.Timestamp.Equal(other.Timestamp) {
		return false
	}
	if (r.Recipient == nil) != (other.Recipient == nil) {
		return false
	}
	return r.Recipient == nil || *r.Recipient == *other.Recipient
}
