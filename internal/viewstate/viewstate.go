// Package viewstate holds the aggregate snapshot the presentation layer
// renders. Producers write individual fields through well-defined
// operations; consumers only ever see immutable snapshots, so partial or
// interleaved writes are never observable.
package viewstate

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/metacrafters/atmgate/internal/domain"
)

// Snapshot is one consistent view of the whole system. String fields avoid
// precision issues when rendered by web/UI layers.
type Snapshot struct {
	Account    string                  `json:"account,omitempty"`
	Connected  bool                    `json:"connected"`
	Balance    string                  `json:"balance,omitempty"`
	Activities []domain.ActivityRecord `json:"activities,omitempty"`
	Quote      *domain.PriceQuote      `json:"quote,omitempty"`
	QuoteStale bool                    `json:"quote_stale,omitempty"`
	Pending    map[string]bool         `json:"pending,omitempty"`
	LastError  string                  `json:"last_error,omitempty"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Store is the single writer-facing state container. Each field is mutated
// only by its owning component; updates are last-write-wins per field and
// fields never block each other.
//
// Balance and activity writes carry a request token issued at refresh
// initiation. A result is applied only if its token is newer than the last
// applied one, so a slow stale read can never overwrite a view already
// updated by a later read. Writes also name the account the read was taken
// for; after an account switch, results from the previous binding no longer
// match and are dropped regardless of token order.
type Store struct {
	mu sync.Mutex

	account    string
	balance    decimal.Decimal
	hasBalance bool
	activities []domain.ActivityRecord
	quote      *domain.PriceQuote
	quoteStale bool
	pending    map[domain.Action]bool
	lastError  string

	balanceIssued   uint64
	balanceApplied  uint64
	activityIssued  uint64
	activityApplied uint64

	broadcaster *Broadcaster
}

// NewStore creates an empty store publishing every change to broadcaster.
// A nil broadcaster is fine for tests.
func NewStore(broadcaster *Broadcaster) *Store {
	return &Store{
		pending:     make(map[domain.Action]bool),
		broadcaster: broadcaster,
	}
}

// Snapshot returns a consistent copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Account:    s.account,
		Connected:  s.account != "",
		QuoteStale: s.quoteStale,
		LastError:  s.lastError,
		UpdatedAt:  time.Now().UTC(),
	}
	if s.hasBalance {
		snap.Balance = s.balance.String()
	}
	if len(s.activities) > 0 {
		snap.Activities = make([]domain.ActivityRecord, len(s.activities))
		copy(snap.Activities, s.activities)
	}
	if s.quote != nil {
		q := *s.quote
		snap.Quote = &q
	}
	if len(s.pending) > 0 {
		snap.Pending = make(map[string]bool, len(s.pending))
		for action, v := range s.pending {
			if v {
				snap.Pending[action.String()] = true
			}
		}
	}
	return snap
}

func (s *Store) publishLocked() {
	if s.broadcaster != nil {
		s.broadcaster.Publish(s.snapshotLocked())
	}
}

// SetSession records the connected account.
func (s *Store) SetSession(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
	s.lastError = ""
	s.publishLocked()
}

// ClearSession drops the account and everything derived from it. The quote
// is independent of wallet state and survives.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = ""
	s.balance = decimal.Decimal{}
	s.hasBalance = false
	s.activities = nil
	s.pending = make(map[domain.Action]bool)
	s.publishLocked()
}

// BeginBalanceRefresh issues the token for a newly initiated balance read.
func (s *Store) BeginBalanceRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balanceIssued++
	return s.balanceIssued
}

// ApplyBalance stores the read result unless a newer read already landed or
// the read was taken for an account other than the connected one. An empty
// account skips the ownership check. Reports whether the value was applied.
func (s *Store) ApplyBalance(token uint64, account string, balance decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token <= s.balanceApplied {
		return false
	}
	if account != "" && account != s.account {
		return false
	}
	s.balanceApplied = token
	s.balance = balance
	s.hasBalance = true
	s.publishLocked()
	return true
}

// BeginActivityRefresh issues the token for a newly initiated history read.
func (s *Store) BeginActivityRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityIssued++
	return s.activityIssued
}

// ApplyActivities stores the refreshed history unless a newer read already
// landed or the read belongs to another account. The slice is copied; past
// records are never edited in place.
func (s *Store) ApplyActivities(token uint64, account string, records []domain.ActivityRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token <= s.activityApplied {
		return false
	}
	if account != "" && account != s.account {
		return false
	}
	s.activityApplied = token
	s.activities = make([]domain.ActivityRecord, len(records))
	copy(s.activities, records)
	s.publishLocked()
	return true
}

// Balance returns the last applied balance, if any. The executor uses it as
// the optimistic client-side transfer guard.
func (s *Store) Balance() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, s.hasBalance
}

// Activities returns a copy of the last applied history.
func (s *Store) Activities() []domain.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ActivityRecord, len(s.activities))
	copy(out, s.activities)
	return out
}

// SetQuote stores a fresh price quote and clears staleness.
func (s *Store) SetQuote(quote domain.PriceQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := quote
	s.quote = &q
	s.quoteStale = false
	s.publishLocked()
}

// MarkQuoteStale flags the previous quote as stale instead of clearing it.
func (s *Store) MarkQuoteStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quote == nil {
		return
	}
	if !s.quoteStale {
		s.quoteStale = true
		s.publishLocked()
	}
}

// SetPending flips the in-flight flag for one action kind.
func (s *Store) SetPending(action domain.Action, pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pending {
		s.pending[action] = true
	} else {
		delete(s.pending, action)
	}
	s.publishLocked()
}

// SetLastError surfaces a failure to the view.
func (s *Store) SetLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.lastError = ""
	} else {
		s.lastError = err.Error()
	}
	s.publishLocked()
}
