// Package activitylog persists confirmed ledger activity in a WAL so the
// log survives restarts and can be replayed to stream consumers by index.
package activitylog

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/metacrafters/atmgate/internal/domain"
)

const (
	defaultDir          = "./wal/activity"
	walSegmentThreshold = 1000
	walMaxSegments      = 100
	walKey              = "activity_record"
)

// WALStore is an append-only store of activity records. Appends carry the
// WAL index so readers can resume after the last entry they saw.
type WALStore struct {
	wal    *gowal.Wal
	mu     sync.RWMutex
	newest time.Time
	// tail holds every persisted record sharing the newest timestamp.
	// Transactions mined in the same block share the block timestamp, so
	// dedup needs the records themselves, not just the timestamp.
	tail []domain.ActivityRecord
}

// NewWALStore opens (or creates) the WAL under dir and recovers the newest
// persisted records for deduplication.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "activity_",
		SegmentThreshold: walSegmentThreshold,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init activity WAL")
	}

	s := &WALStore{wal: wal}
	if err := s.recoverTail(); err != nil {
		return nil, err
	}
	return s, nil
}

// recoverTail walks the log backwards from the last entry, collecting every
// record that shares the newest timestamp.
func (s *WALStore) recoverTail() error {
	for idx := s.wal.CurrentIndex(); idx >= 1; idx-- {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return errors.Wrap(err, "read activity record")
		}
		if key != walKey {
			continue
		}
		var record domain.ActivityRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return errors.Wrap(err, "decode activity record")
		}
		if s.newest.IsZero() {
			s.newest = record.Timestamp
		}
		if !record.Timestamp.Equal(s.newest) {
			break
		}
		s.tail = append(s.tail, record)
	}
	return nil
}

// Append persists one confirmed record.
func (s *WALStore) Append(record domain.ActivityRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("activity store is not initialized")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal activity record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(next, walKey, payload); err != nil {
		return err
	}
	switch {
	case record.Timestamp.After(s.newest):
		s.newest = record.Timestamp
		s.tail = []domain.ActivityRecord{record}
	case record.Timestamp.Equal(s.newest):
		s.tail = append(s.tail, record)
	}
	return nil
}

// NewestTimestamp returns the timestamp of the most recently appended
// record, or a zero time when the log is empty.
func (s *WALStore) NewestTimestamp() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newest
}

// NewestRecords returns every persisted record that shares the newest
// timestamp. Records mined in the same block carry equal timestamps, so
// callers deduplicate against the whole set rather than the timestamp alone.
func (s *WALStore) NewestRecords() []domain.ActivityRecord {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ActivityRecord, len(s.tail))
	copy(out, s.tail)
	return out
}

// RecordsAfter returns all records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.ActivityRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("activity store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	entries := make([]domain.ActivityRecordEntry, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if key != walKey {
			continue
		}
		var record domain.ActivityRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode activity record")
		}
		entries = append(entries, domain.ActivityRecordEntry{Index: idx, Record: record})
	}

	return entries, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}
	return s.wal.Close()
}
