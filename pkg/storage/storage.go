// Package storage keeps the lines a batch could not map or aggregate, so
// they can be inspected and replayed later.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// ErrNotFound is returned when no reject has the requested id.
var ErrNotFound = errors.New("reject not found")

var (
	keyPrefix = []byte("reject/")
	keyLimit  = []byte("reject0") // first key past the prefix
)

// Reject is a line that failed to map, or a record that failed to aggregate.
type Reject struct {
	ID         ksuid.KSUID `json:"id"`
	Source     string      `json:"source"`
	Layout     string      `json:"layout,omitempty"`
	LineNumber int         `json:"line_number"`
	Text       string      `json:"text"`
	Reason     string      `json:"reason"`
	RejectedAt time.Time   `json:"rejected_at"`
}

// RejectStore is a pebble database of rejects keyed by KSUID, so iteration
// order is rejection order.
type RejectStore struct {
	db *pebble.DB
}

// NewRejectStore opens or creates the store at path.
func NewRejectStore(path string) (*RejectStore, error) {
	return OpenRejectStore(path, &pebble.Options{})
}

// OpenRejectStore opens the store at path with explicit pebble options.
func OpenRejectStore(path string, opts *pebble.Options) (*RejectStore, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open reject store: %w", err)
	}
	return &RejectStore{db: db}, nil
}

func key(id ksuid.KSUID) []byte {
	return append(append([]byte{}, keyPrefix...), id.Bytes()...)
}

// Put stores r under a new id, which is returned. A zero RejectedAt is set
// to the current time.
func (s *RejectStore) Put(r Reject) (ksuid.KSUID, error) {
	if r.RejectedAt.IsZero() {
		r.RejectedAt = time.Now().UTC()
	}
	id, err := ksuid.NewRandomWithTime(r.RejectedAt)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to generate reject id: %w", err)
	}
	r.ID = id

	data, err := json.Marshal(r)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to marshal reject: %w", err)
	}
	if err := s.db.Set(key(id), data, pebble.NoSync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store reject: %w", err)
	}
	return id, nil
}

// Get returns the reject stored under id.
func (s *RejectStore) Get(id ksuid.KSUID) (*Reject, error) {
	data, closer, err := s.db.Get(key(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reject: %w", err)
	}
	defer closer.Close()

	var r Reject
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode reject %s: %w", id, err)
	}
	return &r, nil
}

// List returns up to limit rejects, oldest first. A limit below 1 means all.
func (s *RejectStore) List(limit int) ([]Reject, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: keyLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rejects: %w", err)
	}
	defer iter.Close()

	var out []Reject
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(out) == limit {
			break
		}
		var r Reject
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("failed to decode reject: %w", err)
		}
		out = append(out, r)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate rejects: %w", err)
	}
	return out, nil
}

// Count returns the number of stored rejects.
func (s *RejectStore) Count() (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: keyLimit})
	if err != nil {
		return 0, fmt.Errorf("failed to iterate rejects: %w", err)
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

// Delete removes the reject stored under id.
func (s *RejectStore) Delete(id ksuid.KSUID) error {
	if err := s.db.Delete(key(id), pebble.NoSync); err != nil {
		return fmt.Errorf("failed to delete reject: %w", err)
	}
	return nil
}

// Purge removes every reject and returns how many there were.
func (s *RejectStore) Purge() (int, error) {
	n, err := s.Count()
	if err != nil {
		return 0, err
	}
	if err := s.db.DeleteRange(keyPrefix, keyLimit, pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to purge rejects: %w", err)
	}
	return n, nil
}

// Close flushes and closes the store.
func (s *RejectStore) Close() error {
	if err := s.db.Flush(); err != nil {
		return err
	}
	return s.db.Close()
}
