// Package memory contains hand-written in-memory test doubles for the
// storage ports. They are safe for concurrent use and count store calls
// so tests can assert on write behavior.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/target/courseshop/internal/domain/session"
	"github.com/target/courseshop/internal/ports"
)

var (
	_ ports.SessionStore   = (*SessionStore)(nil)
	_ ports.SessionCleaner = (*SessionStore)(nil)
	_ ports.Pinger         = (*SessionStore)(nil)
)

// SessionStore is an in-memory session store with call counters and
// injectable failures.
type SessionStore struct {
	mu      sync.Mutex
	records map[string]session.Record
	now     func() time.Time

	Gets    int
	Saves   int
	Deletes int

	GetErr    error
	SaveErr   error
	DeleteErr error
	PingErr   error
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{records: map[string]session.Record{}, now: time.Now}
}

// SetClock overrides the time used for expiry checks.
func (m *SessionStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *SessionStore) Get(_ context.Context, id string) (session.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return session.Record{}, m.GetErr
	}
	rec, ok := m.records[id]
	if !ok || rec.Expired(m.now()) {
		return session.Record{}, session.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (m *SessionStore) Save(_ context.Context, rec session.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

func (m *SessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.records, id)
	return nil
}

// Cleanup drops expired records.
func (m *SessionStore) Cleanup(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, rec := range m.records {
		if rec.Expired(now) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *SessionStore) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

// Put seeds a record without counting a write.
func (m *SessionStore) Put(rec session.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = copyRecord(rec)
}

// Record returns the stored record for id.
func (m *SessionStore) Record(id string) (session.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	return copyRecord(rec), ok
}

// Len reports how many records are stored.
func (m *SessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Writes returns the number of Save and Delete calls.
func (m *SessionStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Saves + m.Deletes
}

// ResetCounts zeroes the call counters.
func (m *SessionStore) ResetCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets, m.Saves, m.Deletes = 0, 0, 0
}

func copyRecord(rec session.Record) session.Record {
	if rec.Values == nil {
		return rec
	}
	out := rec
	out.Values = make(map[string]json.RawMessage, len(rec.Values))
	for k, v := range rec.Values {
		out.Values[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
