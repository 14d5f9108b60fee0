package identifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// memStore is an in-memory Store used across the package tests. It
// mirrors the production semantics: identifiers are unique, and the
// latest issued identifier per bucket survives record deletion.
type memStore struct {
	mu      sync.Mutex
	records map[string]Record
	latest  map[string]string

	findLatestErr  error
	conflictErr    error
	insertErr      error
	insertRejects  int
	insertAttempts int
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[string]Record),
		latest:  make(map[string]string),
	}
}

func (m *memStore) FindLatestInBucket(_ context.Context, prefix string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findLatestErr != nil {
		return "", false, m.findLatestErr
	}
	latest, ok := m.latest[prefix]
	return latest, ok, nil
}

func (m *memStore) FindConflicting(_ context.Context, probe Probe) (MatchField, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflictErr != nil {
		return "", false, m.conflictErr
	}
	for _, rec := range m.records {
		if probe.Email != "" && strings.EqualFold(rec.Email, probe.Email) {
			return MatchEmail, true, nil
		}
		if probe.Contact != "" && rec.Contact == probe.Contact {
			return MatchContact, true, nil
		}
		if probe.FirstName != "" && rec.DateOfBirth != nil && probe.DateOfBirth != nil &&
			strings.EqualFold(rec.FirstName, probe.FirstName) &&
			strings.EqualFold(rec.LastName, probe.LastName) &&
			rec.DateOfBirth.Equal(*probe.DateOfBirth) {
			return MatchNameDOB, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) InsertWithUniqueIdentifier(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertAttempts++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.insertRejects > 0 {
		m.insertRejects--
		return fmt.Errorf("forced conflict: %w", ErrIdentifierTaken)
	}
	if _, exists := m.records[rec.Identifier]; exists {
		return fmt.Errorf("insert %s: %w", rec.Identifier, ErrIdentifierTaken)
	}
	m.records[rec.Identifier] = rec

	serial, err := serialSegment(rec.Identifier)
	if err != nil {
		return err
	}
	prefix := rec.Identifier[:strings.LastIndex(rec.Identifier, "-")]
	prefix = prefix[:strings.LastIndex(prefix, "-")+1]
	if current, ok := m.latest[prefix]; ok {
		currentSerial, err := serialSegment(current)
		if err == nil && currentSerial >= serial {
			return nil
		}
	}
	m.latest[prefix] = rec.Identifier
	return nil
}

func (m *memStore) delete(identifier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, identifier)
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
