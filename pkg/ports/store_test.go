package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

// MockStore is a JSON-serializing implementation of SessionStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, history *domain.History) error {
	// Serialize to simulate a real backend
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.History, error) {
	m.mu.Lock()
	raw, ok := m.data[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var history domain.History
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

type mapLedger struct {
	mu   sync.Mutex
	data map[string]domain.SubmissionOutcome
}

func (l *mapLedger) Record(ctx context.Context, key string, outcome domain.SubmissionOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = outcome
	return nil
}

func (l *mapLedger) Lookup(ctx context.Context, key string) (domain.SubmissionOutcome, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.data[key]
	return o, ok, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestOutcomeLedger_Contract(t *testing.T) {
	ports.RunOutcomeLedgerContract(t, &mapLedger{data: map[string]domain.SubmissionOutcome{}})
}
