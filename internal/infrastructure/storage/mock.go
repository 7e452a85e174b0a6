package storage

import (
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory Repository for tests and handler wiring
// without a database file.
type MockRepository struct {
	mu       sync.Mutex
	txns     map[string]TransactionRecord
	runs     map[int64]FeatureRun
	features map[int64]map[string]FeatureRecord
	nextRun  int64
}

var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates an empty in-memory repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		txns:     make(map[string]TransactionRecord),
		runs:     make(map[int64]FeatureRun),
		features: make(map[int64]map[string]FeatureRecord),
	}
}

func (m *MockRepository) SaveTransactions(records []TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.ImportedAt.IsZero() {
			r.ImportedAt = time.Now().UTC()
		}
		m.txns[r.ID] = r
	}
	return nil
}

func (m *MockRepository) ListTransactions(filters TransactionFilters) ([]TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []TransactionRecord
	for _, r := range m.txns {
		if filters.UserID != "" && r.UserID != filters.UserID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	if filters.Offset >= len(out) {
		return nil, nil
	}
	out = out[filters.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRepository) GetTransaction(id string) (*TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.txns[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MockRepository) StartRun(workers int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRun++
	m.runs[m.nextRun] = FeatureRun{
		ID:        m.nextRun,
		StartedAt: time.Now().UTC(),
		Workers:   workers,
	}
	return m.nextRun, nil
}

func (m *MockRepository) CompleteRun(runID int64, txnCount, errorCount int, durationMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.TxnCount = txnCount
	run.ErrorCount = errorCount
	run.DurationMs = durationMs
	m.runs[runID] = run
	return nil
}

func (m *MockRepository) GetRun(runID int64) (*FeatureRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MockRepository) ListRuns(limit int) ([]FeatureRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	var out []FeatureRun
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRepository) SaveFeatures(records []FeatureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if m.features[r.RunID] == nil {
			m.features[r.RunID] = make(map[string]FeatureRecord)
		}
		m.features[r.RunID][r.TxnID] = r
	}
	return nil
}

func (m *MockRepository) GetFeatures(runID int64, txnID string) (*FeatureRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.features[runID][txnID]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{
		TransactionCount: len(m.txns),
		RunCount:         len(m.runs),
	}
	users := make(map[string]bool)
	for _, r := range m.txns {
		users[r.UserID] = true
	}
	stats.UserCount = len(users)
	for _, r := range m.runs {
		if stats.LastRunAt == nil || r.StartedAt.After(*stats.LastRunAt) {
			t := r.StartedAt
			stats.LastRunAt = &t
		}
	}
	return stats, nil
}

func (m *MockRepository) Close() error {
	return nil
}
