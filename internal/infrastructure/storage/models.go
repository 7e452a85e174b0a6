package storage

import "time"

// TransactionRecord is a persisted input transaction. Amounts are stored as
// their exact decimal string, never as floats.
type TransactionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	VendorName string    `json:"vendor_name"`
	Amount     string    `json:"amount"`
	Date       string    `json:"date"`
	ImportedAt time.Time `json:"imported_at"`
}

// FeatureRun tracks one batch feature computation.
type FeatureRun struct {
	ID          int64      `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Workers     int        `json:"workers"`
	TxnCount    int        `json:"txn_count"`
	ErrorCount  int        `json:"error_count"`
	DurationMs  int64      `json:"duration_ms"`
}

// FeatureRecord is the computed feature map for one transaction in one run.
type FeatureRecord struct {
	RunID    int64              `json:"run_id"`
	TxnID    string             `json:"txn_id"`
	Features map[string]float64 `json:"features"`
}

// Stats are aggregate counters for the API's stats endpoint.
type Stats struct {
	TransactionCount int        `json:"transaction_count"`
	UserCount        int        `json:"user_count"`
	RunCount         int        `json:"run_count"`
	LastRunAt        *time.Time `json:"last_run_at,omitempty"`
}

// TransactionFilters narrows ListTransactions.
type TransactionFilters struct {
	UserID string // empty = all users
	Limit  int    // 0 = default 50
	Offset int
}
