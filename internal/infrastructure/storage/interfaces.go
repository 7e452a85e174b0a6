package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with the
// in-memory mock straightforward.
type Repository interface {
	TransactionRepository
	RunRepository
	// GetStats returns aggregate statistics.
	GetStats() (*Stats, error)
	Close() error
}

// TransactionRepository persists imported transactions.
type TransactionRepository interface {
	// SaveTransactions upserts a batch of transactions by ID.
	SaveTransactions(records []TransactionRecord) error

	// ListTransactions returns transactions matching the filters, ordered by
	// (user_id, date, id) for stable pagination.
	ListTransactions(filters TransactionFilters) ([]TransactionRecord, error)

	// GetTransaction retrieves one transaction by ID.
	GetTransaction(id string) (*TransactionRecord, error)
}

// RunRepository tracks batch feature runs and their outputs.
type RunRepository interface {
	// StartRun records the start of a feature run and returns its ID.
	StartRun(workers int) (int64, error)

	// CompleteRun records the completion of a feature run.
	CompleteRun(runID int64, txnCount, errorCount int, durationMs int64) error

	// GetRun retrieves a run by ID.
	GetRun(runID int64) (*FeatureRun, error)

	// ListRuns returns recent runs, newest first.
	ListRuns(limit int) ([]FeatureRun, error)

	// SaveFeatures stores computed feature maps for a run.
	SaveFeatures(records []FeatureRecord) error

	// GetFeatures retrieves the feature map for one transaction in one run.
	GetFeatures(runID int64, txnID string) (*FeatureRecord, error)
}
