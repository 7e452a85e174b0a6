package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-features/internal/cli"
	"github.com/eshaffer321/recurring-features/internal/domain/features"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/config"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/logging"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseFeaturizeFlags()
	if flags.Input == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -input")
		os.Exit(2)
	}

	cfg := config.LoadOrDefault(flags.ConfigPath)
	if flags.DateMode != "" {
		cfg.Engine.DateMode = flags.DateMode
	}
	if flags.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "featurize")

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Error("invalid engine configuration", "error", err)
		os.Exit(1)
	}
	engine := features.New(engineCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.PrintHeader("featurize", flags.Input)

	txns, err := readTransactionsCSV(flags.Input)
	if err != nil {
		logger.Error("failed to read input", "path", flags.Input, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded transactions", "count", len(txns))

	var repo storage.Repository
	if !flags.NoDB {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.Storage.DatabasePath, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		repo = store
	}

	started := time.Now()
	idx := engine.BuildIndex(txns)
	rows := engine.ComputeBatch(ctx, txns, idx, flags.Workers)
	elapsed := time.Since(started)

	errs := make(map[string]error)
	for _, row := range rows {
		if row.Err != nil {
			errs[row.TxnID] = row.Err
		}
	}

	if err := writeFeaturesCSV(flags.Output, rows); err != nil {
		logger.Error("failed to write output", "path", flags.Output, "error", err)
		os.Exit(1)
	}
	logger.Info("wrote feature file", "path", flags.Output, "rows", len(rows)-len(errs))

	if repo != nil {
		if err := recordRun(repo, txns, rows, flags.Workers, elapsed); err != nil {
			logger.Error("failed to record run", "error", err)
			os.Exit(1)
		}
	}

	cli.PrintErrors(errs, 10)
	cli.PrintBatchSummary(len(txns), len(errs), elapsed)

	if len(errs) == len(txns) && len(txns) > 0 {
		os.Exit(1)
	}
}

// readTransactionsCSV reads a transactions file with the header
// id,user_id,vendor_name,amount,date. Rows without an id get one assigned.
func readTransactionsCSV(path string) ([]txn.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, required := range []string{"user_id", "vendor_name", "amount", "date"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	seen := txn.NewIDSet(nil)
	txns := make([]txn.Transaction, 0, len(records)-1)
	for line, rec := range records[1:] {
		amt, err := decimal.NewFromString(rec[cols["amount"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line+2, rec[cols["amount"]])
		}

		id := ""
		if i, ok := cols["id"]; ok {
			id = rec[i]
		}
		if id == "" {
			id = uuid.NewString()
		}

		t := txn.Transaction{
			ID:         id,
			UserID:     rec[cols["user_id"]],
			VendorName: rec[cols["vendor_name"]],
			Amount:     amt,
			Date:       rec[cols["date"]],
		}
		if seen.Contains(t) {
			return nil, fmt.Errorf("line %d: duplicate transaction id %q", line+2, t.ID)
		}
		seen[t.ID] = true
		txns = append(txns, t)
	}
	return txns, nil
}

// writeFeaturesCSV writes one row per successfully featurized transaction.
// Columns are the union of feature names in sorted order so the file is
// stable across runs.
func writeFeaturesCSV(path string, rows []features.Row) error {
	nameSet := make(map[string]bool)
	for _, row := range rows {
		for name := range row.Features {
			nameSet[name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := append([]string{"txn_id"}, names...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range rows {
		if row.Err != nil {
			continue
		}
		record[0] = row.TxnID
		for i, name := range names {
			record[i+1] = strconv.FormatFloat(row.Features[name], 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// recordRun persists the input transactions and the computed features so the
// API can serve them later.
func recordRun(repo storage.Repository, txns []txn.Transaction, rows []features.Row, workers int, elapsed time.Duration) error {
	records := make([]storage.TransactionRecord, len(txns))
	for i, t := range txns {
		records[i] = storage.TransactionRecord{
			ID:         t.ID,
			UserID:     t.UserID,
			VendorName: t.VendorName,
			Amount:     t.Amount.String(),
			Date:       t.Date,
		}
	}
	if err := repo.SaveTransactions(records); err != nil {
		return err
	}

	runID, err := repo.StartRun(workers)
	if err != nil {
		return err
	}

	var featRecords []storage.FeatureRecord
	errorCount := 0
	for _, row := range rows {
		if row.Err != nil {
			errorCount++
			continue
		}
		featRecords = append(featRecords, storage.FeatureRecord{
			RunID:    runID,
			TxnID:    row.TxnID,
			Features: row.Features,
		})
	}
	if err := repo.SaveFeatures(featRecords); err != nil {
		return err
	}

	return repo.CompleteRun(runID, len(txns), errorCount, elapsed.Milliseconds())
}
