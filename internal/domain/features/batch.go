package features

import (
	"context"
	"runtime"
	"sync"

	"github.com/eshaffer321/recurring-features/internal/domain/grouping"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
)

// Row is the batch output for one transaction, in input order.
type Row struct {
	TxnID    string
	Features map[string]float64
	Err      error
}

// ComputeBatch fans feature computation out across workers. Each transaction
// depends only on itself and the shared read-only index, so workers share
// nothing mutable. Results come back in input order. A canceled context stops
// work between transactions; already-computed rows keep their values and the
// rest carry ctx.Err().
func (e *Engine) ComputeBatch(ctx context.Context, txns []txn.Transaction, idx *grouping.Index, workers int) []Row {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(txns) {
		workers = len(txns)
	}

	rows := make([]Row, len(txns))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					rows[i] = Row{TxnID: txns[i].ID, Err: err}
					continue
				}
				f, err := e.Compute(txns[i], idx)
				rows[i] = Row{TxnID: txns[i].ID, Features: f, Err: err}
			}
		}()
	}

	for i := range txns {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return rows
}
