package cli

import (
	"fmt"
	"strings"
	"time"
)

// PrintHeader prints the command header.
func PrintHeader(command, input string) {
	fmt.Printf("recurring-features: %s", command)
	if input != "" {
		fmt.Printf(" (%s)", input)
	}
	fmt.Println()
}

// PrintBatchSummary prints the batch run result summary.
func PrintBatchSummary(txnCount, errorCount int, elapsed time.Duration) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Transactions=%d Errors=%d Duration=%s\n",
		txnCount, errorCount, elapsed.Round(time.Millisecond))

	if errorCount == 0 && txnCount > 0 {
		fmt.Println("\nFeaturize completed successfully.")
	}
}

// PrintErrors prints per-transaction errors, capped so a bad file does not
// flood the terminal.
func PrintErrors(errs map[string]error, max int) {
	if len(errs) == 0 {
		return
	}
	fmt.Println("\nErrors:")
	n := 0
	for id, err := range errs {
		if n >= max {
			fmt.Printf("  ... and %d more\n", len(errs)-n)
			return
		}
		fmt.Printf("  - %s: %v\n", id, err)
		n++
	}
}
