// Package dateparse parses the transaction date strings seen in upstream
// exports. A small fixed set of layouts is tried in priority order.
package dateparse

import (
	"fmt"
	"time"
)

// layouts in priority order. First successful parse wins.
var layouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
}

// Epoch is the sentinel substituted for unparsable dates in lenient mode.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Mode selects how parse failures are handled.
type Mode int

const (
	// Strict returns a *FormatError when no layout matches.
	Strict Mode = iota
	// Lenient substitutes Epoch and never errors.
	Lenient
)

// FormatError reports a date string that matched none of the known layouts.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("date %q matches no known format", e.Input)
}

// Parser applies one failure policy for a whole deployment. The legacy code
// mixed raise-vs-epoch per call site; here the mode is fixed at construction.
type Parser struct {
	mode Mode
}

// NewParser creates a parser with the given failure mode.
func NewParser(mode Mode) *Parser {
	return &Parser{mode: mode}
}

// Parse resolves s against the known layouts in priority order.
func (p *Parser) Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if p.mode == Lenient {
		return Epoch, nil
	}
	return time.Time{}, &FormatError{Input: s}
}

// Mode returns the parser's failure mode.
func (p *Parser) Mode() Mode {
	return p.mode
}
