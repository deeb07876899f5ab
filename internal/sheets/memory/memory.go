// Package memory is an in-process exporter used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finagent/internal/core"
	ports "finagent/internal/sheets"
)

var _ ports.TransactionExporter = (*Store)(nil)

// Store keeps exported rows in memory, header first.
type Store struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Store {
	return &Store{}
}

// AppendTransactions stores one row per transaction and returns a synthetic
// range reference.
func (s *Store) AppendTransactions(_ context.Context, userID int, txs []core.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", ports.ErrNothingToExport
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		s.rows = append(s.rows, header)
	}
	first := len(s.rows) + 1
	for _, tx := range txs {
		s.rows = append(s.rows, ports.Row(userID, tx))
	}
	return fmt.Sprintf("mem!A%d:F%d", first, len(s.rows)), nil
}

// Rows returns a copy of everything written so far, header included.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
