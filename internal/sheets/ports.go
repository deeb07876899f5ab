// Package sheets exports transactions to a spreadsheet.
package sheets

import (
	"context"
	"errors"

	"finagent/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter appends the transactions of a user below any rows
	// already present and returns a reference to the written range.
	TransactionExporter interface {
		AppendTransactions(ctx context.Context, userID int, txs []core.Transaction) (rangeRef string, err error)
	}
)

// ErrNothingToExport is returned when the transaction list is empty.
var ErrNothingToExport = errors.New("no transactions to export")

// Header is the first row written to an empty sheet.
var Header = []string{"Data", "Descrição", "Categoria", "Tipo", "Valor", "Utilizador"}

// Row lays out one transaction in Header order. The amount is signed so the
// sheet can sum the column directly.
func Row(userID int, tx core.Transaction) []any {
	return []any{tx.Date, tx.Description, tx.Category, string(tx.Type), tx.Signed(), userID}
}
