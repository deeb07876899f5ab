// Package core holds the finance data the backend API exposes and the display
// helpers shared by the web and terminal surfaces.
package core

import (
	"errors"
	"strings"
	"time"
)

// TransactionType is the direction of a transaction as the backend reports it.
type TransactionType string

const (
	Inflow  TransactionType = "entrada"
	Outflow TransactionType = "saida"
)

type (
	// User is a selectable profile.
	User struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	// Stats are the headline figures. Amounts arrive preformatted; RawBalance
	// carries the numeric balance for sign checks.
	Stats struct {
		Balance    string  `json:"balance"`
		Profit     string  `json:"profit"`
		Reserve    string  `json:"reserve"`
		Goals      string  `json:"goals"`
		Status     string  `json:"status"`
		RawBalance float64 `json:"raw_balance"`
	}

	// Goal is a savings target with its progress.
	Goal struct {
		Name     string  `json:"name"`
		Target   float64 `json:"target"`
		Current  float64 `json:"current"`
		Percent  float64 `json:"percent"`
		Priority string  `json:"priority"`
	}

	// Transaction uses the backend's field names verbatim.
	Transaction struct {
		Date        string          `json:"Data"`
		Description string          `json:"Descrição"`
		Amount      float64         `json:"Valor"`
		Type        TransactionType `json:"Tipo"`
		Category    string          `json:"Categoria"`
	}

	// Category is the amount spent in one expense category.
	Category struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	// DashboardBundle is the payload of GET /dashboard/{id}.
	DashboardBundle struct {
		Stats              Stats         `json:"stats"`
		Goals              []Goal        `json:"goals"`
		RecentTransactions []Transaction `json:"recent_transactions"`
	}

	// Snapshot is everything one dashboard load produces. It is replaced
	// wholesale, never patched.
	Snapshot struct {
		Stats              Stats
		Goals              []Goal
		RecentTransactions []Transaction
		Transactions       []Transaction
		Categories         []Category
	}

	// HistoryEntry is one turn of the stored conversation. Content is left raw
	// because the backend may send fragments or objects. Timestamp is zero when
	// the backend does not provide one.
	HistoryEntry struct {
		Role      string
		Content   any
		Timestamp time.Time
	}
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrEmptyName     = errors.New("empty user name")
)

// Validate checks that the user can be selected.
func (u User) Validate() error {
	if u.ID <= 0 {
		return ErrInvalidUserID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// IsInflow reports whether the transaction adds money.
func (t Transaction) IsInflow() bool {
	return t.Type == Inflow
}

// Signed returns the amount with the sign implied by its type.
func (t Transaction) Signed() float64 {
	if t.IsInflow() {
		return t.Amount
	}
	return -t.Amount
}

// Positive reports whether the balance is not negative.
func (s Stats) Positive() bool {
	return s.RawBalance >= 0
}

// Progress returns Percent clamped to [0, 100].
func (g Goal) Progress() float64 {
	switch {
	case g.Percent < 0:
		return 0
	case g.Percent > 100:
		return 100
	default:
		return g.Percent
	}
}

// Totals sums inflows and outflows of txs.
func Totals(txs []Transaction) (in, out float64) {
	for _, tx := range txs {
		if tx.IsInflow() {
			in += tx.Amount
		} else {
			out += tx.Amount
		}
	}
	return in, out
}

// IsEmpty reports whether a snapshot has not been loaded yet.
func (s Snapshot) IsEmpty() bool {
	return s.Stats == (Stats{}) && len(s.Goals) == 0 && len(s.RecentTransactions) == 0 &&
		len(s.Transactions) == 0 && len(s.Categories) == 0
}
