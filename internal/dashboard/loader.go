// Package dashboard loads the figures shown next to the chat: stats, goals,
// transactions and expense categories.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finagent/internal/core"
	"finagent/internal/log"
)

// DefaultTimeout bounds one load when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Source is the part of the API client the loader reads from.
type Source interface {
	Dashboard(ctx context.Context, userID int) (core.DashboardBundle, error)
	Transactions(ctx context.Context, userID int) ([]core.Transaction, error)
	Categories(ctx context.Context, userID int) ([]core.Category, error)
}

// State is what the views render. Err is only set by visible loads.
type State struct {
	Snapshot   core.Snapshot
	Loading    bool
	Refreshing bool
	Err        error
	UserID     int
	LoadedAt   time.Time
}

// Options configures a Loader.
type Options struct {
	Timeout time.Duration
	Logger  *log.Logger
	Now     func() time.Time
}

// Loader holds the latest snapshot of one dashboard.
type Loader struct {
	src     Source
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
	gen   uint64
}

// NewLoader creates an empty loader. Nothing is fetched until Load.
func NewLoader(src Source, opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loader{
		src:     src,
		timeout: opts.Timeout,
		logger:  log.OrDiscard(opts.Logger).WithComponent(log.ComponentDashboard),
		now:     opts.Now,
	}
}

// Load fetches the dashboard, transactions and categories of userID
// concurrently and replaces the snapshot when all three succeed.
//
// A silent load is a background refresh: the previous snapshot stays visible,
// and a failure is logged but not recorded in State. Only the most recent load
// updates State; an older one finishing late is dropped.
func (l *Loader) Load(ctx context.Context, userID int, silent bool) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.state.UserID != userID {
		l.state = State{UserID: userID}
	}
	if silent {
		l.state.Refreshing = true
	} else {
		l.state.Loading = true
		l.state.Err = nil
	}
	l.mu.Unlock()

	start := l.now()
	snap, err := l.fetch(ctx, userID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return err
	}
	l.state.Loading = false
	l.state.Refreshing = false

	if err != nil {
		if silent {
			l.logger.WarnContext(ctx, "Background dashboard refresh failed",
				log.FieldUserID, userID,
				log.FieldOperation, log.OpRefresh,
				log.FieldSilent, true,
				log.FieldError, err)
		} else {
			l.state.Err = err
			l.logger.ErrorContext(ctx, "Dashboard load failed",
				log.FieldUserID, userID,
				log.FieldOperation, log.OpLoad,
				log.FieldError, err)
		}
		return err
	}

	l.state.Snapshot = snap
	l.state.Err = nil
	l.state.LoadedAt = l.now()

	l.logger.DebugContext(ctx, "Dashboard loaded",
		log.FieldUserID, userID,
		log.FieldSilent, silent,
		log.FieldDuration, l.state.LoadedAt.Sub(start).Milliseconds(),
		"transactions", len(snap.Transactions))
	return nil
}

func (l *Loader) fetch(ctx context.Context, userID int) (core.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		bundle     core.DashboardBundle
		txs        []core.Transaction
		categories []core.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bundle, err = l.src.Dashboard(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = l.src.Transactions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = l.src.Categories(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("load dashboard for user %d: %w", userID, err)
	}

	return core.Snapshot{
		Stats:              bundle.Stats,
		Goals:              bundle.Goals,
		RecentTransactions: bundle.RecentTransactions,
		Transactions:       txs,
		Categories:         categories,
	}, nil
}

// State returns a copy of the current state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Snapshot.Goals = append([]core.Goal(nil), s.Snapshot.Goals...)
	s.Snapshot.RecentTransactions = append([]core.Transaction(nil), s.Snapshot.RecentTransactions...)
	s.Snapshot.Transactions = append([]core.Transaction(nil), s.Snapshot.Transactions...)
	s.Snapshot.Categories = append([]core.Category(nil), s.Snapshot.Categories...)
	return s
}
