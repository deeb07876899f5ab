package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"finagent/internal/core"
)

type fakeSource struct {
	mu         sync.Mutex
	bundle     core.DashboardBundle
	txs        []core.Transaction
	categories []core.Category
	failOn     string
	gate       chan struct{}
	calls      atomic.Int32
}

var errBackend = errors.New("backend down")

func (f *fakeSource) wait(ctx context.Context, name string) error {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == name {
		return errBackend
	}
	return nil
}

func (f *fakeSource) Dashboard(ctx context.Context, _ int) (core.DashboardBundle, error) {
	if err := f.wait(ctx, "dashboard"); err != nil {
		return core.DashboardBundle{}, err
	}
	return f.bundle, nil
}

func (f *fakeSource) Transactions(ctx context.Context, _ int) ([]core.Transaction, error) {
	if err := f.wait(ctx, "transactions"); err != nil {
		return nil, err
	}
	return f.txs, nil
}

func (f *fakeSource) Categories(ctx context.Context, _ int) ([]core.Category, error) {
	if err := f.wait(ctx, "categories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

func (f *fakeSource) setFailOn(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = name
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		bundle: core.DashboardBundle{
			Stats: core.Stats{Balance: "CVE 1.000", Status: "Saudável", RawBalance: 1000},
			Goals: []core.Goal{{Name: "Carro", Target: 5000, Current: 1000, Percent: 20}},
			RecentTransactions: []core.Transaction{
				{Date: "2025-01-02", Description: "Mercado", Amount: 35, Type: core.Outflow},
			},
		},
		txs: []core.Transaction{
			{Date: "2025-01-01", Description: "Salário", Amount: 900, Type: core.Inflow},
			{Date: "2025-01-02", Description: "Mercado", Amount: 35, Type: core.Outflow},
		},
		categories: []core.Category{{Name: "Casa", Value: 120}},
	}
}

func TestLoadSuccess(t *testing.T) {
	src := newFakeSource()
	loadedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoader(src, Options{Now: func() time.Time { return loadedAt }})

	if err := l.Load(context.Background(), 4, false); err != nil {
		t.Fatalf("Load: %v", err)
	}

	st := l.State()
	want := core.Snapshot{
		Stats:              src.bundle.Stats,
		Goals:              src.bundle.Goals,
		RecentTransactions: src.bundle.RecentTransactions,
		Transactions:       src.txs,
		Categories:         src.categories,
	}
	if diff := cmp.Diff(want, st.Snapshot); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if st.Loading || st.Refreshing || st.Err != nil {
		t.Errorf("flags after load = %+v", st)
	}
	if st.UserID != 4 || !st.LoadedAt.Equal(loadedAt) {
		t.Errorf("UserID = %d, LoadedAt = %v", st.UserID, st.LoadedAt)
	}
	if got := src.calls.Load(); got != 3 {
		t.Errorf("backend calls = %d, want 3", got)
	}
}

func TestLoadFailure(t *testing.T) {
	tests := []struct {
		name   string
		silent bool
		wantSt bool
	}{
		{name: "visible load surfaces the error", silent: false, wantSt: true},
		{name: "silent load keeps the error out of state", silent: true, wantSt: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			l := NewLoader(src, Options{})
			if err := l.Load(context.Background(), 1, false); err != nil {
				t.Fatalf("initial Load: %v", err)
			}
			before := l.State().Snapshot

			src.setFailOn("categories")
			err := l.Load(context.Background(), 1, tt.silent)
			if !errors.Is(err, errBackend) {
				t.Fatalf("Load error = %v, want %v", err, errBackend)
			}

			st := l.State()
			if (st.Err != nil) != tt.wantSt {
				t.Errorf("State().Err = %v, want set: %v", st.Err, tt.wantSt)
			}
			if diff := cmp.Diff(before, st.Snapshot); diff != "" {
				t.Errorf("previous snapshot not kept (-want +got):\n%s", diff)
			}
			if st.Loading || st.Refreshing {
				t.Errorf("flags not cleared: %+v", st)
			}
		})
	}
}

func TestLoadFlagsWhileFetching(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	l := NewLoader(src, Options{})

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background(), 1, true) }()

	deadline := time.After(2 * time.Second)
	for !l.State().Refreshing {
		select {
		case <-deadline:
			t.Fatal("Refreshing never set")
		case <-time.After(time.Millisecond):
		}
	}
	if l.State().Loading {
		t.Error("silent load must not set Loading")
	}

	close(src.gate)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.State().Refreshing {
		t.Error("Refreshing not cleared")
	}
}

func TestLoadTimeout(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	l := NewLoader(src, Options{Timeout: 20 * time.Millisecond})

	err := l.Load(context.Background(), 1, false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Load error = %v, want deadline exceeded", err)
	}
	if l.State().Err == nil {
		t.Error("timeout should be surfaced in state")
	}
}

func TestLoadSwitchingUserResetsState(t *testing.T) {
	src := newFakeSource()
	l := NewLoader(src, Options{})
	if err := l.Load(context.Background(), 1, false); err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.setFailOn("dashboard")
	_ = l.Load(context.Background(), 2, false)

	st := l.State()
	if st.UserID != 2 {
		t.Errorf("UserID = %d, want 2", st.UserID)
	}
	if !st.Snapshot.IsEmpty() {
		t.Error("snapshot of user 1 leaked into user 2")
	}
}

func TestStateIsACopy(t *testing.T) {
	l := NewLoader(newFakeSource(), Options{})
	if err := l.Load(context.Background(), 1, false); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := l.State()
	st.Snapshot.Transactions[0].Description = "changed"

	if l.State().Snapshot.Transactions[0].Description == "changed" {
		t.Error("State() exposed internal slices")
	}
}
