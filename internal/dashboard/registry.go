package dashboard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"finagent/internal/cache"
	"finagent/internal/log"
)

// Registry keeps one Loader per user so every viewer of a user shares the
// same snapshot. Loaders unused for the idle TTL are dropped.
type Registry struct {
	src     Source
	opts    Options
	loaders *cache.LRUCache[*Loader]
	logger  *log.Logger
	mu      sync.Mutex
}

// NewRegistry creates a registry holding up to maxUsers loaders.
func NewRegistry(src Source, opts Options, maxUsers int, idle time.Duration) *Registry {
	return &Registry{
		src:     src,
		opts:    opts,
		loaders: cache.NewLRUCache[*Loader](maxUsers, idle),
		logger:  log.OrDiscard(opts.Logger).WithComponent(log.ComponentDashboard),
	}
}

// Cache exposes the loader cache for periodic cleanup.
func (r *Registry) Cache() *cache.LRUCache[*Loader] {
	return r.loaders
}

// Loader returns the loader of userID, creating it on first use.
func (r *Registry) Loader(userID int) *Loader {
	key := strconv.Itoa(userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loaders.Get(key); ok {
		return l
	}
	l := NewLoader(r.src, r.opts)
	r.loaders.Set(key, l)
	return l
}

// Reload refreshes the dashboard of userID in the background if someone is
// viewing it. It reports whether a loader existed.
func (r *Registry) Reload(ctx context.Context, userID int) (bool, error) {
	l, ok := r.loaders.Get(strconv.Itoa(userID))
	if !ok {
		r.logger.DebugContext(ctx, "No dashboard open for user, skipping refresh", log.FieldUserID, userID)
		return false, nil
	}
	return true, l.Load(ctx, userID, true)
}
