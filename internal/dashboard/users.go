package dashboard

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"finagent/internal/cache"
	"finagent/internal/core"
	"finagent/internal/log"
)

const usersKey = "users"

// UserSource lists the selectable profiles.
type UserSource interface {
	Users(ctx context.Context) ([]core.User, error)
}

// Directory serves the users list. Concurrent lookups share one backend call
// and results are cached for the configured TTL.
type Directory struct {
	src       UserSource
	cache     *cache.LRUCache[[]core.User]
	group     singleflight.Group
	defaultID int
	fallback  func() string
	logger    *log.Logger
}

// NewDirectory creates a Directory. fallbackName names the default user shown
// when the backend cannot be reached; it is called on every fallback so the
// name follows the active locale.
func NewDirectory(src UserSource, ttl time.Duration, defaultID int, fallbackName func() string, logger *log.Logger) *Directory {
	if defaultID < 1 {
		defaultID = 1
	}
	if fallbackName == nil {
		fallbackName = func() string { return "Utilizador Principal" }
	}
	d := &Directory{
		src:       src,
		defaultID: defaultID,
		fallback:  fallbackName,
		logger:    log.OrDiscard(logger).WithComponent(log.ComponentDashboard),
	}
	if ttl > 0 {
		d.cache = cache.NewLRUCache[[]core.User](1, ttl)
	}
	return d
}

// Cache exposes the underlying cache for periodic cleanup. It is nil when
// caching is disabled.
func (d *Directory) Cache() *cache.LRUCache[[]core.User] {
	return d.cache
}

// Users returns the profiles, or the single default user when the backend
// fails or has none.
func (d *Directory) Users(ctx context.Context) []core.User {
	if d.cache != nil {
		if users, ok := d.cache.Get(usersKey); ok {
			return append([]core.User(nil), users...)
		}
	}

	v, err, _ := d.group.Do(usersKey, func() (any, error) {
		users, err := d.src.Users(ctx)
		if err == nil && len(users) > 0 && d.cache != nil {
			d.cache.Set(usersKey, users)
		}
		return users, err
	})
	if err != nil {
		d.logger.WarnContext(ctx, "Failed to load users, using default",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
		return d.fallbackUsers()
	}

	users := v.([]core.User)
	if len(users) == 0 {
		return d.fallbackUsers()
	}
	return append([]core.User(nil), users...)
}

// Lookup finds a user by id in the current list.
func (d *Directory) Lookup(ctx context.Context, id int) (core.User, bool) {
	for _, u := range d.Users(ctx) {
		if u.ID == id {
			return u, true
		}
	}
	return core.User{}, false
}

// Invalidate drops the cached list.
func (d *Directory) Invalidate() {
	if d.cache != nil {
		d.cache.Delete(usersKey)
	}
}

func (d *Directory) fallbackUsers() []core.User {
	name := d.fallback()
	if name == "" {
		name = "User " + strconv.Itoa(d.defaultID)
	}
	return []core.User{{ID: d.defaultID, Name: name}}
}
