// Package session keeps the per-page-load expense state. Every full page
// load opens a new session with an empty collection; nothing outlives it.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/form"
	"expenses/internal/metrics"
	"expenses/internal/ports"
	"expenses/internal/services"
	"expenses/internal/store/memory"
)

// Session is the state behind one open page.
type Session struct {
	ID string
	// Client is the address that opened the page.
	Client    string
	CreatedAt time.Time
	Service   *services.ExpenseService
	Form      *form.Form
	Outbox    *Outbox
}

// Outbox queues notifications until the next response carries them out.
type Outbox struct {
	mu      sync.Mutex
	pending []core.Notification
}

var _ core.Notifier = (*Outbox)(nil)

func (o *Outbox) Notify(_ context.Context, n core.Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, n)
}

// Drain returns the queued notifications in emission order and empties the
// queue.
func (o *Outbox) Drain() []core.Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.pending
	o.pending = nil
	return out
}

// Options configures a Registry.
type Options struct {
	MaxSessions int
	// MaxPerClient bounds the live sessions one client can hold. It is kept
	// below MaxSessions so one client never pushes out another's page.
	MaxPerClient int
	TTL          time.Duration
	Publisher    ports.EventPublisher
	Today        func() core.Date
}

const defaultMaxPerClient = 10

// Registry holds the live sessions. Idle sessions expire after the TTL. A
// client opening more than MaxPerClient pages loses its own oldest one; the
// least recently used session overall is dropped only when the registry is
// full.
type Registry struct {
	sessions     *cache.LRUCache[*Session]
	publisher    ports.EventPublisher
	today        func() core.Date
	maxPerClient int

	mu       sync.Mutex
	byClient map[string][]string
}

func NewRegistry(opts Options) *Registry {
	if opts.Today == nil {
		opts.Today = func() core.Date { return core.DateOf(time.Now()) }
	}
	if opts.MaxPerClient <= 0 {
		opts.MaxPerClient = defaultMaxPerClient
	}
	if opts.MaxSessions > 1 && opts.MaxPerClient >= opts.MaxSessions {
		opts.MaxPerClient = opts.MaxSessions - 1
	}
	r := &Registry{
		sessions:     cache.NewLRUCache[*Session](opts.MaxSessions, opts.TTL),
		publisher:    opts.Publisher,
		today:        opts.Today,
		maxPerClient: opts.MaxPerClient,
		byClient:     make(map[string][]string),
	}
	r.sessions.OnEvict(func(id string, s *Session, reason cache.EvictReason) {
		r.forget(s.Client, id)
		slog.Info("Session closed",
			"session_id", id,
			"client_ip", s.Client,
			"reason", reason,
			"age", time.Since(s.CreatedAt).Round(time.Second).String())
		metrics.SetActiveSessions(r.sessions.Size())
	})
	return r
}

// Open starts a new session for client with an empty collection and a
// blank form.
func (r *Registry) Open(ctx context.Context, client string) *Session {
	id := uuid.NewString()
	outbox := &Outbox{}
	s := &Session{
		ID:        id,
		Client:    client,
		CreatedAt: time.Now(),
		Service:   services.NewExpenseService(id, memory.New(r.today), outbox, r.publisher),
		Form:      form.New(r.today),
		Outbox:    outbox,
	}

	r.mu.Lock()
	ids := r.byClient[client]
	var dropped []string
	for len(ids) >= r.maxPerClient {
		dropped = append(dropped, ids[0])
		ids = ids[1:]
	}
	r.byClient[client] = append(ids, id)
	r.mu.Unlock()

	// Eviction callbacks take r.mu, so these run unlocked.
	for _, old := range dropped {
		r.sessions.Delete(old)
	}
	r.sessions.Set(id, s)

	metrics.SetActiveSessions(r.sessions.Size())
	slog.InfoContext(ctx, "Session opened", "session_id", id, "client_ip", client)
	return s
}

// ClientSessions returns how many live sessions client holds.
func (r *Registry) ClientSessions(client string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byClient[client])
}

func (r *Registry) forget(client, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byClient[client]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.byClient, client)
		return
	}
	r.byClient[client] = ids
}

// Get returns a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return r.sessions.Get(id)
}

// Close discards a session and everything it holds.
func (r *Registry) Close(id string) {
	r.sessions.Delete(id)
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	return r.sessions.Size()
}

// CleanExpired drops idle sessions; it lets a cache.Manager sweep the
// registry.
func (r *Registry) CleanExpired() int {
	return r.sessions.CleanExpired()
}

var _ cache.Cleaner = (*Registry)(nil)
