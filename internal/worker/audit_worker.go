// Package worker consumes expense events from the broker and keeps a running
// audit of what every session has recorded.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
)

const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
)

var errBadAmount = errors.New("invalid amount in event")

// Summary is a point-in-time view of the audit.
type Summary struct {
	Added        int
	Deleted      int
	EditRequests int
	Ignored      int
	Net          decimal.Decimal
	ByCategory   []core.CategoryAmount
}

// AuditWorker totals consumed events per category. Added ids are remembered
// for a day so a redelivered add is not counted twice.
type AuditWorker struct {
	mu         sync.Mutex
	byCategory map[core.Category]decimal.Decimal
	added      int
	deleted    int
	edits      int
	ignored    int

	seen *cache.LRUCache[decimal.Decimal]
}

func NewAuditWorker() *AuditWorker {
	return &AuditWorker{
		byCategory: make(map[core.Category]decimal.Decimal),
		seen:       cache.NewLRUCache[decimal.Decimal](seenCapacity, seenTTL),
	}
}

// HandleEvent applies one message. Unknown event types are logged and
// acknowledged. A malformed amount is returned as an error and leaves every
// counter untouched, so a requeued message is counted at most once.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	switch core.EventType(msg.Type) {
	case core.EventExpenseAdded:
		return w.handleAdded(ctx, msg)
	case core.EventExpenseDeleted:
		return w.handleDeleted(ctx, msg)
	case core.EventEditRequested:
		w.mu.Lock()
		w.edits++
		w.mu.Unlock()
		slog.DebugContext(ctx, "Edit request audited", "expense_id", msg.ExpenseID, "session_id", msg.SessionID)
		return nil
	default:
		w.mu.Lock()
		w.ignored++
		w.mu.Unlock()
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", msg.Type, "expense_id", msg.ExpenseID)
		return nil
	}
}

func (w *AuditWorker) handleAdded(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return fmt.Errorf("%w: %q", errBadAmount, msg.Amount)
	}
	if _, dup := w.seen.Get(msg.ExpenseID); dup {
		slog.DebugContext(ctx, "Duplicate add event skipped", "expense_id", msg.ExpenseID)
		return nil
	}
	w.seen.Set(msg.ExpenseID, amount)

	cat := core.Category(msg.Category)
	w.mu.Lock()
	w.added++
	w.byCategory[cat] = w.byCategory[cat].Add(amount)
	w.mu.Unlock()

	slog.InfoContext(ctx, "Expense added",
		"expense_id", msg.ExpenseID,
		"session_id", msg.SessionID,
		"category", cat,
		"amount", core.FormatAmount(amount))
	return nil
}

func (w *AuditWorker) handleDeleted(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	// Deleting an id the session never had carries no amount.
	if msg.Amount == "" {
		w.countDelete()
		slog.DebugContext(ctx, "Delete of unknown expense audited", "expense_id", msg.ExpenseID)
		return nil
	}
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return fmt.Errorf("%w: %q", errBadAmount, msg.Amount)
	}
	if _, ok := w.seen.Get(msg.ExpenseID); !ok {
		w.countDelete()
		slog.DebugContext(ctx, "Delete of expense added before this worker started", "expense_id", msg.ExpenseID)
		return nil
	}
	w.seen.Delete(msg.ExpenseID)

	cat := core.Category(msg.Category)
	w.mu.Lock()
	w.deleted++
	w.byCategory[cat] = w.byCategory[cat].Sub(amount)
	if w.byCategory[cat].IsZero() {
		delete(w.byCategory, cat)
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Expense deleted",
		"expense_id", msg.ExpenseID,
		"session_id", msg.SessionID,
		"category", cat,
		"amount", core.FormatAmount(amount))
	return nil
}

func (w *AuditWorker) countDelete() {
	w.mu.Lock()
	w.deleted++
	w.mu.Unlock()
}

// Snapshot returns the current totals, categories sorted by name.
func (w *AuditWorker) Snapshot() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Summary{
		Added:        w.added,
		Deleted:      w.deleted,
		EditRequests: w.edits,
		Ignored:      w.ignored,
		Net:          decimal.Zero,
		ByCategory:   make([]core.CategoryAmount, 0, len(w.byCategory)),
	}
	for cat, amount := range w.byCategory {
		s.ByCategory = append(s.ByCategory, core.CategoryAmount{Category: cat, Amount: amount})
		s.Net = s.Net.Add(amount)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})
	return s
}

func (w *AuditWorker) logSummary(ctx context.Context) {
	s := w.Snapshot()
	args := []any{
		"added", s.Added,
		"deleted", s.Deleted,
		"edit_requests", s.EditRequests,
		"net", core.FormatAmount(s.Net),
	}
	for _, ca := range s.ByCategory {
		args = append(args, "category_"+string(ca.Category), core.FormatAmount(ca.Amount))
	}
	slog.InfoContext(ctx, "Expense event audit", args...)
}

// ConsumeFunc feeds messages to a handler until ctx is done.
type ConsumeFunc func(ctx context.Context, handler func(context.Context, *amqp.ExpenseEventMessage) error) error

// Run consumes events and logs the audit every interval until ctx is
// cancelled. A final summary is logged on the way out.
func (w *AuditWorker) Run(ctx context.Context, consume ConsumeFunc, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := consume(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				w.logSummary(gctx)
			}
		}
	})

	err := g.Wait()
	w.logSummary(context.Background())
	return err
}
