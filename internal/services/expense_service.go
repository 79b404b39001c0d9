package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/metrics"
	"expenses/internal/ports"
)

// ExpenseService coordinates one session's expense collection: it mutates
// the store, notifies the user and forwards events.
type ExpenseService struct {
	sessionID string
	store     ports.ExpenseStore
	notifier  core.Notifier
	publisher ports.EventPublisher
}

func NewExpenseService(sessionID string, store ports.ExpenseStore, notifier core.Notifier, publisher ports.EventPublisher) *ExpenseService {
	return &ExpenseService{
		sessionID: sessionID,
		store:     store,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Add turns a validated entry into a record appended at the end of the
// collection.
func (s *ExpenseService) Add(ctx context.Context, entry core.Entry) (core.Expense, error) {
	e := core.NewExpense(entry)
	if _, err := s.store.Append(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("append expense: %w", err)
	}
	metrics.ExpenseAdded()

	slog.InfoContext(ctx, "Expense added",
		"session_id", s.sessionID,
		"expense_id", e.ID,
		"amount", e.Amount.String(),
		"category", e.Category,
		"operation", "create")

	s.notify(ctx, core.NotifyExpenseAdded)
	s.publish(ctx, core.EventExpenseAdded, e)
	return e, nil
}

// Remove deletes the record with the given id. An unknown id leaves the
// collection unchanged and is not an error.
func (s *ExpenseService) Remove(ctx context.Context, id uuid.UUID) error {
	var removed core.Expense
	if s.publisher != nil {
		removed = s.find(ctx, id)
	}
	ok, err := s.store.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("remove expense %s: %w", id, err)
	}
	if ok {
		metrics.ExpenseDeleted()
		slog.InfoContext(ctx, "Expense deleted",
			"session_id", s.sessionID,
			"expense_id", id,
			"operation", "delete")
		if removed.ID == uuid.Nil {
			removed.ID = id
		}
		s.publish(ctx, core.EventExpenseDeleted, removed)
	} else {
		slog.DebugContext(ctx, "Delete of unknown expense ignored",
			"session_id", s.sessionID,
			"expense_id", id)
	}
	s.notify(ctx, core.NotifyExpenseDeleted)
	return nil
}

// Edit is a placeholder: it never mutates the collection and only tells the
// user that editing is not available yet.
func (s *ExpenseService) Edit(ctx context.Context, id uuid.UUID) error {
	metrics.EditAttempted()
	slog.InfoContext(ctx, "Edit requested",
		"session_id", s.sessionID,
		"expense_id", id,
		"operation", "update")
	s.notify(ctx, core.NotifyEditPending)
	s.publish(ctx, core.EventEditRequested, core.Expense{ID: id})
	return nil
}

// Expenses returns the collection in insertion order.
func (s *ExpenseService) Expenses(ctx context.Context) ([]core.Expense, error) {
	items, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

// Report aggregates the current collection. It is recomputed on every call.
func (s *ExpenseService) Report(ctx context.Context) (core.Report, error) {
	items, err := s.Expenses(ctx)
	if err != nil {
		return core.Report{}, err
	}
	return core.Summarize(items), nil
}

func (s *ExpenseService) find(ctx context.Context, id uuid.UUID) core.Expense {
	items, err := s.store.ListExpenses(ctx)
	if err != nil {
		return core.Expense{}
	}
	for _, e := range items {
		if e.ID == id {
			return e
		}
	}
	return core.Expense{}
}

func (s *ExpenseService) notify(ctx context.Context, n core.Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, n)
}

func (s *ExpenseService) publish(ctx context.Context, t core.EventType, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping event", "type", t)
		return
	}
	ev := core.ExpenseEvent{Type: t, SessionID: s.sessionID, Expense: e}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		// The collection is already updated; events are best effort.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", t,
			"expense_id", e.ID,
			"error", err)
	}
}
