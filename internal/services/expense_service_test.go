package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/store/memory"
)

type recordingNotifier struct {
	got []core.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n core.Notification) {
	r.got = append(r.got, n)
}

// MockPublisher is a mock implementation of ports.EventPublisher for testing
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishExpenseEvent(ctx context.Context, ev core.ExpenseEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func today() core.Date { return core.NewDate(2024, 6, 15) }

func entry(amount int64, c core.Category, d core.Date, desc string) core.Entry {
	return core.Entry{Amount: decimal.NewFromInt(amount), Category: c, Date: d, Description: desc}
}

func newService(pub *MockPublisher) (*ExpenseService, *memory.Store, *recordingNotifier) {
	store := memory.New(today)
	n := &recordingNotifier{}
	if pub == nil {
		return NewExpenseService("sess-1", store, n, nil), store, n
	}
	return NewExpenseService("sess-1", store, n, pub), store, n
}

func TestAddAppendsAndNotifies(t *testing.T) {
	ctx := context.Background()
	svc, store, n := newService(nil)

	first, err := svc.Add(ctx, entry(100, core.Food, core.NewDate(2024, 1, 1), "lunch"))
	require.NoError(t, err)
	second, err := svc.Add(ctx, entry(50, core.Transportation, core.NewDate(2024, 1, 2), "bus"))
	require.NoError(t, err)

	items, err := svc.Expenses(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	assert.Equal(t, "bus", items[1].Description)
	assert.Equal(t, 2, store.Len())

	assert.Equal(t, []core.Notification{core.NotifyExpenseAdded, core.NotifyExpenseAdded}, n.got)

	report, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, "150.00", core.FormatAmount(report.Total))
	assert.Equal(t, "75.00", core.FormatAmount(report.Average))
	assert.Equal(t, 2, report.CategoryCount)
}

func TestAddInvalidEntryLeavesCollection(t *testing.T) {
	ctx := context.Background()
	svc, store, n := newService(nil)

	_, err := svc.Add(ctx, entry(10, core.Food, core.NewDate(2024, 1, 1), ""))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, n.got)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc, _, n := newService(nil)

	var ids []uuid.UUID
	for _, d := range []string{"a", "b", "c"} {
		e, err := svc.Add(ctx, entry(1, core.Other, core.NewDate(2024, 1, 1), d))
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	n.got = nil

	require.NoError(t, svc.Remove(ctx, ids[0]))
	items, _ := svc.Expenses(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, ids[1], items[0].ID)
	assert.Equal(t, ids[2], items[1].ID)

	// Unknown id: no change, no error, still notifies.
	require.NoError(t, svc.Remove(ctx, uuid.New()))
	items, _ = svc.Expenses(ctx)
	assert.Len(t, items, 2)

	assert.Equal(t, []core.Notification{core.NotifyExpenseDeleted, core.NotifyExpenseDeleted}, n.got)
	assert.Equal(t, core.VariantDestructive, n.got[0].Variant)
}

func TestEditIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, _, n := newService(nil)

	e, err := svc.Add(ctx, entry(20, core.Shopping, core.NewDate(2024, 3, 1), "shoes"))
	require.NoError(t, err)
	before, _ := svc.Expenses(ctx)
	n.got = nil

	require.NoError(t, svc.Edit(ctx, e.ID))

	after, _ := svc.Expenses(ctx)
	assert.Equal(t, before, after)
	require.Len(t, n.got, 1)
	assert.Equal(t, "Edit Expense", n.got[0].Title)
	assert.Equal(t, "Edit functionality coming soon!", n.got[0].Message)
}

func TestEventsArePublished(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	svc, _, _ := newService(pub)

	pub.On("PublishExpenseEvent", ctx, mock.MatchedBy(func(ev core.ExpenseEvent) bool {
		return ev.Type == core.EventExpenseAdded && ev.SessionID == "sess-1" && ev.Expense.Description == "tea"
	})).Return(nil).Once()
	e, err := svc.Add(ctx, entry(3, core.Food, core.NewDate(2024, 1, 1), "tea"))
	require.NoError(t, err)

	pub.On("PublishExpenseEvent", ctx, mock.MatchedBy(func(ev core.ExpenseEvent) bool {
		return ev.Type == core.EventExpenseDeleted && ev.Expense.ID == e.ID && ev.Expense.Description == "tea"
	})).Return(errors.New("broker down")).Once()
	// A failing publisher does not fail the removal.
	require.NoError(t, svc.Remove(ctx, e.ID))

	// Removing an unknown id publishes nothing.
	require.NoError(t, svc.Remove(ctx, uuid.New()))

	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "PublishExpenseEvent", 2)
}
