package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/core"
)

func event(t core.EventType, id, amount, category string) *amqp.ExpenseEventMessage {
	return &amqp.ExpenseEventMessage{
		Type:      string(t),
		ExpenseID: id,
		SessionID: "s1",
		Amount:    amount,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

func TestAuditAddAndDelete(t *testing.T) {
	w := NewAuditWorker()
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseAdded, "a", "100.00", "Food")))
	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseAdded, "b", "50.00", "Transportation")))
	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseAdded, "c", "25.50", "Food")))
	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseDeleted, "b", "50.00", "Transportation")))

	s := w.Snapshot()
	assert.Equal(t, 3, s.Added)
	assert.Equal(t, 1, s.Deleted)
	assert.True(t, decimal.RequireFromString("125.50").Equal(s.Net), s.Net.String())
	require.Len(t, s.ByCategory, 1)
	assert.Equal(t, core.Food, s.ByCategory[0].Category)
}

func TestAuditSkipsRedeliveredAdd(t *testing.T) {
	w := NewAuditWorker()
	ctx := context.Background()

	msg := event(core.EventExpenseAdded, "a", "10", "Other")
	require.NoError(t, w.HandleEvent(ctx, msg))
	require.NoError(t, w.HandleEvent(ctx, msg))

	s := w.Snapshot()
	assert.Equal(t, 1, s.Added)
	assert.True(t, decimal.NewFromInt(10).Equal(s.Net))
}

func TestAuditDeleteWithoutAmount(t *testing.T) {
	w := NewAuditWorker()
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseDeleted, "ghost", "", "")))
	require.NoError(t, w.HandleEvent(ctx, event(core.EventEditRequested, "x", "", "")))
	require.NoError(t, w.HandleEvent(ctx, event("expense.renamed", "x", "", "")))

	s := w.Snapshot()
	assert.Equal(t, 1, s.Deleted)
	assert.Equal(t, 1, s.EditRequests)
	assert.Equal(t, 1, s.Ignored)
	assert.True(t, s.Net.IsZero())
	assert.Empty(t, s.ByCategory)
}

func TestAuditRejectsBadAmount(t *testing.T) {
	w := NewAuditWorker()
	err := w.HandleEvent(context.Background(), event(core.EventExpenseAdded, "a", "lots", "Food"))
	assert.ErrorIs(t, err, errBadAmount)
	assert.Zero(t, w.Snapshot().Added)
}

func TestAuditRequeuedBadDeleteNotCounted(t *testing.T) {
	w := NewAuditWorker()
	ctx := context.Background()
	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseAdded, "a", "10", "Food")))

	bad := event(core.EventExpenseDeleted, "a", "ten", "Food")
	// first delivery and its redelivery
	assert.ErrorIs(t, w.HandleEvent(ctx, bad), errBadAmount)
	assert.ErrorIs(t, w.HandleEvent(ctx, bad), errBadAmount)

	s := w.Snapshot()
	assert.Zero(t, s.Deleted)
	assert.True(t, decimal.NewFromInt(10).Equal(s.Net))

	require.NoError(t, w.HandleEvent(ctx, event(core.EventExpenseDeleted, "a", "10", "Food")))
	s = w.Snapshot()
	assert.Equal(t, 1, s.Deleted)
	assert.True(t, s.Net.IsZero())
}

func TestRunStopsOnCancel(t *testing.T) {
	w := NewAuditWorker()
	ctx, cancel := context.WithCancel(context.Background())

	consume := func(ctx context.Context, handle func(context.Context, *amqp.ExpenseEventMessage) error) error {
		if err := handle(ctx, event(core.EventExpenseAdded, "a", "5", "Food")); err != nil {
			return err
		}
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	require.NoError(t, w.Run(ctx, consume, time.Hour))
	assert.Equal(t, 1, w.Snapshot().Added)
}

func TestRunReturnsConsumeError(t *testing.T) {
	w := NewAuditWorker()
	boom := errors.New("message channel closed")
	consume := func(context.Context, func(context.Context, *amqp.ExpenseEventMessage) error) error {
		return boom
	}
	assert.ErrorIs(t, w.Run(context.Background(), consume, time.Hour), boom)
}
