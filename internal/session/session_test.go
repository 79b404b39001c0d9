package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func newRegistry(max, perClient int) *Registry {
	return NewRegistry(Options{
		MaxSessions:  max,
		MaxPerClient: perClient,
		TTL:          time.Hour,
		Today:        func() core.Date { return core.NewDate(2024, 6, 15) },
	})
}

func TestOpenStartsEmpty(t *testing.T) {
	r := newRegistry(10, 5)
	ctx := context.Background()

	s := r.Open(ctx, "198.51.100.1")
	require.NotEmpty(t, s.ID)

	items, err := s.Service.Expenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, r.Active())

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestSessionsAreIsolated(t *testing.T) {
	r := newRegistry(10, 5)
	ctx := context.Background()
	a := r.Open(ctx, "198.51.100.1")
	b := r.Open(ctx, "198.51.100.1")

	_, err := a.Service.Add(ctx, core.Entry{
		Amount:      decimal.NewFromInt(100),
		Category:    core.Food,
		Date:        core.NewDate(2024, 1, 1),
		Description: "lunch",
	})
	require.NoError(t, err)

	itemsA, _ := a.Service.Expenses(ctx)
	itemsB, _ := b.Service.Expenses(ctx)
	assert.Len(t, itemsA, 1)
	assert.Empty(t, itemsB)
}

func TestOutboxCollectsServiceNotifications(t *testing.T) {
	r := newRegistry(10, 5)
	ctx := context.Background()
	s := r.Open(ctx, "198.51.100.1")

	e, err := s.Service.Add(ctx, core.Entry{
		Amount:      decimal.NewFromInt(5),
		Category:    core.Other,
		Date:        core.NewDate(2024, 1, 1),
		Description: "stamps",
	})
	require.NoError(t, err)
	require.NoError(t, s.Service.Remove(ctx, e.ID))

	assert.Equal(t, []core.Notification{core.NotifyExpenseAdded, core.NotifyExpenseDeleted}, s.Outbox.Drain())
	assert.Empty(t, s.Outbox.Drain())
}

func TestCloseAndCapacity(t *testing.T) {
	r := newRegistry(2, 1)
	ctx := context.Background()
	first := r.Open(ctx, "198.51.100.1")
	second := r.Open(ctx, "198.51.100.2")

	r.Close(second.ID)
	_, ok := r.Get(second.ID)
	assert.False(t, ok)
	assert.Zero(t, r.ClientSessions("198.51.100.2"))

	r.Open(ctx, "198.51.100.3")
	r.Open(ctx, "198.51.100.4")
	_, ok = r.Get(first.ID)
	assert.False(t, ok, "oldest session should be dropped when full")
	assert.Equal(t, 2, r.Active())
	assert.Zero(t, r.ClientSessions("198.51.100.1"))

	_, ok = r.Get("")
	assert.False(t, ok)
}

func TestClientCapDropsOwnOldest(t *testing.T) {
	r := newRegistry(16, 4)
	ctx := context.Background()

	mine := r.Open(ctx, "198.51.100.1")
	_, err := mine.Service.Add(ctx, core.Entry{
		Amount:      decimal.NewFromInt(100),
		Category:    core.Food,
		Date:        core.NewDate(2024, 1, 1),
		Description: "lunch",
	})
	require.NoError(t, err)

	var flood []*Session
	for i := 0; i < 40; i++ {
		flood = append(flood, r.Open(ctx, "203.0.113.9"))
	}

	got, ok := r.Get(mine.ID)
	require.True(t, ok, "another client's page loads must not evict this session")
	items, err := got.Service.Expenses(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	assert.Equal(t, 4, r.ClientSessions("203.0.113.9"))
	assert.Equal(t, 5, r.Active())
	_, ok = r.Get(flood[0].ID)
	assert.False(t, ok)
	_, ok = r.Get(flood[len(flood)-1].ID)
	assert.True(t, ok)
}

func TestClientCapStaysBelowCapacity(t *testing.T) {
	r := newRegistry(3, 10)
	ctx := context.Background()

	other := r.Open(ctx, "198.51.100.1")
	for i := 0; i < 10; i++ {
		r.Open(ctx, "203.0.113.9")
	}
	_, ok := r.Get(other.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, r.ClientSessions("203.0.113.9"))
}
