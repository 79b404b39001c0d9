package ports

import (
	"context"

	"github.com/google/uuid"

	"expenses/internal/core"
)

// Ports between the expense coordinator and its collaborators.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (ref string, err error)
	}

	// ExpenseRemover deletes a record by id. Removing an unknown id is not
	// an error; removed reports whether anything changed.
	ExpenseRemover interface {
		Remove(ctx context.Context, id uuid.UUID) (removed bool, err error)
	}

	// ExpenseLister returns the collection in insertion order.
	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseStore interface {
		ExpenseWriter
		ExpenseRemover
		ExpenseLister
	}

	// EventPublisher forwards store events to an outbound channel.
	EventPublisher interface {
		PublishExpenseEvent(ctx context.Context, ev core.ExpenseEvent) error
	}
)
