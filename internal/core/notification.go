package core

import "context"

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a short user-facing message emitted by store actions.
type Notification struct {
	Title   string
	Message string
	Variant Variant
}

var (
	NotifyExpenseAdded = Notification{
		Title:   "Expense Added",
		Message: "Your expense has been successfully added.",
		Variant: VariantDefault,
	}
	NotifyExpenseDeleted = Notification{
		Title:   "Expense Deleted",
		Message: "Your expense has been successfully deleted.",
		Variant: VariantDestructive,
	}
	NotifyEditPending = Notification{
		Title:   "Edit Expense",
		Message: "Edit functionality coming soon!",
		Variant: VariantDefault,
	}
)

// Notifier receives notifications for display.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// EventType names a change to the expense collection.
type EventType string

const (
	EventExpenseAdded   EventType = "expense.added"
	EventExpenseDeleted EventType = "expense.deleted"
	EventEditRequested  EventType = "expense.edit_requested"
)

// ExpenseEvent describes a store action for outbound publishing.
type ExpenseEvent struct {
	Type      EventType
	SessionID string
	Expense   Expense
}
