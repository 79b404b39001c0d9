package amqp

import (
	"encoding/json"
	"time"

	"expenses/internal/core"
)

// ExpenseEventMessage is the wire form of a store action. Amount and
// category are omitted for events that carry only an id.
type ExpenseEventMessage struct {
	Type      string    `json:"type"`
	ExpenseID string    `json:"expense_id"`
	SessionID string    `json:"session_id"`
	Amount    string    `json:"amount,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEventMessage(ev core.ExpenseEvent) *ExpenseEventMessage {
	msg := &ExpenseEventMessage{
		Type:      string(ev.Type),
		ExpenseID: ev.Expense.ID.String(),
		SessionID: ev.SessionID,
		Category:  string(ev.Expense.Category),
		Timestamp: time.Now().UTC(),
	}
	if !ev.Expense.Amount.IsZero() {
		msg.Amount = core.FormatAmount(ev.Expense.Amount)
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON parses a message, as a downstream consumer would.
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
