package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spendlog/internal/core"
)

// ChangeType names what happened to an expense.
type ChangeType string

const (
	ChangeAdded   ChangeType = "expense.added"
	ChangeRemoved ChangeType = "expense.removed"
)

// ChangeMessage announces a committed change to the expense collection.
// It carries the whole record so consumers never need to read the store.
type ChangeMessage struct {
	Type      ChangeType `json:"type"`
	ExpenseID string     `json:"expense_id,omitempty"`
	Date      string     `json:"date"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Notes     string     `json:"notes,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewChangeMessage builds a message for e stamped with the current time.
func NewChangeMessage(t ChangeType, e core.Expense) *ChangeMessage {
	return &ChangeMessage{
		Type:      t,
		ExpenseID: e.ID,
		Date:      e.Date.String(),
		Category:  e.Category,
		Amount:    e.Amount,
		Notes:     e.Notes,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects unknown change types.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case ChangeAdded, ChangeRemoved:
	default:
		return nil, fmt.Errorf("unknown change type %q", msg.Type)
	}
	return &msg, nil
}
