package log

import "spendlog/internal/core"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldBackend   = "backend"
	FieldCount     = "count"
	FieldPosition  = "position"
	FieldExpenseID = "expense_id"
	FieldDate      = "date"
	FieldCategory  = "category"
	FieldAmount    = "amount"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentExpense = "expense"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentExport  = "export"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpAdd    = "add"
	OpDelete = "delete"
	OpReport = "report"
	OpLoad   = "load"
	OpExport = "export"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(e core.Expense) LogFields {
	if e.ID != "" {
		f[FieldExpenseID] = e.ID
	}
	f[FieldDate] = e.Date.String()
	f[FieldCategory] = e.Category
	f[FieldAmount] = e.Amount.String()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
