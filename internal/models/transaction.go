package models

import "time"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Recurrence values a transaction can be created with.
const (
	RecurrenceNone        = "none"
	RecurrenceRecurring   = "recurring"
	RecurrenceInstallment = "installment"
)

// Frequencies of a recurring transaction.
const (
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Transaction represents one dated income or expense record.
// Installment transactions carry the group back-reference and their position.
type Transaction struct {
	ID                  string          `bson:"_id" json:"id"`
	Type                TransactionType `bson:"type" json:"type"`
	Amount              float64         `bson:"amount" json:"amount"`
	Category            string          `bson:"category" json:"category"`
	Description         string          `bson:"description" json:"description"`
	Date                string          `bson:"date" json:"date"` // YYYY-MM-DD
	Recurrence          string          `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	RecurrenceFrequency string          `bson:"recurrenceFrequency,omitempty" json:"recurrenceFrequency,omitempty"`
	InstallmentGroup    string          `bson:"installmentGroup,omitempty" json:"installmentGroup,omitempty"`
	InstallmentNumber   int             `bson:"installmentNumber,omitempty" json:"installmentNumber,omitempty"`
	IsInstallment       bool            `bson:"isInstallment,omitempty" json:"isInstallment,omitempty"`
	CreatedAt           time.Time       `bson:"createdAt" json:"createdAt"`
}

func (t *Transaction) RecordID() string   { return t.ID }
func (t *Transaction) RecordDate() string { return t.Date }
func (t *Transaction) isRecord()          {}
