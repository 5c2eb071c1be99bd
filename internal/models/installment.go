package models

import (
	"fmt"
	"time"
)

// RecordTypeInstallmentGroup is the persisted type tag of installment groups.
const RecordTypeInstallmentGroup = "installment_group"

// GroupStatus is the lifecycle state of an installment group.
type GroupStatus string

const (
	StatusActive    GroupStatus = "active"
	StatusCompleted GroupStatus = "completed"
)

// OriginalTransaction is the user-entered template a group was split from.
type OriginalTransaction struct {
	Type         TransactionType `bson:"type" json:"type"`
	Amount       float64         `bson:"amount" json:"amount"`
	Category     string          `bson:"category" json:"category"`
	Description  string          `bson:"description" json:"description"`
	Date         string          `bson:"date" json:"date"`
	Installments int             `bson:"installments" json:"installments"`
}

// InstallmentGroup is one purchase split across TotalInstallments dated
// disbursements. PaidInstallments counts the installment transactions
// already materialized; it equals TotalInstallments iff Status is completed.
type InstallmentGroup struct {
	ID                  string              `bson:"_id" json:"id"`
	Type                string              `bson:"type" json:"type"`
	OriginalTransaction OriginalTransaction `bson:"originalTransaction" json:"originalTransaction"`
	TotalInstallments   int                 `bson:"totalInstallments" json:"totalInstallments"`
	PaidInstallments    int                 `bson:"paidInstallments" json:"paidInstallments"`
	StartDate           string              `bson:"startDate" json:"startDate"`
	Status              GroupStatus         `bson:"status" json:"status"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	CompletedAt         *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	LastProcessedDate   *time.Time          `bson:"lastProcessedDate,omitempty" json:"lastProcessedDate,omitempty"`
	ScheduledPeriod     string              `bson:"scheduledPeriod,omitempty" json:"scheduledPeriod,omitempty"` // YYYY-MM
}

func (g *InstallmentGroup) RecordID() string   { return g.ID }
func (g *InstallmentGroup) RecordDate() string { return g.StartDate }
func (g *InstallmentGroup) isRecord()          {}

// Active reports whether the group still has installments to disburse.
func (g *InstallmentGroup) Active() bool {
	return g.Status == StatusActive && g.PaidInstallments < g.TotalInstallments
}

// InstallmentAmount is the equal share of every installment. No remainder
// is redistributed, so the sum of all shares may differ from the original
// amount by floating-point error.
func (g *InstallmentGroup) InstallmentAmount() float64 {
	return g.OriginalTransaction.Amount / float64(g.TotalInstallments)
}

// InstallmentID returns the deterministic id of installment n of a group.
func InstallmentID(groupID string, n int) string {
	return fmt.Sprintf("%s_installment_%d", groupID, n)
}
