package installments

import (
	"context"
	"errors"
	"time"

	"installment-tracker/internal/models"
)

var (
	// ErrInvalidInput marks a rejected creation request: malformed amount,
	// fewer than two installments or an unparsable date.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage marks a failed read or write against the record store.
	ErrStorage = errors.New("storage error")
)

// RecordStore is the key-value persistence the scheduler runs against.
type RecordStore interface {
	GetAll(ctx context.Context) ([]models.Record, error)
	Put(ctx context.Context, r models.Record) error
	Delete(ctx context.Context, id string) error
}

// WatermarkStore persists the time of the last scheduled batch.
type WatermarkStore interface {
	GetWatermark(ctx context.Context) (time.Time, bool, error)
	SetWatermark(ctx context.Context, t time.Time) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Template is a transaction creation request as entered by the user.
// Amount uses comma as decimal separator ("1.200,00"); Installments is a
// string count.
type Template struct {
	Type         models.TransactionType
	Amount       string
	Category     string
	Description  string
	Date         string
	Installments string
}

// AdvanceResult describes what one advancement step did.
type AdvanceResult struct {
	Group       models.InstallmentGroup
	Advanced    bool
	Completed   bool
	Transaction *models.Transaction
}

// SkipReason explains why a scheduled batch did not run.
type SkipReason string

const (
	NotSkipped                SkipReason = ""
	NotScheduledDay           SkipReason = "not_scheduled_day"
	AlreadyProcessedThisMonth SkipReason = "already_processed_this_month"
)

// Trigger identifies who started a batch.
type Trigger int

const (
	// TriggerTimer is the daily background check; its skips stay silent.
	TriggerTimer Trigger = iota
	// TriggerManual is a user request; every outcome is reported.
	TriggerManual
)

// ProcessResult summarizes a batch advancement.
type ProcessResult struct {
	Processed       bool
	Reason          SkipReason
	ProcessedCount  int
	CompletedGroups int
	Date            time.Time
	Err             error
}

// CleanResult reports the corrupted records removed by a cleanup scan.
type CleanResult struct {
	CleanedCount int
	IDs          []string
}

// NotificationKind distinguishes the user-visible outcomes.
type NotificationKind string

const (
	NotifyCreated   NotificationKind = "created"
	NotifyAdvanced  NotificationKind = "advanced"
	NotifyCompleted NotificationKind = "completed"
	NotifyFailed    NotificationKind = "failed"
	NotifyCleaned   NotificationKind = "cleaned"
	NotifySkipped   NotificationKind = "skipped"
)

// Notification is a human-readable outcome message.
type Notification struct {
	Kind        NotificationKind
	Title       string
	Description string
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}
