// Package transactions records plain income and expense entries and hands
// installment purchases over to the installment scheduler.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"installment-tracker/internal/installments"
	"installment-tracker/internal/models"
	"installment-tracker/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when deleting an unknown transaction.
	ErrNotFound = errors.New("transaction not found")
	// ErrGroupRecord is returned when a delete targets an installment group.
	ErrGroupRecord = errors.New("installment groups cannot be deleted")
)

var recurrenceAliases = map[string]string{
	"":                           models.RecurrenceNone,
	models.RecurrenceNone:        models.RecurrenceNone,
	"nenhuma":                    models.RecurrenceNone,
	models.RecurrenceRecurring:   models.RecurrenceRecurring,
	"recorrente":                 models.RecurrenceRecurring,
	models.RecurrenceInstallment: models.RecurrenceInstallment,
	"parcelada":                  models.RecurrenceInstallment,
}

var frequencyAliases = map[string]string{
	models.FrequencyWeekly:  models.FrequencyWeekly,
	"semanal":               models.FrequencyWeekly,
	models.FrequencyMonthly: models.FrequencyMonthly,
	"mensal":                models.FrequencyMonthly,
	models.FrequencyYearly:  models.FrequencyYearly,
	"anual":                 models.FrequencyYearly,
}

// Input is a new transaction as entered by the user.
type Input struct {
	Type                models.TransactionType
	Amount              string
	Category            string
	Description         string
	Date                string
	Recurrence          string
	RecurrenceFrequency string
	Installments        string
}

// Result tells what Add stored: a plain transaction or an installment group.
type Result struct {
	TransactionID string
	GroupID       string
}

// Service stores transactions in the shared record store.
type Service struct {
	store     installments.RecordStore
	scheduler *installments.Scheduler
	clock     installments.Clock
	logger    zerolog.Logger
	newID     func() string
}

// NewService creates a transaction service. Installment inputs are routed
// to scheduler.
func NewService(store installments.RecordStore, scheduler *installments.Scheduler, clock installments.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = installments.SystemClock{}
	}
	return &Service{
		store:     store,
		scheduler: scheduler,
		clock:     clock,
		logger:    logger,
		newID:     func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Add validates and stores one transaction dated today unless a date is
// given. Inputs with installment recurrence become an installment group
// whose first installment is created immediately.
func (s *Service) Add(ctx context.Context, in Input) (Result, error) {
	recurrence, ok := recurrenceAliases[strings.ToLower(strings.TrimSpace(in.Recurrence))]
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown recurrence %q", installments.ErrInvalidInput, in.Recurrence)
	}

	if strings.TrimSpace(in.Date) == "" {
		in.Date = s.clock.Now().Format("2006-01-02")
	}

	if recurrence == models.RecurrenceInstallment {
		id, err := s.scheduler.CreateGroup(ctx, installments.Template{
			Type:         in.Type,
			Amount:       in.Amount,
			Category:     in.Category,
			Description:  in.Description,
			Date:         in.Date,
			Installments: in.Installments,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{GroupID: id}, nil
	}

	tx, err := s.build(in, recurrence)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected transaction")
		return Result{}, err
	}

	if err := s.store.Put(ctx, &tx); err != nil {
		return Result{}, fmt.Errorf("%w: %w", installments.ErrStorage, err)
	}

	s.logger.Info().
		Str("id", tx.ID).
		Str("type", string(tx.Type)).
		Float64("amount", tx.Amount).
		Str("category", tx.Category).
		Msg("Transaction added")

	return Result{TransactionID: tx.ID}, nil
}

func (s *Service) build(in Input, recurrence string) (models.Transaction, error) {
	now := s.clock.Now()

	if !in.Type.Valid() {
		return models.Transaction{}, invalid("unknown transaction type %q", in.Type)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return models.Transaction{}, invalid("category is required")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return models.Transaction{}, invalid("description is required")
	}

	amount, err := utils.ParseAmount(in.Amount)
	if err != nil {
		return models.Transaction{}, invalid("%v", err)
	}

	d, err := utils.NormalizeDate(in.Date, now.Location())
	if err != nil {
		return models.Transaction{}, invalid("%v", err)
	}

	var frequency string
	if recurrence == models.RecurrenceRecurring {
		f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(in.RecurrenceFrequency))]
		if !ok {
			return models.Transaction{}, invalid("unknown recurrence frequency %q", in.RecurrenceFrequency)
		}
		frequency = f
	}

	return models.Transaction{
		ID:                  s.newID(),
		Type:                in.Type,
		Amount:              amount,
		Category:            category,
		Description:         description,
		Date:                d.String(),
		Recurrence:          recurrence,
		RecurrenceFrequency: frequency,
		CreatedAt:           now,
	}, nil
}

// List returns every stored transaction, newest date first.
func (s *Service) List(ctx context.Context) ([]models.Transaction, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", installments.ErrStorage, err)
	}

	txs := models.Transactions(records)
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

// Delete removes one transaction. Installment groups are left to the
// scheduler.
func (s *Service) Delete(ctx context.Context, id string) error {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", installments.ErrStorage, err)
	}

	var found models.Record
	for _, r := range records {
		if r.RecordID() == id {
			found = r
			break
		}
	}
	switch found.(type) {
	case nil:
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	case *models.InstallmentGroup:
		return fmt.Errorf("%w: %s", ErrGroupRecord, id)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", installments.ErrStorage, err)
	}

	s.logger.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

// MonthlySummary summarizes the stored transactions of one month.
func (s *Service) MonthlySummary(ctx context.Context, year int, month time.Month) (models.MonthlySummary, error) {
	txs, err := s.List(ctx)
	if err != nil {
		return models.MonthlySummary{}, err
	}
	return Summarize(txs, year, month), nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", installments.ErrInvalidInput, fmt.Sprintf(format, args...))
}
