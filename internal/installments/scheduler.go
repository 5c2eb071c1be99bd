// Package installments splits a transaction into dated monthly installments
// and advances each installment group on the 15th of every month.
package installments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"installment-tracker/internal/models"
	"installment-tracker/internal/utils"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScheduledDay is the day of the month installments are posted on.
const ScheduledDay = 15

// ErrGroupNotFound is returned when advancing an unknown group id.
var ErrGroupNotFound = errors.New("installment group not found")

// Scheduler owns the lifecycle of installment groups.
type Scheduler struct {
	store     RecordStore
	watermark WatermarkStore
	clock     Clock
	notifier  Notifier
	logger    zerolog.Logger
	newID     func() string

	// mu serializes every mutation, so a manual trigger and the daily timer
	// never advance from the same paidInstallments snapshot.
	mu sync.Mutex
	// pending holds notifications raised under mu; they are sent on unlock.
	pending []Notification
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithNotifier sets where outcome notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithIDGenerator overrides group id generation.
func WithIDGenerator(f func() string) Option {
	return func(s *Scheduler) { s.newID = f }
}

// New creates a scheduler over a record store and a watermark store.
func New(store RecordStore, watermark WatermarkStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		watermark: watermark,
		clock:     SystemClock{},
		notifier:  nopNotifier{},
		logger:    zerolog.Nop(),
		newID:     NewGroupID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGroupID returns a time-ordered group id.
func NewGroupID() string {
	return "installment_" + uuid.Must(uuid.NewV7()).String()
}

// CreateGroup validates the template, stores a new active group and
// materializes installment #1 at the start date. The writes are not atomic:
// a failure after the first one leaves a group with no paid installments,
// which the next advancement repairs.
func (s *Scheduler) CreateGroup(ctx context.Context, tpl Template) (string, error) {
	now := s.clock.Now()

	original, start, err := parseTemplate(tpl, now.Location())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected installment group")
		return "", err
	}

	s.lock()
	defer s.unlock(ctx)

	group := models.InstallmentGroup{
		ID:                  s.newID(),
		Type:                models.RecordTypeInstallmentGroup,
		OriginalTransaction: original,
		TotalInstallments:   original.Installments,
		PaidInstallments:    0,
		StartDate:           start.String(),
		Status:              models.StatusActive,
		CreatedAt:           now,
	}

	if err := s.put(ctx, &group); err != nil {
		s.fail(ctx, "Failed to create installment group", err)
		return "", err
	}

	if _, err := s.advance(ctx, group, start, now, ""); err != nil {
		s.fail(ctx, "Failed to create first installment", err)
		return "", err
	}

	s.logger.Info().
		Str("group", group.ID).
		Int("installments", group.TotalInstallments).
		Float64("amount", original.Amount).
		Msg("Installment group created")

	s.queue(Notification{
		Kind:  NotifyCreated,
		Title: "Installment transaction created",
		Description: fmt.Sprintf("%s: %d installments of %.2f, processed automatically every %dth",
			original.Description, group.TotalInstallments, group.InstallmentAmount(), ScheduledDay),
	})

	return group.ID, nil
}

// Groups returns all installment groups ordered by creation.
func (s *Scheduler) Groups(ctx context.Context) ([]models.InstallmentGroup, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return sortedGroups(records), nil
}

// Installments returns the materialized installments of a group in order.
func (s *Scheduler) Installments(ctx context.Context, groupID string) ([]models.Transaction, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	var txs []models.Transaction
	for _, tx := range models.Transactions(records) {
		if tx.IsInstallment && tx.InstallmentGroup == groupID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].InstallmentNumber < txs[j].InstallmentNumber
	})
	return txs, nil
}

func parseTemplate(tpl Template, loc *time.Location) (models.OriginalTransaction, civil.Date, error) {
	if !tpl.Type.Valid() {
		return models.OriginalTransaction{}, civil.Date{}, invalidInput("unknown transaction type %q", tpl.Type)
	}

	category := strings.TrimSpace(tpl.Category)
	if category == "" {
		return models.OriginalTransaction{}, civil.Date{}, invalidInput("category is required")
	}
	description := strings.TrimSpace(tpl.Description)
	if description == "" {
		return models.OriginalTransaction{}, civil.Date{}, invalidInput("description is required")
	}

	amount, err := utils.ParseAmount(tpl.Amount)
	if err != nil {
		return models.OriginalTransaction{}, civil.Date{}, invalidInput("%v", err)
	}

	n, err := utils.ParseInstallments(tpl.Installments)
	if err != nil {
		return models.OriginalTransaction{}, civil.Date{}, invalidInput("%v", err)
	}

	start, err := utils.NormalizeDate(tpl.Date, loc)
	if err != nil {
		return models.OriginalTransaction{}, civil.Date{}, invalidInput("%v", err)
	}

	return models.OriginalTransaction{
		Type:         tpl.Type,
		Amount:       amount,
		Category:     category,
		Description:  description,
		Date:         start.String(),
		Installments: n,
	}, start, nil
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Scheduler) put(ctx context.Context, r models.Record) error {
	if err := s.store.Put(ctx, r); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

func (s *Scheduler) lock() {
	s.mu.Lock()
}

// unlock releases mu and then delivers the notifications queued while it
// was held, so a slow notifier never stalls other mutations.
func (s *Scheduler) unlock(ctx context.Context) {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, n := range pending {
		s.notifier.Notify(ctx, n)
	}
}

// queue must be called with mu held.
func (s *Scheduler) queue(n Notification) {
	s.pending = append(s.pending, n)
}

func (s *Scheduler) fail(ctx context.Context, title string, err error) {
	s.logger.Error().Err(err).Msg(title)
	s.queue(Notification{
		Kind:        NotifyFailed,
		Title:       title,
		Description: err.Error(),
	})
}

func sortedGroups(records []models.Record) []models.InstallmentGroup {
	groups := models.Groups(records)
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].CreatedAt.Before(groups[j].CreatedAt)
		}
		return groups[i].ID < groups[j].ID
	})
	return groups
}
