package installments

import (
	"context"
	"fmt"
	"time"

	"installment-tracker/internal/models"
	"installment-tracker/internal/utils"

	"cloud.google.com/go/civil"
)

// CheckGate decides whether the scheduled batch may run today: only on the
// 15th, and only once per calendar month of the last scheduled run.
func CheckGate(today civil.Date, last civil.Date, hasLast bool) SkipReason {
	if today.Day != ScheduledDay {
		return NotScheduledDay
	}
	if hasLast && utils.SameMonth(today, last) {
		return AlreadyProcessedThisMonth
	}
	return NotSkipped
}

// Advance moves one group forward by a single installment posted on the
// given date. The counter is not idempotent: calling it twice advances
// twice.
func (s *Scheduler) Advance(ctx context.Context, groupID string, posting civil.Date) (AdvanceResult, error) {
	s.lock()
	defer s.unlock(ctx)

	groups, err := s.loadGroups(ctx)
	if err != nil {
		return AdvanceResult{}, err
	}
	for _, g := range groups {
		if g.ID == groupID {
			return s.advance(ctx, g, posting, s.clock.Now(), "")
		}
	}
	return AdvanceResult{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
}

// ProcessScheduled runs the monthly batch: on the 15th, once per month,
// every active group advances by one installment dated the 15th and the
// watermark moves to now. Skips are reported in the result, not as errors.
func (s *Scheduler) ProcessScheduled(ctx context.Context, trigger Trigger) (ProcessResult, error) {
	s.lock()
	defer s.unlock(ctx)

	now := s.clock.Now()
	today := civil.DateOf(now)

	if today.Day != ScheduledDay {
		return s.skip(ctx, trigger, NotScheduledDay), nil
	}

	last, hasLast, err := s.watermark.GetWatermark(ctx)
	if err != nil {
		return s.batchFailed(ctx, ProcessResult{}, fmt.Errorf("%w: %w", ErrStorage, err))
	}

	if reason := CheckGate(today, civil.DateOf(last.In(now.Location())), hasLast); reason != NotSkipped {
		return s.skip(ctx, trigger, reason), nil
	}

	groups, err := s.loadGroups(ctx)
	if err != nil {
		return s.batchFailed(ctx, ProcessResult{}, err)
	}

	posting := civil.Date{Year: today.Year, Month: today.Month, Day: ScheduledDay}
	period := utils.Period(today)

	result := ProcessResult{Date: now}
	for _, g := range groups {
		if !g.Active() {
			continue
		}
		// Already advanced by an earlier, interrupted run of this period.
		if g.ScheduledPeriod == period {
			continue
		}

		res, err := s.advance(ctx, g, posting, now, period)
		if err != nil {
			return s.batchFailed(ctx, result, err)
		}
		if res.Advanced {
			result.ProcessedCount++
		}
		if res.Completed {
			result.CompletedGroups++
		}
	}

	if err := s.watermark.SetWatermark(ctx, now); err != nil {
		return s.batchFailed(ctx, result, fmt.Errorf("%w: %w", ErrStorage, err))
	}
	result.Processed = true

	s.logger.Info().
		Int("processed", result.ProcessedCount).
		Int("completed", result.CompletedGroups).
		Str("period", period).
		Msg("Scheduled installments processed")

	if result.ProcessedCount > 0 || trigger == TriggerManual {
		s.queue(Notification{
			Kind:  NotifyAdvanced,
			Title: "Installments processed",
			Description: fmt.Sprintf("%d installments created. %d groups completed.",
				result.ProcessedCount, result.CompletedGroups),
		})
	}

	return result, nil
}

// ForceProcess advances every active group by one installment dated today,
// ignoring the day and month gates and leaving the watermark untouched.
//
// Each call advances again: two calls in a row post two installments per
// group. This is the manual escape hatch, not a retry mechanism.
func (s *Scheduler) ForceProcess(ctx context.Context) (ProcessResult, error) {
	s.lock()
	defer s.unlock(ctx)

	now := s.clock.Now()
	today := civil.DateOf(now)

	groups, err := s.loadGroups(ctx)
	if err != nil {
		return s.batchFailed(ctx, ProcessResult{}, err)
	}

	result := ProcessResult{Date: now}
	for _, g := range groups {
		if !g.Active() {
			continue
		}
		res, err := s.advance(ctx, g, today, now, "")
		if err != nil {
			return s.batchFailed(ctx, result, err)
		}
		if res.Advanced {
			result.ProcessedCount++
		}
		if res.Completed {
			result.CompletedGroups++
		}
	}
	result.Processed = true

	s.logger.Warn().
		Int("processed", result.ProcessedCount).
		Int("completed", result.CompletedGroups).
		Msg("Forced installment processing")

	s.queue(Notification{
		Kind:        NotifyAdvanced,
		Title:       "Manual processing complete",
		Description: fmt.Sprintf("%d installments processed", result.ProcessedCount),
	})

	return result, nil
}

// advance applies one step of the group state machine. Installment #1 is
// dated at the group start date; later ones at posting. period is stamped
// on the group by scheduled runs only.
func (s *Scheduler) advance(ctx context.Context, group models.InstallmentGroup, posting civil.Date, now time.Time, period string) (AdvanceResult, error) {
	result := AdvanceResult{Group: group}

	next := group.PaidInstallments + 1
	if group.Status == models.StatusCompleted || next > group.TotalInstallments {
		return result, nil
	}

	date := posting
	if next == 1 {
		start, err := utils.NormalizeDate(group.StartDate, now.Location())
		if err != nil {
			return result, invalidInput("group %s: %v", group.ID, err)
		}
		date = start
	}

	tx := installmentTransaction(group, next, date, now)
	if err := s.put(ctx, &tx); err != nil {
		return result, err
	}
	result.Transaction = &tx

	updated := group
	updated.PaidInstallments = next
	processed := now
	updated.LastProcessedDate = &processed
	if period != "" {
		updated.ScheduledPeriod = period
	}
	if next == group.TotalInstallments {
		completed := now
		updated.Status = models.StatusCompleted
		updated.CompletedAt = &completed
		result.Completed = true
	}

	if err := s.put(ctx, &updated); err != nil {
		return result, err
	}
	result.Group = updated
	result.Advanced = true

	s.logger.Info().
		Str("group", group.ID).
		Int("installment", next).
		Int("total", group.TotalInstallments).
		Str("date", date.String()).
		Msg("Installment materialized")

	if result.Completed {
		s.queue(Notification{
			Kind:        NotifyCompleted,
			Title:       "Installments completed",
			Description: fmt.Sprintf("%s: all installments were processed", group.OriginalTransaction.Description),
		})
	}

	return result, nil
}

func installmentTransaction(group models.InstallmentGroup, n int, date civil.Date, now time.Time) models.Transaction {
	original := group.OriginalTransaction
	return models.Transaction{
		ID:                models.InstallmentID(group.ID, n),
		Type:              original.Type,
		Amount:            group.InstallmentAmount(),
		Category:          original.Category,
		Description:       fmt.Sprintf("%s (%d/%d)", original.Description, n, group.TotalInstallments),
		Date:              date.String(),
		Recurrence:        models.RecurrenceInstallment,
		InstallmentGroup:  group.ID,
		InstallmentNumber: n,
		IsInstallment:     true,
		CreatedAt:         now,
	}
}

func (s *Scheduler) loadGroups(ctx context.Context) ([]models.InstallmentGroup, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return sortedGroups(records), nil
}

func (s *Scheduler) skip(ctx context.Context, trigger Trigger, reason SkipReason) ProcessResult {
	s.logger.Debug().Str("reason", string(reason)).Msg("Scheduled installments skipped")

	if trigger == TriggerManual {
		description := fmt.Sprintf("Installments are only processed on day %d", ScheduledDay)
		if reason == AlreadyProcessedThisMonth {
			description = "Installments were already processed this month"
		}
		s.queue(Notification{
			Kind:        NotifySkipped,
			Title:       "Nothing to process",
			Description: description,
		})
	}
	return ProcessResult{Processed: false, Reason: reason}
}

func (s *Scheduler) batchFailed(ctx context.Context, result ProcessResult, err error) (ProcessResult, error) {
	result.Processed = false
	result.Err = err
	s.fail(ctx, "Failed to process installments", err)
	return result, err
}
