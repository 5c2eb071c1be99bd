package installments

import (
	"context"
	"fmt"

	"installment-tracker/internal/utils"
)

// CleanCorrupted deletes every stored record whose date does not parse as
// a calendar date, including documents the store could not decode. Records
// are removed one by one; nothing is repaired.
func (s *Scheduler) CleanCorrupted(ctx context.Context) (CleanResult, error) {
	s.lock()
	defer s.unlock(ctx)

	records, err := s.store.GetAll(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStorage, err)
		s.fail(ctx, "Failed to clean corrupted records", err)
		return CleanResult{}, err
	}

	var result CleanResult
	for _, r := range records {
		if utils.IsValidDate(r.RecordDate()) {
			continue
		}
		if r.RecordID() == "" {
			s.logger.Warn().Str("date", r.RecordDate()).Msg("Corrupted record has no usable id, skipping")
			continue
		}

		if err := s.store.Delete(ctx, r.RecordID()); err != nil {
			err = fmt.Errorf("%w: %w", ErrStorage, err)
			s.fail(ctx, "Failed to clean corrupted records", err)
			return result, err
		}
		result.CleanedCount++
		result.IDs = append(result.IDs, r.RecordID())

		s.logger.Warn().
			Str("record", r.RecordID()).
			Str("date", r.RecordDate()).
			Msg("Deleted corrupted record")
	}

	description := "No corrupted records found"
	if result.CleanedCount > 0 {
		description = fmt.Sprintf("%d corrupted records removed", result.CleanedCount)
	}
	s.queue(Notification{
		Kind:        NotifyCleaned,
		Title:       "Cleanup complete",
		Description: description,
	})

	return result, nil
}
