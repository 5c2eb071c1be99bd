package installments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"installment-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putTransaction(t *testing.T, s *memStore, id, date string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), &models.Transaction{
		ID:       id,
		Type:     models.Expense,
		Amount:   10,
		Category: "Mercado",
		Date:     date,
	}))
}

func TestCleanCorrupted(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	ctx := context.Background()

	for i := 1; i <= 9; i++ {
		putTransaction(t, f.store, fmt.Sprintf("tx_%d", i), fmt.Sprintf("2024-01-%02d", i))
	}
	putTransaction(t, f.store, "tx_bad", "not-a-date")

	res, err := f.scheduler.CleanCorrupted(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.CleanedCount)
	assert.Equal(t, []string{"tx_bad"}, res.IDs)
	assert.Equal(t, 9, f.store.count())
	_, ok := f.store.transaction("tx_bad")
	assert.False(t, ok)
	assert.Equal(t, []NotificationKind{NotifyCleaned}, f.notifier.kinds())
}

func TestCleanCorrupted_AllCorruptionKinds(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	ctx := context.Background()

	id, err := f.scheduler.CreateGroup(ctx, sofa())
	require.NoError(t, err)

	putTransaction(t, f.store, "tx_sentinel", "Invalid Date")
	putTransaction(t, f.store, "tx_empty", "")
	putTransaction(t, f.store, "tx_overflow", "2024-02-30")
	f.store.records["broken"] = &models.Malformed{ID: "broken", Reason: "undecodable"}
	f.store.records["bad_group"] = &models.InstallmentGroup{
		ID:                "bad_group",
		Type:              models.RecordTypeInstallmentGroup,
		TotalInstallments: 2,
		StartDate:         "Invalid Date",
		Status:            models.StatusActive,
	}

	res, err := f.scheduler.CleanCorrupted(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"tx_sentinel", "tx_empty", "tx_overflow", "broken", "bad_group"}, res.IDs)
	assert.Equal(t, 5, res.CleanedCount)

	// The valid group and its first installment survive.
	assert.Equal(t, 2, f.store.count())
	f.store.group(t, id)
	_, ok := f.store.transaction(models.InstallmentID(id, 1))
	assert.True(t, ok)
}

func TestCleanCorrupted_NothingToClean(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	putTransaction(t, f.store, "tx_1", "2024-01-01")

	res, err := f.scheduler.CleanCorrupted(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.CleanedCount)
	assert.Empty(t, res.IDs)
	assert.Equal(t, 1, f.store.count())
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, "No corrupted records found", f.notifier.notes[0].Description)
}

func TestCleanCorrupted_StorageErrors(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		f := newFixture(day(2024, time.January, 10))
		f.store.failGetAll = errBoom

		_, err := f.scheduler.CleanCorrupted(context.Background())
		assert.ErrorIs(t, err, ErrStorage)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, []NotificationKind{NotifyFailed}, f.notifier.kinds())
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(day(2024, time.January, 10))
		putTransaction(t, f.store, "tx_bad", "31/02/2024")
		f.store.failDelete = errBoom

		res, err := f.scheduler.CleanCorrupted(context.Background())
		assert.ErrorIs(t, err, ErrStorage)
		assert.Zero(t, res.CleanedCount)
		assert.Equal(t, 1, f.store.count())
	})
}

func TestCleanCorrupted_SkipsRecordsWithoutID(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	f.store.records[""] = &models.Malformed{Reason: "non-string _id"}
	putTransaction(t, f.store, "tx_bad", "not-a-date")

	res, err := f.scheduler.CleanCorrupted(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.CleanedCount)
	assert.Equal(t, []string{"tx_bad"}, res.IDs)
	assert.Equal(t, 1, f.store.count(), "the id-less record cannot be deleted and is not counted")
}
