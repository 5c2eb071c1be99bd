package installments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"installment-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	ctx := context.Background()

	id, err := f.scheduler.CreateGroup(ctx, sofa())
	require.NoError(t, err)

	g := f.store.group(t, id)
	assert.Equal(t, models.RecordTypeInstallmentGroup, g.Type)
	assert.Equal(t, 3, g.TotalInstallments)
	assert.Equal(t, 1, g.PaidInstallments)
	assert.Equal(t, models.StatusActive, g.Status)
	assert.Equal(t, "2024-01-10", g.StartDate)
	assert.Equal(t, 1200.0, g.OriginalTransaction.Amount)
	assert.Equal(t, 3, g.OriginalTransaction.Installments)
	assert.Empty(t, g.ScheduledPeriod)
	assert.Nil(t, g.CompletedAt)

	tx, ok := f.store.transaction(id + "_installment_1")
	require.True(t, ok)
	assert.Equal(t, 400.0, tx.Amount)
	assert.True(t, strings.HasSuffix(tx.Description, "(1/3)"))
	assert.Equal(t, "2024-01-10", tx.Date)
	assert.Equal(t, id, tx.InstallmentGroup)
	assert.Equal(t, 1, tx.InstallmentNumber)
	assert.True(t, tx.IsInstallment)
	assert.Equal(t, models.Expense, tx.Type)
	assert.Equal(t, "Moradia", tx.Category)

	assert.Equal(t, 2, f.store.count())
	assert.Equal(t, []NotificationKind{NotifyCreated}, f.notifier.kinds())
}

func TestCreateGroup_LocaleAmount(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))

	tpl := sofa()
	tpl.Amount = "1.234,56"
	tpl.Installments = " 2 "

	id, err := f.scheduler.CreateGroup(context.Background(), tpl)
	require.NoError(t, err)

	g := f.store.group(t, id)
	assert.InDelta(t, 1234.56, g.OriginalTransaction.Amount, 1e-9)
	assert.Equal(t, 2, g.TotalInstallments)
}

func TestCreateGroup_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Template)
	}{
		{"zero amount", func(tpl *Template) { tpl.Amount = "0" }},
		{"negative amount", func(tpl *Template) { tpl.Amount = "-10,00" }},
		{"text amount", func(tpl *Template) { tpl.Amount = "abc" }},
		{"empty amount", func(tpl *Template) { tpl.Amount = "" }},
		{"one installment", func(tpl *Template) { tpl.Installments = "1" }},
		{"zero installments", func(tpl *Template) { tpl.Installments = "0" }},
		{"non-numeric installments", func(tpl *Template) { tpl.Installments = "three" }},
		{"unparsable date", func(tpl *Template) { tpl.Date = "not-a-date" }},
		{"invalid date sentinel", func(tpl *Template) { tpl.Date = "Invalid Date" }},
		{"impossible day", func(tpl *Template) { tpl.Date = "2024-02-30" }},
		{"empty date", func(tpl *Template) { tpl.Date = "" }},
		{"unknown type", func(tpl *Template) { tpl.Type = "transfer" }},
		{"missing category", func(tpl *Template) { tpl.Category = " " }},
		{"missing description", func(tpl *Template) { tpl.Description = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(day(2024, time.January, 10))
			tpl := sofa()
			tt.mutate(&tpl)

			id, err := f.scheduler.CreateGroup(context.Background(), tpl)
			assert.Empty(t, id)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, f.store.count(), "nothing should be written")
		})
	}
}

func TestCreateGroup_DateNormalization(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	tests := []struct {
		name string
		date string
		want string
	}{
		{"bare date does not roll over", "2024-01-10", "2024-01-10"},
		{"UTC timestamp converted to local day", "2024-01-10T01:00:00Z", "2024-01-09"},
		{"local timestamp", "2024-01-10T23:30:00", "2024-01-10"},
		{"brazilian format", "10/01/2024", "2024-01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(time.Date(2024, 1, 10, 12, 0, 0, 0, saoPaulo))
			tpl := sofa()
			tpl.Date = tt.date

			id, err := f.scheduler.CreateGroup(context.Background(), tpl)
			require.NoError(t, err)

			assert.Equal(t, tt.want, f.store.group(t, id).StartDate)
			tx, ok := f.store.transaction(id + "_installment_1")
			require.True(t, ok)
			assert.Equal(t, tt.want, tx.Date)
		})
	}
}

func TestCreateGroup_StorageError(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	f.store.failPut = func(models.Record) error { return errBoom }

	id, err := f.scheduler.CreateGroup(context.Background(), sofa())
	assert.Empty(t, id)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []NotificationKind{NotifyFailed}, f.notifier.kinds())
}

func TestCreateGroup_InterruptedCreationIsRepaired(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	ctx := context.Background()

	f.store.failPut = func(r models.Record) error {
		if _, ok := r.(*models.Transaction); ok {
			return errBoom
		}
		return nil
	}

	_, err := f.scheduler.CreateGroup(ctx, sofa())
	require.ErrorIs(t, err, ErrStorage)

	// The group write landed, the first installment did not.
	require.Equal(t, 1, f.store.count())
	g := f.store.group(t, "installment_1")
	assert.Equal(t, 0, g.PaidInstallments)

	f.store.failPut = nil
	f.clock.Set(day(2024, time.January, 20))

	res, err := f.scheduler.ForceProcess(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedCount)

	g = f.store.group(t, "installment_1")
	assert.Equal(t, 1, g.PaidInstallments)
	tx, ok := f.store.transaction("installment_1_installment_1")
	require.True(t, ok)
	assert.Equal(t, "2024-01-10", tx.Date, "first installment keeps the start date")
}

func TestGroupsAndInstallments(t *testing.T) {
	f := newFixture(day(2024, time.January, 10))
	ctx := context.Background()

	first, err := f.scheduler.CreateGroup(ctx, sofa())
	require.NoError(t, err)

	f.clock.Set(day(2024, time.January, 11))
	tpl := sofa()
	tpl.Description = "Geladeira"
	tpl.Installments = "4"
	second, err := f.scheduler.CreateGroup(ctx, tpl)
	require.NoError(t, err)

	_, err = f.scheduler.ForceProcess(ctx)
	require.NoError(t, err)

	groups, err := f.scheduler.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, first, groups[0].ID)
	assert.Equal(t, second, groups[1].ID)

	txs, err := f.scheduler.Installments(ctx, second)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 1, txs[0].InstallmentNumber)
	assert.Equal(t, 2, txs[1].InstallmentNumber)
	assert.Equal(t, "Geladeira (2/4)", txs[1].Description)

	f.store.failGetAll = errBoom
	_, err = f.scheduler.Groups(ctx)
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestNewGroupID(t *testing.T) {
	a, b := NewGroupID(), NewGroupID()
	assert.True(t, strings.HasPrefix(a, "installment_"))
	assert.NotEqual(t, a, b)
}
