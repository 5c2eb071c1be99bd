package transactions

import (
	"testing"
	"time"

	"installment-tracker/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	txs := []models.Transaction{
		{Type: models.Income, Amount: 3000, Category: "Salário", Date: "2024-01-05"},
		{Type: models.Expense, Amount: 400, Category: "Moradia", Date: "2024-01-15", IsInstallment: true},
		{Type: models.Expense, Amount: 150, Category: "Alimentação", Date: "2024-01-20"},
		{Type: models.Expense, Amount: 50, Category: "Alimentação", Date: "2024-01-21"},
		{Type: models.Expense, Amount: 999, Category: "Lazer", Date: "2024-02-01"},
		{Type: models.Expense, Amount: 999, Category: "Lazer", Date: "2023-01-10"},
		{Type: models.Expense, Amount: 999, Category: "Lazer", Date: "Invalid Date"},
	}

	s := Summarize(txs, 2024, time.January)

	assert.Equal(t, "2024-01", s.ID)
	assert.Equal(t, "January", s.MonthName)
	assert.Equal(t, 4, s.TotalTransactions)
	assert.Equal(t, 1, s.InstallmentTransactions)
	assert.Equal(t, 3000.0, s.TotalIncome)
	assert.Equal(t, 600.0, s.TotalExpense)
	assert.Equal(t, 2400.0, s.Balance)
	assert.Equal(t, 400.0, s.HighestExpense)
	assert.Equal(t, map[string]float64{"Moradia": 400, "Alimentação": 200}, s.CategoryTotals)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 2024, time.March)
	assert.Zero(t, s.TotalTransactions)
	assert.Zero(t, s.Balance)
	assert.NotNil(t, s.CategoryTotals)
}
