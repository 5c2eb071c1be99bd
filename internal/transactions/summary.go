package transactions

import (
	"fmt"
	"time"

	"installment-tracker/internal/models"
	"installment-tracker/internal/utils"
)

// Summarize aggregates the transactions dated in the given month.
// Installments count as ordinary transactions of their posting month;
// records with unparsable dates are ignored.
func Summarize(txs []models.Transaction, year int, month time.Month) models.MonthlySummary {
	summary := models.MonthlySummary{
		ID:             fmt.Sprintf("%04d-%02d", year, int(month)),
		Year:           year,
		Month:          int(month),
		MonthName:      month.String(),
		CategoryTotals: make(map[string]float64),
	}

	for _, tx := range txs {
		d, err := utils.NormalizeDate(tx.Date, time.UTC)
		if err != nil || d.Year != year || d.Month != month {
			continue
		}

		summary.TotalTransactions++
		if tx.IsInstallment {
			summary.InstallmentTransactions++
		}

		switch tx.Type {
		case models.Income:
			summary.TotalIncome += tx.Amount
		case models.Expense:
			summary.TotalExpense += tx.Amount
			summary.CategoryTotals[tx.Category] += tx.Amount
			if tx.Amount > summary.HighestExpense {
				summary.HighestExpense = tx.Amount
			}
		}
	}

	summary.Balance = summary.TotalIncome - summary.TotalExpense
	return summary
}
