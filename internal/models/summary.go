package models

// MonthlySummary aggregates the transactions dated within one month.
type MonthlySummary struct {
	ID                      string             `json:"id"` // Format: "2025-01"
	Year                    int                `json:"year"`
	Month                   int                `json:"month"`
	MonthName               string             `json:"monthName"`
	TotalIncome             float64            `json:"totalIncome"`
	TotalExpense            float64            `json:"totalExpense"`
	Balance                 float64            `json:"balance"`
	CategoryTotals          map[string]float64 `json:"categoryTotals"`
	TotalTransactions       int                `json:"totalTransactions"`
	InstallmentTransactions int                `json:"installmentTransactions"`
	HighestExpense          float64            `json:"highestExpense"`
}
