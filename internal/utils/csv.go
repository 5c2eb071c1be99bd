package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"installment-tracker/internal/models"
)

// GenerateInstallmentsCSV writes an installment report: one summary row per
// group followed by every materialized installment transaction.
func GenerateInstallmentsCSV(groups []models.InstallmentGroup, transactions []models.Transaction, generated time.Time, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	header := [][]string{
		{"Installment Report"},
		{"Generated", generated.Format("2006-01-02 15:04:05")},
		{},
		{"GROUPS"},
		{"Group", "Description", "Type", "Category", "Total Amount", "Installment Amount", "Paid", "Total", "Status", "Start Date"},
	}

	for _, row := range header {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, g := range groups {
		row := []string{
			g.ID,
			g.OriginalTransaction.Description,
			string(g.OriginalTransaction.Type),
			g.OriginalTransaction.Category,
			fmt.Sprintf("%.2f", g.OriginalTransaction.Amount),
			fmt.Sprintf("%.2f", g.InstallmentAmount()),
			strconv.Itoa(g.PaidInstallments),
			strconv.Itoa(g.TotalInstallments),
			string(g.Status),
			g.StartDate,
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	var installments []models.Transaction
	for _, tx := range transactions {
		if tx.IsInstallment {
			installments = append(installments, tx)
		}
	}

	if len(installments) > 0 {
		sort.Slice(installments, func(i, j int) bool {
			if installments[i].InstallmentGroup != installments[j].InstallmentGroup {
				return installments[i].InstallmentGroup < installments[j].InstallmentGroup
			}
			return installments[i].InstallmentNumber < installments[j].InstallmentNumber
		})

		if err := csvWriter.Write([]string{}); err != nil {
			return err
		}
		if err := csvWriter.Write([]string{"INSTALLMENTS"}); err != nil {
			return err
		}
		if err := csvWriter.Write([]string{"ID", "Group", "Number", "Date", "Amount", "Description"}); err != nil {
			return err
		}

		for _, tx := range installments {
			row := []string{
				tx.ID,
				tx.InstallmentGroup,
				strconv.Itoa(tx.InstallmentNumber),
				tx.Date,
				fmt.Sprintf("%.2f", tx.Amount),
				tx.Description,
			}
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
