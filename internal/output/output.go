// Package output prints coloured terminal output for installmentctl.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"installment-tracker/internal/installments"
	"installment-tracker/internal/models"
	"installment-tracker/internal/utils"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	blue   = color.New(color.FgBlue)
	red    = color.New(color.FgRed)
)

// Printer writes formatted lines to one destination.
type Printer struct {
	w io.Writer
}

// New creates a printer writing to w; stdout when w is nil.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// Writer returns the destination of p.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Header prints a formatted header
func (p *Printer) Header(text string) {
	line := strings.Repeat("=", 60)
	green.Fprintf(p.w, "\n%s\n", line)
	green.Fprintf(p.w, "%-60s\n", center(text, 60))
	green.Fprintf(p.w, "%s\n\n", line)
}

// Success prints a success message
func (p *Printer) Success(text string) {
	green.Fprintf(p.w, "  → %s\n", text)
}

// Info prints an info message
func (p *Printer) Info(text string) {
	fmt.Fprintf(p.w, "  → %s\n", text)
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	yellow.Fprintf(p.w, "  ⚠ %s\n", text)
}

// Error prints an error message
func (p *Printer) Error(text string) {
	red.Fprintf(p.w, "Error: %s\n", text)
}

// Groups prints one block per installment group with its progress bar.
func (p *Printer) Groups(groups []models.InstallmentGroup) {
	if len(groups) == 0 {
		p.Info("No installment groups")
		return
	}

	for _, g := range groups {
		original := g.OriginalTransaction
		status := yellow
		if !g.Active() {
			status = green
		}
		status.Fprintf(p.w, "%-10s", g.Status)
		blue.Fprintf(p.w, " %s\n", g.ID)
		fmt.Fprintf(p.w, "  %s (%s, %s)\n", original.Description, original.Category, original.Type)
		fmt.Fprintf(p.w, "  %s %d/%d  %.2f × %d = %.2f  since %s\n\n",
			utils.ProgressBar(g.PaidInstallments, g.TotalInstallments),
			g.PaidInstallments, g.TotalInstallments,
			g.InstallmentAmount(), g.TotalInstallments, original.Amount, g.StartDate)
	}
}

// Notifier prints scheduler notifications.
type Notifier struct {
	printer *Printer
}

// NewNotifier creates a notifier printing through p.
func NewNotifier(p *Printer) *Notifier {
	return &Notifier{printer: p}
}

// Notify prints n with a colour matching its kind.
func (n *Notifier) Notify(ctx context.Context, note installments.Notification) {
	text := note.Title
	if note.Description != "" {
		text += ": " + note.Description
	}

	switch note.Kind {
	case installments.NotifyFailed:
		n.printer.Error(text)
	case installments.NotifySkipped:
		n.printer.Warning(text)
	case installments.NotifyCreated, installments.NotifyCompleted, installments.NotifyAdvanced, installments.NotifyCleaned:
		n.printer.Success(text)
	default:
		n.printer.Info(text)
	}
}

// center centers text within a given width
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
