package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"installment-tracker/internal/installments"
	"installment-tracker/internal/models"
	"installment-tracker/internal/transactions"
	"installment-tracker/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const historyLimit = 10

// CommandHandler handles bot commands
type CommandHandler struct {
	scheduler *installments.Scheduler
	service   *transactions.Service
	clock     installments.Clock
	logger    zerolog.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(scheduler *installments.Scheduler, service *transactions.Service, clock installments.Clock, logger zerolog.Logger) *CommandHandler {
	if clock == nil {
		clock = installments.SystemClock{}
	}
	return &CommandHandler{
		scheduler: scheduler,
		service:   service,
		clock:     clock,
		logger:    logger,
	}
}

// entry holds the fields of an /add, /income or /installment command.
type entry struct {
	amount       string
	installments string
	category     string
	description  string
	date         string
}

// parseEntry reads "<amount> [count] <category> <description...> [date]".
func parseEntry(args string, withCount bool) (entry, error) {
	fields := strings.Fields(args)

	required := 3
	if withCount {
		required = 4
	}
	if len(fields) < required {
		return entry{}, fmt.Errorf("not enough arguments")
	}

	var e entry
	e.amount, fields = fields[0], fields[1:]
	if withCount {
		e.installments, fields = fields[0], fields[1:]
	}
	e.category, fields = fields[0], fields[1:]

	if len(fields) > 1 && utils.IsValidDate(fields[len(fields)-1]) {
		e.date = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}
	e.description = strings.Join(fields, " ")
	return e, nil
}

// AddTransaction stores a one-off expense or income.
func (h *CommandHandler) AddTransaction(ctx context.Context, bot Bot, chatID int64, args string, income bool) {
	command, kind := "/add", models.Expense
	if income {
		command, kind = "/income", models.Income
	}

	e, err := parseEntry(args, false)
	if err != nil {
		h.reply(bot, chatID, fmt.Sprintf("❌ Usage: %s <amount> <category> <description> [date]\nExample: %s 45,90 Alimentação Mercado", command, command))
		return
	}

	res, err := h.service.Add(ctx, transactions.Input{
		Type:        kind,
		Amount:      e.amount,
		Category:    e.category,
		Description: e.description,
		Date:        e.date,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to add transaction")
		h.reply(bot, chatID, "❌ "+userError(err))
		return
	}

	amount, _ := utils.ParseAmount(e.amount)
	icon := "💸"
	if income {
		icon = "💰"
	}
	h.reply(bot, chatID, fmt.Sprintf("%s Added %.2f to %s: %s\n🆔 %s", icon, amount, e.category, e.description, res.TransactionID))
}

// AddInstallment creates an installment group for an expense. Outcomes
// other than rejected input are reported by the scheduler notifier.
func (h *CommandHandler) AddInstallment(ctx context.Context, bot Bot, chatID int64, args string) {
	e, err := parseEntry(args, true)
	if err != nil {
		h.reply(bot, chatID, "❌ Usage: /installment <amount> <count> <category> <description> [date]\nExample: /installment 1.200,00 3 Moradia Sofá")
		return
	}

	_, err = h.service.Add(ctx, transactions.Input{
		Type:         models.Expense,
		Amount:       e.amount,
		Category:     e.category,
		Description:  e.description,
		Date:         e.date,
		Recurrence:   models.RecurrenceInstallment,
		Installments: e.installments,
	})
	if errors.Is(err, installments.ErrInvalidInput) {
		h.reply(bot, chatID, "❌ "+userError(err))
	}
}

// SendGroups lists every installment group with its progress.
func (h *CommandHandler) SendGroups(ctx context.Context, bot Bot, chatID int64) {
	groups, err := h.scheduler.Groups(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load installment groups")
		h.reply(bot, chatID, "Error loading installment groups.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatGroups(groups))
	msg.ReplyMarkup = utils.BuildActionsKeyboard()
	if _, err := bot.Send(msg); err != nil {
		h.logger.Error().Err(err).Msg("Failed to send installment groups")
	}
}

func formatGroups(groups []models.InstallmentGroup) string {
	if len(groups) == 0 {
		return "📦 No installment groups yet.\nUse /installment to create one."
	}

	var b strings.Builder
	active := 0
	for _, g := range groups {
		if g.Active() {
			active++
		}
	}
	fmt.Fprintf(&b, "📦 Installment groups (%d active)\n", active)
	b.WriteString("═══════════════════\n\n")

	for _, g := range groups {
		icon := "🔄"
		if !g.Active() {
			icon = "✅"
		}
		original := g.OriginalTransaction
		fmt.Fprintf(&b, "%s %s (%s)\n", icon, original.Description, original.Category)
		fmt.Fprintf(&b, "   %s %d/%d\n", utils.ProgressBar(g.PaidInstallments, g.TotalInstallments), g.PaidInstallments, g.TotalInstallments)
		fmt.Fprintf(&b, "   %.2f × %d = %.2f • since %s\n\n", g.InstallmentAmount(), g.TotalInstallments, original.Amount, g.StartDate)
	}

	fmt.Fprintf(&b, "📅 Installments are posted on day %d of every month.", installments.ScheduledDay)
	return b.String()
}

// ProcessScheduled runs the gated monthly batch on request.
func (h *CommandHandler) ProcessScheduled(ctx context.Context) {
	if _, err := h.scheduler.ProcessScheduled(ctx, installments.TriggerManual); err != nil {
		h.logger.Error().Err(err).Msg("Manual installment processing failed")
	}
}

// ForceProcess advances every active group regardless of the date.
func (h *CommandHandler) ForceProcess(ctx context.Context) {
	if _, err := h.scheduler.ForceProcess(ctx); err != nil {
		h.logger.Error().Err(err).Msg("Forced installment processing failed")
	}
}

// CleanCorrupted removes records with unusable dates.
func (h *CommandHandler) CleanCorrupted(ctx context.Context) {
	if _, err := h.scheduler.CleanCorrupted(ctx); err != nil {
		h.logger.Error().Err(err).Msg("Cleanup failed")
	}
}

// SendHistory sends the most recent transactions
func (h *CommandHandler) SendHistory(ctx context.Context, bot Bot, chatID int64, limit int) {
	txs, err := h.service.List(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch transaction history")
		h.reply(bot, chatID, "Error fetching transaction history.")
		return
	}

	if len(txs) == 0 {
		h.reply(bot, chatID, "No transactions found.")
		return
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	var b strings.Builder
	b.WriteString("📜 Recent transactions:\n")
	for i, tx := range txs {
		sign := "-"
		if tx.Type == models.Income {
			sign = "+"
		}
		fmt.Fprintf(&b, "%d. %s %s%.2f %s (%s)\n   🆔 %s\n", i+1, tx.Date, sign, tx.Amount, tx.Description, tx.Category, tx.ID)
	}
	h.reply(bot, chatID, b.String())
}

// DeleteTransaction deletes one transaction by id.
func (h *CommandHandler) DeleteTransaction(ctx context.Context, bot Bot, chatID int64, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		h.reply(bot, chatID, "❌ Usage: /delete <id>")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		h.reply(bot, chatID, "❌ "+userError(err))
		return
	}
	h.reply(bot, chatID, "🗑️ Deleted transaction "+id)
}

// SendSummary sends the income and expense summary of a month
// ("/summary 2025-01"); the current month by default.
func (h *CommandHandler) SendSummary(ctx context.Context, bot Bot, chatID int64, args string) {
	now := h.clock.Now()
	year, month := now.Year(), now.Month()

	if arg := strings.TrimSpace(args); arg != "" {
		t, err := time.Parse("2006-01", arg)
		if err != nil {
			h.reply(bot, chatID, "❌ Invalid format. Use: /summary 2025-01")
			return
		}
		year, month = t.Year(), t.Month()
	}

	summary, err := h.service.MonthlySummary(ctx, year, month)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build monthly summary")
		h.reply(bot, chatID, "Error calculating summary.")
		return
	}

	h.reply(bot, chatID, formatSummary(summary))
}

func formatSummary(s models.MonthlySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s %d\n", s.MonthName, s.Year)
	b.WriteString("═══════════════════\n\n")

	if s.TotalTransactions == 0 {
		b.WriteString("❌ No transactions found")
		return b.String()
	}

	fmt.Fprintf(&b, "💰 Income: %.2f\n", s.TotalIncome)
	fmt.Fprintf(&b, "💸 Expenses: %.2f\n", s.TotalExpense)
	fmt.Fprintf(&b, "⚖️ Balance: %.2f\n\n", s.Balance)

	if len(s.CategoryTotals) > 0 {
		type categoryTotal struct {
			name   string
			amount float64
		}
		var categories []categoryTotal
		for name, amount := range s.CategoryTotals {
			categories = append(categories, categoryTotal{name, amount})
		}
		sort.Slice(categories, func(i, j int) bool {
			if categories[i].amount != categories[j].amount {
				return categories[i].amount > categories[j].amount
			}
			return categories[i].name < categories[j].name
		})

		b.WriteString("📈 Expenses by category:\n")
		for _, c := range categories {
			percent := c.amount / s.TotalExpense * 100
			fmt.Fprintf(&b, "   %s %.2f (%.1f%%)\n   %s\n", c.name, c.amount, percent, utils.ProgressBar(int(percent), 100))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "🧾 %d transactions, %d installments\n", s.TotalTransactions, s.InstallmentTransactions)
	fmt.Fprintf(&b, "🔝 Highest expense: %.2f", s.HighestExpense)
	return b.String()
}

// ExportInstallments sends the installment report as a CSV document.
func (h *CommandHandler) ExportInstallments(ctx context.Context, bot Bot, chatID int64) {
	groups, err := h.scheduler.Groups(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load installment groups")
		h.reply(bot, chatID, "⚠️ Failed to load installment data.")
		return
	}
	txs, err := h.service.List(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load transactions")
		h.reply(bot, chatID, "⚠️ Failed to load installment data.")
		return
	}

	now := h.clock.Now()
	var buffer bytes.Buffer
	if err := utils.GenerateInstallmentsCSV(groups, txs, now, &buffer); err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate CSV")
		h.reply(bot, chatID, "⚠️ CSV generation failed.")
		return
	}

	document := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("installments_%s.csv", now.Format("2006-01-02")),
		Bytes: buffer.Bytes(),
	})
	document.Caption = fmt.Sprintf("📊 Installment report\n📦 %d groups", len(groups))

	if _, err := bot.Send(document); err != nil {
		h.logger.Error().Err(err).Msg("Failed to send CSV file")
		h.reply(bot, chatID, "⚠️ Failed to send CSV file.")
	}
}

// SendHelp sends help information
func (h *CommandHandler) SendHelp(bot Bot, chatID int64) {
	helpText := fmt.Sprintf(`📊 Installment Tracker Bot

💰 Transactions:
• /add <amount> <category> <description> [date] - Add expense
• /income <amount> <category> <description> [date] - Add income
• /history - Show recent transactions
• /delete <id> - Delete a transaction
• /summary [2025-01] - Monthly summary

📦 Installments:
• /installment <amount> <count> <category> <description> [date]
• /groups - Show installment groups and progress
• /process - Run the monthly processing now
• /force - Advance every group now ⚠️
• /clean - Remove records with corrupted dates
• /export - Export installments as CSV

💡 How it works:
1. Amounts use comma decimals (1.200,00)
2. The first installment is recorded right away
3. The next ones are posted on day %d of each month
4. Dates are YYYY-MM-DD or DD/MM/YYYY, today by default`, installments.ScheduledDay)

	h.reply(bot, chatID, helpText)
}

func (h *CommandHandler) reply(bot Bot, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to send message")
	}
}

func userError(err error) string {
	switch {
	case errors.Is(err, installments.ErrInvalidInput):
		return "Invalid input: " + strings.TrimPrefix(err.Error(), installments.ErrInvalidInput.Error()+": ")
	case errors.Is(err, transactions.ErrNotFound):
		return "Transaction not found."
	case errors.Is(err, transactions.ErrGroupRecord):
		return "Installment groups cannot be deleted."
	default:
		return "Failed to save in DB."
	}
}
