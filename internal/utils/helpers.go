package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

var thousandsOnly = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// ParseAmount parses a human-entered amount. Amounts containing a comma are
// read in pt-BR format ("1.234,56"); a dot-grouped integer such as "1.200"
// is read as thousands; anything else as a plain decimal ("25.50").
func ParseAmount(text string) (float64, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "R$")
	text = strings.ReplaceAll(text, " ", "")

	switch {
	case strings.Contains(text, ","):
		text = strings.ReplaceAll(text, ".", "")
		text = strings.Replace(text, ",", ".", 1)
	case thousandsOnly.MatchString(text):
		text = strings.ReplaceAll(text, ".", "")
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format")
	}

	if !amount.IsPositive() {
		return 0, fmt.Errorf("amount must be positive")
	}

	return amount.InexactFloat64(), nil
}

// ParseInstallments parses an installment count, which must be at least 2.
func ParseInstallments(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("invalid installment count %q", text)
	}
	if n < 2 {
		return 0, fmt.Errorf("installment count must be at least 2, got %d", n)
	}
	return n, nil
}

// ProgressBar renders paid/total as a ten-cell bar.
func ProgressBar(paid, total int) string {
	if total <= 0 {
		return strings.Repeat("░", 10)
	}
	bars := paid * 10 / total
	if bars == 0 && paid > 0 {
		bars = 1
	}
	return strings.Repeat("█", bars) + strings.Repeat("░", 10-bars)
}

// Callback data of the installment action buttons.
const (
	ActionProcess = "action_process"
	ActionForce   = "action_force"
	ActionClean   = "action_clean"
)

// BuildActionsKeyboard builds the inline keyboard shown under the group list.
func BuildActionsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Process", ActionProcess),
			tgbotapi.NewInlineKeyboardButtonData("⏩ Force", ActionForce),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧹 Clean corrupted", ActionClean),
		),
	)
}
