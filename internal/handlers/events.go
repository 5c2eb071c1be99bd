package handlers

import (
	"context"

	"installment-tracker/internal/config"
	"installment-tracker/internal/installments"
	"installment-tracker/internal/transactions"
	"installment-tracker/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// EventHandler handles Telegram events
type EventHandler struct {
	config   *config.Config
	commands *CommandHandler
	logger   zerolog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(scheduler *installments.Scheduler, service *transactions.Service, clock installments.Clock, config *config.Config, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		config:   config,
		commands: NewCommandHandler(scheduler, service, clock, logger),
		logger:   logger,
	}
}

// HandleUpdate dispatches one update from the long-polling loop.
func (h *EventHandler) HandleUpdate(ctx context.Context, bot Bot, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.HandleMessage(ctx, bot, update.Message)
	case update.CallbackQuery != nil:
		h.HandleCallbackQuery(ctx, bot, update.CallbackQuery)
	}
}

// HandleMessage handles incoming messages
func (h *EventHandler) HandleMessage(ctx context.Context, bot Bot, message *tgbotapi.Message) {
	if message.From != nil && message.From.IsBot {
		return
	}

	// Only process messages from the configured chat
	if message.Chat == nil || !h.config.IsAuthorizedChat(message.Chat.ID) {
		return
	}

	if !message.IsCommand() {
		return
	}

	h.handleCommand(ctx, bot, message)
}

// handleCommand processes bot commands
func (h *EventHandler) handleCommand(ctx context.Context, bot Bot, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := message.CommandArguments()

	switch message.Command() {
	case "add":
		h.commands.AddTransaction(ctx, bot, chatID, args, false)
	case "income":
		h.commands.AddTransaction(ctx, bot, chatID, args, true)
	case "installment":
		h.commands.AddInstallment(ctx, bot, chatID, args)
	case "groups":
		h.commands.SendGroups(ctx, bot, chatID)
	case "process":
		h.commands.ProcessScheduled(ctx)
	case "force":
		h.commands.ForceProcess(ctx)
	case "clean":
		h.commands.CleanCorrupted(ctx)
	case "history":
		h.commands.SendHistory(ctx, bot, chatID, historyLimit)
	case "delete":
		h.commands.DeleteTransaction(ctx, bot, chatID, args)
	case "summary":
		h.commands.SendSummary(ctx, bot, chatID, args)
	case "export":
		h.commands.ExportInstallments(ctx, bot, chatID)
	case "help", "start":
		h.commands.SendHelp(bot, chatID)
	}
}

// HandleCallbackQuery handles inline button callbacks
func (h *EventHandler) HandleCallbackQuery(ctx context.Context, bot Bot, callback *tgbotapi.CallbackQuery) {
	// Only process callbacks from the configured chat
	if callback.Message == nil || callback.Message.Chat == nil || !h.config.IsAuthorizedChat(callback.Message.Chat.ID) {
		return
	}

	switch callback.Data {
	case utils.ActionProcess:
		h.commands.ProcessScheduled(ctx)
	case utils.ActionForce:
		h.commands.ForceProcess(ctx)
	case utils.ActionClean:
		h.commands.CleanCorrupted(ctx)
	}

	// Answer the callback to remove loading state
	if _, err := bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to answer callback")
	}
}
