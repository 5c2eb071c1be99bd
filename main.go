package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"installment-tracker/internal/config"
	"installment-tracker/internal/database"
	"installment-tracker/internal/handlers"
	"installment-tracker/internal/installments"
	"installment-tracker/internal/logger"
	"installment-tracker/internal/transactions"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	log := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log = logger.New(cfg.LogLevel)
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	// Initialize storage
	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open store")
	}
	defer store.Close(context.Background())

	// Create Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram bot")
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Str("backend", cfg.StoreBackend).Msg("Bot started")

	clock := installments.SystemClock{Location: cfg.Location}
	scheduler := installments.New(store, store,
		installments.WithClock(clock),
		installments.WithNotifier(handlers.NewNotifier(bot, cfg.ChatID, logger.Component(log, "notifier"))),
		installments.WithLogger(logger.Component(log, "installments")),
	)
	service := transactions.NewService(store, scheduler, clock, logger.Component(log, "transactions"))
	eventHandler := handlers.NewEventHandler(scheduler, service, clock, cfg, logger.Component(log, "handlers"))

	// Daily installment check
	timer, err := installments.NewTimer(scheduler, cfg.ProcessHour, cfg.Location, logger.Component(log, "timer"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule installment check")
	}
	timer.Start(ctx)

	// Start listening for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	go func() {
		for update := range updates {
			eventHandler.HandleUpdate(ctx, bot, update)
		}
	}()

	log.Info().Int("hour", cfg.ProcessHour).Str("timezone", cfg.Location.String()).Msg("Bot is running")

	<-ctx.Done()

	log.Info().Msg("Shutting down bot...")
	bot.StopReceivingUpdates()
	<-timer.Stop().Done()
}
