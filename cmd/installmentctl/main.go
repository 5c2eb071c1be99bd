package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"installment-tracker/internal/config"
	"installment-tracker/internal/database"
	"installment-tracker/internal/installments"
	"installment-tracker/internal/logger"
	"installment-tracker/internal/models"
	"installment-tracker/internal/output"
	"installment-tracker/internal/transactions"
	"installment-tracker/internal/utils"

	"github.com/rs/zerolog"
)

const usage = `installmentctl - manage installment groups in the configured store

Usage:
  installmentctl <command> [flags]

Commands:
  create   Create an installment group
  groups   List installment groups
  process  Run the monthly processing (only advances on day 15)
  force    Advance every active group now
  clean    Delete records with corrupted dates
  export   Write the installment report as CSV

Storage is selected with STORE_BACKEND, SQLITE_PATH, MONGODB_URI, ...
(a .env file in the working directory is read first).

Examples:
  installmentctl create -amount 1.200,00 -installments 3 -category Moradia -description Sofá
  installmentctl groups
  installmentctl export -output installments.csv
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		output.New(os.Stderr).Error(err.Error())
		stop()
		os.Exit(1)
	}
}

// app is the wiring shared by every command.
type app struct {
	printer   *output.Printer
	scheduler *installments.Scheduler
	service   *transactions.Service
	clock     installments.Clock
}

func run(ctx context.Context, command string, args []string, stdout io.Writer) error {
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	defer store.Close(context.Background())

	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}).Level(logger.ParseLevel(cfg.LogLevel))
	return dispatch(ctx, newApp(store, cfg.Location, log, stdout), command, args)
}

func newApp(store database.Store, loc *time.Location, log zerolog.Logger, stdout io.Writer) *app {
	printer := output.New(stdout)
	clock := installments.SystemClock{Location: loc}
	scheduler := installments.New(store, store,
		installments.WithClock(clock),
		installments.WithNotifier(output.NewNotifier(printer)),
		installments.WithLogger(logger.Component(log, "installments")),
	)
	return &app{
		printer:   printer,
		scheduler: scheduler,
		service:   transactions.NewService(store, scheduler, clock, logger.Component(log, "transactions")),
		clock:     clock,
	}
}

func dispatch(ctx context.Context, a *app, command string, args []string) error {
	switch command {
	case "create":
		return a.create(ctx, args)
	case "groups":
		return a.groups(ctx)
	case "process":
		_, err := a.scheduler.ProcessScheduled(ctx, installments.TriggerManual)
		return err
	case "force":
		_, err := a.scheduler.ForceProcess(ctx)
		return err
	case "clean":
		_, err := a.scheduler.CleanCorrupted(ctx)
		return err
	case "export":
		return a.export(ctx, args)
	default:
		return fmt.Errorf("unknown command %q (run installmentctl help)", command)
	}
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	kind := fs.String("type", string(models.Expense), "Transaction type: expense or income")
	amount := fs.String("amount", "", "Total amount, comma as decimal separator (required)")
	count := fs.String("installments", "", "Number of installments, at least 2 (required)")
	category := fs.String("category", "", "Category (required)")
	description := fs.String("description", "", "Description (required)")
	date := fs.String("date", "", "Start date YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start := *date
	if start == "" {
		start = a.clock.Now().Format("2006-01-02")
	}

	res, err := a.service.Add(ctx, transactions.Input{
		Type:         models.TransactionType(*kind),
		Amount:       *amount,
		Category:     *category,
		Description:  *description,
		Date:         start,
		Recurrence:   models.RecurrenceInstallment,
		Installments: *count,
	})
	if err != nil {
		if errors.Is(err, installments.ErrInvalidInput) {
			fs.Usage()
		}
		return err
	}

	a.printer.Info("Group " + res.GroupID)
	return nil
}

func (a *app) groups(ctx context.Context) error {
	groups, err := a.scheduler.Groups(ctx)
	if err != nil {
		return err
	}
	a.printer.Header("Installment groups")
	a.printer.Groups(groups)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	path := fs.String("output", "", "Output CSV file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	groups, err := a.scheduler.Groups(ctx)
	if err != nil {
		return err
	}
	txs, err := a.service.List(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := utils.GenerateInstallmentsCSV(groups, txs, a.clock.Now(), &buf); err != nil {
		return fmt.Errorf("failed to generate CSV: %w", err)
	}

	if *path == "" {
		_, err := buf.WriteTo(a.printer.Writer())
		return err
	}
	if err := os.WriteFile(*path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *path, err)
	}
	a.printer.Success(fmt.Sprintf("Wrote %d groups to %s", len(groups), *path))
	return nil
}
