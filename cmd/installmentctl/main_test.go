package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"installment-tracker/internal/database"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return newApp(database.NewMemory(), time.UTC, zerolog.Nop(), &out), &out
}

func TestCreateAndList(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	err := dispatch(ctx, a, "create", []string{
		"-amount", "1.200,00", "-installments", "3",
		"-category", "Moradia", "-description", "Sofá", "-date", "2024-01-10",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Installment transaction created")
	assert.Contains(t, out.String(), "Group installment_")

	out.Reset()
	require.NoError(t, dispatch(ctx, a, "groups", nil))
	assert.Contains(t, out.String(), "Sofá (Moradia, expense)")
	assert.Contains(t, out.String(), "1/3")
}

func TestCreate_InvalidInput(t *testing.T) {
	a, _ := newTestApp(t)

	err := dispatch(context.Background(), a, "create", []string{"-amount", "abc", "-installments", "3", "-category", "x", "-description", "y"})
	assert.Error(t, err)
}

func TestForceAndClean(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, dispatch(ctx, a, "create", []string{
		"-amount", "300", "-installments", "2", "-category", "Outros", "-description", "TV",
	}))

	out.Reset()
	require.NoError(t, dispatch(ctx, a, "force", nil))
	assert.Contains(t, out.String(), "Installments completed")
	assert.Contains(t, out.String(), "Manual processing complete")

	out.Reset()
	require.NoError(t, dispatch(ctx, a, "clean", nil))
	assert.Contains(t, out.String(), "No corrupted records found")
}

func TestExport(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, dispatch(ctx, a, "create", []string{
		"-amount", "300", "-installments", "3", "-category", "Outros", "-description", "TV",
	}))

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, dispatch(ctx, a, "export", []string{"-output", path}))
	assert.Contains(t, out.String(), "Wrote 1 groups")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TV (1/3)")
}

func TestUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)
	assert.ErrorContains(t, dispatch(context.Background(), a, "launch", nil), "unknown command")
}
