package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mukisa/shulefees/internal/config"
	"github.com/mukisa/shulefees/internal/finance"
	"github.com/mukisa/shulefees/internal/model"
	"github.com/mukisa/shulefees/internal/store"
)

// initService opens the configured SQLite store, scopes it to the school,
// and wraps it in a fresh engine service. The caller owns the returned
// store and must close it.
func initService(ctx context.Context) (*finance.Service, store.Store, error) {
	sqlite, err := store.NewSQLiteStore(config.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	if err := sqlite.Migrate(ctx); err != nil {
		_ = sqlite.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	st := store.NewScopedStore(sqlite, config.SchoolScope())
	return finance.NewService(st), st, nil
}

// loadRowsFile reads schedule rows from a JSON file: either a bare array of
// row objects or an object with a "rows" array.
func loadRowsFile(path string) ([]model.RawRow, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}

	var direct []model.RawRow
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var wrapped struct {
		Rows []model.RawRow `json:"rows"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse rows file %s: %w", path, err)
	}
	return wrapped.Rows, nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
