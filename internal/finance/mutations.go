package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mukisa/shulefees/internal/model"
)

// Mutations write through to the store and then drop the year's cache
// snapshot wholesale. No incremental cache patching is attempted; the next
// read rebuilds from the store.

// SetClassConfig upserts the fee and default plan for one class.
func (s *Service) SetClassConfig(ctx context.Context, year int, className string, feePerYear float64, defaultPlanID string) error {
	if className == "" {
		return fmt.Errorf("class name cannot be empty")
	}
	if feePerYear < 0 {
		return fmt.Errorf("fee per year cannot be negative")
	}

	record := map[string]any{"feePerYear": feePerYear}
	if defaultPlanID != "" {
		record["defaultPlanId"] = defaultPlanID
	}
	if err := s.store.Write(ctx, classPath(year, className), record); err != nil {
		return fmt.Errorf("failed to save class config: %w", err)
	}

	s.cache.Invalidate(year)
	slog.Info("class config updated", "year", year, "class", className, "fee", feePerYear, "plan", defaultPlanID)
	return nil
}

// SetPlan upserts a plan template. Rows are stored as an ordered list, the
// current schedule shape.
func (s *Service) SetPlan(ctx context.Context, year int, planID, name string, rows []model.RawRow) error {
	if planID == "" {
		return fmt.Errorf("plan id cannot be empty")
	}

	record := map[string]any{
		"planId":   planID,
		"schedule": rows,
	}
	if name != "" {
		record["name"] = name
	}
	if err := s.store.Write(ctx, planPath(year, planID), record); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	s.cache.Invalidate(year)
	slog.Info("plan updated", "year", year, "plan", planID, "rows", len(rows))
	return nil
}

// SetStudentFee sets a per-student fee override, or clears it when the
// amount is zero or negative.
func (s *Service) SetStudentFee(ctx context.Context, year int, studentID string, feePerYear float64, locked bool, updatedBy string) error {
	if studentID == "" {
		return fmt.Errorf("student id cannot be empty")
	}

	path := studentFeePath(year, studentID)
	if feePerYear <= 0 {
		if err := s.store.Write(ctx, path, nil); err != nil {
			return fmt.Errorf("failed to clear student fee override: %w", err)
		}
	} else {
		record := map[string]any{
			"feePerYear": feePerYear,
			"locked":     locked,
			"updatedAt":  s.now().UTC().Format(time.RFC3339),
			"updatedBy":  updatedBy,
		}
		if err := s.store.Write(ctx, path, record); err != nil {
			return fmt.Errorf("failed to save student fee override: %w", err)
		}
	}

	s.cache.Invalidate(year)
	slog.Info("student fee override updated",
		"year", year, "student", studentID, "fee", feePerYear, "locked", locked)
	return nil
}

// SetStudentPlan sets a per-student plan override, or clears it when planID
// is empty.
func (s *Service) SetStudentPlan(ctx context.Context, year int, studentID, planID, updatedBy string) error {
	if studentID == "" {
		return fmt.Errorf("student id cannot be empty")
	}

	path := studentPlanPath(year, studentID)
	if planID == "" {
		if err := s.store.Write(ctx, path, nil); err != nil {
			return fmt.Errorf("failed to clear student plan override: %w", err)
		}
	} else {
		record := map[string]any{
			"planId":    planID,
			"updatedAt": s.now().UTC().Format(time.RFC3339),
			"updatedBy": updatedBy,
		}
		if err := s.store.Write(ctx, path, record); err != nil {
			return fmt.Errorf("failed to save student plan override: %w", err)
		}
	}

	s.cache.Invalidate(year)
	slog.Info("student plan override updated", "year", year, "student", studentID, "plan", planID)
	return nil
}

// SetCustomSchedule replaces a student's custom schedule wholesale, or
// clears it when rows is empty. Partial row edits are not supported.
func (s *Service) SetCustomSchedule(ctx context.Context, year int, studentID string, rows []model.RawRow, note, updatedBy string) error {
	if studentID == "" {
		return fmt.Errorf("student id cannot be empty")
	}

	path := customSchedulePath(year, studentID)
	if len(rows) == 0 {
		if err := s.store.Write(ctx, path, nil); err != nil {
			return fmt.Errorf("failed to clear custom schedule: %w", err)
		}
	} else {
		record := map[string]any{
			"rows":      rows,
			"updatedAt": s.now().UTC().Format(time.RFC3339),
			"updatedBy": updatedBy,
		}
		if note != "" {
			record["note"] = note
		}
		if err := s.store.Write(ctx, path, record); err != nil {
			return fmt.Errorf("failed to save custom schedule: %w", err)
		}
	}

	s.cache.Invalidate(year)
	slog.Info("custom schedule updated", "year", year, "student", studentID, "rows", len(rows))
	return nil
}
