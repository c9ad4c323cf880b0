package finance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mukisa/shulefees/internal/model"
	"github.com/mukisa/shulefees/internal/store"
)

// ConfigCache serves immutable per-year snapshots of the four fee
// configuration collections. Concurrent callers for the same year share one
// in-flight fetch; a failed fetch leaves no broken entry behind, so the next
// caller retries from scratch.
type ConfigCache struct {
	store store.Store

	mu    sync.RWMutex
	years map[int]*model.YearData

	group singleflight.Group
}

// NewConfigCache creates a cache reading from st.
func NewConfigCache(st store.Store) *ConfigCache {
	return &ConfigCache{
		store: st,
		years: make(map[int]*model.YearData),
	}
}

// EnsureFinanceData returns the snapshot for year, fetching it at most once
// no matter how many callers arrive while the fetch is in flight.
func (c *ConfigCache) EnsureFinanceData(ctx context.Context, year int) (*model.YearData, error) {
	c.mu.RLock()
	data, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(year), func() (any, error) {
		// Another caller may have completed the fetch between our cache miss
		// and joining the flight group.
		c.mu.RLock()
		cached, ok := c.years[year]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		fetched, err := c.fetchYear(ctx, year)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.years[year] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load finance data for year %d: %w", year, err)
	}
	return v.(*model.YearData), nil
}

// Invalidate drops the snapshot for year. Idempotent; the next read rebuilds
// from the store.
func (c *ConfigCache) Invalidate(year int) {
	c.mu.Lock()
	delete(c.years, year)
	c.mu.Unlock()
	c.group.Forget(strconv.Itoa(year))
}

// fetchYear reads the current collections, falls back to legacy locations
// where the current ones are empty, merges the historical per-student
// overrides blob, and normalizes everything into the snapshot shape.
func (c *ConfigCache) fetchYear(ctx context.Context, year int) (*model.YearData, error) {
	classesRaw, err := c.readMap(ctx, classesPath(year))
	if err != nil {
		return nil, err
	}
	if len(classesRaw) == 0 {
		if classesRaw, err = c.readMap(ctx, legacyClassesPath(year)); err != nil {
			return nil, err
		}
	}

	plansRaw, err := c.readMap(ctx, plansPath(year))
	if err != nil {
		return nil, err
	}
	if len(plansRaw) == 0 {
		if plansRaw, err = c.readMap(ctx, legacyPlansPath(year)); err != nil {
			return nil, err
		}
	}

	feesRaw, err := c.readMap(ctx, studentFeesPath(year))
	if err != nil {
		return nil, err
	}
	planOverridesRaw, err := c.readMap(ctx, studentPlansPath(year))
	if err != nil {
		return nil, err
	}

	// The pre-split overrides blob held fee and plan per student in one
	// record. It is always consulted: wholesale when the current collection
	// is empty, additive backfill (current wins per student) otherwise.
	legacyRaw, err := c.readMap(ctx, legacyStudentOverridesPath(year))
	if err != nil {
		return nil, err
	}
	mergeLegacyOverrides(feesRaw, planOverridesRaw, legacyRaw)

	data := &model.YearData{
		Year:         year,
		Classes:      normalizeClasses(classesRaw),
		Plans:        normalizePlans(plansRaw),
		StudentFees:  normalizeStudentFees(feesRaw),
		StudentPlans: normalizeStudentPlans(planOverridesRaw),
	}

	slog.Debug("loaded finance data",
		"year", year,
		"classes", len(data.Classes),
		"plans", len(data.Plans),
		"fee_overrides", len(data.StudentFees),
		"plan_overrides", len(data.StudentPlans))
	return data, nil
}

func (c *ConfigCache) readMap(ctx context.Context, path string) (map[string]any, error) {
	v, err := c.store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	m, ok := asObject(v)
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}

// mergeLegacyOverrides folds legacy per-student records into the current fee
// and plan collections in place. A legacy record contributes its fee part
// only when the student is absent from the current fee collection, and its
// plan part only when absent from the current plan collection.
func mergeLegacyOverrides(fees, plans, legacy map[string]any) {
	for studentID, v := range legacy {
		record, ok := asObject(v)
		if !ok {
			continue
		}
		if _, exists := fees[studentID]; !exists {
			if _, ok := firstNumber(record, classFeeAliases); ok {
				fees[studentID] = record
			}
		}
		if _, exists := plans[studentID]; !exists {
			if firstString(record, planIDAliases) != "" {
				plans[studentID] = record
			}
		}
	}
}

func normalizeClasses(raw map[string]any) map[string]model.ClassConfig {
	out := make(map[string]model.ClassConfig, len(raw))
	for name, v := range raw {
		record, ok := asObject(v)
		if !ok {
			continue
		}
		fee, _ := firstNumber(record, classFeeAliases)
		if fee < 0 {
			fee = 0
		}
		cfg := model.ClassConfig{
			Name:          name,
			FeePerYear:    fee,
			DefaultPlanID: firstString(record, []string{"defaultPlanId", "defaultPlanID", "planId"}),
		}
		out[normalizeClassName(name)] = cfg
	}
	return out
}

func normalizePlans(raw map[string]any) map[string]model.Plan {
	out := make(map[string]model.Plan, len(raw))
	for key, v := range raw {
		record, ok := asObject(v)
		if !ok {
			continue
		}
		plan := model.Plan{
			ID:   firstString(record, []string{"planId", "planID", "id"}),
			Name: firstString(record, planNameAliases),
		}
		if plan.ID == "" {
			plan.ID = key
		}
		plan.Ordered, plan.Keyed = splitSchedule(record["schedule"])
		out[plan.ID] = plan
	}
	return out
}

// splitSchedule classifies a raw plan schedule into its two accepted shapes:
// an ordered list of rows, or a keyed map needing a deterministic sort.
func splitSchedule(v any) ([]model.RawRow, map[string]model.RawRow) {
	switch sched := v.(type) {
	case []any:
		rows := make([]model.RawRow, 0, len(sched))
		for _, rv := range sched {
			if row, ok := asObject(rv); ok {
				rows = append(rows, model.RawRow(row))
			}
		}
		return rows, nil
	case map[string]any:
		keyed := make(map[string]model.RawRow, len(sched))
		for k, rv := range sched {
			if row, ok := asObject(rv); ok {
				keyed[k] = model.RawRow(row)
			}
		}
		return nil, keyed
	default:
		return nil, nil
	}
}

func normalizeStudentFees(raw map[string]any) map[string]model.StudentFeeOverride {
	out := make(map[string]model.StudentFeeOverride, len(raw))
	for studentID, v := range raw {
		record, ok := asObject(v)
		if !ok {
			continue
		}
		fee, ok := firstNumber(record, classFeeAliases)
		if !ok {
			continue
		}
		if fee < 0 {
			fee = 0
		}
		out[studentID] = model.StudentFeeOverride{
			FeePerYear: fee,
			Locked:     toBool(record["locked"], true),
			UpdatedAt:  toString(record["updatedAt"]),
			UpdatedBy:  toString(record["updatedBy"]),
		}
	}
	return out
}

func normalizeStudentPlans(raw map[string]any) map[string]model.StudentPlanOverride {
	out := make(map[string]model.StudentPlanOverride, len(raw))
	for studentID, v := range raw {
		record, ok := asObject(v)
		if !ok {
			continue
		}
		planID := firstString(record, planIDAliases)
		if planID == "" {
			// Without a resolvable plan the override means nothing.
			continue
		}
		out[studentID] = model.StudentPlanOverride{
			PlanID:    planID,
			UpdatedAt: toString(record["updatedAt"]),
			UpdatedBy: toString(record["updatedBy"]),
		}
	}
	return out
}
