package finance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukisa/shulefees/internal/model"
	"github.com/mukisa/shulefees/internal/store"
)

func TestMutationsWriteThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("set class config is visible on the next read", func(t *testing.T) {
		svc, _ := newTestService(t)

		// Prime the cache with an empty year first.
		data, err := svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.Empty(t, data.Classes)

		require.NoError(t, svc.SetClassConfig(ctx, 2025, "P4", 300000, "P1"))

		data, err = svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		cfg, ok := data.Classes["p4"]
		require.True(t, ok, "mutation must invalidate the cached year")
		assert.Equal(t, 300000.0, cfg.FeePerYear)
		assert.Equal(t, "P1", cfg.DefaultPlanID)
	})

	t.Run("set plan stores an ordered schedule", func(t *testing.T) {
		svc, _ := newTestService(t)
		rows := []model.RawRow{
			{"label": "T1", "amount": 100000},
			{"label": "T2", "weight": 1},
		}
		require.NoError(t, svc.SetPlan(ctx, 2025, "P1", "Termly", rows))

		data, err := svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		plan, ok := data.Plans["P1"]
		require.True(t, ok)
		assert.Equal(t, "Termly", plan.Name)
		require.Len(t, plan.Ordered, 2)
		assert.Empty(t, plan.Keyed)
	})

	t.Run("zero amount clears a fee override", func(t *testing.T) {
		svc, _ := newTestService(t)
		require.NoError(t, svc.SetStudentFee(ctx, 2025, "S1", 250000, true, "bursar"))

		data, err := svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		ov, ok := data.StudentFees["S1"]
		require.True(t, ok)
		assert.Equal(t, 250000.0, ov.FeePerYear)
		assert.True(t, ov.Locked)
		assert.Equal(t, "bursar", ov.UpdatedBy)
		assert.NotEmpty(t, ov.UpdatedAt)

		require.NoError(t, svc.SetStudentFee(ctx, 2025, "S1", 0, true, "bursar"))
		data, err = svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.NotContains(t, data.StudentFees, "S1")
	})

	t.Run("empty plan id clears a plan override", func(t *testing.T) {
		svc, _ := newTestService(t)
		require.NoError(t, svc.SetStudentPlan(ctx, 2025, "S1", "P2", "bursar"))

		data, err := svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.Equal(t, "P2", data.StudentPlans["S1"].PlanID)

		require.NoError(t, svc.SetStudentPlan(ctx, 2025, "S1", "", "bursar"))
		data, err = svc.Cache().EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.NotContains(t, data.StudentPlans, "S1")
	})

	t.Run("custom schedule round-trips through resolution", func(t *testing.T) {
		svc, _ := newTestService(t)
		rows := []model.RawRow{
			{"label": "Deposit", "amount": 20000},
			{"label": "Balance", "amount": 30000},
		}
		require.NoError(t, svc.SetCustomSchedule(ctx, 2025, "S1", rows, "arrangement", "bursar"))

		sched, err := svc.ResolveEffectiveInstallments(ctx, "S1", "P4", ResolveOptions{Year: 2025})
		require.NoError(t, err)
		assert.Equal(t, model.SourceCustom, sched.Source)
		assert.Equal(t, 50000.0, sched.Fee)

		require.NoError(t, svc.SetCustomSchedule(ctx, 2025, "S1", nil, "", "bursar"))
		sched, err = svc.ResolveEffectiveInstallments(ctx, "S1", "P4", ResolveOptions{Year: 2025})
		require.NoError(t, err)
		assert.Equal(t, model.SourceNone, sched.Source)
	})

	t.Run("validation failures", func(t *testing.T) {
		svc, _ := newTestService(t)
		assert.Error(t, svc.SetClassConfig(ctx, 2025, "", 1000, ""))
		assert.Error(t, svc.SetClassConfig(ctx, 2025, "P4", -5, ""))
		assert.Error(t, svc.SetPlan(ctx, 2025, "", "", nil))
		assert.Error(t, svc.SetStudentFee(ctx, 2025, "", 1000, true, ""))
		assert.Error(t, svc.SetStudentPlan(ctx, 2025, "", "P1", ""))
		assert.Error(t, svc.SetCustomSchedule(ctx, 2025, "", nil, "", ""))
	})
}

func TestServiceUsesScopedStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	scoped := store.NewScopedStore(mem, "schools/main")
	svc := NewService(scoped)

	require.NoError(t, svc.SetClassConfig(ctx, 2025, "P4", 300000, ""))

	v, err := mem.Read(ctx, "schools/main/finance/2025/classes/P4")
	require.NoError(t, err)
	require.NotNil(t, v, "writes must land under the school scope prefix")

	eff, err := svc.ResolveEffectiveFinance(ctx, "S1", "P4", ResolveOptions{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, 300000.0, eff.Fee)
}
