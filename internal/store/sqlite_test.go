package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("write then read a document", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Write(ctx, "finance/2025/classes/P4", map[string]any{
			"feePerYear":    300000,
			"defaultPlanId": "P1",
		}))

		v, err := st.Read(ctx, "finance/2025/classes/P4")
		require.NoError(t, err)
		m, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 300000.0, m["feePerYear"])
		assert.Equal(t, "P1", m["defaultPlanId"])
	})

	t.Run("interior read assembles descendants into nested maps", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Write(ctx, "finance/2025/classes/P4", map[string]any{"feePerYear": 1}))
		require.NoError(t, st.Write(ctx, "finance/2025/classes/P5", map[string]any{"feePerYear": 2}))
		require.NoError(t, st.Write(ctx, "finance/2025/plans/P1", map[string]any{"planId": "P1"}))

		v, err := st.Read(ctx, "finance/2025")
		require.NoError(t, err)
		m, ok := v.(map[string]any)
		require.True(t, ok)

		classes, ok := m["classes"].(map[string]any)
		require.True(t, ok)
		assert.Len(t, classes, 2)
		plans, ok := m["plans"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, plans, "P1")
	})

	t.Run("absent path yields nil", func(t *testing.T) {
		st := createTestSQLite(t)
		v, err := st.Read(ctx, "nothing/here")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("write replaces descendants", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Write(ctx, "finance/2025/classes/P4", map[string]any{"feePerYear": 1}))
		require.NoError(t, st.Write(ctx, "finance/2025/classes", map[string]any{"replaced": true}))

		v, err := st.Read(ctx, "finance/2025/classes")
		require.NoError(t, err)
		m := v.(map[string]any)
		assert.Equal(t, true, m["replaced"])
		assert.NotContains(t, m, "P4")
	})

	t.Run("write nil deletes", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Write(ctx, "finance/2025/classes/P4", map[string]any{"feePerYear": 1}))
		require.NoError(t, st.Write(ctx, "finance/2025", nil))

		v, err := st.Read(ctx, "finance/2025/classes/P4")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("update merges and removes nil fields", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Write(ctx, "finance/2025/studentFees/S1", map[string]any{
			"feePerYear": 1000,
			"locked":     true,
		}))
		require.NoError(t, st.Update(ctx, "finance/2025/studentFees/S1", map[string]any{
			"feePerYear": 2000,
			"locked":     nil,
		}))

		v, err := st.Read(ctx, "finance/2025/studentFees/S1")
		require.NoError(t, err)
		m := v.(map[string]any)
		assert.Equal(t, 2000.0, m["feePerYear"])
		assert.NotContains(t, m, "locked")
	})

	t.Run("update creates a missing document", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Update(ctx, "finance/2025/studentFees/S1", map[string]any{
			"feePerYear": 2000,
		}))

		v, err := st.Read(ctx, "finance/2025/studentFees/S1")
		require.NoError(t, err)
		assert.Equal(t, 2000.0, v.(map[string]any)["feePerYear"])
	})

	t.Run("paths with wildcard characters don't leak across prefixes", func(t *testing.T) {
		st := createTestSQLite(t)
		require.NoError(t, st.Write(ctx, "a_c/leaf", map[string]any{"v": 1}))
		require.NoError(t, st.Write(ctx, "abc/leaf", map[string]any{"v": 2}))

		v, err := st.Read(ctx, "a_c")
		require.NoError(t, err)
		m := v.(map[string]any)
		assert.Len(t, m, 1)
	})
}
