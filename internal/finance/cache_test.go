package finance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukisa/shulefees/internal/store"
)

// trackingStore wraps a store, counting reads per path and optionally
// holding them until released.
type trackingStore struct {
	store.Store

	mu        sync.Mutex
	reads     map[string]int
	gate      chan struct{}
	readBegan chan struct{}
	failReads bool
}

func newTrackingStore(inner store.Store) *trackingStore {
	return &trackingStore{
		Store: inner,
		reads: make(map[string]int),
	}
}

func (s *trackingStore) Read(ctx context.Context, path string) (any, error) {
	s.mu.Lock()
	s.reads[path]++
	began := s.readBegan
	gate := s.gate
	fail := s.failReads
	s.mu.Unlock()

	if began != nil {
		select {
		case began <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if fail {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.Store.Read(ctx, path)
}

func (s *trackingStore) readCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[path]
}

func (s *trackingStore) totalReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.reads {
		total += n
	}
	return total
}

func TestEnsureFinanceData(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy overrides blob is split into fees and plans", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Write(ctx, "studentOverrides/2024/S1", map[string]any{
			"feePerYear": 250000,
			"planId":     "LEGACY1",
		}))

		cache := NewConfigCache(mem)
		data, err := cache.EnsureFinanceData(ctx, 2024)
		require.NoError(t, err)

		fee, ok := data.StudentFees["S1"]
		require.True(t, ok)
		assert.Equal(t, 250000.0, fee.FeePerYear)
		assert.True(t, fee.Locked, "locked defaults to true")

		plan, ok := data.StudentPlans["S1"]
		require.True(t, ok)
		assert.Equal(t, "LEGACY1", plan.PlanID)
	})

	t.Run("current records win over legacy per student", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Write(ctx, "finance/2024/studentFees/S1", map[string]any{
			"feePerYear": 300000,
		}))
		require.NoError(t, mem.Write(ctx, "studentOverrides/2024/S1", map[string]any{
			"feePerYear": 250000,
		}))
		require.NoError(t, mem.Write(ctx, "studentOverrides/2024/S2", map[string]any{
			"feePerYear": 150000,
		}))

		cache := NewConfigCache(mem)
		data, err := cache.EnsureFinanceData(ctx, 2024)
		require.NoError(t, err)

		assert.Equal(t, 300000.0, data.StudentFees["S1"].FeePerYear)
		assert.Equal(t, 150000.0, data.StudentFees["S2"].FeePerYear, "absent students are backfilled")
	})

	t.Run("legacy class and plan locations are fallbacks", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Write(ctx, "feesStructure/2024/P1", map[string]any{
			"fee": 180000,
		}))
		require.NoError(t, mem.Write(ctx, "installmentPlans/2024/OLD", map[string]any{
			"title":    "Old Termly",
			"schedule": []map[string]any{{"label": "T1", "amount": 180000}},
		}))

		cache := NewConfigCache(mem)
		data, err := cache.EnsureFinanceData(ctx, 2024)
		require.NoError(t, err)

		cfg, ok := data.Classes["p1"]
		require.True(t, ok)
		assert.Equal(t, 180000.0, cfg.FeePerYear)

		plan, ok := data.Plans["OLD"]
		require.True(t, ok)
		assert.Equal(t, "OLD", plan.ID, "plan id falls back to the map key")
		assert.Equal(t, "Old Termly", plan.Name, "name falls back to title")
	})

	t.Run("current locations suppress legacy ones", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Write(ctx, "finance/2024/classes/P1", map[string]any{
			"feePerYear": 200000,
		}))
		require.NoError(t, mem.Write(ctx, "feesStructure/2024/P1", map[string]any{
			"fee": 180000,
		}))

		cache := NewConfigCache(mem)
		data, err := cache.EnsureFinanceData(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, 200000.0, data.Classes["p1"].FeePerYear)
	})

	t.Run("plan overrides without a plan id are dropped", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Write(ctx, "finance/2024/studentPlans/S1", map[string]any{
			"updatedBy": "clerk",
		}))

		cache := NewConfigCache(mem)
		data, err := cache.EnsureFinanceData(ctx, 2024)
		require.NoError(t, err)
		assert.Empty(t, data.StudentPlans)
	})

	t.Run("concurrent callers share one fetch", func(t *testing.T) {
		mem := store.NewMemoryStore()
		ts := newTrackingStore(mem)
		ts.gate = make(chan struct{})
		ts.readBegan = make(chan struct{}, 1)

		cache := NewConfigCache(ts)

		var wg sync.WaitGroup
		results := make([]error, 2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[0] = cache.EnsureFinanceData(ctx, 2025)
		}()

		// Wait until the first fetch is inside the store, then start the
		// second caller so it attaches to the in-flight fetch.
		<-ts.readBegan
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[1] = cache.EnsureFinanceData(ctx, 2025)
		}()
		time.Sleep(20 * time.Millisecond)
		close(ts.gate)
		wg.Wait()

		require.NoError(t, results[0])
		require.NoError(t, results[1])
		assert.Equal(t, 1, ts.readCount("finance/2025/classes"),
			"both callers must share a single underlying fetch")
	})

	t.Run("snapshots are cached until invalidated", func(t *testing.T) {
		ts := newTrackingStore(store.NewMemoryStore())
		cache := NewConfigCache(ts)

		_, err := cache.EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		first := ts.totalReads()

		_, err = cache.EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.Equal(t, first, ts.totalReads(), "second read must be served from cache")

		cache.Invalidate(2025)
		_, err = cache.EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.Greater(t, ts.totalReads(), first, "invalidation must force a refetch")
	})

	t.Run("invalidate is idempotent", func(t *testing.T) {
		cache := NewConfigCache(store.NewMemoryStore())
		cache.Invalidate(2025)
		cache.Invalidate(2025)
	})

	t.Run("failed fetch clears the slot and retries cleanly", func(t *testing.T) {
		ts := newTrackingStore(store.NewMemoryStore())
		ts.failReads = true
		cache := NewConfigCache(ts)

		_, err := cache.EnsureFinanceData(ctx, 2025)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "store unavailable"))

		ts.mu.Lock()
		ts.failReads = false
		ts.mu.Unlock()

		data, err := cache.EnsureFinanceData(ctx, 2025)
		require.NoError(t, err)
		assert.Equal(t, 2025, data.Year)
	})
}
