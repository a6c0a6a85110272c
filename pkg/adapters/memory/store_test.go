package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunRunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	rec := &domain.RunRecord{ID: "r1", Result: domain.ProcessResult{Steps: []domain.TraceEntry{{StepNumber: 1, Title: "a"}}}}
	require.NoError(t, store.Save(ctx, rec))
	rec.Result.Steps[0].Title = "mutated"

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Result.Steps[0].Title)

	loaded.Result.Steps[0].Title = "mutated again"
	again, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Result.Steps[0].Title)
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithTTL(time.Minute), memory.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.RunRecord{ID: "r1"}))
	_, err := store.Load(ctx, "r1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStore_Capacity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithCapacity(2), memory.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Save(ctx, &domain.RunRecord{ID: fmt.Sprintf("r%d", i)}))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r3"}, ids)
}
