package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleRecord() *domain.RunRecord {
	return &domain.RunRecord{
		ID:      "run-1",
		Request: "my secret request",
		Result: domain.ProcessResult{
			Success:       true,
			Steps:         []domain.TraceEntry{{StepNumber: 1, Title: "Request Analysis", Content: "Understanding request: secret"}},
			FinalResponse: "secret answer",
		},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	ports.RunRunStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, sampleRecord()))

	stored, err := underlying.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Request)
	assert.Empty(t, stored.Result.Steps)
	assert.Empty(t, stored.Result.FinalResponse)
	assert.True(t, stored.Result.Success)
	assert.NotEmpty(t, stored.Sealed)

	loaded, err := secure.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "my secret request", loaded.Request)
	assert.Equal(t, "secret answer", loaded.Result.FinalResponse)
	assert.Len(t, loaded.Result.Steps, 1)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(underlying).Save(ctx, sampleRecord()))

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	loaded, err := rotated(underlying).Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "my secret request", loaded.Request)

	withoutFallback, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = withoutFallback(underlying).Load(ctx, "run-1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, sampleRecord()))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "run-1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
