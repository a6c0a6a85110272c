package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("agent-%d", i)
		_ = mgr.WithLock(ctx, key, func(context.Context) error { return nil })
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	assert.Empty(t, mgr.locks, "lock entries must be released after use")
}
