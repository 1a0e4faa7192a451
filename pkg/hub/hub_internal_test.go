package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/repository"
)

func TestRequestRespawnsStoppedTab(t *testing.T) {
	repo := repository.NewMemoryRepository()
	h := New(func(tabID string) *app.Tab {
		return app.NewTab(tabID, app.Deps{Persistence: repo}, app.Policy{KeyPrefix: "test"}, zap.NewNop())
	}, Options{}, zap.NewNop())
	t.Cleanup(h.Shutdown)
	ctx := context.Background()

	_, err := h.Snapshot(ctx, "tab-a")
	require.NoError(t, err)

	h.mu.Lock()
	stale := h.tabs["tab-a"]
	h.mu.Unlock()
	require.NoError(t, h.system.Root.StopFuture(stale.pid).Wait())

	// The tab stopped between lookup and delivery: the map still points at it.
	h.mu.Lock()
	h.tabs["tab-a"] = stale
	h.mu.Unlock()

	_, err = h.Snapshot(ctx, "tab-a")
	require.NoError(t, err)

	h.mu.Lock()
	fresh := h.tabs["tab-a"]
	h.mu.Unlock()
	assert.False(t, fresh.pid.Equal(stale.pid))
	assert.Equal(t, 1, h.Len())
}
