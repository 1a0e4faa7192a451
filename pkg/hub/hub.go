package hub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/store"
)

// TabFactory builds the orchestrator for a new tab.
type TabFactory func(tabID string) *app.Tab

type Options struct {
	// DispatchTimeout bounds how long a caller waits for a tab.
	DispatchTimeout time.Duration
	// IdleTimeout stops a tab that received no intents for that long. Zero keeps tabs forever.
	IdleTimeout    time.Duration
	RestoreTimeout time.Duration
}

type tabRef struct {
	pid *actor.PID
	seq uint64
}

// Hub owns one actor per browser tab.
type Hub struct {
	system  *actor.ActorSystem
	factory TabFactory
	opts    Options
	logger  *zap.Logger

	mu   sync.Mutex
	tabs map[string]tabRef
	seq  atomic.Uint64
}

func New(factory TabFactory, opts Options, logger *zap.Logger) *Hub {
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 15 * time.Second
	}
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = 5 * time.Second
	}
	return &Hub{
		system:  actor.NewActorSystem(),
		factory: factory,
		opts:    opts,
		logger:  logger.Named("hub"),
		tabs:    make(map[string]tabRef),
	}
}

func (h *Hub) pid(tabID string) (*actor.PID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ref, ok := h.tabs[tabID]; ok {
		return ref.pid, nil
	}

	seq := h.seq.Add(1)
	logger := h.logger.With(zap.String("tab_id", tabID))
	props := actor.PropsFromProducer(func() actor.Actor {
		return &TabActor{
			tab:            h.factory(tabID),
			idle:           h.opts.IdleTimeout,
			restoreTimeout: h.opts.RestoreTimeout,
			onStopped:      func() { h.forget(tabID, seq) },
			logger:         logger,
		}
	})

	pid, err := h.system.Root.SpawnNamed(props, fmt.Sprintf("tab-%s-%d", tabID, seq))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn tab actor: %w", err)
	}
	h.tabs[tabID] = tabRef{pid: pid, seq: seq}
	return pid, nil
}

func (h *Hub) forget(tabID string, seq uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ref, ok := h.tabs[tabID]; ok && ref.seq == seq {
		delete(h.tabs, tabID)
	}
}

func (h *Hub) timeout(ctx context.Context) time.Duration {
	t := h.opts.DispatchTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < t {
			t = left
		}
	}
	if t <= 0 {
		t = time.Millisecond
	}
	return t
}

// request sends msg to the tab and retries once if the actor stopped
// between lookup and delivery.
func (h *Hub) request(ctx context.Context, tabID string, msg any) (any, error) {
	for attempt := 0; attempt < 2; attempt++ {
		pid, err := h.pid(tabID)
		if err != nil {
			return nil, err
		}

		res, err := h.system.Root.RequestFuture(pid, msg, h.timeout(ctx)).Result()
		if errors.Is(err, actor.ErrDeadLetter) {
			h.logger.Debug("Tab stopped before delivery, respawning", zap.String("tab_id", tabID))
			h.evict(tabID, pid)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tab %s: %w", tabID, err)
		}
		return res, nil
	}
	return nil, fmt.Errorf("tab %s: actor unavailable", tabID)
}

func (h *Hub) evict(tabID string, pid *actor.PID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ref, ok := h.tabs[tabID]; ok && ref.pid.Equal(pid) {
		delete(h.tabs, tabID)
	}
}

// Dispatch applies in to the tab and returns the tab's snapshot afterwards.
// The snapshot is returned even when the intent failed.
func (h *Hub) Dispatch(ctx context.Context, tabID string, in app.Intent) (store.Snapshot, error) {
	res, err := h.request(ctx, tabID, &dispatch{ctx: ctx, intent: in})
	if err != nil {
		return store.Snapshot{}, err
	}
	r, ok := res.(*dispatchResult)
	if !ok {
		return store.Snapshot{}, fmt.Errorf("tab %s: unexpected reply %T", tabID, res)
	}
	return r.snapshot, r.err
}

func (h *Hub) Snapshot(ctx context.Context, tabID string) (store.Snapshot, error) {
	res, err := h.request(ctx, tabID, &getSnapshot{})
	if err != nil {
		return store.Snapshot{}, err
	}
	r, ok := res.(*dispatchResult)
	if !ok {
		return store.Snapshot{}, fmt.Errorf("tab %s: unexpected reply %T", tabID, res)
	}
	return r.snapshot, nil
}

func (h *Hub) Receipt(ctx context.Context, tabID string) (models.Receipt, bool, error) {
	res, err := h.request(ctx, tabID, &getReceipt{})
	if err != nil {
		return models.Receipt{}, false, err
	}
	r, ok := res.(*receiptResult)
	if !ok {
		return models.Receipt{}, false, fmt.Errorf("tab %s: unexpected reply %T", tabID, res)
	}
	return r.receipt, r.found, nil
}

// Broadcast hands ev to every live tab without waiting.
func (h *Hub) Broadcast(ev models.OrderEvent) {
	h.mu.Lock()
	pids := make([]*actor.PID, 0, len(h.tabs))
	for _, ref := range h.tabs {
		pids = append(pids, ref.pid)
	}
	h.mu.Unlock()

	for _, pid := range pids {
		h.system.Root.Send(pid, &orderEvent{event: ev})
	}
	h.logger.Debug("Broadcast order event",
		zap.String("type", string(ev.Type)),
		zap.String("order_id", ev.Order.ID),
		zap.Int("tabs", len(pids)),
	)
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tabs)
}

// Shutdown stops every tab actor and waits for them to finish.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	pids := make([]*actor.PID, 0, len(h.tabs))
	for _, ref := range h.tabs {
		pids = append(pids, ref.pid)
	}
	h.mu.Unlock()

	var errs []error
	for _, pid := range pids {
		if err := h.system.Root.StopFuture(pid).Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		h.logger.Warn("Some tabs did not stop cleanly", zap.Error(err))
	}
	h.system.Shutdown()
}

func intentName(in app.Intent) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", in), "app.")
}
