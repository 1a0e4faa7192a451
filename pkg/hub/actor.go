package hub

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/app"
)

// TabActor serializes every mutation of one tab.
type TabActor struct {
	tab            *app.Tab
	idle           time.Duration
	restoreTimeout time.Duration
	onStopped      func()
	logger         *zap.Logger
}

func (a *TabActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *dispatch:
		err := a.tab.Dispatch(msg.ctx, msg.intent)
		if err != nil {
			a.logger.Debug("Intent failed", zap.String("intent", intentName(msg.intent)), zap.Error(err))
		}
		ctx.Respond(&dispatchResult{snapshot: a.tab.Snapshot(), err: err})

	case *getSnapshot:
		ctx.Respond(&dispatchResult{snapshot: a.tab.Snapshot()})

	case *getReceipt:
		r, ok := a.tab.Receipt()
		ctx.Respond(&receiptResult{receipt: r, found: ok})

	case *orderEvent:
		if err := a.tab.Dispatch(context.Background(), app.ApplyOrderEvent{Event: msg.event}); err != nil {
			a.logger.Warn("Dropped order event", zap.String("order_id", msg.event.Order.ID), zap.Error(err))
		}

	case *actor.ReceiveTimeout:
		a.logger.Info("Tab idle, stopping")
		ctx.Stop(ctx.Self())

	case *actor.Started:
		rctx, cancel := context.WithTimeout(context.Background(), a.restoreTimeout)
		if err := a.tab.Restore(rctx); err != nil {
			a.logger.Warn("Failed to restore tab state", zap.Error(err))
		}
		cancel()
		if a.idle > 0 {
			ctx.SetReceiveTimeout(a.idle)
		}
		a.logger.Debug("Tab actor started")

	case *actor.Stopped:
		if a.onStopped != nil {
			a.onStopped()
		}
		a.logger.Debug("Tab actor stopped")
	}
}
