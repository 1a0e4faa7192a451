package hub

import (
	"context"

	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/store"
)

// Messages
type dispatch struct {
	ctx    context.Context
	intent app.Intent
}

type dispatchResult struct {
	snapshot store.Snapshot
	err      error
}

type getSnapshot struct{}

type getReceipt struct{}

type receiptResult struct {
	receipt models.Receipt
	found   bool
}

type orderEvent struct {
	event models.OrderEvent
}

// Live updates do not keep an idle tab alive.
func (*orderEvent) NotInfluenceReceiveTimeout() {}
