package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/config"
	"github.com/example/brewdesk/pkg/models"
)

// TransactionCreator is the part of the REST collaborator that creates payments.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error)
}

// New returns the provider selected by cfg.Provider.
func New(cfg config.PaymentConfig, api TransactionCreator, logger *zap.Logger) (app.PaymentProvider, error) {
	switch cfg.Provider {
	case config.PaymentAPI, "":
		return NewAPIProvider(api, logger), nil
	case config.PaymentMidtrans:
		return NewMidtransProvider(cfg.Midtrans, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// APIProvider delegates to POST /payments/create-transaction on the collaborator.
type APIProvider struct {
	api    TransactionCreator
	logger *zap.Logger
}

func NewAPIProvider(api TransactionCreator, logger *zap.Logger) *APIProvider {
	return &APIProvider{api: api, logger: logger.Named("payment")}
}

func (p *APIProvider) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
	if err := validate(req); err != nil {
		return models.Transaction{}, err
	}

	tx, err := p.api.CreateTransaction(ctx, req)
	if err != nil {
		p.logger.Warn("Failed to create transaction",
			zap.String("order_id", req.OrderID),
			zap.String("method", string(req.Method)),
			zap.Error(err))
		return models.Transaction{}, err
	}

	p.logger.Info("Transaction created",
		zap.String("order_id", req.OrderID),
		zap.String("method", string(req.Method)))
	return tx, nil
}

func validate(req models.CreateTransactionRequest) error {
	if req.OrderID == "" {
		return models.Invalid("orderId", "order id is required")
	}
	if req.Amount <= 0 {
		return models.Invalid("amount", "amount must be positive")
	}
	if !req.Method.External() {
		return models.Invalid("method", fmt.Sprintf("%q is not paid through a transaction", req.Method))
	}
	return nil
}
