package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/config"
	"github.com/example/brewdesk/pkg/models"
)

const qrisPayment = snap.SnapPaymentType("other_qris")

const (
	// maxOrderIDLen is the Snap limit on transaction_details.order_id.
	maxOrderIDLen = 50
	suffixLen     = 8
)

// MidtransProvider creates Snap transactions directly with the server key.
type MidtransProvider struct {
	client snap.Client
	logger *zap.Logger
}

func NewMidtransProvider(cfg config.MidtransConfig, logger *zap.Logger) *MidtransProvider {
	env := midtrans.Sandbox
	if cfg.Environment == "production" {
		env = midtrans.Production
	}

	p := &MidtransProvider{logger: logger.Named("midtrans")}
	p.client.New(cfg.ServerKey, env)
	return p
}

// SnapRequest builds the Snap request for req. The Midtrans order id gets a
// short random suffix since Snap rejects reused ids.
func SnapRequest(req models.CreateTransactionRequest) *snap.Request {
	ref := req.OrderNumber
	if ref == "" {
		ref = req.OrderID
	}
	if limit := maxOrderIDLen - suffixLen - 1; len(ref) > limit {
		ref = ref[:limit]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]

	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  ref + "-" + suffix,
			GrossAmt: req.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
		},
	}
	if req.Method == models.MethodQRIS {
		sr.EnabledPayments = []snap.SnapPaymentType{qrisPayment}
	}
	return sr
}

func (p *MidtransProvider) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
	if err := validate(req); err != nil {
		return models.Transaction{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Transaction{}, &models.NetworkError{Op: "midtrans snap", Err: err}
	}

	sr := SnapRequest(req)
	resp, snapErr := p.client.CreateTransaction(sr)
	if snapErr != nil {
		p.logger.Warn("Snap transaction failed",
			zap.String("order_id", req.OrderID),
			zap.Int("status", snapErr.StatusCode),
			zap.String("message", snapErr.Message))
		return models.Transaction{}, snapError(snapErr)
	}

	p.logger.Info("Snap transaction created",
		zap.String("order_id", req.OrderID),
		zap.String("midtrans_order_id", sr.TransactionDetails.OrderID))
	return models.Transaction{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func snapError(e *midtrans.Error) error {
	if e.StatusCode == 0 {
		cause := e.RawError
		if cause == nil {
			cause = errors.New(e.Message)
		}
		return &models.NetworkError{Op: "midtrans snap", Err: cause}
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return &models.APIError{StatusCode: e.StatusCode, Message: msg}
}
