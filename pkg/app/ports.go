package app

import (
	"context"
	"time"

	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/store"
)

// API is the REST collaborator as seen by a tab.
type API interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResponse, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
	Products(ctx context.Context) ([]models.CatalogItem, error)
	CreateProduct(ctx context.Context, token string, p models.NewProduct) (models.CatalogItem, error)
	Tables(ctx context.Context) ([]models.Table, error)
	CreateTables(ctx context.Context, token string, tables []models.NewTable) ([]models.Table, error)
	StartSession(ctx context.Context, req models.StartSessionRequest) (models.Session, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
	Orders(ctx context.Context, token string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, token, orderID string, status models.OrderStatus) (models.Order, error)
	OrderStatus(ctx context.Context, orderID string) (models.Order, error)
	Users(ctx context.Context, token string) ([]models.User, error)
	DeleteUser(ctx context.Context, token, userID string) error
}

// PaymentProvider creates external transactions for online and QRIS payments.
type PaymentProvider interface {
	CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error)
}

// Persistence stores opaque client-state blobs under fixed keys.
type Persistence interface {
	Put(ctx context.Context, key string, blob []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
}

type Journal interface {
	Record(ctx context.Context, action models.StaffAction) error
}

type Deps struct {
	API         API
	Payments    PaymentProvider
	Persistence Persistence
	// Journal is optional.
	Journal Journal
}

type Policy struct {
	TaxBasisPoints          int64
	Lifecycle               store.Lifecycle
	AdvanceOnCashierPayment bool
	KeyPrefix               string
	SessionTTL              time.Duration
	AuthTTL                 time.Duration
}

func SessionKey(prefix, tabID string) string {
	return prefix + ":" + tabID + ":session"
}

func AuthKey(prefix, tabID string) string {
	return prefix + ":" + tabID + ":auth"
}
