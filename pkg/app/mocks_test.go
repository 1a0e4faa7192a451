package app_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/brewdesk/pkg/models"
)

// MockAPI implements app.API for testing
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Login(ctx context.Context, creds models.Credentials) (models.LoginResponse, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(models.LoginResponse), args.Error(1)
}

func (m *MockAPI) Register(ctx context.Context, reg models.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Products(ctx context.Context) ([]models.CatalogItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CatalogItem), args.Error(1)
}

func (m *MockAPI) CreateProduct(ctx context.Context, token string, p models.NewProduct) (models.CatalogItem, error) {
	args := m.Called(ctx, token, p)
	return args.Get(0).(models.CatalogItem), args.Error(1)
}

func (m *MockAPI) Tables(ctx context.Context) ([]models.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Table), args.Error(1)
}

func (m *MockAPI) CreateTables(ctx context.Context, token string, tables []models.NewTable) ([]models.Table, error) {
	args := m.Called(ctx, token, tables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Table), args.Error(1)
}

func (m *MockAPI) StartSession(ctx context.Context, req models.StartSessionRequest) (models.Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAPI) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockAPI) Orders(ctx context.Context, token string) ([]models.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockAPI) UpdateOrderStatus(ctx context.Context, token, orderID string, status models.OrderStatus) (models.Order, error) {
	args := m.Called(ctx, token, orderID, status)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockAPI) OrderStatus(ctx context.Context, orderID string) (models.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockAPI) Users(ctx context.Context, token string) ([]models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockAPI) DeleteUser(ctx context.Context, token, userID string) error {
	args := m.Called(ctx, token, userID)
	return args.Error(0)
}

// MockPayments implements app.PaymentProvider for testing
type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Transaction), args.Error(1)
}

// MockJournal implements app.Journal for testing
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, action models.StaffAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}
