package store_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/store"
)

func TestPaymentMirror(t *testing.T) {
	p := store.Payment{}.Choose(models.MethodQRIS).Record(models.PaymentAttempt{
		OrderID: "a", Method: models.MethodQRIS, Token: "tok", Status: models.PaymentPending,
	})

	still := p.Mirror(order("a", models.StatusPending))
	a, _ := still.Attempt()
	assert.Equal(t, models.PaymentPending, a.Status)

	other := p.Mirror(order("b", models.StatusReady))
	a, _ = other.Attempt()
	assert.Equal(t, models.PaymentPending, a.Status)

	settled := p.Mirror(order("a", models.StatusPreparing))
	a, _ = settled.Attempt()
	assert.Equal(t, models.PaymentSettled, a.Status)

	failed := p.Mirror(order("a", models.StatusCancelled))
	a, _ = failed.Attempt()
	assert.Equal(t, models.PaymentFailed, a.Status)
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "staff-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestAuthExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	fresh := store.Auth{}.Succeed(models.LoginResponse{Token: signed(t, now.Add(time.Hour))})
	assert.False(t, fresh.Expired(now))

	stale := store.Auth{}.Succeed(models.LoginResponse{Token: signed(t, now.Add(-time.Minute))})
	assert.True(t, stale.Expired(now))

	opaque := store.Auth{}.Succeed(models.LoginResponse{Token: "opaque-token"})
	assert.False(t, opaque.Expired(now))
}

func TestAuthTransitions(t *testing.T) {
	a := store.Auth{}
	assert.Equal(t, store.AuthIdle, a.Status())

	a = a.Begin()
	assert.Equal(t, store.AuthLoading, a.Status())

	a = a.Fail("Invalid credentials")
	assert.Equal(t, store.AuthFailed, a.Status())
	assert.Equal(t, "Invalid credentials", a.Err())
	assert.False(t, a.LoggedIn())

	a = a.Succeed(models.LoginResponse{Token: "t", User: models.User{ID: "u1", Name: "Sari"}})
	assert.True(t, a.LoggedIn())
	u, ok := a.User()
	require.True(t, ok)
	assert.Equal(t, "Sari", u.Name)

	restored := store.RestoreAuth(a.Blob())
	assert.Equal(t, "t", restored.Token())

	a = a.Logout()
	assert.False(t, a.LoggedIn())
	_, ok = a.User()
	assert.False(t, ok)
}

func TestReceiptProjection(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := store.State{}
	st.Session = st.Session.Start(models.Session{CustomerName: "Budi", TableID: "t1", TableNumber: "A1"})
	st.Catalog = st.Catalog.Replace([]models.CatalogItem{latte})
	st.Orders = st.Orders.SetCurrent(models.Order{
		ID: "o1", OrderNumber: "ORD-1", CustomerName: "Budi",
		Items:    []models.OrderItem{{ProductID: "p-latte", Quantity: 2, Price: 35000}},
		Subtotal: 70000, Tax: 7700, Total: 77700, Status: models.StatusPending,
	})
	st.Payment = st.Payment.Choose(models.MethodCashier).Record(models.PaymentAttempt{
		OrderID: "o1", Method: models.MethodCashier, Status: models.PaymentRecorded,
	})

	r, ok := st.Receipt(now)

	require.True(t, ok)
	assert.Equal(t, "A1", r.TableNumber)
	require.Len(t, r.Lines, 1)
	assert.Equal(t, "Latte", r.Lines[0].Name)
	assert.Equal(t, int64(70000), r.Lines[0].Amount)
	assert.Equal(t, int64(77700), r.Total)
	assert.Equal(t, models.MethodCashier, r.Method)
	assert.Equal(t, models.PaymentRecorded, r.Payment)
	assert.Equal(t, now, r.IssuedAt)

	_, ok = store.State{}.Receipt(now)
	assert.False(t, ok)
}

func TestSnapshotCopiesStores(t *testing.T) {
	st := store.State{}
	st.Cart = st.Cart.Add(latte).Add(latte)
	st.Tables = st.Tables.Replace([]models.Table{{ID: "t1", TableNumber: "A1", IsAvailable: true}, {ID: "t2", TableNumber: "A2"}})
	st.Catalog = st.Catalog.Replace([]models.CatalogItem{latte, americano, croissant})

	snap := st.Snapshot(1100)

	assert.Equal(t, int64(77700), snap.Totals.Total)
	assert.Equal(t, []string{"coffee", "pastry"}, snap.Categories)
	assert.Len(t, st.Tables.Available(), 1)
	assert.Len(t, st.Catalog.Popular(), 1)
	assert.Equal(t, store.AuthIdle, snap.AuthStatus)

	snap.Cart[0].Quantity = 99
	assert.Equal(t, 2, st.Cart.Lines()[0].Quantity)
}
