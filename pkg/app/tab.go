package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/store"
)

// Tab owns the client state of one browser tab. A Tab is not safe for
// concurrent use; the hub serializes every call to it.
type Tab struct {
	id       string
	state    store.State
	api      API
	payments PaymentProvider
	persist  Persistence
	journal  Journal
	policy   Policy
	logger   *zap.Logger
	now      func() time.Time
}

func NewTab(id string, deps Deps, policy Policy, logger *zap.Logger) *Tab {
	return &Tab{
		id:       id,
		api:      deps.API,
		payments: deps.Payments,
		persist:  deps.Persistence,
		journal:  deps.Journal,
		policy:   policy,
		logger:   logger.Named("tab").With(zap.String("tab_id", id)),
		now:      time.Now,
	}
}

func (t *Tab) ID() string { return t.id }

// SetClock replaces the time source used for token expiry and receipts.
func (t *Tab) SetClock(now func() time.Time) { t.now = now }

func (t *Tab) State() store.State { return t.state }

func (t *Tab) Snapshot() store.Snapshot {
	return t.state.Snapshot(t.policy.TaxBasisPoints)
}

func (t *Tab) Receipt() (models.Receipt, bool) {
	return t.state.Receipt(t.now())
}

// Restore loads the persisted session and staff login of this tab.
func (t *Tab) Restore(ctx context.Context) error {
	var errs []error

	var sess models.Session
	found, err := t.load(ctx, SessionKey(t.policy.KeyPrefix, t.id), &sess)
	if err != nil {
		errs = append(errs, fmt.Errorf("restore session: %w", err))
	} else if found {
		t.state.Session = store.RestoreSession(sess)
	}

	var blob store.AuthBlob
	found, err = t.load(ctx, AuthKey(t.policy.KeyPrefix, t.id), &blob)
	if err != nil {
		errs = append(errs, fmt.Errorf("restore auth: %w", err))
	} else if found {
		auth := store.RestoreAuth(blob)
		if auth.Expired(t.now()) {
			t.forget(ctx, AuthKey(t.policy.KeyPrefix, t.id))
		} else {
			t.state.Auth = auth
		}
	}

	return errors.Join(errs...)
}

// Dispatch applies one intent. Failures are scoped to the intent: state the
// intent did not touch is left as it was.
func (t *Tab) Dispatch(ctx context.Context, in Intent) error {
	t.state.Notice = ""

	switch v := in.(type) {
	case LoadCatalog:
		return t.loadCatalog(ctx)
	case LoadTables:
		return t.loadTables(ctx)
	case StartSession:
		return t.startSession(ctx, v)
	case ResetSession:
		return t.resetSession(ctx)
	case AddItem:
		return t.addItem(v)
	case SetQuantity:
		t.state.Cart = t.state.Cart.SetQuantity(v.ItemID, v.Quantity)
		return nil
	case ClearCart:
		t.state.Cart = t.state.Cart.Clear()
		return nil
	case SubmitOrder:
		return t.submitOrder(ctx)
	case FetchOrders:
		return t.fetchOrders(ctx)
	case FetchOrderStatus:
		return t.fetchOrderStatus(ctx, v)
	case AdvanceStatus:
		return t.advanceStatus(ctx, v)
	case ChooseMethod:
		return t.chooseMethod(v)
	case ConfirmPayment:
		return t.confirmPayment(ctx)
	case Login:
		return t.login(ctx, v)
	case Logout:
		t.logout(ctx)
		return nil
	case Register:
		return t.register(ctx, v)
	case CreateProduct:
		return t.createProduct(ctx, v)
	case CreateTables:
		return t.createTables(ctx, v)
	case LoadUsers:
		return t.loadUsers(ctx)
	case DeleteUser:
		return t.deleteUser(ctx, v)
	case ApplyOrderEvent:
		return t.applyOrderEvent(v)
	default:
		return fmt.Errorf("unhandled intent %T", in)
	}
}

func (t *Tab) loadCatalog(ctx context.Context) error {
	items, err := t.api.Products(ctx)
	if err != nil {
		t.state.Catalog = t.state.Catalog.Fail(models.Message(err))
		return fmt.Errorf("load catalog: %w", err)
	}
	t.state.Catalog = t.state.Catalog.Replace(items)
	return nil
}

func (t *Tab) loadTables(ctx context.Context) error {
	tables, err := t.api.Tables(ctx)
	if err != nil {
		t.state.Tables = t.state.Tables.Fail(models.Message(err))
		return fmt.Errorf("load tables: %w", err)
	}
	t.state.Tables = t.state.Tables.Replace(tables)
	return nil
}

func (t *Tab) startSession(ctx context.Context, v StartSession) error {
	name := strings.TrimSpace(v.CustomerName)
	if name == "" {
		return models.Invalid("customerName", "name is required")
	}
	if v.TableID == "" {
		return models.Invalid("tableId", "choose a table")
	}

	sess, err := t.api.StartSession(ctx, models.StartSessionRequest{CustomerName: name, TableID: v.TableID})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if sess.CustomerName == "" {
		sess.CustomerName = name
	}
	if sess.TableID == "" {
		sess.TableID = v.TableID
	}
	if sess.TableNumber == "" {
		if table, ok := t.state.Tables.Find(sess.TableID); ok {
			sess.TableNumber = table.TableNumber
		}
	}

	t.state.Session = t.state.Session.Start(sess)
	t.state.Cart = t.state.Cart.Clear()
	t.state.Orders = t.state.Orders.ClearCurrent()
	t.state.Payment = t.state.Payment.Reset()

	t.saveSession(ctx)
	return nil
}

func (t *Tab) resetSession(ctx context.Context) error {
	t.state.Session = t.state.Session.Reset()
	t.state.Cart = t.state.Cart.Clear()
	t.state.Orders = t.state.Orders.ClearCurrent()
	t.state.Payment = t.state.Payment.Reset()

	t.forget(ctx, SessionKey(t.policy.KeyPrefix, t.id))
	return nil
}

func (t *Tab) addItem(v AddItem) error {
	item, ok := t.state.Catalog.Find(v.ItemID)
	if !ok {
		return models.Invalid("itemId", fmt.Sprintf("unknown item %q", v.ItemID))
	}
	t.state.Cart = t.state.Cart.Add(item)
	return nil
}

func (t *Tab) submitOrder(ctx context.Context) error {
	if !t.state.Session.Ready() {
		return models.Invalid("session", "customer name and table are required")
	}
	if t.state.Cart.Empty() {
		return models.Invalid("cart", "cart is empty")
	}

	sess := t.state.Session.Value()
	totals := t.state.Cart.Totals(t.policy.TaxBasisPoints)
	req := models.CreateOrderRequest{
		CustomerName: sess.CustomerName,
		TableID:      sess.TableID,
		Items:        t.state.Cart.OrderItems(),
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
	}

	order, err := t.api.CreateOrder(ctx, req)
	if err != nil {
		t.state.Orders = t.state.Orders.Fail(models.Message(err))
		return fmt.Errorf("submit order: %w", err)
	}

	t.state.Orders = t.state.Orders.SetCurrent(order)
	t.state.Cart = t.state.Cart.Clear()
	t.state.Session = t.state.Session.AttachOrder(order.ID)
	t.state.Payment = store.Payment{}.Choose(t.state.Payment.Method())

	t.logger.Info("Order submitted",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", req.Total),
	)

	t.saveSession(ctx)
	return nil
}

func (t *Tab) fetchOrders(ctx context.Context) error {
	token, err := t.requireStaff(ctx)
	if err != nil {
		return err
	}

	orders, err := t.api.Orders(ctx, token)
	if err != nil {
		t.state.Orders = t.state.Orders.Fail(models.Message(err))
		return fmt.Errorf("fetch orders: %w", err)
	}
	t.state.Orders = t.state.Orders.Replace(orders)
	if cur, ok := t.state.Orders.Current(); ok {
		t.state.Payment = t.state.Payment.Mirror(cur)
	}
	return nil
}

func (t *Tab) fetchOrderStatus(ctx context.Context, v FetchOrderStatus) error {
	if v.OrderID == "" {
		return models.Invalid("orderId", "order id is required")
	}

	order, err := t.api.OrderStatus(ctx, v.OrderID)
	if err != nil {
		t.state.Orders = t.state.Orders.Fail(models.Message(err))
		return fmt.Errorf("fetch order status: %w", err)
	}
	t.state.Orders = t.state.Orders.SetViewed(order).Update(order)
	t.state.Payment = t.state.Payment.Mirror(order)
	return nil
}

func (t *Tab) advanceStatus(ctx context.Context, v AdvanceStatus) error {
	token, err := t.requireStaff(ctx)
	if err != nil {
		return err
	}
	if !v.Status.Valid() {
		return models.Invalid("status", fmt.Sprintf("unknown status %q", v.Status))
	}
	known, ok := t.state.Orders.Find(v.OrderID)
	if !ok {
		// A restored tab has no list yet.
		orders, err := t.api.Orders(ctx, token)
		if err != nil {
			t.state.Orders = t.state.Orders.Fail(models.Message(err))
			return fmt.Errorf("advance order %s: %w", v.OrderID, err)
		}
		t.state.Orders = t.state.Orders.Replace(orders)
		known, ok = t.state.Orders.Find(v.OrderID)
	}
	if ok {
		if err := t.policy.Lifecycle.Check(known.Status, v.Status); err != nil {
			return err
		}
	}

	updated, err := t.api.UpdateOrderStatus(ctx, token, v.OrderID, v.Status)
	if err != nil {
		t.state.Orders = t.state.Orders.Fail(models.Message(err))
		return fmt.Errorf("advance order %s: %w", v.OrderID, err)
	}
	t.state.Orders = t.state.Orders.Update(updated)
	t.state.Payment = t.state.Payment.Mirror(updated)

	t.record(ctx, models.ActionAdvanceStatus, v.OrderID, map[string]string{"status": string(updated.Status)})
	return nil
}

func (t *Tab) chooseMethod(v ChooseMethod) error {
	if !v.Method.Valid() {
		return models.Invalid("method", fmt.Sprintf("unknown payment method %q", v.Method))
	}
	t.state.Payment = t.state.Payment.Choose(v.Method)
	return nil
}

func (t *Tab) confirmPayment(ctx context.Context) error {
	order, ok := t.state.Orders.Current()
	if !ok {
		return models.Invalid("order", "there is no order to pay for")
	}
	method := t.state.Payment.Method()
	if method == "" {
		return models.Invalid("method", "choose a payment method")
	}

	if method.External() {
		tx, err := t.payments.CreateTransaction(ctx, models.CreateTransactionRequest{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			Amount:       order.Total,
			Method:       method,
			CustomerName: order.CustomerName,
		})
		if err != nil {
			t.state.Payment = t.state.Payment.Fail(models.Message(err))
			return fmt.Errorf("create transaction: %w", err)
		}
		t.state.Payment = t.state.Payment.Record(models.PaymentAttempt{
			OrderID:     order.ID,
			Method:      method,
			Token:       tx.Token,
			RedirectURL: tx.RedirectURL,
			Status:      models.PaymentPending,
		})
		return nil
	}

	t.state.Payment = t.state.Payment.Record(models.PaymentAttempt{
		OrderID: order.ID,
		Method:  method,
		Status:  models.PaymentRecorded,
	})

	if !t.policy.AdvanceOnCashierPayment || order.Status != models.StatusPending {
		return nil
	}
	updated, err := t.api.UpdateOrderStatus(ctx, t.state.Auth.Token(), order.ID, models.StatusPreparing)
	if err != nil {
		t.state.Payment = t.state.Payment.Fail(models.Message(err))
		return fmt.Errorf("advance paid order %s: %w", order.ID, err)
	}
	t.state.Orders = t.state.Orders.Update(updated)
	return nil
}

func (t *Tab) login(ctx context.Context, v Login) error {
	if v.Credentials.Email == "" || v.Credentials.Password == "" {
		return models.Invalid("credentials", "email and password are required")
	}

	t.state.Auth = t.state.Auth.Begin()
	resp, err := t.api.Login(ctx, v.Credentials)
	if err != nil {
		t.state.Auth = t.state.Auth.Fail(models.Message(err))
		return fmt.Errorf("login: %w", err)
	}
	t.state.Auth = t.state.Auth.Succeed(resp)

	t.save(ctx, AuthKey(t.policy.KeyPrefix, t.id), t.state.Auth.Blob(), t.policy.AuthTTL)
	t.record(ctx, models.ActionLogin, resp.User.ID, nil)
	return nil
}

func (t *Tab) logout(ctx context.Context) {
	t.state.Auth = t.state.Auth.Logout()
	t.state.Users = store.Users{}
	t.state.Orders = t.state.Orders.ClearList()
	t.forget(ctx, AuthKey(t.policy.KeyPrefix, t.id))
}

func (t *Tab) register(ctx context.Context, v Register) error {
	r := v.Registration
	if strings.TrimSpace(r.Name) == "" || r.Email == "" || r.Password == "" {
		return models.Invalid("registration", "name, email and password are required")
	}

	msg, err := t.api.Register(ctx, r)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	t.state.Notice = msg
	return nil
}

func (t *Tab) createProduct(ctx context.Context, v CreateProduct) error {
	token, err := t.requireStaff(ctx)
	if err != nil {
		return err
	}
	p := v.Product
	if strings.TrimSpace(p.Name) == "" {
		return models.Invalid("name", "product name is required")
	}
	if p.Price <= 0 {
		return models.Invalid("price", "price must be positive")
	}

	item, err := t.api.CreateProduct(ctx, token, p)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	t.state.Catalog = t.state.Catalog.Append(item)

	t.record(ctx, models.ActionCreateProduct, item.ID, map[string]string{"name": item.Name})
	return nil
}

func (t *Tab) createTables(ctx context.Context, v CreateTables) error {
	token, err := t.requireStaff(ctx)
	if err != nil {
		return err
	}

	tables := make([]models.NewTable, 0, len(v.TableNumbers))
	for _, n := range v.TableNumbers {
		n = strings.TrimSpace(n)
		if n == "" {
			return models.Invalid("tableNumbers", "table numbers must not be blank")
		}
		tables = append(tables, models.NewTable{TableNumber: n})
	}
	if len(tables) == 0 {
		return models.Invalid("tableNumbers", "at least one table number is required")
	}

	created, err := t.api.CreateTables(ctx, token, tables)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	t.state.Tables = t.state.Tables.Append(created...)

	t.record(ctx, models.ActionCreateTables, "", map[string]string{"count": fmt.Sprint(len(created))})
	return nil
}

func (t *Tab) loadUsers(ctx context.Context) error {
	token, err := t.requireStaff(ctx)
	if err != nil {
		return err
	}

	users, err := t.api.Users(ctx, token)
	if err != nil {
		t.state.Users = t.state.Users.Fail(models.Message(err))
		return fmt.Errorf("load users: %w", err)
	}
	t.state.Users = t.state.Users.Replace(users)
	return nil
}

func (t *Tab) deleteUser(ctx context.Context, v DeleteUser) error {
	token, err := t.requireStaff(ctx)
	if err != nil {
		return err
	}
	if v.ID == "" {
		return models.Invalid("id", "user id is required")
	}

	if err := t.api.DeleteUser(ctx, token, v.ID); err != nil {
		t.state.Users = t.state.Users.Fail(models.Message(err))
		return fmt.Errorf("delete user %s: %w", v.ID, err)
	}
	t.state.Users = t.state.Users.Remove(v.ID)

	t.record(ctx, models.ActionDeleteUser, v.ID, nil)
	return nil
}

// applyOrderEvent is the only path that adds orders without a fetch. The last
// writer for an order id wins. Tabs without a live staff login only follow
// their own current and viewed orders.
func (t *Tab) applyOrderEvent(v ApplyOrderEvent) error {
	order := v.Event.Order
	if order.ID == "" {
		return models.Invalid("order", "event carries no order id")
	}
	if t.state.Auth.LoggedIn() && !t.state.Auth.Expired(t.now()) {
		t.state.Orders = t.state.Orders.Upsert(order)
	} else {
		t.state.Orders = t.state.Orders.Follow(order)
	}
	t.state.Payment = t.state.Payment.Mirror(order)
	return nil
}

// requireStaff returns the bearer token, logging the tab out first when the
// token has expired.
func (t *Tab) requireStaff(ctx context.Context) (string, error) {
	if !t.state.Auth.LoggedIn() {
		return "", models.ErrUnauthenticated
	}
	if t.state.Auth.Expired(t.now()) {
		t.logger.Info("Staff token expired, logging out")
		t.logout(ctx)
		return "", models.ErrUnauthenticated
	}
	return t.state.Auth.Token(), nil
}

func (t *Tab) record(ctx context.Context, action, target string, detail map[string]string) {
	if t.journal == nil {
		return
	}
	entry := models.StaffAction{
		TabID:     t.id,
		Action:    action,
		Target:    target,
		Detail:    detail,
		Timestamp: t.now(),
	}
	if u, ok := t.state.Auth.User(); ok {
		entry.UserID = u.ID
	}
	if err := t.journal.Record(ctx, entry); err != nil {
		t.logger.Warn("Failed to journal staff action", zap.String("action", action), zap.Error(err))
	}
}

func (t *Tab) saveSession(ctx context.Context) {
	t.save(ctx, SessionKey(t.policy.KeyPrefix, t.id), t.state.Session.Value(), t.policy.SessionTTL)
}

func (t *Tab) save(ctx context.Context, key string, v any, ttl time.Duration) {
	if t.persist == nil {
		return
	}
	blob, err := json.Marshal(v)
	if err != nil {
		t.logger.Error("Failed to encode client state", zap.String("key", key), zap.Error(err))
		return
	}
	if err := t.persist.Put(ctx, key, blob, ttl); err != nil {
		t.logger.Warn("Failed to persist client state", zap.String("key", key), zap.Error(err))
	}
}

func (t *Tab) load(ctx context.Context, key string, v any) (bool, error) {
	if t.persist == nil {
		return false, nil
	}
	blob, found, err := t.persist.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *Tab) forget(ctx context.Context, key string) {
	if t.persist == nil {
		return
	}
	if err := t.persist.Delete(ctx, key); err != nil {
		t.logger.Warn("Failed to delete client state", zap.String("key", key), zap.Error(err))
	}
}
