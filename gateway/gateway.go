package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/config"
	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/store"
)

// maxImageSize bounds product image uploads.
const maxImageSize = 8 << 20

// Tabs is the per-tab runtime the gateway forwards intents to.
type Tabs interface {
	Dispatch(ctx context.Context, tabID string, in app.Intent) (store.Snapshot, error)
	Snapshot(ctx context.Context, tabID string) (store.Snapshot, error)
	Receipt(ctx context.Context, tabID string) (models.Receipt, bool, error)
	Len() int
}

type Gateway struct {
	config *config.GatewayConfig
	tabs   Tabs
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.GatewayConfig, tabs Tabs, logger *zap.Logger) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.Named("gateway")

	router := gin.New()
	router.Use(recoveryMiddleware(logger))
	router.Use(loggerMiddleware(logger))
	router.Use(corsMiddleware(cfg.AllowOrigins))

	return &Gateway{
		config: cfg,
		tabs:   tabs,
		logger: logger,
		router: router,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "tabs": g.tabs.Len()})
	})

	v1 := g.router.Group("/api/v1")
	v1.Use(rateLimitMiddleware(g.config.RateLimit, g.config.RateBurst, g.logger))
	v1.Use(tabMiddleware(g.config.TabCookie))
	{
		v1.GET("/state", g.getState)
		v1.GET("/receipt", g.getReceipt)

		v1.POST("/session", g.startSession)
		v1.DELETE("/session", g.intent(func(*gin.Context) app.Intent { return app.ResetSession{} }))

		v1.GET("/catalog", g.intent(func(*gin.Context) app.Intent { return app.LoadCatalog{} }))
		v1.GET("/tables", g.intent(func(*gin.Context) app.Intent { return app.LoadTables{} }))

		cart := v1.Group("/cart")
		{
			cart.POST("/items", g.addItem)
			cart.PUT("/items/:id", g.setQuantity)
			cart.DELETE("", g.intent(func(*gin.Context) app.Intent { return app.ClearCart{} }))
		}

		v1.POST("/orders", g.intent(func(*gin.Context) app.Intent { return app.SubmitOrder{} }))
		v1.GET("/orders/:id/status", g.intent(func(c *gin.Context) app.Intent {
			return app.FetchOrderStatus{OrderID: c.Param("id")}
		}))

		payment := v1.Group("/payment")
		{
			payment.POST("/method", g.chooseMethod)
			payment.POST("/confirm", g.intent(func(*gin.Context) app.Intent { return app.ConfirmPayment{} }))
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/login", g.login)
			auth.POST("/logout", g.intent(func(*gin.Context) app.Intent { return app.Logout{} }))
			auth.POST("/register", g.register)
		}

		cashier := v1.Group("/cashier")
		{
			cashier.GET("/orders", g.listOrders)
			cashier.PATCH("/orders/:id/status", g.advanceStatus)
			cashier.POST("/products", g.createProduct)
			cashier.POST("/tables", g.createTables)
			cashier.GET("/users", g.intent(func(*gin.Context) app.Intent { return app.LoadUsers{} }))
			cashier.DELETE("/users/:id", g.intent(func(c *gin.Context) app.Intent {
				return app.DeleteUser{ID: c.Param("id")}
			}))
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router for tests and custom servers.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:    g.config.Addr(),
		Handler: g.router,
	}
	g.logger.Info("Gateway starting", zap.String("address", g.config.Addr()))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func tabID(c *gin.Context) string {
	return c.GetString(tabKey)
}

// intent builds a handler that dispatches the intent produced by build.
func (g *Gateway) intent(build func(*gin.Context) app.Intent) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.dispatch(c, build(c))
	}
}

func (g *Gateway) dispatch(c *gin.Context, in app.Intent) {
	snap, err := g.tabs.Dispatch(c.Request.Context(), tabID(c), in)
	if err != nil {
		g.fail(c, err, &snap)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": snap})
}

// fail writes the error with the tab state it left behind, when there is one.
func (g *Gateway) fail(c *gin.Context, err error, snap *store.Snapshot) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	body := gin.H{"error": models.Message(err)}
	if snap != nil && (status < http.StatusInternalServerError || status == http.StatusBadGateway) {
		body["state"] = snap
	}
	c.JSON(status, body)
}

func statusOf(err error) int {
	var (
		vErr   *models.ValidationError
		apiErr *models.APIError
		netErr *models.NetworkError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	case errors.Is(err, actor.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (g *Gateway) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		g.fail(c, models.Invalid("body", err.Error()), nil)
		return false
	}
	return true
}

func (g *Gateway) getState(c *gin.Context) {
	snap, err := g.tabs.Snapshot(c.Request.Context(), tabID(c))
	if err != nil {
		g.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": snap})
}

func (g *Gateway) getReceipt(c *gin.Context) {
	receipt, ok, err := g.tabs.Receipt(c.Request.Context(), tabID(c))
	if err != nil {
		g.fail(c, err, nil)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No order to show"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

type startSessionBody struct {
	CustomerName string `json:"customerName"`
	TableID      string `json:"tableId"`
}

func (g *Gateway) startSession(c *gin.Context) {
	var body startSessionBody
	if !g.bind(c, &body) {
		return
	}
	g.dispatch(c, app.StartSession{CustomerName: body.CustomerName, TableID: body.TableID})
}

type addItemBody struct {
	ItemID string `json:"itemId"`
}

func (g *Gateway) addItem(c *gin.Context) {
	var body addItemBody
	if !g.bind(c, &body) {
		return
	}
	g.dispatch(c, app.AddItem{ItemID: body.ItemID})
}

type quantityBody struct {
	Quantity *int `json:"quantity"`
}

func (g *Gateway) setQuantity(c *gin.Context) {
	var body quantityBody
	if !g.bind(c, &body) {
		return
	}
	if body.Quantity == nil {
		g.fail(c, models.Invalid("quantity", "is required"), nil)
		return
	}
	g.dispatch(c, app.SetQuantity{ItemID: c.Param("id"), Quantity: *body.Quantity})
}

type methodBody struct {
	Method models.PaymentMethod `json:"method"`
}

func (g *Gateway) chooseMethod(c *gin.Context) {
	var body methodBody
	if !g.bind(c, &body) {
		return
	}
	g.dispatch(c, app.ChooseMethod{Method: body.Method})
}

func (g *Gateway) login(c *gin.Context) {
	var creds models.Credentials
	if !g.bind(c, &creds) {
		return
	}
	g.dispatch(c, app.Login{Credentials: creds})
}

func (g *Gateway) register(c *gin.Context) {
	var reg models.Registration
	if !g.bind(c, &reg) {
		return
	}
	g.dispatch(c, app.Register{Registration: reg})
}

// listOrders refreshes the tab's orders and returns those matching the
// optional status filter next to the full state.
func (g *Gateway) listOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		g.fail(c, models.Invalid("status", "unknown order status"), nil)
		return
	}

	snap, err := g.tabs.Dispatch(c.Request.Context(), tabID(c), app.FetchOrders{})
	if err != nil {
		g.fail(c, err, &snap)
		return
	}
	orders := store.Orders{}.Replace(snap.Orders).Filter(status)
	c.JSON(http.StatusOK, gin.H{"state": snap, "orders": orders})
}

type statusBody struct {
	Status models.OrderStatus `json:"status"`
}

func (g *Gateway) advanceStatus(c *gin.Context) {
	var body statusBody
	if !g.bind(c, &body) {
		return
	}
	g.dispatch(c, app.AdvanceStatus{OrderID: c.Param("id"), Status: body.Status})
}

func (g *Gateway) createProduct(c *gin.Context) {
	p := models.NewProduct{
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
	}
	if raw := c.PostForm("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			g.fail(c, models.Invalid("price", "must be a whole number"), nil)
			return
		}
		p.Price = price
	}
	if raw := c.PostForm("isPopular"); raw != "" {
		popular, err := strconv.ParseBool(raw)
		if err != nil {
			g.fail(c, models.Invalid("isPopular", "must be true or false"), nil)
			return
		}
		p.IsPopular = popular
	}

	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxImageSize {
			g.fail(c, models.Invalid("image", "is too large"), nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			g.fail(c, models.Invalid("image", err.Error()), nil)
			return
		}
		defer f.Close()
		if p.Image, err = io.ReadAll(f); err != nil {
			g.fail(c, models.Invalid("image", err.Error()), nil)
			return
		}
		p.ImageName = fh.Filename
	} else if !errors.Is(err, http.ErrMissingFile) {
		g.fail(c, models.Invalid("image", err.Error()), nil)
		return
	}

	g.dispatch(c, app.CreateProduct{Product: p})
}

type tablesBody struct {
	TableNumbers []string `json:"tableNumbers"`
}

func (g *Gateway) createTables(c *gin.Context) {
	var body tablesBody
	if !g.bind(c, &body) {
		return
	}
	g.dispatch(c, app.CreateTables{TableNumbers: body.TableNumbers})
}
