package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/about"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/dashboard"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/products"
	"storefront-service/internal/users"
	"storefront-service/middleware"
	"storefront-service/pkg/paginate"
)

// Accounts is implemented by *users.Conf.
type Accounts interface {
	InsertUser(ctx context.Context, nu users.NewUser) (users.User, error)
	Authenticate(ctx context.Context, username, password string) (users.User, error)
	GetUser(ctx context.Context, id int64) (users.User, error)
	UpdateUser(ctx context.Context, id int64, uu users.UpdateUser) (users.User, error)
	DeleteUser(ctx context.Context, id int64, password string) error
	ListAddresses(ctx context.Context, userID int64) ([]users.Address, error)
	InsertAddress(ctx context.Context, userID int64, na users.NewAddress) (users.Address, error)
	GetAddress(ctx context.Context, userID, addressID int64) (users.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID int64, na users.NewAddress) (users.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID int64) error
}

// Catalog is implemented by *products.Conf.
type Catalog interface {
	ListProducts(ctx context.Context, p paginate.Page) ([]products.Product, int64, error)
	GetProduct(ctx context.Context, id int64) (products.Product, error)
	ListByCategorySlug(ctx context.Context, slug string, p paginate.Page) ([]products.Product, int64, error)
	CreateProduct(ctx context.Context, np products.NewProduct) (products.Product, error)
	UpdateProduct(ctx context.Context, id int64, up products.UpdateProduct) (products.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]products.Category, error)
	FeaturedCategories(ctx context.Context) ([]products.Category, error)
	GetCategory(ctx context.Context, id int64) (products.Category, error)
	CreateCategory(ctx context.Context, nc products.NewCategory) (products.Category, error)
	ListReviews(ctx context.Context, productID int64, p paginate.Page) ([]products.Review, int64, error)
	GetReview(ctx context.Context, id int64) (products.Review, error)
	CreateReview(ctx context.Context, userID int64, nr products.NewReview) (products.Review, error)
	UpdateReview(ctx context.Context, userID, id int64, ur products.UpdateReview) (products.Review, error)
	DeleteReview(ctx context.Context, userID, id int64) error
}

// Carts is implemented by *cart.Service.
type Carts interface {
	GetOrCreate(ctx context.Context, userID int64) (cart.CartResponse, error)
	Find(ctx context.Context, userID int64) (cart.CartResponse, error)
	Items(ctx context.Context, userID int64) ([]cart.CartItem, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (cart.CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (cart.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

// Orders is implemented by *orders.Service.
type Orders interface {
	Create(ctx context.Context, userID int64, no orders.NewOrder) (orders.Order, error)
	List(ctx context.Context, userID int64) ([]orders.Order, error)
	ListAll(ctx context.Context, status orders.Status, p paginate.Page) ([]orders.Order, int64, error)
	Get(ctx context.Context, userID, orderID int64) (orders.Order, error)
	UpdateShippingAddress(ctx context.Context, userID, orderID, addressID int64) (orders.Order, error)
	Cancel(ctx context.Context, userID, orderID int64) (orders.Order, error)
	InitiateReturn(ctx context.Context, userID, orderID int64) (orders.Order, error)
	Advance(ctx context.Context, orderID int64, to orders.Status) (orders.Order, error)
}

// Payments is implemented by *payments.Service.
type Payments interface {
	Create(ctx context.Context, userID int64, np payments.NewPayment) (payments.Created, error)
	Verify(ctx context.Context, userID int64, v payments.Verification) (payments.Payment, error)
	Get(ctx context.Context, userID, orderID int64) (payments.Payment, error)
	CompleteByGateway(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error
}

// StripeWebhooks is implemented by *payments.StripeGateway.
type StripeWebhooks interface {
	ParseWebhook(payload []byte, signatureHeader string) (payments.WebhookPayment, bool, error)
}

// Reports is implemented by *dashboard.Service.
type Reports interface {
	Report(ctx context.Context) (dashboard.Report, error)
	Export(ctx context.Context, w io.Writer) error
}

// Content is implemented by *about.Conf.
type Content interface {
	BrandStory(ctx context.Context) (about.About, error)
	SaveAbout(ctx context.Context, a about.About) (about.About, error)
	LegalText(ctx context.Context, f about.LegalField) (string, error)
	SaveLegal(ctx context.Context, l about.Legal) (about.Legal, error)
	Testimonials(ctx context.Context) ([]about.Testimonial, error)
	CreateTestimonial(ctx context.Context, t about.Testimonial) (about.Testimonial, error)
	Socials(ctx context.Context) (about.Socials, error)
	SaveSocials(ctx context.Context, in about.NewSocials) (about.Socials, error)
}

// Deps carries everything the router needs. Stripe and Feed may be nil.
type Deps struct {
	Keys          *auth.Keys
	Revoker       auth.Revoker
	Accounts      Accounts
	Catalog       Catalog
	Carts         Carts
	Orders        Orders
	Payments      Payments
	Stripe        StripeWebhooks
	Reports       Reports
	Content       Content
	Feed          http.Handler
	Ready         func(ctx context.Context) error
	Origins       []string
	SecureCookies bool
}

type Handler struct {
	keys          *auth.Keys
	revoker       auth.Revoker
	accounts      Accounts
	catalog       Catalog
	carts         Carts
	orders        Orders
	payments      Payments
	stripe        StripeWebhooks
	reports       Reports
	content       Content
	feed          http.Handler
	ready         func(ctx context.Context) error
	validate      *validator.Validate
	secureCookies bool
}

func NewHandler(d Deps) *Handler {
	revoker := d.Revoker
	if revoker == nil {
		revoker = auth.NewMemoryRevoker()
	}
	return &Handler{
		keys:          d.Keys,
		revoker:       revoker,
		accounts:      d.Accounts,
		catalog:       d.Catalog,
		carts:         d.Carts,
		orders:        d.Orders,
		payments:      d.Payments,
		stripe:        d.Stripe,
		reports:       d.Reports,
		content:       d.Content,
		feed:          d.Feed,
		ready:         d.Ready,
		validate:      validator.New(),
		secureCookies: d.SecureCookies,
	}
}

func API(endpointPrefix string, d Deps) *gin.Engine {
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode || mode == gin.TestMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()

	h := NewHandler(d)
	m, err := middleware.NewMid(d.Keys, h.revoker)
	if err != nil {
		panic(err)
	}

	r.Use(middleware.Logger(), gin.Recovery(), cors.New(corsConfig(d.Origins)))
	r.GET("/ping", h.HealthCheck)

	v1 := r.Group(endpointPrefix)

	// public
	{
		v1.POST("/account/register", h.Register)
		v1.POST("/account/login", h.Login)
		v1.POST("/account/token/refresh", h.Refresh)

		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/products/:id/reviews", h.ListReviews)
		v1.GET("/reviews/:id", h.GetReview)
		v1.GET("/categories", h.ListCategories)
		v1.GET("/categories/featured", h.FeaturedCategories)
		v1.GET("/categories/:id", h.GetCategory)
		v1.GET("/categories/:id/products", h.ProductsByCategory)

		v1.GET("/about/story", h.BrandStory)
		v1.GET("/about/legal/:field", h.LegalPage)
		v1.GET("/about/testimonials", h.Testimonials)
		v1.GET("/about/socials", h.Socials)

		v1.POST("/checkout/payments/stripe/webhook", h.StripeWebhook)
	}

	user := v1.Group("")
	user.Use(m.Authentication())
	{
		user.POST("/account/logout", m.Authorize(h.Logout, auth.RoleUser))
		user.GET("/account/profile", m.Authorize(h.Profile, auth.RoleUser))
		user.PUT("/account/profile", m.Authorize(h.UpdateProfile, auth.RoleUser))
		user.DELETE("/account/profile", m.Authorize(h.DeleteProfile, auth.RoleUser))

		user.GET("/account/addresses", m.Authorize(h.ListAddresses, auth.RoleUser))
		user.POST("/account/addresses", m.Authorize(h.CreateAddress, auth.RoleUser))
		user.GET("/account/addresses/:id", m.Authorize(h.GetAddress, auth.RoleUser))
		user.PUT("/account/addresses/:id", m.Authorize(h.UpdateAddress, auth.RoleUser))
		user.DELETE("/account/addresses/:id", m.Authorize(h.DeleteAddress, auth.RoleUser))

		user.POST("/reviews", m.Authorize(h.CreateReview, auth.RoleUser))
		user.PUT("/reviews/:id", m.Authorize(h.UpdateReview, auth.RoleUser))
		user.DELETE("/reviews/:id", m.Authorize(h.DeleteReview, auth.RoleUser))

		user.GET("/cart", m.Authorize(h.GetCart, auth.RoleUser))
		user.GET("/cart/items", m.Authorize(h.CartItems, auth.RoleUser))
		user.POST("/cart/add", m.Authorize(h.AddToCart, auth.RoleUser))
		user.PUT("/cart/items/:id", m.Authorize(h.UpdateCartItem, auth.RoleUser))
		user.DELETE("/cart/remove/:id", m.Authorize(h.RemoveCartItem, auth.RoleUser))
		user.DELETE("/cart/clear", m.Authorize(h.ClearCart, auth.RoleUser))

		user.GET("/checkout/orders", m.Authorize(h.ListOrders, auth.RoleUser))
		user.POST("/checkout/orders", m.Authorize(h.CreateOrder, auth.RoleUser))
		user.GET("/checkout/orders/:id", m.Authorize(h.GetOrder, auth.RoleUser))
		user.PUT("/checkout/orders/:id", m.Authorize(h.UpdateOrder, auth.RoleUser))
		user.PUT("/checkout/orders/:id/cancel", m.Authorize(h.CancelOrder, auth.RoleUser))
		user.PUT("/checkout/orders/:id/return", m.Authorize(h.ReturnOrder, auth.RoleUser))

		user.POST("/checkout/payments", m.Authorize(h.CreatePayment, auth.RoleUser))
		user.PUT("/checkout/payments/verify", m.Authorize(h.VerifyPayment, auth.RoleUser))
		user.GET("/checkout/payments/:id", m.Authorize(h.GetPayment, auth.RoleUser))
	}

	admin := v1.Group("/admin")
	admin.Use(m.Authentication())
	{
		admin.GET("/dashboard", m.Authorize(h.Dashboard, auth.RoleAdmin))
		admin.GET("/dashboard/export", m.Authorize(h.ExportDashboard, auth.RoleAdmin))
		admin.GET("/orders", m.Authorize(h.AdminListOrders, auth.RoleAdmin))
		admin.PUT("/orders/:id/status", m.Authorize(h.AdminUpdateOrderStatus, auth.RoleAdmin))
		admin.GET("/orders/feed", m.Authorize(h.OrderFeed, auth.RoleAdmin))

		admin.POST("/products", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		admin.PUT("/products/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		admin.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
		admin.POST("/categories", m.Authorize(h.CreateCategory, auth.RoleAdmin))

		admin.PUT("/about/story", m.Authorize(h.SaveBrandStory, auth.RoleAdmin))
		admin.PUT("/about/legal", m.Authorize(h.SaveLegal, auth.RoleAdmin))
		admin.POST("/about/testimonials", m.Authorize(h.CreateTestimonial, auth.RoleAdmin))
		admin.PUT("/about/socials", m.Authorize(h.SaveSocials, auth.RoleAdmin))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.TraceHeader)
	cfg.ExposeHeaders = []string{middleware.TraceHeader, "Content-Disposition"}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// HealthCheck answers the consul check; it reports 503 while the database is unreachable.
func (h *Handler) HealthCheck(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
