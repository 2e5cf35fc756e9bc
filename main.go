package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	consulapi "github.com/hashicorp/consul/api"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"storefront-service/handlers"
	"storefront-service/internal/about"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/config"
	"storefront-service/internal/consul"
	"storefront-service/internal/dashboard"
	"storefront-service/internal/feed"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/products"
	"storefront-service/internal/stores/kafka"
	"storefront-service/internal/stores/postgres"
	"storefront-service/internal/stores/redis"
	"storefront-service/internal/users"
)

func main() {
	setupSlog()
	if err := startApp(); err != nil {
		slog.Error("storefront stopped", slog.String("Error", err.Error()))
		os.Exit(1)
	}
}

func setupSlog() {
	opts := &slog.HandlerOptions{AddSource: true}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if os.Getenv("GIN_MODE") == gin.ReleaseMode {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func startApp() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	db, err := postgres.OpenDB(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.RunMigrations {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}
	gdb, err := postgres.OpenGorm(db)
	if err != nil {
		return err
	}

	keys, err := auth.NewKeys(cfg.JWTSecret, cfg.ServiceName, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return err
	}
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.RedisAddr != "" {
		rdb, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisPass)
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoker = redis.NewRevoker(rdb)
	}

	events, err := kafka.NewConf(cfg.Brokers(), cfg.ServiceName)
	if err != nil {
		return err
	}
	defer events.Close()

	hub := feed.NewHub(cfg.AllowedOrigins())
	defer hub.Close()

	d, err := buildDeps(cfg, db, gdb, events, hub)
	if err != nil {
		return err
	}
	d.Keys = keys
	d.Revoker = revoker

	api := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handlers.API(cfg.EndpointPrefix, d),
	}

	var grpcServer *grpc.Server
	if cfg.GrpcPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GrpcPort))
		if err != nil {
			return fmt.Errorf("failed to listen on grpc port: %w", err)
		}
		grpcServer = grpc.NewServer()
		handlers.RegisterCartItemService(grpcServer, handlers.NewCartItemServiceHandler(d.Carts))
		go func() {
			slog.Info("grpc server started", slog.Int("Port", cfg.GrpcPort))
			if err := grpcServer.Serve(lis); err != nil {
				slog.Error("grpc server stopped", slog.String("Error", err.Error()))
			}
		}()
	}

	var (
		consulClient   *consulapi.Client
		registrationID string
	)
	if cfg.ConsulAddr != "" {
		consulClient, err = consul.NewClient(cfg.ConsulAddr)
		if err != nil {
			return err
		}
		registrationID, err = consul.RegisterService(consulClient, cfg.ServiceName, cfg.Host, cfg.Port)
		if err != nil {
			slog.Warn("service registration failed", slog.String("Error", err.Error()))
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("http server started", slog.String("Addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))
		if registrationID != "" {
			if err := consul.DeregisterService(consulClient, registrationID); err != nil {
				slog.Warn("deregistration failed", slog.String("Error", err.Error()))
			}
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			_ = api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

// buildDeps wires the domain services onto the shared database handles.
func buildDeps(cfg *config.Config, db *sql.DB, gdb *gorm.DB, events *kafka.Conf, hub *feed.Hub) (handlers.Deps, error) {
	accounts, err := users.NewConf(db)
	if err != nil {
		return handlers.Deps{}, err
	}
	catalog, err := products.NewConf(gdb)
	if err != nil {
		return handlers.Deps{}, err
	}
	content, err := about.NewConf(gdb)
	if err != nil {
		return handlers.Deps{}, err
	}

	cartStore, err := cart.NewSQLStore(db)
	if err != nil {
		return handlers.Deps{}, err
	}
	carts, err := cart.NewService(cartStore)
	if err != nil {
		return handlers.Deps{}, err
	}

	orderStore, err := orders.NewSQLStore(db)
	if err != nil {
		return handlers.Deps{}, err
	}
	orderSvc, err := orders.NewService(orderStore, events, hub)
	if err != nil {
		return handlers.Deps{}, err
	}

	paymentStore, err := payments.NewSQLStore(db)
	if err != nil {
		return handlers.Deps{}, err
	}
	opts := []payments.Option{payments.WithEvents(events), payments.WithStatusNotifier(orderSvc)}
	if cfg.RazorpayKey != "" {
		rp, err := payments.NewRazorpayGateway(cfg.RazorpayKey, cfg.RazorpaySecret)
		if err != nil {
			return handlers.Deps{}, err
		}
		opts = append(opts, payments.WithGateway(payments.MethodRazorpay, rp))
	}
	var webhooks handlers.StripeWebhooks
	if cfg.StripeKey != "" {
		sg, err := payments.NewStripeGateway(cfg.StripeKey, cfg.StripeWebhookSecret, nil)
		if err != nil {
			return handlers.Deps{}, err
		}
		opts = append(opts, payments.WithGateway(payments.MethodStripe, sg))
		webhooks = sg
	}
	paymentSvc, err := payments.NewService(paymentStore, cfg.Currency, opts...)
	if err != nil {
		return handlers.Deps{}, err
	}

	src, err := dashboard.NewSQLSource(db)
	if err != nil {
		return handlers.Deps{}, err
	}
	reports, err := dashboard.NewService(src)
	if err != nil {
		return handlers.Deps{}, err
	}

	return handlers.Deps{
		Accounts:      accounts,
		Catalog:       catalog,
		Carts:         carts,
		Orders:        orderSvc,
		Payments:      paymentSvc,
		Stripe:        webhooks,
		Reports:       reports,
		Content:       content,
		Feed:          hub,
		Ready:         db.PingContext,
		Origins:       cfg.AllowedOrigins(),
		SecureCookies: cfg.CookieSecure,
	}, nil
}
