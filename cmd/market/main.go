package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_market/internal/cache"
	"github.com/fjod/go_market/internal/config"
	"github.com/fjod/go_market/internal/domain"
	h "github.com/fjod/go_market/internal/http"
	"github.com/fjod/go_market/internal/logger"
	"github.com/fjod/go_market/internal/notify"
	"github.com/fjod/go_market/internal/poller"
	"github.com/fjod/go_market/internal/repository"
	"github.com/fjod/go_market/internal/service"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, "market"))

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to MongoDB", "database", cfg.MongoDBName)

	carts := repository.NewMongoCartRepository(mongoDB)
	wishlists := repository.NewMongoWishlistRepository(mongoDB)
	orders := repository.NewMongoOrderRepository(mongoDB)
	reviews := repository.NewMongoReviewRepository(mongoDB)
	products := repository.NewMongoProductRepository(mongoDB)
	contacts := repository.NewMongoContactRepository(mongoDB)
	tx := repository.NewMongoTransactor(mongoDB.Client(), cfg.MongoTransactions)

	if err := repository.EnsureIndexes(ctx, carts, wishlists, orders, reviews, products); err != nil {
		slog.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	slog.Info("redis ping succeeded")

	// Notification channels. Email and SMS are optional.
	var email notify.EmailSender
	if cfg.SMTPHost != "" {
		email = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}
	var sms notify.SMSSender
	if cfg.SMSBaseURL != "" {
		sms = notify.NewHTTPSMSSender(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSFrom, cfg.SMSTimeout)
	}
	realtime := notify.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	dispatcher := notify.NewDispatcher(email, sms, realtime)

	pricing := domain.Pricing{
		TaxRate:               cfg.TaxRate,
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}

	cartService := service.NewCartService(carts, products, cache.NewRedisCache[domain.Cart](redisClient, "cart", cfg.CacheTTL))
	wishlistService := service.NewWishlistService(wishlists, products, cartService)
	orderService := service.NewOrderService(orders, products, contacts, cartService, dispatcher, pricing)
	reviewService := service.NewReviewService(reviews, orders, products, tx)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	alertPoller := poller.NewAlertPoller(wishlistService, dispatcher, contacts, cfg.AlertInterval)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		alertPoller.Run(pollerCtx)
	}()

	router := h.NewRouter(h.Handlers{
		Cart:     h.NewCartHandler(cartService, cfg.RequestTimeout),
		Wishlist: h.NewWishlistHandler(wishlistService, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(orderService, cfg.RequestTimeout),
		Reviews:  h.NewReviewHandler(reviewService, cfg.RequestTimeout),
		Products: h.NewProductHandler(products, cfg.RequestTimeout),
	}, h.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "market"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("market API starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	stopPoller()
	<-pollerDone
	orderService.Wait()

	if err := realtime.Close(); err != nil {
		slog.Error("failed to close kafka writer", "error", err)
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		slog.Error("failed to disconnect from MongoDB", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down tracer provider", "error", err)
	}

	slog.Info("server exited")
}
