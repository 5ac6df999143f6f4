package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/migrate"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool, logger); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	var productCache productsvc.Cache
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Printf("redis unavailable at %s, product cache disabled: %v", cfg.RedisAddr, err)
		} else {
			productCache = cache.NewProductLists(rdb, cfg.CacheTTL, logger)
			logger.Printf("product cache enabled addr=%s ttl=%s", cfg.RedisAddr, cfg.CacheTTL)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 256, logger)
		logger.Printf("order events enabled brokers=%v topic=%s", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	productService := productsvc.New(productrepo.NewPostgres(dbpool, logger), productCache, logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), publisher, cfg.ServiceName, logger)
	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), logger)

	schemaCheck := func(ctx context.Context) (migrate.Schema, error) { return migrate.Check(ctx, dbpool) }
	srv, err := httpserver.New(cfg.HTTPAddr, logger, schemaCheck, httpserver.Deps{
		ProductSvc: productService,
		OrderSvc:   orderService,
		UserSvc:    userService,
	}, cfg.CORSOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
