package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bakery-shop-backend/internal/cache"
	"bakery-shop-backend/internal/config"
	"bakery-shop-backend/internal/controller"
	"bakery-shop-backend/internal/health"
	"bakery-shop-backend/internal/middleware"
	"bakery-shop-backend/internal/rabbit"
	"bakery-shop-backend/internal/repository"
	"bakery-shop-backend/internal/service"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		return run(ctx, lg, m, config.Load())
	})
}

func run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *config.Config) error {
	lg.Info("Initializing", zap.String("port", cfg.Port), zap.String("auth_mode", cfg.AuthMode))

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("mongodb", 5*time.Second, func(ctx context.Context) error {
		return db.Client().Ping(ctx, readpref.Primary())
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	productCache, closeCache := newProductCache(cfg, healthSvc, lg)
	defer closeCache()

	services, err := newServices(cfg, db, productCache, lg)
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(lg),
		middleware.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.FrontendURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	healthSvc.Register(engine)
	controller.RegisterRoutes(engine, services)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Handler: otelhttp.NewHandler(engine, "bakery-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.RabbitURL != "" {
		if err := startMessaging(ctx, g, cfg, db, services.Orders, lg); err != nil {
			return err
		}
	} else {
		lg.Warn("RABBIT_URL not set, order events stay in the outbox")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.DrainDelay))
		time.Sleep(cfg.DrainDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

// newProductCache returns the Redis product cache when REDIS_ADDR is set and
// a no-op cache otherwise.
func newProductCache(cfg *config.Config, healthSvc *health.Health, lg *zap.Logger) (cache.ProductCache, func()) {
	if cfg.RedisAddr == "" {
		lg.Info("REDIS_ADDR not set, product cache disabled")
		return cache.Nop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})
	healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return cache.NewRedisCache(client), func() { _ = client.Close() }
}

func newServices(cfg *config.Config, db *mongo.Database, productCache cache.ProductCache, lg *zap.Logger) (controller.Services, error) {
	tx := repository.NewTransactor(db)
	users := repository.NewMongoUserRepository(db)
	orders := repository.NewMongoOrderRepository(db)

	offers, err := service.LoadOfferCatalog(cfg.RewardOffersFile)
	if err != nil {
		return controller.Services{}, errors.Wrap(err, "load reward offers")
	}

	var verifier service.TokenVerifier
	switch cfg.AuthMode {
	case "jwt":
		verifier = service.NewJWTVerifier(cfg.JWTSecret, time.Duration(cfg.JWTExpireDays)*24*time.Hour, users)
	case "remote":
		verifier = service.NewRemoteVerifier(cfg.AuthURL, users)
	default:
		return controller.Services{}, errors.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}

	catalog := service.NewCatalogService(repository.NewMongoCatalogRepository(db), productCache, lg.Named("catalog"))

	return controller.Services{
		Verifier: verifier,
		Orders: service.NewOrderService(service.OrderDeps{
			Tx:       tx,
			Orders:   orders,
			Counters: repository.NewMongoCounterRepository(db),
			Users:    users,
			Carts:    repository.NewMongoCartRepository(db),
			Outbox:   repository.NewMongoOutboxRepository(db),
			Catalog:  catalog,
		}, service.OrderConfig{
			Pricing: service.PricingPolicy{
				FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
				DeliveryFee:           cfg.DeliveryFee,
				TaxRate:               cfg.TaxRate,
				PointsPerUnit:         cfg.PointsPerUnit,
			},
			VerifyPrices: cfg.VerifyPrices,
			CancelWindow: cfg.CancelWindow,
		}, lg.Named("orders")),
		Catalog:   catalog,
		Carts:     service.NewCartService(repository.NewMongoCartRepository(db), catalog),
		Addresses: service.NewAddressService(tx, repository.NewMongoAddressRepository(db)),
		Payments:  service.NewPaymentService(tx, repository.NewMongoPaymentMethodRepository(db)),
		Users:     service.NewUserService(users, orders, repository.NewMongoFavouriteRepository(db), catalog),
		Rewards:   service.NewRewardService(users, offers),
	}, nil
}

// startMessaging declares the topology and runs the outbox relay and the
// kitchen status consumer on separate channels.
func startMessaging(ctx context.Context, g *errgroup.Group, cfg *config.Config, db *mongo.Database, orders *service.OrderService, lg *zap.Logger) error {
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		return errors.Wrap(err, "dial rabbitmq")
	}
	pubCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "open publish channel")
	}
	if err := rabbit.Declare(pubCh); err != nil {
		_ = conn.Close()
		return err
	}
	subCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "open consume channel")
	}

	relay := rabbit.NewRelay(repository.NewMongoOutboxRepository(db), pubCh, cfg.OutboxPollInterval, lg.Named("relay"))
	consumer := rabbit.NewKitchenStatusConsumer(orders, lg.Named("kitchen"))

	g.Go(func() error { return relay.Run(ctx) })
	g.Go(func() error { return rabbit.ConsumeKitchenStatus(ctx, subCh, consumer, lg.Named("kitchen")) })
	g.Go(func() error {
		<-ctx.Done()
		_ = conn.Close()
		return nil
	})
	return nil
}
