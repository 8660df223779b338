package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"busledger/internal/config"
	"busledger/internal/handlers"
	"busledger/internal/middleware"
	"busledger/internal/repositories/interfaces"
	"busledger/internal/repositories/memory"
	mongorepo "busledger/internal/repositories/mongodb"
	"busledger/internal/services"
	"busledger/internal/utils"
	"busledger/pkg/cache"
	"busledger/pkg/database"
	"busledger/pkg/logger"
	"busledger/pkg/websocket"
	"busledger/routes"

	"github.com/gin-gonic/gin"
)

type storage struct {
	tx          interfaces.Transactor
	bookingRepo interfaces.BookingRepository
	paymentRepo interfaces.PaymentRepository
	historyRepo interfaces.HistoryRepository
	tripRepo    interfaces.TripRepository
	ping        func(ctx context.Context) error
	close       func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	store, err := openStorage(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	defer store.close()

	tripRepo := store.tripRepo
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, trip lookups are not cached")
		} else {
			defer redisCache.Close()
			cacheService := services.NewCacheService(redisCache, log, "busledger", cfg.Booking.TripCacheTTL)
			tripRepo = services.NewCachedTripRepository(tripRepo, cacheService, cfg.Booking.TripCacheTTL, log)
		}
	}

	// Real-time seat feed
	wsHandler := websocket.NewHandler(websocket.Config{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingInterval:    cfg.WebSocket.PingInterval,
		PongTimeout:     cfg.WebSocket.PongTimeout,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
	}, log)
	defer wsHandler.Close()

	var publisher services.SeatEventPublisher
	if cfg.WebSocket.Enabled {
		publisher = services.NewSeatNotifier(wsHandler.GetHub())
	}

	// Services
	ledger := services.NewPaymentLedgerService(store.paymentRepo, log)
	audit := services.NewAuditService(store.historyRepo, log)
	status := services.NewBookingStatusService(store.bookingRepo, store.paymentRepo)
	bookingService := services.NewBookingService(
		store.tx, store.bookingRepo, tripRepo, ledger, audit, status, publisher, cfg.Booking, log,
	)

	bookingHandler := handlers.NewBookingHandler(
		bookingService, log, utils.LoadLocation(cfg.App.Timezone), !cfg.IsProduction(),
	)

	if cfg.IsProduction() || !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.WebSocket.AllowedOrigins))

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.TimeoutMiddleware(cfg.Booking.TransactionTimeout * 2))
	routes.SetupBookingRoutes(v1, bookingHandler)

	if cfg.WebSocket.Enabled {
		routes.SetupWebSocketRoutes(router, wsHandler)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := store.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
			"storage": cfg.Booking.StorageDriver,
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func openStorage(cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Booking.StorageDriver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			tx:          store,
			bookingRepo: memory.NewBookingRepository(store),
			paymentRepo: memory.NewPaymentRepository(store),
			historyRepo: memory.NewHistoryRepository(store),
			tripRepo:    memory.NewTripRepository(store),
			ping:        func(context.Context) error { return nil },
			close:       func() error { return nil },
		}, nil
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	topology, err := db.Topology(context.Background())
	switch {
	case err != nil:
		log.WithError(err).Warn("Could not determine MongoDB topology")
	case !topology.SupportsTransactions():
		log.Warn("MongoDB is a standalone server; booking units will run without transactions")
	default:
		log.WithField("replica_set", topology.ReplicaSet).Info("MongoDB supports transactions")
	}

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := database.NewMigrator(db.Database, log).Up(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &storage{
		tx:          mongorepo.NewTransactionCoordinator(db.Client, cfg.Booking.TransactionTimeout, log),
		bookingRepo: mongorepo.NewBookingRepository(db.Database),
		paymentRepo: mongorepo.NewPaymentRepository(db.Database),
		historyRepo: mongorepo.NewHistoryRepository(db.Database),
		tripRepo:    mongorepo.NewTripRepository(db.Database),
		ping:        db.Ping,
		close:       db.Close,
	}, nil
}
