package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/order-platform/config"
	"github.com/yeremiapane/order-platform/controllers"
	"github.com/yeremiapane/order-platform/database"
	"github.com/yeremiapane/order-platform/kds"
	"github.com/yeremiapane/order-platform/router"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)
	utils.SetJWTSecret(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		utils.InfoLogger.Warn("JWT_SECRET is not set, using the development secret")
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orders, restaurants, closeStore := openStores(ctx, cfg)
	defer closeStore()

	hub := kds.NewHub(utils.InfoLogger.WithField("component", "kds_hub"))
	notifiers := services.Notifiers{hub}

	// RabbitMQ opsional; tanpa URL event hanya dikirim ke layar dapur
	if cfg.RabbitMQURL != "" {
		publisher, err := services.NewEventPublisher(cfg.RabbitMQURL, utils.InfoLogger.WithField("component", "event_publisher"))
		if err != nil {
			utils.ErrorLogger.Errorf("RabbitMQ unavailable, order events stay local: %v", err)
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
		}
	}

	if cfg.RateLimitPerSecond == 0 {
		utils.InfoLogger.Warn("RATE_LIMIT_PER_SECOND is 0, rate limiting disabled")
	}

	orderService := services.NewOrderService(orders, restaurants, notifiers, utils.InfoLogger.WithField("component", "order_service"))

	r := router.SetupRouter(router.Dependencies{
		Orders:             orderService,
		Restaurants:        restaurants,
		Hub:                hub,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}
}

// openStores picks the order and restaurant stores for the configured driver.
func openStores(ctx context.Context, cfg *config.Config) (services.OrderStore, controllers.RestaurantRegistry, func()) {
	logger := utils.InfoLogger.WithFields(logrus.Fields{"driver": cfg.DB.Driver})

	if cfg.DB.Driver == "mongo" {
		client, db, err := config.InitMongo(ctx, cfg)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
		}
		orders := database.NewMongoOrderStore(db)
		if err := orders.EnsureIndexes(ctx); err != nil {
			utils.ErrorLogger.Fatalf("Failed to create indexes: %v", err)
		}
		logger.Info("Mongo store ready.")
		return orders, database.NewMongoRestaurantStore(db), func() {
			_ = client.Disconnect(context.Background())
		}
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	logger.Info("AutoMigrate completed.")

	return database.NewOrderStore(db), database.NewRestaurantStore(db), func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
