package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/database"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/middlewares"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/time/rate"
)

const recentEventLimit = 200

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}

	utils.SetLogLevel(cfg.Log.Level)
	if cfg.Log.Format == "json" {
		utils.UseJSONFormat()
	}
	utils.ConfigureJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize DB
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	// Event sinks: websocket clients, the in-memory feed, then the optional brokers
	hub := kds.NewHub()
	recorder := kds.NewRecorder(recentEventLimit)
	sinks := kds.Fanout{hub, recorder}

	deps := router.Deps{DB: db, Hub: hub, Recorder: recorder}

	if cfg.Events.RedisURL != "" {
		client, err := kds.NewRedisClient(ctx, cfg.Events.RedisURL)
		if err != nil {
			utils.ErrorLogger.Errorf("Redis unavailable, events stay local: %v", err)
		} else {
			defer client.Close()
			deps.Redis = client
			sinks = append(sinks, kds.NewRedisPublisher(client, cfg.Events.RedisChannel))
			utils.InfoLogger.Infof("Publishing events to redis channel %s", cfg.Events.RedisChannel)
		}
	}

	var kafkaPub *kds.KafkaPublisher
	if cfg.Events.KafkaBrokers != "" {
		kafkaPub = kds.NewKafkaPublisher(kds.NewKafkaWriter(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic))
		sinks = append(sinks, kafkaPub)
		utils.InfoLogger.Infof("Publishing events to kafka topic %s", cfg.Events.KafkaTopic)
	}

	timeout := cfg.Orders.TxTimeout
	deps.Tables = services.NewTableService(db, sinks, timeout)
	deps.Stock = services.NewStockService(db, sinks, timeout)
	deps.Menu = services.NewMenuService(db, sinks, timeout)
	deps.Orders = services.NewOrderService(db, deps.Tables, deps.Stock, sinks, services.OrderOptions{
		StockTrackedCategory: cfg.Orders.StockTrackedCategory,
		StrictTransitions:    cfg.Orders.StrictTransitions,
		TxTimeout:            timeout,
	})
	deps.Catalog = services.NewCatalogService(db)
	deps.Reports = services.NewReportService(db)

	if cfg.Seed {
		if err := database.Seed(ctx, db, deps.Menu); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
		}
	}

	deps.CORSOrigin = cfg.Server.CORSOrigin
	if cfg.RateLimitRPS > 0 {
		deps.APILimiter = middlewares.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), int(cfg.RateLimitRPS*2))
	}
	deps.LoginLimiter = middlewares.NewStrictRateLimiter()

	if cfg.Orders.LedgerAuditInterval > 0 {
		monitor := services.NewLedgerMonitor(deps.Stock, sinks)
		monitor.Interval = cfg.Orders.LedgerAuditInterval
		monitor.Start()
		defer monitor.Stop()
	}

	r := router.SetupRouter(deps)
	go housekeeping(ctx, deps.APILimiter, deps.LoginLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Graceful shutdown failed: %v", err)
	}
	hub.Close()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			utils.ErrorLogger.Errorf("Closing kafka writer: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// housekeeping drops expired blacklist entries and idle rate limiter visitors.
func housekeeping(ctx context.Context, limiters ...*middlewares.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := utils.CleanupBlacklist()
			for _, l := range limiters {
				if l != nil {
					n += l.Cleanup()
				}
			}
			if n > 0 {
				utils.InfoLogger.Debugf("Housekeeping removed %d stale entries", n)
			}
		}
	}
}
