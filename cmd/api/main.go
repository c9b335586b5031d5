package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/xin-kz910/SE-project/internal/config"
	"github.com/xin-kz910/SE-project/internal/db"
	"github.com/xin-kz910/SE-project/internal/handlers"
	"github.com/xin-kz910/SE-project/internal/middleware"
	"github.com/xin-kz910/SE-project/internal/realtime"
	"github.com/xin-kz910/SE-project/internal/services/catalog"
	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
	"github.com/xin-kz910/SE-project/internal/storage"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	if err := db.AutoMigrate(gdb); err != nil {
		logger.Fatal().Err(err).Msg("auto migrate failed")
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("artifact store unavailable")
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = realtime.NewRedis(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable")
		}
		go realtime.RunRelay(ctx, rdb, hub)
	} else {
		logger.Info().Msg("redis disabled, notifications stay in this process")
	}

	engine := lifecycle.New(gdb, store, &realtime.Notifier{Hub: hub, RDB: rdb}, cfg.MaxUploadBytes())
	cat := catalog.New(gdb)

	var locker storage.Locker
	if rdb != nil {
		locker = storage.RedisLocker{RDB: rdb}
	}
	sweeper := storage.NewSweeper(gdb, store, cfg.Sweep.Grace, locker)
	if err := sweeper.StartScheduler(cfg.Sweep.Spec); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.Sweep.Spec).Msg("orphan sweep schedule invalid")
	}
	defer sweeper.StopScheduler()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1<<20,
	})

	app.Use(requestid.New())
	app.Use(recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: logger.StackTraceHandler,
	}))
	app.Use(logger.FiberLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	auth := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWT.Secret,
		Expires:   cfg.JWT.ExpiresMin,
		Secure:    strings.HasPrefix(cfg.App.PublicBaseURL, "https://"),
	}
	routes := &handlers.Routes{
		Projects: handlers.NewProjectHandler(engine, cat),
		Files:    &handlers.FileHandler{Store: store, Catalog: cat},
		Auth:     auth,
		Hub:      hub,
		Limiter:  middleware.NewIPRateLimiter(cfg.Login.RatePerSecond, cfg.Login.Burst),
	}
	if cfg.Google.Enabled() {
		routes.Google = handlers.NewGoogleOAuthHandler(auth, cfg.Google)
	}
	routes.Mount(app, cfg.JWT.Secret)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Infof("listening on :%s", cfg.App.Port)
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
