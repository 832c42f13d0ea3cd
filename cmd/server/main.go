package main // Entry point package

import (
    "context" // startup deadline for the schema migration
    "log"     // Logging library
    "time"    // migration timeout duration

    "github.com/joho/godotenv"                   // loads .env files into the environment
    "github.com/labstack/echo/v4"                // Echo web framework
    echomw "github.com/labstack/echo/v4/middleware" // Echo's bundled middleware (CORS, recover)

    "github.com/iliyamo/hand-pose-trainer/internal/config"     // environment config loaders
    "github.com/iliyamo/hand-pose-trainer/internal/database"   // MySQL pool and schema bootstrap
    "github.com/iliyamo/hand-pose-trainer/internal/handler"    // HTTP handlers
    "github.com/iliyamo/hand-pose-trainer/internal/mailer"     // SMTP delivery for the consumer
    "github.com/iliyamo/hand-pose-trainer/internal/middleware" // identity, rate limit and cache middleware
    "github.com/iliyamo/hand-pose-trainer/internal/model"      // resource kinds
    "github.com/iliyamo/hand-pose-trainer/internal/queue"      // notification consumer
    "github.com/iliyamo/hand-pose-trainer/internal/repository" // DB repositories
    "github.com/iliyamo/hand-pose-trainer/internal/router"     // route registration
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	resets := repository.NewResetTokenRepo(db)

	// Redis backs the rate limiter and the community-feed cache. Both
	// middlewares no-op when the client is nil, so a missing Redis only
	// costs us throttling and caching, never availability.
	rdb := config.NewRedisClient()
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// The consumer turns queued account events into emails. With no SMTP
	// configured it still drains the queue and logs what it would send.
	go func() {
		if err := queue.StartNotificationConsumer(mailer.FromEnv()); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Use(middleware.ResolveIdentity(cfg.JWTSecret, users))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, resets), limit)
	for _, r := range []struct {
		kind   model.ResourceKind
		prefix string
	}{
		{model.KindSavedModel, "models"},
		{model.KindGestureMapping, "mappings"},
		{model.KindNoteSequence, "sequences"},
	} {
		h := handler.NewResourceHandler(repository.NewResourceRepo(db, r.kind))
		router.RegisterResources(e, h, r.prefix, cache)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
