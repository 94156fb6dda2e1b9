package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/api/handlers"
	"github.com/maheshrc27/socialflow/internal/api/middleware"
	"github.com/maheshrc27/socialflow/internal/graph"
	job "github.com/maheshrc27/socialflow/internal/jobs"
	"github.com/maheshrc27/socialflow/internal/lock"
	"github.com/maheshrc27/socialflow/internal/metrics"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/publisher"
	"github.com/maheshrc27/socialflow/internal/queue"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/migrations"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.AppEnv == "production" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}
	if err := migrations.Apply(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	metrics.Register()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "path", c.Path(), "error", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	// repositories
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	pageRepo := repository.NewSocialPageRepository(db)
	postRepo := repository.NewPostRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	unitRepo := repository.NewScheduledPostRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	historyRepo := repository.NewPostingHistoryRepository(db)

	graphClient := graph.NewClient(cfg.Graph, nil)

	// services
	vault, err := service.NewTokenVault(*cfg, pageRepo, graphClient)
	if err != nil {
		log.Fatalf("Failed to set up token vault: %v", err)
	}
	authService := service.NewAuthService(*cfg, tx, userRepo, pageRepo, vault, graphClient)
	userService := service.NewUserService(userRepo)
	pageService := service.NewPageService(pageRepo, vault)
	postService := service.NewPostService(tx, postRepo, unitRepo, pageRepo, mediaRepo, postMediaRepo, historyRepo)
	analyticsService := service.NewAnalyticsService(tx, unitRepo, pageRepo, analyticsRepo, vault, graphClient)

	var mediaService service.MediaService
	var composer publisher.StoryComposer
	if r2, err := service.NewR2Service(*cfg); err != nil {
		slog.Warn("media storage disabled", "error", err)
	} else {
		mediaService = service.NewMediaService(r2, mediaRepo, &http.Client{Timeout: time.Minute})
		composer = mediaService
	}

	registry := publisher.NewRegistry()
	registry.Register(models.PlatformFacebook, publisher.NewFacebookPublisher(graphClient, publisher.Config{TranscodeHosts: cfg.TranscodeHosts}, composer))

	// jobs
	publishJob := job.NewPublishJob(unitRepo, postRepo, pageRepo, postMediaRepo, vault, registry,
		job.NewRetryPolicy(cfg.Scheduler), cfg.Scheduler.ClaimTTL).WithHistory(historyRepo)
	if cfg.Scheduler.TickLease > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
		defer rdb.Close()
		publishJob.WithLease(lock.NewRedisLease(rdb, "socialflow:scheduler:tick"), cfg.Scheduler.TickLease)
	}
	tokenCheckJob := job.NewTokenCheckJob(vault)

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := scheduler.AddJob(cfg.Scheduler.Spec, publishJob); err != nil {
		log.Fatalf("Invalid scheduler spec %q: %v", cfg.Scheduler.Spec, err)
	}
	if _, err := scheduler.AddJob(cfg.Scheduler.TokenCheckSpec, tokenCheckJob); err != nil {
		log.Fatalf("Invalid token check spec %q: %v", cfg.Scheduler.TokenCheckSpec, err)
	}
	scheduler.Start()

	// queue
	queueW := queue.NewQueue(tokenCheckJob, analyticsService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.AsynqConcurrency,
	})
	go func() {
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	// routes
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/auth/facebook", auth.Login)
	app.Get("/auth/facebook/callback", auth.LoginCallbackHandler)

	authMiddleware, err := middleware.NewAuthMiddleware(*cfg)
	if err != nil {
		log.Fatalf("Failed to set up auth middleware: %v", err)
	}
	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(*cfg, userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Delete("/user", user.RemoveUser)

	post := handlers.NewPostHandler(postService, analyticsService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Get("/posts/:id/analytics", post.GetPostAnalytics)
	api.Get("/posts/:id/history", post.GetPostHistory)
	api.Get("/scheduled-posts", post.ListScheduled)
	api.Delete("/scheduled-posts/:id", post.RemoveScheduled)

	if mediaService != nil {
		media := handlers.NewMediaHandler(mediaService)
		api.Post("/media/upload", media.Upload)
		api.Get("/media", media.List)
		api.Delete("/media/:id", media.Remove)
	}

	pages := handlers.NewPageHandler(pageService)
	api.Get("/pages", pages.ListPages)
	api.Post("/pages", pages.AddPage)
	api.Delete("/pages/:id", pages.RemovePage)

	admin := handlers.NewAdminHandler(client, postService, pageService)
	api.Post("/admin/tokens/check", admin.CheckTokens)
	api.Post("/admin/analytics/sync", admin.SyncAnalytics)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, scheduler, server, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, scheduler *cron.Cron, server *asynq.Server, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	// Let a running tick finish writing its unit outcomes.
	<-scheduler.Stop().Done()
	server.Shutdown()

	closeDB(db)
	log.Println("Server shutdown complete.")
}
