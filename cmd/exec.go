package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"esports-platform/config"
	"esports-platform/internal/bracket"
	"esports-platform/internal/handlers"
	"esports-platform/internal/notify"
	"esports-platform/internal/services"
	"esports-platform/internal/store"
	_ "esports-platform/migrations"
	"esports-platform/monitoring"
	"esports-platform/security"
	"esports-platform/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Redis only backs rate limiting and health reporting; run without it
	// when it is unreachable.
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, rate limiting disabled", "error", err)
		redisClient.Close()
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Notifications
	var publisher notify.Publisher = notify.LogPublisher{}
	if cfg.PubNubEnabled() {
		publisher = notify.NewPubNubPublisher(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey)
	} else {
		log.Println("PubNub keys not set, notifications are only logged")
	}
	breaker := utils.NewCircuitBreaker("pubnub", uint32(cfg.NotifyBreakerThreshold), cfg.NotifyBreakerCooldown)
	notifier := notify.NewNotifier(publisher, breaker)

	// Initialize services
	st := store.New(app)
	monitor := monitoring.NewMonitor(redisClient, st)

	ticketService := services.NewTicketService(st)
	eventService := services.NewEventService(st, ticketService, monitor, cfg.TicketFee)
	bracketService := services.NewBracketService(st, bracket.NewPlanner(), notifier, monitor)
	paymentService := services.NewPaymentService(ticketService, cfg.WebhookSecret, notifier, monitor)
	dashboardService := services.NewDashboardService(st, ticketService)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(eventService)
	ticketHandler := handlers.NewTicketHandler(ticketService)
	bracketHandler := handlers.NewBracketHandler(bracketService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	limiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		log.Println("Shutdown signal received, cleaning up...")
		cancel()
		return e.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if cfg.EnableMetrics {
			go monitor.Run(ctx, cfg.MetricsInterval)
		}

		api := se.Router.Group("/api/v1")

		// Event registry
		api.GET("/events", eventHandler.ListEvents)
		api.GET("/events/{id}", eventHandler.GetEvent)
		api.GET("/events/{id}/participants", eventHandler.GetParticipants)
		api.POST("/events", eventHandler.CreateEvent).Bind(apis.RequireAuth())
		api.PATCH("/events/{id}", eventHandler.UpdateEvent).Bind(apis.RequireAuth())
		api.DELETE("/events/{id}", eventHandler.DeleteEvent).Bind(apis.RequireAuth())
		api.POST("/events/{id}/join", eventHandler.JoinEvent).
			Bind(apis.RequireAuth()).
			BindFunc(limiter.BlockBots()).
			BindFunc(limiter.Limit("join", cfg.RegistrationRateLimit, cfg.RateLimitWindow))

		// Ticket ledger
		api.GET("/tickets", ticketHandler.ListTickets).Bind(apis.RequireAuth())

		// Brackets
		api.GET("/events/{id}/bracket", bracketHandler.GetBracket)
		api.GET("/events/{id}/matches", bracketHandler.ListMatches).Bind(apis.RequireAuth())
		api.POST("/events/{id}/matches", bracketHandler.GenerateBracket).Bind(apis.RequireAuth())
		api.POST("/events/{id}/matches/{matchId}/start", bracketHandler.StartMatch).Bind(apis.RequireAuth())
		api.POST("/events/{id}/matches/{matchId}/result", bracketHandler.ReportResult).Bind(apis.RequireAuth())

		// Payment provider callback
		api.POST("/webhooks/payment", paymentHandler.PaymentWebhook).
			BindFunc(limiter.Limit("webhook", cfg.WebhookRateLimit, cfg.RateLimitWindow))

		// Dashboard
		api.GET("/dashboard", dashboardHandler.GetDashboard).Bind(apis.RequireAuth())

		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		se.Router.GET("/health", healthHandler(st, redisClient))

		log.Println("Server routes registered")

		return se.Next()
	})

	// Serve on the configured port when no subcommand is given.
	if len(os.Args) == 1 {
		app.RootCmd.SetArgs([]string{"serve", "--http=0.0.0.0:" + cfg.Port})
	}

	return app.Start()
}

func healthHandler(st *store.Store, redisClient *redis.Client) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		checks := map[string]string{"database": "ok", "redis": "disabled"}
		healthy := true

		if err := st.Ping(); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := utils.RedisHealthCheck(e.Request.Context(), redisClient); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		if !healthy {
			return e.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"checks": checks,
			})
		}
		return e.JSON(http.StatusOK, map[string]any{
			"status": "healthy",
			"checks": checks,
		})
	}
}
