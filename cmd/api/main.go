package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	"spinsim/internal/config"
	"spinsim/internal/engine"
	"spinsim/internal/http-server/handlers/batch/history"
	"spinsim/internal/http-server/handlers/simulation/control"
	"spinsim/internal/http-server/handlers/simulation/start"
	"spinsim/internal/http-server/handlers/strategy"
	mwLogger "spinsim/internal/http-server/middleware/logger"
	"spinsim/internal/lib/logger/handler/slogpretty"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/repository"
	"spinsim/internal/storage/mysql"
	wsHandler "spinsim/internal/ws/handler"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting simulator api", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := mysql.Open(cfg.Storage.DSN)
	if err != nil {
		log.Error("failed to open storage", sl.Err(err))

		os.Exit(1)
	}

	sessionRepo := repository.NewBatchSessionRepository(db)
	strategyRepo := repository.NewStrategyRepository(db)

	hub := wsHandler.NewHub(log)
	go hub.Run()

	manager := engine.NewManager(log)

	sessionCache := cache.New(5*time.Minute, 10*time.Minute)

	startHandler := start.NewStart(log, manager, hub, sessionRepo)
	controlHandler := control.NewControl(log, manager)
	historyHandler := history.NewHistory(log, sessionRepo, sessionCache)
	strategyHandler := strategy.NewStrategy(log, strategyRepo)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/simulations", func(r chi.Router) {
			r.Post("/", startHandler.New())
			r.Post("/{uuid}/control", controlHandler.New())
			r.Get("/{uuid}/status", controlHandler.Status())
			r.Get("/{uuid}/result", controlHandler.Result())
		})

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", historyHandler.List())
			r.Get("/{uuid}", historyHandler.Get())
			r.Delete("/{uuid}", historyHandler.Delete())
		})

		r.Route("/strategies", func(r chi.Router) {
			r.Post("/", strategyHandler.Save())
			r.Get("/", strategyHandler.List())
			r.Get("/{name}", strategyHandler.Get())
			r.Delete("/{name}", strategyHandler.Delete())
		})
	})

	router.Get("/ws", hub.HandleConnection)

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err = srv.ListenAndServe(); err != nil {
		log.Error("failed to start server", sl.Err(err))
	}

	log.Error("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
