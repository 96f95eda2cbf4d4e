package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/config"
	"github.com/iamasit07/blokus-client/internal/repository/postgres"
	"github.com/iamasit07/blokus-client/internal/repository/redis"
	"github.com/iamasit07/blokus-client/internal/service/bot"
	"github.com/iamasit07/blokus-client/internal/service/game"
	transportHttp "github.com/iamasit07/blokus-client/internal/transport/http"
	"github.com/iamasit07/blokus-client/internal/transport/tcp"
	"github.com/iamasit07/blokus-client/internal/transport/websocket"
	"github.com/iamasit07/blokus-client/pkg/logger"
	"github.com/iamasit07/blokus-client/pkg/uid"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	envErr := godotenv.Load()

	cfg, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		cfg.PrintUsage(os.Stderr)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitUsage
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitUsage
	}
	defer log.Sync()

	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}

	runID := uid.GenerateRunID()
	log = log.With(zap.String("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := game.NewStatusTracker(runID)
	observers := []game.Observer{tracker}
	var recorders game.MultiRecorder
	var results transportHttp.ResultLister

	// Result storage
	if cfg.DatabaseURL != "" {
		db, repo, err := openResults(ctx, cfg, log)
		if err != nil {
			log.Error("postgres unavailable, results will not be stored", zap.Error(err))
		} else {
			defer db.Close()
			recorders = append(recorders, repo)
			results = repo
		}
	}

	// Live session cache
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword, log.Named("redis"))
		if err != nil {
			log.Error("redis unavailable, session will not be cached", zap.Error(err))
		} else {
			defer client.Close()
			cache := redis.NewSessionCache(client, cfg.RedisTTL, log.Named("redis"))
			defer cache.Stop()
			observers = append(observers, cache)
			recorders = append(recorders, cache)
		}
	}

	// Watch surface
	if cfg.WatchPort != "" {
		hub := websocket.NewHub(cfg.WatchAllowedOrigins, func() any { return tracker.Status() }, log.Named("watch"))
		defer hub.Close()
		observers = append(observers, hub)

		srv := newWatchServer(cfg, tracker, results, hub, log.Named("watch"))
		defer shutdown(srv, log)
	}

	conn, err := tcp.Dial(ctx, cfg.Host, cfg.Port, tcp.Options{
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxFrameSize: cfg.MaxFrameBytes,
	}, log.Named("transport"))
	if err != nil {
		log.Error("could not reach the game server", zap.Error(err))
		return exitFailed
	}

	opts := game.Options{
		RunID:            runID,
		GameType:         cfg.GameType,
		Reservation:      cfg.Reservation,
		DefaultTimeLimit: cfg.MoveTimeout,
		TimeMargin:       cfg.MoveTimeMargin,
		InboxSize:        cfg.InboxSize,
	}
	if cfg.PassOnEmpty {
		opts.Pass = game.SkipOnEmpty
	}

	engine := game.NewEngine(conn, bot.New(cfg.Policy, cfg.PolicySeed), opts, log)
	for _, o := range observers {
		engine.AddObserver(o)
	}
	if len(recorders) > 0 {
		engine.SetRecorder(recorders)
	}

	log.Info("starting session",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("policy", cfg.Policy),
		zap.Bool("reserved", cfg.Reservation != ""))

	out, err := engine.Run(ctx)
	if err != nil {
		return exitFailed
	}
	if out.Result != nil {
		log.Info("game over", zap.String("game_id", out.GameID), zap.String("winner", out.Result.WinnerName()))
	}
	return exitOK
}

func openResults(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sql.DB, *postgres.ResultRepo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin, log.Named("postgres"))
	if err != nil {
		return nil, nil, err
	}
	return db, postgres.NewResultRepo(db, log.Named("postgres")), nil
}

func newWatchServer(cfg *config.Config, tracker *game.StatusTracker, results transportHttp.ResultLister, hub *websocket.Hub, log *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	handler := transportHttp.NewWatchHandler(tracker, results, log)
	router := transportHttp.NewRouter(handler, hub.ServeWS, cfg.WatchAllowedOrigins, log)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.WatchPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("watch server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("watch server error", zap.Error(err))
		}
	}()
	return srv
}

func shutdown(srv *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("watch server forced to shutdown", zap.Error(err))
	}
}
