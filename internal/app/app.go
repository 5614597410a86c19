package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/auth"
	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/config"
	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/game"
	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/httpapi"
	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/store"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	srv *http.Server
}

type Options struct {
	Static http.Handler // optional; if nil, no frontend is served
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	// --- Postgres ---
	dbpool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})

	// Connectivity checks with a short backoff: контейнеры рядом могут
	// подниматься чуть дольше самого сервера.
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// go-retry backoff-ы одноразовые: WithMaxDuration отсчитывает с первого Next
	newBackoff := func() retry.Backoff {
		return retry.WithMaxDuration(15*time.Second, retry.NewConstant(500*time.Millisecond))
	}

	if err := retry.Do(pingCtx, newBackoff(), func(ctx context.Context) error {
		if err := dbpool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := retry.Do(pingCtx, newBackoff(), func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		dbpool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
	}

	// --- Auth service ---
	authSvc := auth.NewService([]byte(cfg.Auth.Secret))

	// --- Stores ---
	users := store.NewUserStore(dbpool)

	authH := &httpapi.AuthHandler{
		Users:    users,
		Auth:     authSvc,
		TokenTTL: cfg.Auth.TokenTTL,
	}

	// --- Game ---
	persist := game.NewRedisSessionStore(rdb, cfg.Redis.SessionTTL)
	gameCfg := game.Config{
		TurnDuration: cfg.Game.TurnDuration,
		MaxTurns:     cfg.Game.MaxTurns,
		HintTimeout:  cfg.Game.HintTimeout,
	}
	sessionSvc := game.NewSessionService(gameCfg, persist)
	gameSrv := game.NewServer(gameCfg, sessionSvc, authSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gameSrv.RegisterRoutes(mux)

	// --- auth routes ---
	mux.HandleFunc("/api/auth/register", authH.Register)
	mux.HandleFunc("/api/auth/login", authH.Login)
	mux.Handle("/api/me", httpapi.AuthMiddleware(authSvc)(http.HandlerFunc(authH.Me)))

	if opts.Static != nil {
		mux.Handle("/", opts.Static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, db: dbpool, rdb: rdb, srv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		return a.srv.Shutdown(shutdownCtx)
	})

	return multierr.Combine(g.Wait(), a.Close())
}

func (a *App) Close() error {
	var errs error
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		errs = multierr.Append(errs, a.rdb.Close())
	}
	return errs
}
