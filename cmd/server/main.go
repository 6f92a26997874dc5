package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namerush/namerush-backend/internal/cache"
	"github.com/namerush/namerush-backend/internal/config"
	"github.com/namerush/namerush-backend/internal/httpapi"
	"github.com/namerush/namerush-backend/internal/hub"
	"github.com/namerush/namerush-backend/internal/store"
	"github.com/namerush/namerush-backend/internal/ws"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("bad redis url", zap.Error(err))
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis unreachable", zap.Error(err))
	}

	st, err := store.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("postgres unreachable", zap.Error(err))
	}

	snapshots := cache.NewRedisStore(rdb, cfg.LobbyTTL, log)
	h := hub.NewHub(ctx, snapshots, st, st, log)
	reg := ws.NewRegistry()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, st, snapshots, reg, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
