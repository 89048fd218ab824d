package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/skillhub/chat-service/internal/api"
	"github.com/skillhub/chat-service/internal/client/profile"
	"github.com/skillhub/chat-service/internal/config"
	"github.com/skillhub/chat-service/internal/infra"
	"github.com/skillhub/chat-service/internal/pkg/jwt"
	"github.com/skillhub/chat-service/internal/pkg/tx"
	"github.com/skillhub/chat-service/internal/pkg/validator"
	"github.com/skillhub/chat-service/internal/realtime"
	db "github.com/skillhub/chat-service/internal/repository/postgres"
	"github.com/skillhub/chat-service/internal/rest"
	"github.com/skillhub/chat-service/internal/ws"
)

func main() {
	cfg := config.MustLoad()
	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, cfg.Service.Name, cfg.Platform.Env)

	dbRepo := db.New(cfg)
	defer dbRepo.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	notifier := realtime.New(rdb)

	profileClient := profile.New(cfg)
	defer profileClient.Close()

	vldtr := validator.New()
	jwtGenerator := jwt.New(cfg.Realtime.JWTSecret, cfg.Realtime.TokenTTL)

	handler := rest.New(dbRepo, profileClient, notifier, vldtr, jwtGenerator)
	gateway := ws.New(notifier, jwtGenerator)

	router := chi.NewRouter()

	// the websocket endpoint authenticates with its own connect token, so it
	// sits outside the bearer middleware chain
	router.Get("/api/chat/ws", gateway.ServeWS)

	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return infra.AuthInterceptorHTTP(next, cfg.Service.JWTSecret)
		})
		r.Use(func(next http.Handler) http.Handler {
			return infra.LoggerHTTP(next, logger)
		})
		r.Use(func(next http.Handler) http.Handler {
			return tx.TxMiddlewareHTTP(dbRepo)(next)
		})

		api.HandlerFromMux(handler, r)
	})

	httpServer := &http.Server{
		Handler: router,
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Service.Port))
	if err != nil {
		logger.Error(fmt.Sprintf("failed to start TCP listener: %v", err))
	}

	g, gCtx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		if err := notifier.Run(gCtx); err != nil {
			return fmt.Errorf("realtime notifier error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("server error: %v", err))
	}
}
