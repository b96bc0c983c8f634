package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seekchat/seekchat/bootstrap"
	"seekchat/seekchat/config"
	"seekchat/seekchat/controllers"
	"seekchat/seekchat/routes"
	"seekchat/seekchat/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app, err := bootstrap.New(ctx, cfg, logging.AppLogger)
	if err != nil {
		logging.ErrorLogger.Error("startup error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	// a failure here is retried on the first prompt
	if _, err := app.Chat.NewConversation(ctx); err != nil {
		logging.AppLogger.Warn("no chat session at startup", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", routes.HealthRoutes(controllers.NewHealthController(app.Chat)))
	r.Mount("/chat", routes.ChatRoutes(app.Chat, cfg, logging.AppLogger))

	srv := &http.Server{
		Addr:    cfg.BridgeAddr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("bridge listening", zap.String("addr", cfg.BridgeAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
