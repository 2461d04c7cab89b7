package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bullex/config"
	"bullex/internal/database"
	"bullex/internal/router"
	"bullex/pkg/logger"
	"bullex/pkg/payment"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger.Init("bullex", cfg.Log.Level)
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Log.Fatal("migration failed", zap.Error(err))
	}
	if err := database.SeedAdmin(db, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Log.Fatal("admin seed failed", zap.Error(err))
	}

	gateway := payment.NewWinPay(payment.WinPayConfig{
		BaseURL:    cfg.WinPay.BaseURL,
		MerchantID: cfg.WinPay.MerchantID,
		DepositKey: cfg.WinPay.DepositKey,
		PayoutKey:  cfg.WinPay.PayoutKey,
	})

	engine := router.Setup(cfg, db, gateway)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Log.Info("server stopped")
}
