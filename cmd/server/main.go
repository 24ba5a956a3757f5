// Package main runs the HTTP server exposing the repayment accounting
// engine's derived figures to the borrower dashboard.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/config"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/handlers"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/api"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/engine"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/settlement"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	loc := utils.LoadBusinessLocation(cfg.BusinessTimezone)
	client := api.NewClient(cfg)
	eng := engine.New(loc)
	quoter := settlement.NewQuoter(client, loc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller := api.NewPoller(ctx, client, cfg.PollInterval)

	// Polling keeps itself alive only while a loan awaits administrative
	// finalization. Handlers fetch a fresh snapshot per request, so the
	// refreshes need no further handling here.
	if loans, err := client.Loans(ctx); err == nil {
		poller.Start(loans)
	} else {
		logger.Warn("initial loan fetch failed", zap.Error(err))
	}

	dashboard := handlers.NewDashboard(client, eng, loc, cfg)
	settle := handlers.NewSettlement(quoter, poller, loc)

	router := mux.NewRouter()
	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/health", handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/loans", dashboard.Loans).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}/transactions", dashboard.Transactions).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}/repay", dashboard.Repay).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/settlement", settle.State).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}/settlement/quote", settle.Quote).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/settlement/cancel", settle.Cancel).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/settlement/request", settle.Request).Methods(http.MethodPost)
	router.HandleFunc("/api/timeline", dashboard.Timeline).Methods(http.MethodGet)
	router.HandleFunc("/api/wallet", dashboard.Wallet).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("repayment engine listening",
			zap.String("port", cfg.Port),
			zap.String("stage", cfg.Stage),
			zap.String("timezone", loc.String()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	poller.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
