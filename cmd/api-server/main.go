package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/server"
	"github.com/shelfmates/bookshelf/pkg/config"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logger.Init(logger.INFO, false, os.Stdout)
		logger.GetLogger().Error("failed_to_load_config", "error", err.Error())
		os.Exit(1)
	}

	logger.Init(logger.LogLevel(cfg.Log.Level), cfg.Log.Format == "json", os.Stdout)
	log := logger.GetLogger().WithContext("component", "api_server")
	log.Info("starting_api_server", "version", "1.0.0", "driver", cfg.Database.Driver)

	switch cfg.Database.Driver {
	case database.DriverPostgres:
		err = database.Init(database.DriverPostgres, cfg.Database.DSN, cfg.Limits.TxRetries)
	default:
		err = database.InitDatabase(cfg.Database.Path)
		if err == nil {
			database.DB.Retries = cfg.Limits.TxRetries
		}
	}
	if err != nil {
		log.Error("failed_to_initialize_database", "error", err.Error())
		os.Exit(1)
	}
	defer database.Close()

	if !strings.EqualFold(cfg.Log.Level, string(logger.DEBUG)) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(database.DB, server.Options{
		FrontendURL: cfg.Server.FrontendURL,
		SearchLimit: cfg.Limits.SearchResults,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed_to_start_api_server", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting_down_api_server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("api_server_shutdown_failed", "error", err.Error())
	}
}
