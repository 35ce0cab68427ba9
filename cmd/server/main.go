package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/andeptrai/ocr-studio/api/handlers"
	"github.com/andeptrai/ocr-studio/api/routes"
	"github.com/andeptrai/ocr-studio/config"
	"github.com/andeptrai/ocr-studio/internal/service/studio"
	"github.com/andeptrai/ocr-studio/pkg/logger"
	"github.com/andeptrai/ocr-studio/pkg/metrics"
)

func main() {
	cfg := config.Get()

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithOutputPaths(cfg.Log.OutputPaths),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	metrics.Init()

	// init studio service
	svc, loader, err := studio.GetService(log)
	if err != nil {
		log.Fatal("Failed to get studio service", logger.Error(err))
	}
	defer loader.Close()

	// Load the engine up front so the first conversion doesn't pay for
	// it. A failed load keeps the server up; conversion requests report
	// the cached init error until the process is restarted.
	if _, err := loader.Load(); err != nil {
		log.Error("Engine unavailable, conversions will fail", logger.Error(err))
	}

	// init handlers
	h := handlers.NewHandlers(svc, log)
	r := gin.New()
	r.Use(gin.Recovery())
	r.LoadHTMLGlob("web/templates/*.html")
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
