package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-routine/internal/api/router"
	"course-routine/internal/config"
	"course-routine/internal/service"
	"course-routine/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	port        string
	storeDriver string
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long: `Start the routine allocation HTTP API.
With --store memory the server runs against an in-process store seeded with
the default calendar, which is handy for development and load tests.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVarP(&port, "port", "p", "", "Port for the server to listen on (default from config)")
	serverCmd.Flags().StringVar(&storeDriver, "store", "", "Store backend: memory or postgres (default from config)")
}

func startServer() {
	cfg := config.Get()

	if port != "" {
		cfg.Server.Port = port
	}
	driver := cfg.Database.Driver
	if storeDriver != "" {
		driver = storeDriver
	}

	b, err := openBackends(cfg, driver)
	if err != nil {
		logger.Fatal("Failed to open backends: %v", err)
	}
	defer b.Close()

	components := router.NewRouterComponents(router.Dependencies{
		Store:       b.store,
		Cache:       b.cache,
		Idempotency: b.idempotency,
		Config:      cfg,
	})

	purgeExpiredKeys(context.Background(), components.Idempotency)

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        components.Router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Starting server on %s (store=%s, cache=%s)", srv.Addr, driver, cfg.Cache.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
		return
	}

	logger.Info("Server exited")
}

// purgeExpiredKeys runs one cleanup pass; the service logs the outcome
func purgeExpiredKeys(ctx context.Context, idempotency *service.IdempotencyService) {
	if idempotency == nil {
		return
	}
	_, _ = idempotency.CleanupExpiredKeys(ctx)
}
