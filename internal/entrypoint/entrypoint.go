package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ads-dashboard/internal/config"
	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/monthly"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/synclog"
	"github.com/ads-dashboard/internal/database/syncprogress"
	http_controllers "github.com/ads-dashboard/internal/http"
	"github.com/ads-dashboard/internal/metasync"
	"github.com/ads-dashboard/internal/notify"
	"github.com/ads-dashboard/internal/scheduler"
	"github.com/ads-dashboard/internal/syncer"
	"github.com/ads-dashboard/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Shutdown callback first (stops task queue and scheduler).
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Ads Dashboard v%s", version)

	if cfg.Executor.BaseURL == "" {
		log.Printf("WARNING: Executor base URL is not set. Resync dispatches will fail. Set 'EXECUTOR_BASE_URL' to enable.")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	projectRepo := projects.NewRepository(db.DB)
	tracker := syncprogress.NewRepository(db.DB)
	ledger := monthly.NewRepository(db.DB)
	logRepo := synclog.NewRepository(db.DB)

	executor := metasync.NewClient(cfg.Executor.BaseURL, cfg.Executor.Token, cfg.Executor.Timeout)
	notifier := notify.NewLogNotifier()

	orchestrator := syncer.NewOrchestrator(projectRepo, tracker, logRepo, executor, notifier, syncer.Config{
		PacingDelay:     cfg.Resync.PacingDelay,
		DispatchTimeout: cfg.Resync.DispatchTimeout,
	})

	// Task queue for bulk resyncs and monthly imports.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewResyncBatchQueue(orchestrator, projectRepo),
			tasks.NewImportMonthQueue(ledger, projectRepo, logRepo, executor),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic health scan.
	healthScan := scheduler.NewHealthScanScheduler(cfg.HealthScan, projectRepo, orchestrator)
	if err := healthScan.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start health scan scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		ProjectRepo:  projectRepo,
		Tracker:      tracker,
		Ledger:       ledger,
		LogRepo:      logRepo,
		Orchestrator: orchestrator,
		TaskClient:   taskClient,
		Version:      version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		healthScan.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
