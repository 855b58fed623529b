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

	"marginalia/internal/config"
	"marginalia/internal/database"
	"marginalia/internal/database/annotations"
	"marginalia/internal/database/books"
	"marginalia/internal/feed"
	http_controllers "marginalia/internal/http"
	"marginalia/internal/media"
	"marginalia/internal/metadata"
	"marginalia/internal/scheduler"
	"marginalia/internal/search"
	"marginalia/internal/tasks"
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
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
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

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Marginalia v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	log.Printf("Database initialized at %s", cfg.Database.Path)

	mediaStore, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}
	log.Printf("Media store initialized at %s", cfg.Media.Dir)

	booksRepo := books.NewRepository(db.DB)
	annotationsRepo := annotations.NewRepository(db.DB, db.FTSAvailable())

	searchEngine := search.NewEngine(annotationsRepo, booksRepo, cfg.Search.ResultLimit)
	feedPaginator := feed.NewPaginator(annotationsRepo, booksRepo)

	// Metadata enricher fills missing book fields from OpenLibrary.
	openLibraryClient := metadata.NewOpenLibraryClient()
	metadataEnricher := metadata.NewEnricher(openLibraryClient, booksRepo, mediaStore)

	// Initialize task queue if enabled
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
			tasks.NewCleanupMediaQueue(mediaStore),
			tasks.NewEnrichBookQueue(metadataEnricher),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic orphan media sweep
	var sweepScheduler *scheduler.MediaSweepScheduler
	if cfg.MediaSweep.Enabled {
		coverPaths := func() (map[string]struct{}, error) {
			paths := make(map[string]struct{})
			for _, archived := range []bool{false, true} {
				bookList, err := booksRepo.ListBooks(archived)
				if err != nil {
					return nil, err
				}
				for _, b := range bookList {
					if b.CoverImagePath != "" {
						paths[b.CoverImagePath] = struct{}{}
					}
				}
			}
			return paths, nil
		}

		sweepScheduler = scheduler.NewMediaSweepScheduler(
			annotationsRepo, coverPaths, mediaStore, cfg.MediaSweep.Schedule)
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: media sweep scheduler not started: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          booksRepo,
		Annotations:    annotationsRepo,
		Searcher:       searchEngine,
		Feed:           feedPaginator,
		TaskClient:     taskClient,
		MetadataLookup: cfg.Metadata.LookupEnabled,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sweepScheduler != nil {
			sweepScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
