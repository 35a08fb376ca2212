package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"postboard/app/config"
	"postboard/app/controllers"
	"postboard/app/jobs"
	"postboard/app/repositories"
	"postboard/app/routes"
	"postboard/app/services"
	"postboard/app/storage"
	"postboard/app/views"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

// App is a wired server: store, blobs, routes and scheduled jobs.
type App struct {
	cfg       *config.Config
	db        *badger.DB
	handler   http.Handler
	scheduler *jobs.Scheduler

	mu   sync.Mutex
	addr net.Addr
}

// NewApp opens the database and blob store described by cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	naming, err := storage.NewNaming(cfg.Storage.Naming)
	if err != nil {
		return nil, err
	}
	templates, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	db, err := repositories.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	postService := services.NewPostService(
		repositories.NewBadgerPostRepository(db),
		blobs,
		services.UploadPolicy{MaxBytes: cfg.Storage.MaxUploadBytes, Naming: naming},
	)
	postController := controllers.NewPostController(postService, templates)

	scheduler := jobs.NewScheduler()
	// Value log GC is not available for in-memory stores.
	if cfg.Database.Path != "" {
		if err := scheduler.Register(cfg.Database.GCSchedule, jobs.ValueLogGC{DB: db}); err != nil {
			db.Close()
			return nil, fmt.Errorf("database.gc_schedule: %w", err)
		}
	}

	return &App{
		cfg:       cfg,
		db:        db,
		handler:   routes.SetupRoutes(postController, blobs, maxRequestBytes(cfg.Storage.MaxUploadBytes)),
		scheduler: scheduler,
	}, nil
}

// maxRequestBytes leaves room above the picture ceiling so that an oversized
// picture is reported as a validation error rather than a cut off body.
func maxRequestBytes(maxUpload int64) int64 {
	return 2*maxUpload + 1<<20
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Addr is the address the server is listening on, or nil before Serve.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Serve listens on the configured address until ctx is done, then shuts
// down gracefully within the configured timeout.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	srv := &http.Server{Handler: a.handler}

	a.scheduler.Start()
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("Starting post service")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// RunAppServer runs the post service until SIGINT or SIGTERM and returns
// the process exit code.
func RunAppServer(args []string) int {
	fs, cfgPath := newFlagSet("serve")
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := setupLogging(cfg.Log); err != nil {
		fmt.Printf("Invalid log config: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.WithField("err", err).Error("Failed to start")
		return 1
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		log.WithField("err", err).Error("Server error")
		return 1
	}
	log.Info("Server stopped")
	return 0
}
