// Package server wires the upload sink: disk storage behind an HTTP
// receiver and a gRPC receiver, both stopped gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/server/api"
	"github.com/dmitrijs2005/filepicker/internal/server/config"
	"github.com/dmitrijs2005/filepicker/internal/server/storage"

	gs "github.com/dmitrijs2005/filepicker/internal/server/grpc"
)

// runner is a component that serves until its context is done.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *storage.DiskStore
	runners map[string]runner
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	store, err := storage.NewDiskStore(c.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	handler := api.NewHandler(store, logger)
	e := api.SetupRouter(handler, logger, []byte(c.SecretKey), c.BodyLimit)

	grpcServer, err := gs.NewGRPCServer(c.GRPCAddr, logger, store, c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("grpc init error: %w", err)
	}

	return &App{
		config: c,
		logger: logger,
		store:  store,
		runners: map[string]runner{
			"http": api.NewHTTPServer(c.HTTPAddr, e, logger, c.ShutdownTimeout),
			"grpc": grpcServer,
		},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts every receiver and blocks until all have stopped. A receiver
// that fails brings the others down.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage_dir", app.store.Root())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	for name, r := range app.runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				app.logger.Error(ctx, "receiver stopped", "receiver", name, "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
}
