package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/filepicker/internal/client/adapters"
	"github.com/dmitrijs2005/filepicker/internal/client/config"
	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

type App struct {
	config  *config.Config
	logger  logging.Logger
	adapter picker.Adapter
	cleanup func()
	in      io.Reader
	out     io.Writer
	live    bool
}

// NewApp validates c and builds the adapter it selects. Logs go to stderr so
// they never mix with the progress output.
func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	adapter, cleanup, err := adapters.Build(context.Background(), c, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  c,
		logger:  logger.With("module", "cli", "adapter", c.Adapter),
		adapter: adapter,
		cleanup: cleanup,
		in:      os.Stdin,
		out:     os.Stdout,
		live:    isTerminal(os.Stdout) && !c.Interactive,
	}, nil
}

// Run uploads paths and, depending on the config, watches a directory or
// reads commands until the session ends. It returns the process exit code.
//
// A session ends when stdin is exhausted in interactive mode, on SIGINT or
// SIGTERM in watch mode, and once the initial files are added otherwise.
// Uploads still running then are waited for unless the context is done.
func (a *App) Run(ctx context.Context, paths []string) int {
	defer a.cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tray := NewTray(ctx, TrayOptions{
		Adapter:    a.adapter,
		AutoUpload: a.config.AutoUpload,
		Logger:     a.logger,
		Out:        a.out,
		Live:       a.live,
	})
	defer tray.Close()

	renderCtx, stopRender := context.WithCancel(context.Background())
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		tray.Render(renderCtx)
	}()

	for _, path := range paths {
		if _, err := tray.Add(path); err != nil {
			a.logger.Error(ctx, "failed to add file", "error", err)
			tray.println(err.Error())
		}
	}

	session, endSession := context.WithCancel(ctx)
	defer endSession()

	var wg sync.WaitGroup
	if dir := a.config.WatchDir; dir != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			add := func(path string) {
				if _, err := tray.Add(path); err != nil {
					tray.println(err.Error())
				}
			}
			if err := watchDir(session, dir, add, a.logger); err != nil {
				a.logger.Error(ctx, "watch failed", "dir", dir, "error", err)
				tray.Problem()
				tray.println(err.Error())
			}
		}()
	}

	if a.config.Interactive {
		runREPL(session, tray, bufio.NewScanner(a.in))
		endSession()
	}
	wg.Wait()

	if !a.config.AutoUpload && !a.config.Interactive {
		a.logger.Warn(ctx, "auto upload is off, nothing was uploaded")
	}

	if err := tray.Wait(ctx); err != nil {
		a.logger.Warn(ctx, "uploads interrupted", "error", err)
	}

	stopRender()
	<-rendered

	summary := tray.Summary()
	tray.println(summary.String())
	if !summary.OK() {
		return 1
	}
	return 0
}
