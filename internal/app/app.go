package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"NoticeBoard/internal/config"
	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/infrastructure/api"
	"NoticeBoard/internal/infrastructure/cache"
	"NoticeBoard/internal/infrastructure/scheduler"
	"NoticeBoard/internal/infrastructure/storage"
	"NoticeBoard/internal/logging"
	"NoticeBoard/internal/panel"
	"NoticeBoard/internal/ports"
	"NoticeBoard/internal/server"
	"NoticeBoard/internal/usecase"
	"NoticeBoard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Serve runs the board HTTP server and the archive sweep until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	payloadCache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	board := usecase.NewBoard(usecase.BoardDeps{
		Store:  store,
		Cache:  payloadCache,
		Logger: a.logger.With("component", "board"),
	})

	sweeper := usecase.NewArchiveSweeper(store, nil, a.logger.With("component", "archive"))
	sched := usecase.NewScheduler(
		scheduler.NewTickerScheduler(a.cfg.Archive.Interval),
		sweeper,
		a.logger.With("component", "scheduler"),
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start archive scheduler: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = sched.Stop(stopCtx)
	}()

	srv := &http.Server{
		Addr: a.cfg.Server.Listen,
		Handler: server.NewRouter(server.RouterDeps{
			Source:  board,
			Page:    a.pageFor(board),
			Metrics: server.NewMetrics(),
			Logger:  a.logger.With("component", "http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.New("http", a.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving notice board", "listen", srv.Addr, "store", a.cfg.Store.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Render loads the page for sel the way a browser would: the initial
// unscoped load followed by the selector changes. The resulting document is
// written to w once every fetch has settled.
func (a *Application) Render(ctx context.Context, sel domain.Selection, scroll int, w io.Writer) error {
	source, closeSource, err := a.source(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	out, err := a.renderPage(ctx, source, sel, scroll)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// renderPage drives a fresh page and controller over source and returns the
// settled document.
func (a *Application) renderPage(ctx context.Context, source ports.NotificationSource, sel domain.Selection, scroll int) (string, error) {
	doc, err := panel.NewPage(a.pageOptions())
	if err != nil {
		return "", err
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	loop := panel.NewLoop()
	go func() { _ = loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loop.Done()
	}()

	controller, err := panel.NewController(ctx, doc, loop, source, panel.NewWindowViewport(doc, a.cfg.Panel.ViewportRows), panel.Options{
		Location:        a.cfg.Panel.Location(),
		ArrivalOrder:    !a.cfg.Panel.Fence(),
		RevealThreshold: a.cfg.Panel.RevealThreshold,
		Logger:          a.logger.With("component", "panel"),
	})
	if err != nil {
		return "", err
	}
	defer controller.Wait()

	if err := controller.Refresh(ctx); err != nil {
		return "", err
	}
	if sel.Year != "" {
		if err := controller.SetYear(ctx, sel.Year); err != nil {
			return "", err
		}
	}
	if sel.Department != "" {
		if err := controller.SetDepartment(ctx, sel.Department); err != nil {
			return "", err
		}
	}
	controller.Wait()

	if scroll != 0 {
		if err := controller.Scroll(ctx, scroll); err != nil {
			return "", err
		}
	}
	return controller.HTML(ctx)
}

// Import upserts the notices of the JSON file at path into the store.
func (a *Application) Import(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return 0, err
	}
	defer closeStore()

	n, err := usecase.Import(ctx, store, f)
	if err != nil {
		return n, err
	}
	a.logger.Info("imported notifications", "count", n, "path", path)
	return n, nil
}

// Delete removes the notice with id from the store.
func (a *Application) Delete(ctx context.Context, id string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	removed, err := store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("notification %q not found", id)
	}
	a.logger.Info("deleted notification", "id", id)
	return nil
}

// source picks the remote board when an API URL is configured and the local
// store otherwise.
func (a *Application) source(ctx context.Context) (ports.NotificationSource, func(), error) {
	if a.cfg.API.BaseURL != "" {
		client := api.NewClient(a.cfg.API.BaseURL, &http.Client{Timeout: a.cfg.API.Timeout}, a.logger.With("component", "api"))
		return client, func() {}, nil
	}
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	board := usecase.NewBoard(usecase.BoardDeps{Store: store, Logger: a.logger.With("component", "board")})
	return board, closeStore, nil
}

func (a *Application) openStore(ctx context.Context) (ports.NotificationStore, func(), error) {
	switch a.cfg.Store.Driver {
	case config.StoreDriverSQLite:
		store, err := storage.OpenSQLite(ctx, a.cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.StoreDriverJSON, "":
		return storage.NewFileStore(a.cfg.Store.DSN, a.logger.With("component", "store")), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}

func (a *Application) openCache(ctx context.Context) (ports.PayloadCache, func(), error) {
	if a.cfg.Cache.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client, err := cache.Dial(ctx, a.cfg.Cache.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewPayloadCache(client, a.cfg.Cache.TTL), func() { _ = client.Close() }, nil
}

// pageFor serves the rendered board for the selection named in the request.
func (a *Application) pageFor(source ports.NotificationSource) func(context.Context, domain.Selection) (string, error) {
	return func(ctx context.Context, sel domain.Selection) (string, error) {
		return a.renderPage(ctx, source, sel, 0)
	}
}

func (a *Application) pageOptions() panel.PageOptions {
	links := make([]panel.QuickLink, 0, len(a.cfg.Panel.QuickLinks))
	for _, l := range a.cfg.Panel.QuickLinks {
		links = append(links, panel.QuickLink{Title: l.Title, URL: l.URL})
	}
	return panel.PageOptions{
		Departments: a.cfg.Panel.Departments,
		Years:       a.cfg.Panel.Years,
		QuickLinks:  links,
		Now:         time.Now().In(a.cfg.Panel.Location()),
	}
}
