package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"drn/internal/api"
	"drn/internal/bookmarks"
	"drn/internal/composer"
	"drn/internal/config"
	"drn/internal/feed"
	"drn/internal/logging"
	"drn/internal/news"
	"drn/internal/notifications"
	"drn/internal/realtime"
	"drn/internal/sched"
	"drn/internal/services/authsvc"
	"drn/internal/services/mediastore"
)

// Option overrides a daemon collaborator, used by tests.
type Option func(*Daemon)

// WithAuthService replaces the configured auth service.
func WithAuthService(svc authsvc.Service) Option {
	return func(d *Daemon) { d.auth = svc }
}

// WithNotifier replaces the configured notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Daemon) { d.notifier = svc }
}

// Daemon coordinates the newsroom services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *news.Store
	marks     *bookmarks.Store
	auth      authsvc.Service
	notifier  notifications.Service
	scheduler *sched.Scheduler
	hub       *realtime.Hub

	// built on Start once the listen address is known
	media    *mediastore.Client
	local    *mediastore.LocalStore
	composer *composer.Composer
	engine   *feed.Engine
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := news.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open news store: %w", err)
	}

	marks, err := bookmarks.Open(cfg.Paths.BookmarksPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open bookmarks: %w", err)
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		marks:     marks,
		auth:      authsvc.NewService(cfg),
		notifier:  notifications.NewService(cfg),
		scheduler: sched.New(),
		hub:       realtime.NewHub(),
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the instance lock and brings up the HTTP API. The media
// pipeline is wired here because the self-hosted upload flow needs the bound
// listen address.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another drnd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	listener, err := net.Listen("tcp", strings.TrimSpace(d.cfg.Paths.APIBind))
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	publicBase := d.cfg.Storage.PublicBaseURL
	if strings.TrimSpace(d.cfg.Storage.IntentURL) != "" {
		d.media = mediastore.NewClient(d.cfg)
	} else {
		local, err := mediastore.NewLocalStore(filepath.Join(d.cfg.Paths.DataDir, "media"), baseURL)
		if err != nil {
			cancel()
			listener.Close()
			_ = d.lock.Unlock()
			return err
		}
		d.local = local
		d.media = mediastore.NewClientWith(baseURL+"/api/upload", &http.Client{Timeout: 60 * time.Second})
		publicBase = baseURL + "/media"
	}

	d.composer, err = composer.New(composer.Options{
		Store:          d.store,
		Media:          d.media,
		Auth:           d.auth,
		Sched:          d.scheduler,
		Notifier:       d.notifier,
		Logger:         d.logger,
		MaxUploadBytes: int64(d.cfg.Composer.MaxUploadMiB) << 20,
		UndoGrace:      time.Duration(d.cfg.Composer.UndoGraceSeconds) * time.Second,
		RecentLimit:    d.cfg.Feed.RecentPostsLimit,
	})
	if err != nil {
		cancel()
		listener.Close()
		_ = d.lock.Unlock()
		return err
	}

	d.engine, err = feed.NewEngine(feed.Options{
		Store:     d.store,
		Bookmarks: d.marks,
		Auth:      d.auth,
		Hub:       d.hub,
		PageSize:  d.cfg.Feed.PageSize,
		Logger:    d.logger,
	})
	if err != nil {
		cancel()
		listener.Close()
		_ = d.lock.Unlock()
		return err
	}

	d.api = newAPIServer(d, publicBase)
	d.api.start(runCtx, listener)

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("drnd started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background services and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.scheduler.Stop()
	d.hub.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("drnd stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address, or empty before Start.
func (d *Daemon) Addr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Subscribers:  d.hub.TotalSubscribers(),
	}
	if count, err := d.store.CountPosts(ctx); err == nil {
		status.PostCount = count
	}
	if d.composer != nil {
		if id, ok := d.composer.PendingDelete(); ok {
			status.PendingDelete = id
		}
	}
	return status
}

// RecentPosts lists the operator's latest posts through the composer.
func (d *Daemon) RecentPosts(ctx context.Context) ([]*news.Post, error) {
	if d.composer == nil {
		return nil, errors.New("daemon is not running")
	}
	return d.composer.RecentPosts(ctx)
}

// DeletePost soft-deletes a post and reports the undo window in seconds.
func (d *Daemon) DeletePost(ctx context.Context, id int64) (int, error) {
	if d.composer == nil {
		return 0, errors.New("daemon is not running")
	}
	if err := d.composer.Delete(ctx, id); err != nil {
		return 0, err
	}
	return d.cfg.Composer.UndoGraceSeconds, nil
}

// UndoDelete restores the most recently deleted post.
func (d *Daemon) UndoDelete(ctx context.Context) (int64, error) {
	if d.composer == nil {
		return 0, errors.New("daemon is not running")
	}
	return d.composer.Undo(ctx)
}

// TestNotification sends a test push notification.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}
