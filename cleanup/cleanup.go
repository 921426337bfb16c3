// Package cleanup provides a background worker that purges expired refresh tokens.
package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults applied by NewWorker.
const (
	DefaultInterval = time.Hour
	DefaultTimeout  = 5 * time.Minute
)

// Expirer removes expired records and reports how many were removed.
// store.RefreshTokenStore satisfies it.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Worker performs periodic cleanup of expired refresh tokens.
type Worker struct {
	store    Expirer
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.RWMutex
	lastRun time.Time
	deleted int64
	runs    int64
	errors  int64
}

// Config holds cleanup worker configuration.
type Config struct {
	// Store is the refresh token store to clean up.
	Store Expirer

	// Interval is how often to run cleanup. Defaults to 1 hour.
	Interval time.Duration

	// Timeout bounds a single run. Defaults to 5 minutes.
	Timeout time.Duration

	// Logger for cleanup events. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewWorker creates a new cleanup worker.
func NewWorker(cfg *Config) *Worker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		store:    cfg.Store,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "cleanup")),
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup worker. The first run happens immediately.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the cleanup worker and waits for an in-flight run.
// It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	w.runCleanup()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.runCleanup()
		}
	}
}

func (w *Worker) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	_, _ = w.RunOnce(ctx)
}

// RunOnce performs a single cleanup pass and records it in Stats.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := w.store.DeleteExpired(ctx)

	w.mu.Lock()
	w.lastRun = start
	w.runs++
	if err != nil {
		w.errors++
	} else {
		w.deleted += count
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "refresh token cleanup failed", slog.String("error", err.Error()))
		return 0, err
	}
	if count > 0 {
		w.logger.InfoContext(ctx, "deleted expired refresh tokens",
			slog.Int64("deleted", count),
			slog.Duration("took", time.Since(start)),
		)
	}
	return count, nil
}

// Stats returns cleanup statistics.
type Stats struct {
	LastRun time.Time
	Runs    int64
	Deleted int64
	Errors  int64
}

// Stats returns the current cleanup statistics.
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return Stats{
		LastRun: w.lastRun,
		Runs:    w.runs,
		Deleted: w.deleted,
		Errors:  w.errors,
	}
}
