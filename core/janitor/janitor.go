package janitor

import (
	"context"
	"sync"
	"time"

	"GuildFM/cache"
	"GuildFM/logger"
	"GuildFM/repository"
)

// Janitor runs the periodic maintenance passes: expired cache entries,
// stale daily playlists, rows scheduled for deletion and played queue
// log entries.
type Janitor struct {
	cache     *cache.Cache
	playlists repository.PlaylistStore
	queueLog  repository.QueueLog

	interval time.Duration
	dailyAge time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a janitor. interval is the time between passes, dailyAge
// the retention of daily playlists.
func New(c *cache.Cache, playlists repository.PlaylistStore, queueLog repository.QueueLog, interval, dailyAge time.Duration) *Janitor {
	return &Janitor{
		cache:     c,
		playlists: playlists,
		queueLog:  queueLog,
		interval:  interval,
		dailyAge:  dailyAge,
		stop:      make(chan struct{}),
	}
}

// Start launches the background loop. The first pass runs after one
// full interval.
func (j *Janitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				j.RunOnce(ctx)
				cancel()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the background loop and waits for an in-flight pass.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	j.wg.Wait()
}

// RunOnce performs a single maintenance pass. Each step is independent;
// a failing step is logged and the rest still run.
func (j *Janitor) RunOnce(ctx context.Context) {
	start := time.Now()

	swept, err := j.cache.Sweep(ctx)
	if err != nil {
		logger.Warn("cache sweep failed", logger.ErrorField(err))
	}

	expired, err := j.playlists.ExpireDaily(ctx, j.dailyAge)
	if err != nil {
		logger.Warn("daily playlist expiry failed", logger.ErrorField(err))
	}

	purgedPlaylists, err := j.playlists.DeleteScheduled(ctx)
	if err != nil {
		logger.Warn("playlist purge failed", logger.ErrorField(err))
	}

	purgedQueue, err := j.queueLog.DeleteScheduled(ctx)
	if err != nil {
		logger.Warn("queue log purge failed", logger.ErrorField(err))
	}

	logger.Info("maintenance pass complete",
		logger.Int("cache_swept", swept),
		logger.Int64("daily_expired", expired),
		logger.Int64("playlists_purged", purgedPlaylists),
		logger.Int64("queue_rows_purged", purgedQueue),
		logger.Duration("elapsed", time.Since(start)))
}
