package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GuildFM/cache"
	"GuildFM/config"
	"GuildFM/core/janitor"
	"GuildFM/core/node"
	"GuildFM/core/player"
	"GuildFM/core/provider"
	"GuildFM/core/resolver"
	"GuildFM/db"
	"GuildFM/logger"
	"GuildFM/model"
	"GuildFM/repository"
)

// janitorInterval is the time between background maintenance passes.
const janitorInterval = time.Hour

// Start wires the full orchestrator and blocks until SIGINT or SIGTERM.
func Start() error {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	logger.Info("starting orchestrator")

	gdb, err := db.ConnectGorm(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.CloseGorm(gdb); err != nil {
			logger.Warn("close database failed", logger.ErrorField(err))
		}
	}()
	if err := db.AutoMigrate(gdb, &model.Playlist{}, &model.QueueEntry{}, &model.GuildSettings{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	var cacheStore cache.Store
	if cfg.RedisHost == "" {
		logger.Info("no redis configured, caching in process memory")
		cacheStore = cache.NewMemoryStore()
	} else {
		rdb, err := db.ConnectRedis(cfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := db.CloseRedis(rdb); err != nil {
				logger.Warn("close redis failed", logger.ErrorField(err))
			}
		}()
		cacheStore = cache.NewRedisStore(rdb)
	}

	trackCache := cache.New(
		cacheStore,
		model.CacheLevel(cfg.CacheLevel),
		time.Duration(cfg.CacheAgeDays)*24*time.Hour,
	)

	if err := os.MkdirAll(cfg.LocalMediaRoot, 0o755); err != nil {
		return fmt.Errorf("create local media root: %w", err)
	}
	local, err := provider.NewLocalCatalog(cfg.LocalMediaRoot)
	if err != nil {
		return fmt.Errorf("index local media: %w", err)
	}
	if err := local.Start(); err != nil {
		logger.Warn("local catalog watcher unavailable", logger.ErrorField(err))
	}
	defer local.Stop()

	spotify := provider.NewSpotifyClient(cfg.SpotifyBaseURL, cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	audioNode := node.NewClient(cfg.NodeHost, cfg.NodePort, cfg.NodePassword)

	res := resolver.New(trackCache, spotify, local, audioNode, cfg.LocalMediaRoot)

	playlists := repository.NewGormPlaylistStore(gdb)
	queueLog := repository.NewGormQueueLog(gdb)
	settings := repository.NewGormSettingsStore(gdb)

	notifications := make(chan player.Notification, 256)
	go logNotifications(notifications)

	mgr := player.NewManager(player.Config{
		QueueCap:       cfg.QueueCap,
		MaxTrackLength: int64(cfg.MaxTrackLength),
		VoteRatio:      cfg.VoteRatio,
		ErrorThreshold: cfg.ErrorThreshold,
		ErrorWindow:    time.Duration(cfg.ErrorWindowSec) * time.Second,
		EmptyDCTimer:   time.Duration(cfg.EmptyDCTimer) * time.Second,
	}, player.Deps{
		Node:      audioNode,
		QueueLog:  queueLog,
		Playlists: playlists,
		Settings:  settings,
		Resolver:  res,
		Notify:    notifications,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = audioNode.Connect(ctx, mgr.HandleEvent)
	cancel()
	if err != nil {
		return fmt.Errorf("connect audio node: %w", err)
	}
	defer func() {
		if err := audioNode.Close(); err != nil {
			logger.Warn("close audio node failed", logger.ErrorField(err))
		}
	}()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = mgr.Restore(ctx)
	cancel()
	if err != nil {
		logger.Warn("queue restore incomplete", logger.ErrorField(err))
	}

	jan := janitor.New(trackCache, playlists, queueLog,
		janitorInterval, time.Duration(cfg.DailyAgeDays)*24*time.Hour)
	jan.Start()
	defer jan.Stop()

	logger.Info("orchestrator ready",
		logger.String("node", cfg.NodeHost+":"+cfg.NodePort),
		logger.Int("cache_level", cfg.CacheLevel))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info("shutting down", logger.String("signal", s.String()))

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)
	logger.Sync()
	return nil
}

// Sweep runs one maintenance pass and exits. Used by the sweep command
// so operators can run cleanup out of band.
func Sweep() error {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	gdb, err := db.ConnectGorm(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.CloseGorm(gdb)

	var cacheStore cache.Store
	if cfg.RedisHost == "" {
		cacheStore = cache.NewMemoryStore()
	} else {
		rdb, err := db.ConnectRedis(cfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer db.CloseRedis(rdb)
		cacheStore = cache.NewRedisStore(rdb)
	}

	trackCache := cache.New(
		cacheStore,
		model.CacheLevel(cfg.CacheLevel),
		time.Duration(cfg.CacheAgeDays)*24*time.Hour,
	)
	jan := janitor.New(trackCache,
		repository.NewGormPlaylistStore(gdb),
		repository.NewGormQueueLog(gdb),
		janitorInterval, time.Duration(cfg.DailyAgeDays)*24*time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	jan.RunOnce(ctx)
	return nil
}

// logNotifications drains player notifications into the log. A chat
// frontend would consume this channel instead.
func logNotifications(ch <-chan player.Notification) {
	for n := range ch {
		if n.Track != nil {
			logger.Info("player notification",
				logger.String("kind", string(n.Kind)),
				logger.String("guild_id", n.GuildID),
				logger.String("track", n.Track.Title),
				logger.String("message", n.Message))
			continue
		}
		logger.Info("player notification",
			logger.String("kind", string(n.Kind)),
			logger.String("guild_id", n.GuildID),
			logger.String("message", n.Message))
	}
}
