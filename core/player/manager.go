package player

import (
	"context"
	"sync"

	"GuildFM/core/node"
	"GuildFM/logger"
)

// Manager holds one player per guild and routes node events to them.
type Manager struct {
	cfg  Config
	deps Deps

	mu      sync.RWMutex
	players map[string]*Player
}

// NewManager creates an empty manager. All players share cfg and deps.
func NewManager(cfg Config, deps Deps) *Manager {
	return &Manager{
		cfg:     cfg,
		deps:    deps,
		players: make(map[string]*Player),
	}
}

// GetOrCreate returns the guild's player, creating it on first use. A
// player that destroyed itself, for example through the playback error
// breaker, is replaced with a fresh one so the guild is not stuck on
// ErrPlayerDestroyed.
func (m *Manager) GetOrCreate(guildID string) *Player {
	m.mu.RLock()
	p, ok := m.players[guildID]
	m.mu.RUnlock()
	if ok && p.Status() != StatusDestroyed {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[guildID]; ok && p.Status() != StatusDestroyed {
		return p
	}
	p = newPlayer(guildID, m.cfg, m.deps)
	m.players[guildID] = p
	return p
}

// Get returns the guild's player, or nil when none exists.
func (m *Manager) Get(guildID string) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.players[guildID]
}

// Destroy tears down and forgets the guild's player.
func (m *Manager) Destroy(ctx context.Context, guildID string) error {
	m.mu.Lock()
	p, ok := m.players[guildID]
	delete(m.players, guildID)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return p.Destroy(ctx)
}

// HandleEvent routes a node event to the owning player. Events for
// unknown guilds are dropped.
func (m *Manager) HandleEvent(ev node.Event) {
	p := m.Get(ev.GuildID)
	if p == nil {
		logger.Debug("node event for unknown guild",
			logger.String("guild_id", ev.GuildID), logger.String("type", string(ev.Type)))
		return
	}
	p.Deliver(ev)
}

// Restore rebuilds players from the persisted queue log after a
// restart. Each session's unplayed tracks are reloaded in their
// original order; playback waits for an explicit connect.
func (m *Manager) Restore(ctx context.Context) error {
	sessions, err := m.deps.QueueLog.UnplayedSessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		tracks, err := m.deps.QueueLog.FetchUnplayed(ctx, s.GuildID)
		if err != nil {
			logger.Warn("queue restore failed",
				logger.String("guild_id", s.GuildID), logger.ErrorField(err))
			continue
		}
		if len(tracks) == 0 {
			continue
		}
		p := m.GetOrCreate(s.GuildID)
		p.seed(tracks, s.RoomID)
		logger.Info("restored guild queue",
			logger.String("guild_id", s.GuildID),
			logger.String("room_id", s.RoomID),
			logger.Int("tracks", len(tracks)))
	}
	return nil
}

// Shutdown closes every player, leaving persisted queues in place for
// the next start. Used on process exit.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.players = make(map[string]*Player)
	m.mu.Unlock()

	for _, p := range players {
		if err := p.Close(ctx); err != nil {
			logger.Warn("player shutdown failed",
				logger.String("guild_id", p.GuildID()), logger.ErrorField(err))
		}
	}
}
