package player

import (
	"context"
	"time"

	"GuildFM/core/node"
	"GuildFM/logger"
	"GuildFM/model"
)

// Deliver hands a node event to the player's dispatcher. Non-blocking;
// a full buffer drops the event with a warning rather than stalling the
// node read loop.
func (p *Player) Deliver(ev node.Event) {
	select {
	case p.events <- ev:
	case <-p.done:
	default:
		logger.Warn("player event buffer full, dropping",
			logger.String("guild_id", p.guildID), logger.String("type", string(ev.Type)))
	}
}

// dispatch applies node events one at a time. Runs for the player's
// whole lifetime.
func (p *Player) dispatch() {
	for {
		select {
		case ev := <-p.events:
			p.handleEvent(ev)
		case <-p.done:
			return
		}
	}
}

func (p *Player) handleEvent(ev node.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch ev.Type {
	case node.EventTrackStart:
		p.onTrackStart(ctx, ev)
	case node.EventTrackEnd:
		p.onTrackEnd(ctx, ev)
	case node.EventTrackStuck, node.EventTrackException:
		p.onTrackError(ctx, ev)
	default:
		logger.Debug("unhandled node event",
			logger.String("guild_id", p.guildID), logger.String("type", string(ev.Type)))
	}
}

func (p *Player) onTrackStart(ctx context.Context, ev node.Event) {
	p.mu.Lock()
	if p.status == StatusDestroyed || p.current == nil {
		p.mu.Unlock()
		return
	}
	track := *p.current
	daily := p.settings.DailyPlaylists && !track.IsAutoplay()
	p.mu.Unlock()

	if err := p.deps.QueueLog.MarkPlayed(ctx, p.guildID, track.ID); err != nil {
		logger.Warn("mark played failed",
			logger.String("guild_id", p.guildID),
			logger.String("track_id", track.ID), logger.ErrorField(err))
	}
	if daily {
		p.appendToDaily(ctx, track)
	}
	p.notify(NoteTrackStart, &track, "")
}

// onTrackEnd advances the queue. Stale end events, reported for a track
// that is no longer current after a skip, are ignored.
func (p *Player) onTrackEnd(ctx context.Context, ev node.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return
	}
	if p.current == nil {
		return
	}
	if ev.TrackID != "" && ev.TrackID != p.current.ID {
		return
	}
	prev := *p.current
	p.current = nil
	p.notify(NoteTrackEnd, &prev, "")

	if p.settings.Repeat && !prev.IsAutoplay() {
		p.queue = append(p.queue, prev)
	}

	if len(p.queue) == 0 && !p.settings.AutoPlay {
		p.finishQueueLocked(ctx)
		return
	}
	if err := p.playNext(ctx); err != nil {
		logger.Warn("advance after track end failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	if p.current == nil {
		p.finishQueueLocked(ctx)
	}
}

// finishQueueLocked handles the end of the last track. Called with mu
// held.
func (p *Player) finishQueueLocked(ctx context.Context) {
	p.status = StatusConnected
	if err := p.deps.QueueLog.MarkAllPlayed(ctx, p.guildID); err != nil {
		logger.Warn("mark all played failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	p.notify(NoteQueueEnd, nil, "")
	if p.settings.Disconnect {
		p.armDCTimer()
	}
}

// armDCTimer schedules the empty-queue disconnect. Called with mu held.
func (p *Player) armDCTimer() {
	delay := p.cfg.EmptyDCTimer
	if p.settings.EmptyDCTimer > 0 {
		delay = time.Duration(p.settings.EmptyDCTimer) * time.Second
	}
	if delay <= 0 {
		delay = time.Nanosecond
	}
	p.stopDCTimer()
	p.dcTimer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p.mu.Lock()
		idle := p.status == StatusConnected && p.current == nil && len(p.queue) == 0
		p.mu.Unlock()
		if !idle {
			return
		}
		if err := p.Disconnect(ctx); err != nil {
			logger.Warn("idle disconnect failed",
				logger.String("guild_id", p.guildID), logger.ErrorField(err))
		}
	})
}

// onTrackError counts stuck and exception reports within a sliding
// window. Crossing the threshold destroys the player; below it, the
// offending track is purged from the queue and playback moves on.
func (p *Player) onTrackError(ctx context.Context, ev node.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return
	}

	now := time.Now()
	if p.cfg.ErrorWindow > 0 && now.Sub(p.errorSince) > p.cfg.ErrorWindow {
		p.errorCount = 0
	}
	if p.errorCount == 0 {
		p.errorSince = now
	}
	p.errorCount++

	var offending *model.Track
	if p.current != nil {
		cp := *p.current
		offending = &cp
	}
	logger.Warn("track error reported",
		logger.String("guild_id", p.guildID),
		logger.String("type", string(ev.Type)),
		logger.String("error", ev.Error),
		logger.Int("count", p.errorCount))

	if p.cfg.ErrorThreshold > 0 && p.errorCount >= p.cfg.ErrorThreshold {
		if err := p.destroyLocked(ctx, ev.Error); err != nil {
			logger.Error("destroy after repeated errors failed",
				logger.String("guild_id", p.guildID), logger.ErrorField(err))
		}
		return
	}

	if offending != nil {
		kept := p.queue[:0]
		for _, t := range p.queue {
			if !t.Equal(*offending) {
				kept = append(kept, t)
			}
		}
		p.queue = kept
		p.notify(NoteTrackError, offending, ev.Error)
	}
	p.current = nil
	if err := p.playNext(ctx); err != nil {
		logger.Warn("advance after track error failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	if p.current == nil {
		p.finishQueueLocked(ctx)
	}
}
