package player

import (
	"context"

	"GuildFM/logger"
)

// Requester identifies who asked for a control action. Privileged
// covers DJs and moderators; RoomMembers is the current voice room
// headcount including the bot itself.
type Requester struct {
	ID          string
	Privileged  bool
	RoomMembers int
}

// VoteOutcome reports whether a gated action went through, and the vote
// tally when it did not.
type VoteOutcome struct {
	Applied  bool
	Votes    int
	Required int
}

// voteGated runs apply immediately for privileged requesters, otherwise
// counts the requester's vote and applies once the threshold is met.
// Each user counts once per action; the tally resets when the action
// applies or the track changes.
func (p *Player) voteGated(ctx context.Context, action Action, req Requester, apply func(context.Context) error) (*VoteOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return nil, ErrPlayerDestroyed
	}

	if req.Privileged {
		p.votes.clear(action)
		if err := apply(ctx); err != nil {
			return nil, err
		}
		return &VoteOutcome{Applied: true}, nil
	}

	count := p.votes.add(action, req.ID)
	required := RequiredVotes(action, req.RoomMembers, p.cfg.VoteRatio)
	if count < required {
		return &VoteOutcome{Applied: false, Votes: count, Required: required}, nil
	}
	p.votes.clear(action)
	if err := apply(ctx); err != nil {
		return nil, err
	}
	return &VoteOutcome{Applied: true, Votes: count, Required: required}, nil
}

// Pause suspends playback, vote-gated.
func (p *Player) Pause(ctx context.Context, req Requester) (*VoteOutcome, error) {
	return p.voteGated(ctx, ActionPause, req, func(ctx context.Context) error {
		if p.status != StatusPlaying {
			return nil
		}
		if err := p.deps.Node.Pause(ctx, p.guildID, true); err != nil {
			return err
		}
		p.status = StatusPaused
		return nil
	})
}

// Resume restarts a paused player, vote-gated.
func (p *Player) Resume(ctx context.Context, req Requester) (*VoteOutcome, error) {
	return p.voteGated(ctx, ActionResume, req, func(ctx context.Context) error {
		if p.status != StatusPaused {
			return nil
		}
		if err := p.deps.Node.Pause(ctx, p.guildID, false); err != nil {
			return err
		}
		p.status = StatusPlaying
		return nil
	})
}

// Skip drops the current track and advances, vote-gated. The stale end
// event the node emits for the stopped track is discarded by the event
// handler.
func (p *Player) Skip(ctx context.Context, req Requester) (*VoteOutcome, error) {
	return p.voteGated(ctx, ActionSkip, req, func(ctx context.Context) error {
		return p.skipLocked(ctx, 1)
	})
}

// SkipTo jumps ahead to the nth queued track. Only privileged
// requesters may jump past the head; everyone else is limited to a
// plain skip.
func (p *Player) SkipTo(ctx context.Context, req Requester, index int) (*VoteOutcome, error) {
	p.mu.Lock()
	n := len(p.queue)
	p.mu.Unlock()
	if index < 1 || index > n {
		return nil, ErrInvalidIndex
	}
	if !req.Privileged && index != 1 {
		return nil, ErrNotPrivileged
	}
	return p.voteGated(ctx, ActionSkip, req, func(ctx context.Context) error {
		return p.skipLocked(ctx, index)
	})
}

// skipLocked discards queue entries before index and advances. Called
// with mu held.
func (p *Player) skipLocked(ctx context.Context, index int) error {
	if index > 1 && index <= len(p.queue) {
		p.queue = p.queue[index-1:]
	}
	if p.current != nil {
		if err := p.deps.Node.Stop(ctx, p.guildID); err != nil {
			logger.Warn("stop for skip failed",
				logger.String("guild_id", p.guildID), logger.ErrorField(err))
		}
		p.notify(NoteTrackEnd, p.current, "")
		p.current = nil
	}
	if err := p.playNext(ctx); err != nil {
		return err
	}
	if p.current == nil {
		p.finishQueueLocked(ctx)
	}
	return nil
}

// Shuffle reorders the pending queue, vote-gated.
func (p *Player) Shuffle(ctx context.Context, req Requester) (*VoteOutcome, error) {
	return p.voteGated(ctx, ActionShuffle, req, func(ctx context.Context) error {
		p.rng.Shuffle(len(p.queue), func(i, j int) {
			p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
		})
		return nil
	})
}

// Stop halts playback and empties the queue, vote-gated. The persisted
// queue for the guild is dropped too; a stop is an explicit discard.
func (p *Player) Stop(ctx context.Context, req Requester) (*VoteOutcome, error) {
	return p.voteGated(ctx, ActionStop, req, func(ctx context.Context) error {
		if err := p.deps.Node.Stop(ctx, p.guildID); err != nil {
			logger.Warn("node stop failed",
				logger.String("guild_id", p.guildID), logger.ErrorField(err))
		}
		p.queue = nil
		p.current = nil
		p.status = StatusConnected
		p.votes.clearAll()
		if err := p.deps.QueueLog.DropGuild(ctx, p.guildID); err != nil {
			logger.Warn("drop queue log on stop failed",
				logger.String("guild_id", p.guildID), logger.ErrorField(err))
		}
		p.notify(NoteQueueEnd, nil, "")
		return nil
	})
}
