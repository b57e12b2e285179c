package player

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"GuildFM/core/node"
	"GuildFM/core/provider"
	"GuildFM/core/query"
	"GuildFM/logger"
	"GuildFM/model"
	"GuildFM/repository"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a guild player.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnected    Status = "connected"
	StatusPlaying      Status = "playing"
	StatusPaused       Status = "paused"
	StatusDestroyed    Status = "destroyed"
)

// TrackResolver loads tracks for raw user input. *resolver.Resolver
// satisfies it; tests substitute fakes.
type TrackResolver interface {
	Resolve(raw string) (*query.Query, error)
	FetchTracks(ctx context.Context, q *query.Query) (*provider.LoadResult, error)
}

// Config carries the tunables shared by every player.
type Config struct {
	QueueCap       int
	MaxTrackLength int64
	VoteRatio      float64
	ErrorThreshold int
	ErrorWindow    time.Duration
	EmptyDCTimer   time.Duration
}

// Deps are the collaborators a player talks to.
type Deps struct {
	Node      node.Controller
	QueueLog  repository.QueueLog
	Playlists repository.PlaylistStore
	Settings  repository.SettingsStore
	Resolver  TrackResolver
	Notify    chan<- Notification
}

// Player owns the playback state of a single guild. All mutation goes
// through its mutex; node events are applied by a dedicated dispatcher
// goroutine so adapter fetches never run inside event handling.
type Player struct {
	guildID string
	cfg     Config
	deps    Deps

	mu       sync.Mutex
	status   Status
	roomID   string
	queue    []model.Track
	current  *model.Track
	settings *model.GuildSettings
	votes    *votes
	playLock bool

	errorCount  int
	errorSince  time.Time
	dcTimer     *time.Timer
	rng         *rand.Rand
	events      chan node.Event
	done        chan struct{}
	closeOnce   sync.Once
}

func newPlayer(guildID string, cfg Config, deps Deps) *Player {
	p := &Player{
		guildID:  guildID,
		cfg:      cfg,
		deps:     deps,
		status:   StatusDisconnected,
		settings: model.DefaultGuildSettings(guildID),
		votes:    newVotes(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		events:   make(chan node.Event, 16),
		done:     make(chan struct{}),
	}
	go p.dispatch()
	return p
}

func (p *Player) GuildID() string { return p.guildID }

// Status returns the current lifecycle state.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Current returns a copy of the playing track, if any.
func (p *Player) Current() *model.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	t := *p.current
	return &t
}

// Queue returns a snapshot of the pending tracks.
func (p *Player) Queue() []model.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Track, len(p.queue))
	copy(out, p.queue)
	return out
}

// QueueLen returns the number of pending tracks.
func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Connect binds the player to a voice room and loads the guild
// settings. Reconnecting to another room moves the binding.
func (p *Player) Connect(ctx context.Context, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return ErrPlayerDestroyed
	}
	s, err := p.deps.Settings.Get(ctx, p.guildID)
	if err != nil {
		return fmt.Errorf("load guild settings: %w", err)
	}
	p.settings = s
	p.roomID = roomID
	if p.status == StatusDisconnected {
		p.status = StatusConnected
	}
	p.stopDCTimer()
	if err := p.deps.Node.Volume(ctx, p.guildID, s.Volume); err != nil {
		logger.Warn("restore volume failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	return nil
}

// ReloadSettings refreshes the cached guild settings from storage.
func (p *Player) ReloadSettings(ctx context.Context) error {
	s, err := p.deps.Settings.Get(ctx, p.guildID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()
	return nil
}

// Play resolves raw input and enqueues the resulting tracks. Multi-track
// loads hold the guild's load slot; a second playlist load while one is
// in flight fails with ErrStillLoading. Returns the accepted count and
// playlist info when the source was a collection.
func (p *Player) Play(ctx context.Context, raw, requesterID string) (int, *provider.PlaylistInfo, error) {
	q, err := p.deps.Resolver.Resolve(raw)
	if err != nil {
		return 0, nil, err
	}

	multi := q.Kind == query.KindAlbum || q.Kind == query.KindPlaylist || q.Kind == query.KindLocalFolder
	if multi {
		if !p.acquireLoadSlot() {
			return 0, nil, ErrStillLoading
		}
		defer p.releaseLoadSlot()
	}

	res, err := p.deps.Resolver.FetchTracks(ctx, q)
	if err != nil {
		return 0, nil, err
	}
	tracks := res.Tracks
	if !multi && len(tracks) > 1 {
		idx := 0
		if q.TrackIndex > 0 && q.TrackIndex <= len(tracks) {
			idx = q.TrackIndex - 1
		}
		tracks = tracks[idx : idx+1]
	}
	if !multi && len(tracks) == 1 && q.StartTime > 0 {
		tracks[0].StartTime = q.StartTime
	}
	if len(tracks) == 0 {
		return 0, res.Playlist, nil
	}

	added, err := p.Enqueue(ctx, tracks, requesterID, !multi)
	return added, res.Playlist, err
}

func (p *Player) acquireLoadSlot() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playLock || p.status == StatusDestroyed {
		return false
	}
	p.playLock = true
	return true
}

func (p *Player) releaseLoadSlot() {
	p.mu.Lock()
	p.playLock = false
	p.mu.Unlock()
}

// Enqueue appends tracks to the queue, applying the guild's keyword
// lists, length limit and queue cap. Strict mode rejects a single
// disallowed track with a typed error and leaves the queue untouched;
// otherwise disallowed tracks are skipped. Accepted tracks are written
// to the queue log before playback can observe them; a failed write
// surfaces as an error even when earlier tracks got in.
func (p *Player) Enqueue(ctx context.Context, tracks []model.Track, requesterID string, strict bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return 0, ErrPlayerDestroyed
	}
	if p.roomID == "" {
		return 0, ErrNotConnected
	}

	wasEmpty := len(p.queue) == 0
	added := 0
	for _, t := range tracks {
		if err := p.admit(t); err != nil {
			if strict {
				return added, err
			}
			continue
		}
		stamped := t.WithExtras(requesterID, p.roomID, false)
		if err := p.deps.QueueLog.Enqueue(ctx, p.guildID, p.roomID, stamped); err != nil {
			return added, fmt.Errorf("persist queue entry: %w", err)
		}
		p.queue = append(p.queue, stamped)
		added++
		p.notify(NoteTrackEnqueue, &stamped, "")
	}
	if added == 0 {
		return 0, nil
	}

	start := 1
	if wasEmpty {
		start = 0
	}
	p.maybeShuffle(start)

	if p.current == nil && p.status != StatusPaused {
		if err := p.playNext(ctx); err != nil {
			return added, err
		}
	}
	return added, nil
}

// admit checks a track against the guild gates. Called with mu held.
func (p *Player) admit(t model.Track) error {
	if p.cfg.QueueCap > 0 {
		limit := p.cfg.QueueCap
		// When idle, the queue head starts playing right away and no
		// longer occupies a queue slot.
		if p.current == nil && p.status != StatusPaused {
			limit++
		}
		if len(p.queue) >= limit {
			return ErrQueueFull
		}
	}
	if !p.keywordAllowed(t) {
		return ErrQueryUnauthorized
	}
	maxSecs := int64(p.settings.MaxLength)
	if maxSecs == 0 {
		maxSecs = p.cfg.MaxTrackLength
	}
	// Track durations are milliseconds; the limit is seconds.
	if maxSecs > 0 && !t.IsStream && t.Duration > maxSecs*1000 {
		return ErrTrackTooLong
	}
	return nil
}

func (p *Player) keywordAllowed(t model.Track) bool {
	haystack := strings.ToLower(t.Title + " " + t.Author + " " + t.URI)
	if allow := p.settings.KeywordAllowList(); len(allow) > 0 {
		ok := false
		for _, kw := range allow {
			if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, kw := range p.settings.KeywordDenyList() {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// maybeShuffle shuffles queue[start:] when the guild has shuffle on.
// start protects the head entry once something is already lined up.
func (p *Player) maybeShuffle(start int) {
	if !p.settings.Shuffle || len(p.queue)-start < 2 {
		return
	}
	if !p.settings.ShuffleBumped {
		start = 0
	}
	if start < 0 || start >= len(p.queue) {
		start = 0
	}
	tail := p.queue[start:]
	p.rng.Shuffle(len(tail), func(i, j int) {
		tail[i], tail[j] = tail[j], tail[i]
	})
}

// playNext pops the head of the queue and starts it. Called with mu
// held. An empty queue with autoplay enabled pulls a track from the
// guild's daily playlists instead of going idle.
func (p *Player) playNext(ctx context.Context) error {
	if len(p.queue) == 0 {
		if p.settings.AutoPlay {
			if t := p.autoplayTrack(ctx); t != nil {
				p.queue = append(p.queue, *t)
				p.notify(NoteAutoplay, t, "")
			}
		}
		if len(p.queue) == 0 {
			p.current = nil
			p.status = StatusConnected
			return nil
		}
	}
	t := p.queue[0]
	p.queue = p.queue[1:]
	p.votes.clearAll()
	p.current = &t
	p.status = StatusPlaying
	p.stopDCTimer()
	if err := p.deps.Node.Play(ctx, p.guildID, t); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	return nil
}

// autoplayTrack picks a random track from the guild's daily playlists.
// Errors are logged and swallowed; autoplay is best-effort.
func (p *Player) autoplayTrack(ctx context.Context) *model.Track {
	lists, err := p.deps.Playlists.FetchAll(ctx, model.ScopeGuild, p.guildID, "")
	if err != nil {
		logger.Warn("autoplay playlist lookup failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
		return nil
	}
	var pool []model.Track
	for _, pl := range lists {
		if !strings.HasPrefix(pl.Name, repository.DailyPlaylistPrefix) {
			continue
		}
		tracks, err := pl.TrackList()
		if err != nil {
			continue
		}
		pool = append(pool, tracks...)
	}
	if len(pool) == 0 {
		return nil
	}
	t := pool[p.rng.Intn(len(pool))]
	t = t.WithExtras("", p.roomID, true)
	return &t
}

// appendToDaily records a started track into today's daily playlist.
// Called without mu held.
func (p *Player) appendToDaily(ctx context.Context, t model.Track) {
	name := repository.DailyPlaylistPrefix + time.Now().UTC().Format("2006-01-02")
	lists, err := p.deps.Playlists.FetchAll(ctx, model.ScopeGuild, p.guildID, "")
	if err != nil {
		logger.Warn("daily playlist lookup failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
		return
	}
	var today *model.Playlist
	for _, pl := range lists {
		if pl.Name == name {
			today = pl
			break
		}
	}
	playlistID := uuid.NewString()
	var tracks []model.Track
	if today != nil {
		playlistID = today.PlaylistID
		tracks, _ = today.TrackList()
	}
	for _, existing := range tracks {
		if existing.Equal(t) {
			return
		}
	}
	tracks = append(tracks, t)
	if err := p.deps.Playlists.Upsert(ctx, model.ScopeGuild, p.guildID, playlistID, name, "", "", tracks); err != nil {
		logger.Warn("daily playlist write failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
}

// Disconnect leaves the voice room but keeps the player usable. The
// pending queue stays in the log for the next session.
func (p *Player) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return ErrPlayerDestroyed
	}
	if p.current != nil {
		if err := p.deps.Node.Stop(ctx, p.guildID); err != nil {
			logger.Warn("stop on disconnect failed",
				logger.String("guild_id", p.guildID), logger.ErrorField(err))
		}
	}
	p.current = nil
	p.status = StatusDisconnected
	p.roomID = ""
	p.votes.clearAll()
	p.stopDCTimer()
	p.notify(NoteDisconnect, nil, "")
	return nil
}

// Destroy tears the player down for good. Settings already mutated at
// runtime (volume, equalizer) are flushed back to storage and the
// persisted queue for the guild is dropped.
func (p *Player) Destroy(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyLocked(ctx, "")
}

// destroyLocked performs the teardown. Called with mu held.
func (p *Player) destroyLocked(ctx context.Context, reason string) error {
	if p.status == StatusDestroyed {
		return nil
	}
	p.status = StatusDestroyed
	p.queue = nil
	p.current = nil
	p.votes.clearAll()
	p.stopDCTimer()

	if err := p.deps.Settings.Save(ctx, p.settings); err != nil {
		logger.Warn("persist settings on destroy failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	if err := p.deps.QueueLog.DropGuild(ctx, p.guildID); err != nil {
		logger.Warn("drop queue log on destroy failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	if err := p.deps.Node.Destroy(ctx, p.guildID); err != nil {
		logger.Warn("node destroy failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	if reason != "" {
		p.notify(NoteMultipleErrors, nil, reason)
	}
	p.notify(NoteDisconnect, nil, "")
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Close stops the player for process shutdown. Unlike Destroy it keeps
// the persisted queue so the next start can restore it.
func (p *Player) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return nil
	}
	p.status = StatusDestroyed
	p.queue = nil
	p.current = nil
	p.votes.clearAll()
	p.stopDCTimer()
	if err := p.deps.Settings.Save(ctx, p.settings); err != nil {
		logger.Warn("persist settings on close failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	if err := p.deps.Node.Destroy(ctx, p.guildID); err != nil {
		logger.Warn("node destroy failed",
			logger.String("guild_id", p.guildID), logger.ErrorField(err))
	}
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// SetVolume updates playback volume on the node and in the cached
// settings; the new value reaches storage on destroy or via Save.
func (p *Player) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 150 {
		volume = 150
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return ErrPlayerDestroyed
	}
	if err := p.deps.Node.Volume(ctx, p.guildID, volume); err != nil {
		return err
	}
	p.settings.Volume = volume
	return nil
}

// SetEqualizer stores the band gains in the cached settings.
func (p *Player) SetEqualizer(bands []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return ErrPlayerDestroyed
	}
	p.settings.SetEQ(bands)
	return nil
}

// seed preloads the queue from the persisted log, used at startup.
func (p *Player) seed(entries []model.Track, roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusDestroyed {
		return
	}
	p.queue = append(p.queue, entries...)
	if p.roomID == "" {
		p.roomID = roomID
	}
}

func (p *Player) stopDCTimer() {
	if p.dcTimer != nil {
		p.dcTimer.Stop()
		p.dcTimer = nil
	}
}

func (p *Player) notify(kind NotificationKind, t *model.Track, msg string) {
	if p.deps.Notify == nil {
		return
	}
	n := Notification{Kind: kind, GuildID: p.guildID, Message: msg}
	if t != nil {
		cp := *t
		n.Track = &cp
	}
	select {
	case p.deps.Notify <- n:
	default:
		logger.Warn("notification channel full, dropping",
			logger.String("guild_id", p.guildID), logger.String("kind", string(kind)))
	}
}
