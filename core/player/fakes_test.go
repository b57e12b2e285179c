package player

import (
	"context"
	"sync"
	"time"

	"GuildFM/core/provider"
	"GuildFM/core/query"
	"GuildFM/model"
	"GuildFM/repository"
)

// fakeNode records control calls instead of talking to an audio node.
type fakeNode struct {
	mu       sync.Mutex
	played   []model.Track
	stops    int
	destroys int
	volumes  []int
	paused   []bool
	playErr  error
}

func (n *fakeNode) Play(ctx context.Context, guildID string, track model.Track) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.playErr != nil {
		return n.playErr
	}
	n.played = append(n.played, track)
	return nil
}

func (n *fakeNode) Stop(ctx context.Context, guildID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stops++
	return nil
}

func (n *fakeNode) Pause(ctx context.Context, guildID string, paused bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paused = append(n.paused, paused)
	return nil
}

func (n *fakeNode) Volume(ctx context.Context, guildID string, volume int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.volumes = append(n.volumes, volume)
	return nil
}

func (n *fakeNode) Destroy(ctx context.Context, guildID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.destroys++
	return nil
}

func (n *fakeNode) playedTracks() []model.Track {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Track, len(n.played))
	copy(out, n.played)
	return out
}

type fakeLogRow struct {
	roomID string
	track  model.Track
	played bool
}

// fakeQueueLog is an in-memory repository.QueueLog.
type fakeQueueLog struct {
	mu         sync.Mutex
	rows       map[string][]fakeLogRow // guildID -> rows in enqueue order
	enqueueErr error
}

func newFakeQueueLog() *fakeQueueLog {
	return &fakeQueueLog{rows: make(map[string][]fakeLogRow)}
}

func (l *fakeQueueLog) Enqueue(ctx context.Context, guildID, roomID string, track model.Track) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enqueueErr != nil {
		return l.enqueueErr
	}
	rows := l.rows[guildID]
	for i, row := range rows {
		if row.roomID == roomID && row.track.ID == track.ID {
			// Re-enqueue refreshes the row in place.
			rows[i].track = track
			rows[i].played = false
			return nil
		}
	}
	l.rows[guildID] = append(rows, fakeLogRow{roomID: roomID, track: track})
	return nil
}

func (l *fakeQueueLog) MarkPlayed(ctx context.Context, guildID, trackID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, row := range l.rows[guildID] {
		if row.track.ID == trackID {
			l.rows[guildID][i].played = true
		}
	}
	return nil
}

func (l *fakeQueueLog) MarkAllPlayed(ctx context.Context, guildID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows[guildID] {
		l.rows[guildID][i].played = true
	}
	return nil
}

func (l *fakeQueueLog) FetchUnplayed(ctx context.Context, guildID string) ([]model.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Track
	for _, row := range l.rows[guildID] {
		if !row.played {
			out = append(out, row.track)
		}
	}
	return out, nil
}

func (l *fakeQueueLog) DropGuild(ctx context.Context, guildID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, guildID)
	return nil
}

func (l *fakeQueueLog) UnplayedSessions(ctx context.Context) ([]repository.QueueSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[repository.QueueSession]bool)
	var out []repository.QueueSession
	for guildID, rows := range l.rows {
		for _, row := range rows {
			if row.played {
				continue
			}
			s := repository.QueueSession{GuildID: guildID, RoomID: row.roomID}
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (l *fakeQueueLog) DeleteScheduled(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var purged int64
	for guildID, rows := range l.rows {
		kept := rows[:0]
		for _, row := range rows {
			if row.played {
				purged++
				continue
			}
			kept = append(kept, row)
		}
		l.rows[guildID] = kept
	}
	return purged, nil
}

func (l *fakeQueueLog) unplayedCount(guildID string) int {
	tracks, _ := l.FetchUnplayed(context.Background(), guildID)
	return len(tracks)
}

// fakePlaylists is an in-memory repository.PlaylistStore.
type fakePlaylists struct {
	mu    sync.Mutex
	lists []*model.Playlist
}

func (s *fakePlaylists) Upsert(ctx context.Context, scope model.PlaylistScope, scopeID, playlistID, name, authorID, url string, tracks []model.Track) error {
	raw, err := model.MarshalTracks(tracks)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pl := range s.lists {
		if pl.ScopeType == scope.Type() && pl.ScopeID == scopeID && pl.PlaylistID == playlistID {
			pl.Name = name
			pl.Tracks = raw
			pl.Deleted = false
			return nil
		}
	}
	s.lists = append(s.lists, &model.Playlist{
		ScopeType:  scope.Type(),
		ScopeID:    scopeID,
		PlaylistID: playlistID,
		Name:       name,
		AuthorID:   authorID,
		URL:        url,
		Tracks:     raw,
	})
	return nil
}

func (s *fakePlaylists) Fetch(ctx context.Context, scope model.PlaylistScope, playlistID, scopeID string) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pl := range s.lists {
		if pl.ScopeType == scope.Type() && pl.ScopeID == scopeID && pl.PlaylistID == playlistID && !pl.Deleted {
			return pl, nil
		}
	}
	return nil, repository.ErrPlaylistNotFound
}

func (s *fakePlaylists) FetchAll(ctx context.Context, scope model.PlaylistScope, scopeID, authorID string) ([]*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Playlist
	for _, pl := range s.lists {
		if pl.ScopeType != scope.Type() || pl.ScopeID != scopeID || pl.Deleted {
			continue
		}
		if authorID != "" && pl.AuthorID != authorID {
			continue
		}
		out = append(out, pl)
	}
	return out, nil
}

func (s *fakePlaylists) FetchAllByNameOrID(ctx context.Context, nameSubstring, id string) ([]*model.Playlist, error) {
	return nil, nil
}

func (s *fakePlaylists) Delete(ctx context.Context, scope model.PlaylistScope, playlistID, scopeID string) error {
	return nil
}

func (s *fakePlaylists) DropScope(ctx context.Context, scope model.PlaylistScope) error {
	return nil
}

func (s *fakePlaylists) ExpireDaily(ctx context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

func (s *fakePlaylists) DeleteScheduled(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeSettings is an in-memory repository.SettingsStore.
type fakeSettings struct {
	mu    sync.Mutex
	byID  map[string]*model.GuildSettings
	saves int
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{byID: make(map[string]*model.GuildSettings)}
}

func (s *fakeSettings) Get(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.byID[guildID]; ok {
		cp := *stored
		return &cp, nil
	}
	return model.DefaultGuildSettings(guildID), nil
}

func (s *fakeSettings) Save(ctx context.Context, settings *model.GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	s.byID[settings.GuildID] = &cp
	s.saves++
	return nil
}

func (s *fakeSettings) Drop(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, guildID)
	return nil
}

// fakeResolver returns canned results for FetchTracks.
type fakeResolver struct {
	result *provider.LoadResult
	err    error
	calls  int
}

func (r *fakeResolver) Resolve(raw string) (*query.Query, error) {
	return query.Parse(raw, "")
}

func (r *fakeResolver) FetchTracks(ctx context.Context, q *query.Query) (*provider.LoadResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &provider.LoadResult{}, nil
}
