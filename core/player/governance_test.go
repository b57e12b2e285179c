package player

import (
	"context"
	"testing"

	"GuildFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listener(id string, members int) Requester {
	return Requester{ID: id, RoomMembers: members}
}

func dj(id string) Requester {
	return Requester{ID: id, Privileged: true}
}

func startPlayback(t *testing.T, f *fixture, ids ...string) {
	t.Helper()
	f.connect(t)
	tracks := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, mkTrack(id, 1000))
	}
	_, err := f.player.Enqueue(context.Background(), tracks, "user-1", false)
	require.NoError(t, err)
}

func TestSkipVoteGate(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b")

	// Six in the room: two votes needed.
	out, err := f.player.Skip(context.Background(), listener("user-1", 6))
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, 1, out.Votes)
	assert.Equal(t, 2, out.Required)
	assert.Equal(t, "a", f.player.Current().ID)

	// Same user voting again does not move the tally.
	out, err = f.player.Skip(context.Background(), listener("user-1", 6))
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, 1, out.Votes)

	out, err = f.player.Skip(context.Background(), listener("user-2", 6))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "b", f.player.Current().ID)
}

func TestPrivilegedSkipAppliesImmediately(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b")

	out, err := f.player.Skip(context.Background(), dj("dj-1"))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "b", f.player.Current().ID)
}

func TestVotesClearWhenTrackAdvances(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b", "c")

	out, err := f.player.Skip(context.Background(), listener("user-1", 6))
	require.NoError(t, err)
	require.False(t, out.Applied)

	// The track ends on its own; pending skip votes must not carry over.
	f.player.handleEvent(endEvent("a"))
	require.Equal(t, "b", f.player.Current().ID)

	out, err = f.player.Skip(context.Background(), listener("user-2", 6))
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, 1, out.Votes)
}

func TestSkipToBounds(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b", "c")

	_, err := f.player.SkipTo(context.Background(), dj("dj-1"), 0)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = f.player.SkipTo(context.Background(), dj("dj-1"), 5)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = f.player.SkipTo(context.Background(), listener("user-1", 2), 2)
	assert.ErrorIs(t, err, ErrNotPrivileged)
}

func TestSkipToJumpsAhead(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b", "c")

	out, err := f.player.SkipTo(context.Background(), dj("dj-1"), 2)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "c", f.player.Current().ID)
	assert.Equal(t, 0, f.player.QueueLen())
}

func TestStopClearsEverything(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b", "c")

	// Three in the room means two listeners: stop needs both.
	out, err := f.player.Stop(context.Background(), listener("user-1", 3))
	require.NoError(t, err)
	require.False(t, out.Applied)
	assert.Equal(t, 2, out.Required)

	out, err = f.player.Stop(context.Background(), listener("user-2", 3))
	require.NoError(t, err)
	assert.True(t, out.Applied)

	assert.Equal(t, StatusConnected, f.player.Status())
	assert.Nil(t, f.player.Current())
	assert.Equal(t, 0, f.player.QueueLen())
	assert.Equal(t, 0, f.log.unplayedCount("guild-1"))
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a")

	out, err := f.player.Pause(context.Background(), dj("dj-1"))
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, StatusPaused, f.player.Status())

	out, err = f.player.Resume(context.Background(), dj("dj-1"))
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, StatusPlaying, f.player.Status())

	assert.Equal(t, []bool{true, false}, f.node.paused)
}

func TestShuffleKeepsSameTracks(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a", "b", "c", "d", "e")

	before := f.player.Queue()
	out, err := f.player.Shuffle(context.Background(), dj("dj-1"))
	require.NoError(t, err)
	require.True(t, out.Applied)

	after := f.player.Queue()
	require.Len(t, after, len(before))
	seen := make(map[string]int)
	for _, tr := range after {
		seen[tr.ID]++
	}
	for _, tr := range before {
		seen[tr.ID]--
	}
	for id, n := range seen {
		assert.Zerof(t, n, "track %s count changed", id)
	}
}

func TestGovernanceOnDestroyedPlayer(t *testing.T) {
	f := newFixture(t, Config{})
	startPlayback(t, f, "a")
	require.NoError(t, f.player.Destroy(context.Background()))

	_, err := f.player.Skip(context.Background(), dj("dj-1"))
	assert.ErrorIs(t, err, ErrPlayerDestroyed)
	_, err = f.player.Stop(context.Background(), listener("user-1", 3))
	assert.ErrorIs(t, err, ErrPlayerDestroyed)
}
