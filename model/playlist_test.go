package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeTypes(t *testing.T) {
	assert.Equal(t, 1, ScopeGlobal.Type())
	assert.Equal(t, 2, ScopeGuild.Type())
	assert.Equal(t, 3, ScopeUser.Type())
}

func TestResolveScopeID(t *testing.T) {
	id, err := ResolveScopeID(ScopeGlobal, "ignored")
	require.NoError(t, err)
	assert.Equal(t, GlobalScopeID, id)

	id, err = ResolveScopeID(ScopeGuild, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "guild-1", id)

	_, err = ResolveScopeID(ScopeGuild, "")
	assert.ErrorIs(t, err, ErrMissingGuild)

	_, err = ResolveScopeID(ScopeUser, "")
	assert.ErrorIs(t, err, ErrMissingAuthor)

	_, err = ResolveScopeID(PlaylistScope("bogus"), "x")
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestPlaylistTrackList(t *testing.T) {
	raw, err := MarshalTracks([]Track{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)

	pl := Playlist{Name: "mix", Tracks: raw}
	tracks, err := pl.TrackList()
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "a", tracks[0].ID)
}
