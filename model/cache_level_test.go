package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheLevelAllCoversEveryTier(t *testing.T) {
	all := CacheLevelAll()

	assert.True(t, all.Spotify())
	assert.True(t, all.YouTube())
	assert.True(t, all.Lavalink())
	assert.True(t, all.IsSuperset(CacheLevelSpotify))
	assert.True(t, all.IsSuperset(CacheLevelLavalink))
}

func TestCacheLevelNone(t *testing.T) {
	none := CacheLevelNone()

	assert.False(t, none.Spotify())
	assert.False(t, none.YouTube())
	assert.False(t, none.Lavalink())
	assert.True(t, none.IsSubset(CacheLevelAll()))
}

func TestCacheLevelLavalinkIsBothSubTiers(t *testing.T) {
	assert.True(t, CacheLevelLavalink.Is(CacheLevelLavalinkLow))
	assert.True(t, CacheLevelLavalink.Is(CacheLevelLavalinkHigh))
	assert.False(t, CacheLevelLavalinkLow.Is(CacheLevelLavalink))
}

func TestCacheLevelSetAlgebra(t *testing.T) {
	partial := CacheLevelSpotify | CacheLevelYouTube

	assert.True(t, partial.IsSubset(CacheLevelAll()))
	assert.False(t, partial.IsSuperset(CacheLevelAll()))
	assert.True(t, partial.IsSuperset(CacheLevelSpotify))
	assert.False(t, partial.Lavalink())
}
