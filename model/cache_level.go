package model

// CacheLevel is a bit mask describing which metadata cache tiers are
// enabled. Tiers are independently toggleable; set algebra lets callers
// ask "is at least this tier enabled" without branching per bit.
type CacheLevel uint8

const (
	CacheLevelLavalinkLow CacheLevel = 1 << iota
	CacheLevelLavalinkHigh
	CacheLevelYouTube
	CacheLevelSpotify
	cacheLevelReserved

	// CacheLevelLavalink covers both lavalink tiers.
	CacheLevelLavalink = CacheLevelLavalinkLow | CacheLevelLavalinkHigh

	cacheLevelAll = CacheLevelLavalink | CacheLevelYouTube | CacheLevelSpotify | cacheLevelReserved
)

// CacheLevelAll returns a level with every tier enabled.
func CacheLevelAll() CacheLevel { return cacheLevelAll }

// CacheLevelNone returns a level with no tier enabled.
func CacheLevelNone() CacheLevel { return 0 }

// Is reports whether every bit of other is set in l.
func (l CacheLevel) Is(other CacheLevel) bool {
	return l&other == other
}

// IsSubset reports whether l is a subset of other.
func (l CacheLevel) IsSubset(other CacheLevel) bool {
	return other.Is(l)
}

// IsSuperset reports whether l is a superset of other.
func (l CacheLevel) IsSuperset(other CacheLevel) bool {
	return l.Is(other)
}

// Spotify reports whether the provider metadata tier is enabled.
func (l CacheLevel) Spotify() bool { return l.Is(CacheLevelSpotify) }

// YouTube reports whether the match tier is enabled.
func (l CacheLevel) YouTube() bool { return l.Is(CacheLevelYouTube) }

// Lavalink reports whether at least one node resolution tier is enabled.
func (l CacheLevel) Lavalink() bool {
	return l&CacheLevelLavalink != 0
}
