package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredVotes(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		members int
		want    int
	}{
		{"six listeners skip", ActionSkip, 6, 2},
		{"two in room skip", ActionSkip, 2, 1},
		{"lone listener", ActionPause, 1, 1},
		{"large room", ActionShuffle, 11, 4},
		{"stop with two listeners", ActionStop, 3, 2},
		{"stop with five listeners", ActionStop, 6, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredVotes(tt.action, tt.members, 2.5))
		})
	}
}

func TestVoteSetCountsEachUserOnce(t *testing.T) {
	v := newVotes()

	assert.Equal(t, 1, v.add(ActionSkip, "user-1"))
	assert.Equal(t, 1, v.add(ActionSkip, "user-1"))
	assert.Equal(t, 2, v.add(ActionSkip, "user-2"))
	assert.Equal(t, 2, v.count(ActionSkip))

	// Actions tally independently.
	assert.Equal(t, 1, v.add(ActionStop, "user-1"))

	v.clear(ActionSkip)
	assert.Equal(t, 0, v.count(ActionSkip))
	assert.Equal(t, 1, v.count(ActionStop))

	v.clearAll()
	assert.Equal(t, 0, v.count(ActionStop))
}
