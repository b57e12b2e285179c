package player

import "math"

// Action is a vote-gated playback control action.
type Action string

const (
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionSkip    Action = "skip"
	ActionShuffle Action = "shuffle"
	ActionStop    Action = "stop"
)

// votes tracks which users voted for which action. Sets are guild+action
// scoped and cleared on every track transition so stale votes cannot
// accumulate across songs.
type votes struct {
	sets map[Action]map[string]struct{}
}

func newVotes() *votes {
	return &votes{sets: make(map[Action]map[string]struct{})}
}

// add registers a user's vote and returns the new tally.
func (v *votes) add(action Action, userID string) int {
	set, ok := v.sets[action]
	if !ok {
		set = make(map[string]struct{})
		v.sets[action] = set
	}
	set[userID] = struct{}{}
	return len(set)
}

func (v *votes) count(action Action) int {
	return len(v.sets[action])
}

func (v *votes) clear(action Action) {
	delete(v.sets, action)
}

func (v *votes) clearAll() {
	v.sets = make(map[Action]map[string]struct{})
}

// RequiredVotes returns the vote threshold for an action given the number
// of participants in the voice room (including the bot). The ratio is a
// tuned constant, roughly a 40% supermajority that tolerates a couple of
// absent participants. Stop in a room of exactly three participants (two
// excluding the bot) always needs both listeners.
func RequiredVotes(action Action, roomMembers int, ratio float64) int {
	if roomMembers <= 1 {
		return 1
	}
	required := int(math.Ceil(float64(roomMembers-1) / ratio))
	if action == ActionStop && roomMembers-1 == 2 {
		required = 2
	}
	if required < 1 {
		required = 1
	}
	return required
}
