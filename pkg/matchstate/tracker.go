// Package matchstate decides whether a delivered snapshot belongs to the
// match currently on screen or to a new match that requires a full rebuild.
package matchstate

import (
	"bytes"
	"sync"
)

// Tracker holds the last observed match identifier. ShouldRefresh is a pure
// function of (last id, new id): it never reports a refresh on the very
// first observation and never while the id is unchanged - in particular a
// reconnect that replays the same match id must not rebuild anything.
type Tracker struct {
	mut          sync.Mutex
	matchID      []byte
	tournamentID string
}

func CreateTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) ShouldRefresh(matchID []byte) bool {
	t.mut.Lock()
	defer t.mut.Unlock()

	if t.matchID == nil {
		return false
	}

	return !bytes.Equal(t.matchID, matchID)
}

// UpdateState records the identifiers from a processed snapshot. It must be
// called after every delivery regardless of the refresh decision. The id is
// copied so the caller's buffer is never aliased.
func (t *Tracker) UpdateState(matchID []byte, tournamentID string) {
	t.mut.Lock()
	defer t.mut.Unlock()

	dup := make([]byte, len(matchID))
	copy(dup, matchID)

	t.matchID = dup
	t.tournamentID = tournamentID
}

func (t *Tracker) TournamentID() string {
	t.mut.Lock()
	defer t.mut.Unlock()

	return t.tournamentID
}

// Clear resets to the never-observed state. Used on manual disconnect.
func (t *Tracker) Clear() {
	t.mut.Lock()
	defer t.mut.Unlock()

	t.matchID = nil
	t.tournamentID = ""
}
