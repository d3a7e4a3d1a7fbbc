package matchstate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstObservationNeverRefreshes(t *testing.T) {
	tracker := CreateTracker()

	require.False(t, tracker.ShouldRefresh([]byte("match-a")))
}

func TestRefreshOnlyWhenIdChanges(t *testing.T) {
	tracker := CreateTracker()

	tracker.UpdateState([]byte("match-a"), "tourney-1")
	require.False(t, tracker.ShouldRefresh([]byte("match-a")))
	require.True(t, tracker.ShouldRefresh([]byte("match-b")))

	// Refresh decision is byte-exact.
	require.True(t, tracker.ShouldRefresh([]byte("match-A")))

	tracker.UpdateState([]byte("match-b"), "tourney-1")
	require.False(t, tracker.ShouldRefresh([]byte("match-b")))
	require.True(t, tracker.ShouldRefresh([]byte("match-a")))
}

func TestReconnectWithSameIdNeverRefreshes(t *testing.T) {
	// [connect, matchId=A, disconnect, reconnect, matchId=A]: the second A
	// must not rebuild, reconnection alone never triggers a refresh.
	tracker := CreateTracker()

	require.False(t, tracker.ShouldRefresh([]byte("match-a")))
	tracker.UpdateState([]byte("match-a"), "tourney-1")

	require.False(t, tracker.ShouldRefresh([]byte("match-a")))
}

func TestUpdateStateCopiesCallerBuffer(t *testing.T) {
	tracker := CreateTracker()

	id := []byte("match-a")
	tracker.UpdateState(id, "tourney-1")

	// Mutating the caller's buffer must not affect tracked state.
	id[0] = 'X'
	require.False(t, tracker.ShouldRefresh([]byte("match-a")))
	require.True(t, tracker.ShouldRefresh(id))
}

func TestClearResetsToNeverObserved(t *testing.T) {
	tracker := CreateTracker()

	tracker.UpdateState([]byte("match-a"), "tourney-1")
	require.Equal(t, "tourney-1", tracker.TournamentID())

	tracker.Clear()
	require.False(t, tracker.ShouldRefresh([]byte("match-b")))
	require.Empty(t, tracker.TournamentID())
}
