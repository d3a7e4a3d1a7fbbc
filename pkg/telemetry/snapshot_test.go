package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	feederrors "github.com/overlaykit/matchfeed/pkg/errors"
)

func TestPlayerStatusDerivation(t *testing.T) {
	cases := []struct {
		name   string
		player PlayerRecord
		want   PlayerStatus
	}{
		{name: "death type alive", player: PlayerRecord{DeathType: "alive"}, want: StatusAlive},
		{name: "death type groggy", player: PlayerRecord{DeathType: "groggy"}, want: StatusGroggy},
		{name: "death type dead", player: PlayerRecord{DeathType: "dead"}, want: StatusDead},
		{name: "unknown death type means dead", player: PlayerRecord{DeathType: "byplayer"}, want: StatusDead},
		{name: "telemetry fallback alive", player: PlayerRecord{Health: 75, HealthMax: 100}, want: StatusAlive},
		{name: "telemetry fallback dead", player: PlayerRecord{Health: 0, HealthMax: 100}, want: StatusDead},
		{name: "no data defaults to alive", player: PlayerRecord{}, want: StatusAlive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.player.Status())
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	snap := &MatchSnapshot{
		MatchID:      []byte{0x01, 0x02, 0x03},
		TournamentID: "tourney-1",
		Refresh:      true,
		Teams:        []TeamRecord{{Name: "Alpha", ID: 1, Rank: 1, TotalKills: 12, TotalScore: 85}},
		Roster:       []TeamRecord{{Name: "Alpha", ID: 1, Rank: 1}},
		Players:      []PlayerRecord{{Name: "p1", TeamID: 1, DeathType: "alive"}},
	}

	payload, err := EncodeSnapshot(snap)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(payload)
	require.NoError(t, err)
	require.Equal(t, snap.MatchID, decoded.MatchID)
	require.Equal(t, "tourney-1", decoded.TournamentID)
	require.True(t, decoded.Refresh)
	require.Equal(t, 12, decoded.Teams[0].TotalKills)
	require.Equal(t, StatusAlive, decoded.Players[0].Status())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot("not base64 at all!!!")
	require.Error(t, err)

	var decodeErr *feederrors.PayloadDecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, "base64", decodeErr.Stage)
}

func TestDecodeRejectsMissingMatchId(t *testing.T) {
	payload, err := EncodeSnapshot(&MatchSnapshot{TournamentID: "tourney-1"})
	require.NoError(t, err)

	_, err = DecodeSnapshot(payload)

	var missingErr *feederrors.MissingFieldError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, "matchId", missingErr.FieldName)
}

func TestDecodeRejectsInvalidRank(t *testing.T) {
	payload, err := EncodeSnapshot(&MatchSnapshot{
		MatchID: []byte("match-a"),
		Roster:  []TeamRecord{{Name: "Alpha", ID: 1, Rank: 0}},
	})
	require.NoError(t, err)

	_, err = DecodeSnapshot(payload)

	var rankErr *feederrors.InvalidRankError
	require.ErrorAs(t, err, &rankErr)
	require.Equal(t, "Alpha", rankErr.TeamName)
}
