// Package telemetry holds the decoded match-snapshot model and its msgpack
// codec. One MatchSnapshot is produced per delivered feed message.
package telemetry

type PlayerStatus int

const (
	StatusAlive PlayerStatus = iota
	StatusGroggy
	StatusDead
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusGroggy:
		return "groggy"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// TeamRecord is one ranked team. Name is the unique key; Rank is 1-based and
// lower is better. PlacementRank is the finishing order assigned when the
// team is eliminated.
type TeamRecord struct {
	Name          string `msgpack:"name"`
	ID            int    `msgpack:"id"`
	Rank          int    `msgpack:"rank"`
	PlacementRank int    `msgpack:"placementRank"`
	TotalKills    int    `msgpack:"totalKills"`
	TotalScore    int    `msgpack:"totalScore"`
	Eliminated    bool   `msgpack:"eliminated"`
}

// PlayerRecord is one current-match player. TeamID is the primary join key
// to its team; TeamName is the fallback when the upstream producer omits the
// id (sends zero).
type PlayerRecord struct {
	Name      string  `msgpack:"name"`
	TeamID    int     `msgpack:"teamId"`
	TeamName  string  `msgpack:"teamName"`
	DeathType string  `msgpack:"deathType"`
	Health    float64 `msgpack:"health"`
	HealthMax float64 `msgpack:"healthMax"`
}

// Status derives the player's squad-count bucket. The death-type field is
// authoritative; when the producer omits it the health telemetry decides,
// and a player with no data at all counts as alive.
func (p *PlayerRecord) Status() PlayerStatus {
	switch p.DeathType {
	case "alive":
		return StatusAlive
	case "groggy":
		return StatusGroggy
	case "":
		if p.HealthMax <= 0 {
			return StatusAlive
		}
		if p.Health > 0 {
			return StatusAlive
		}
		return StatusDead
	default:
		return StatusDead
	}
}

// MatchSnapshot is the decoded state for one delivery. Teams is the
// current-match subset; Roster is the cumulative tournament standing, capped
// at the displayed-team limit upstream. MatchID is compared byte-for-byte to
// detect match transitions.
type MatchSnapshot struct {
	MatchID      []byte         `msgpack:"matchId"`
	TournamentID string         `msgpack:"tournamentId"`
	Refresh      bool           `msgpack:"refresh"`
	Teams        []TeamRecord   `msgpack:"teams"`
	Roster       []TeamRecord   `msgpack:"roster"`
	Players      []PlayerRecord `msgpack:"players"`
}
