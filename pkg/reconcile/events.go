package reconcile

import "github.com/overlaykit/matchfeed/pkg/telemetry"

type RankDirection int

const (
	// RankUp means the team's rank number decreased (an improvement).
	RankUp RankDirection = iota
	// RankDown means the team's rank number increased.
	RankDown
)

func (d RankDirection) String() string {
	switch d {
	case RankUp:
		return "up"
	case RankDown:
		return "down"
	default:
		return "unknown"
	}
}

// SquadStatus is the per-team player breakdown recomputed on every pass.
// Size is padded up to the minimum displayed squad size.
type SquadStatus struct {
	Alive  int
	Groggy int
	Dead   int
	Size   int
}

// TeamUpsert instructs the renderer to create or update one team panel.
type TeamUpsert struct {
	TeamID     int
	Name       string
	PanelIndex int
	Created    bool
	Team       telemetry.TeamRecord
	Squad      SquadStatus
}

// RankChange fires when a team's recorded rank differs from its previous
// rank. Detection compares ranks, never panel indices.
type RankChange struct {
	TeamID    int
	Name      string
	From      int
	To        int
	Direction RankDirection
}

// Elimination fires exactly once per team, on the pass where its last
// current-match player went down.
type Elimination struct {
	TeamID        int
	Name          string
	PlacementRank int
}

// Diff is the complete ordered instruction set for one reconciliation pass.
// Events are ephemeral: produced once, never persisted.
type Diff struct {
	// Upserts follow roster rank order.
	Upserts []TeamUpsert

	RankChanges []RankChange

	// Eliminations are sorted by placement rank descending for overlay
	// sequencing. Empty when MatchEnded fired this pass.
	Eliminations []Elimination

	// MatchEnded is true on the pass where the runner-up went out.
	MatchEnded bool

	// SnapAll tells the renderer to place every panel at its target index
	// without incremental move animation.
	SnapAll bool
}
