// Package reconcile computes, from successive match snapshots, the minimal
// ordered set of UI-mutation instructions: per-team upserts, rank-change
// events, one-shot eliminations and the match-end condition.
package reconcile

import (
	"sort"

	"go.uber.org/zap"

	"github.com/overlaykit/matchfeed/internal/panelstore"
	"github.com/overlaykit/matchfeed/pkg/telemetry"
)

const (
	DefaultMaxTeams     = 16
	DefaultMinSquadSize = 4

	// Runner-up placement. When the team finishing second goes out, only the
	// winner remains and the match is over.
	runnerUpPlacement = 2
)

type ReconcilerParams struct {
	// MaxTeams caps the displayed roster.
	MaxTeams int

	// MinSquadSize pads the squad display slot count.
	MinSquadSize int

	Logger *zap.Logger
}

// teamMemo is what the reconciler remembers about a team between passes.
type teamMemo struct {
	rank       int
	inMatch    bool
	eliminated bool
}

// Reconciler turns (previous state, current snapshot) into a Diff. Calls are
// not safe for concurrent use; the pipeline guarantees one in-flight pass.
type Reconciler struct {
	maxTeams     int
	minSquadSize int
	log          *zap.Logger

	panels *panelstore.Store
	memos  map[int]*teamMemo

	matchEnded bool
	wasFull    bool
}

func CreateReconciler(params ReconcilerParams) *Reconciler {
	maxTeams := DefaultMaxTeams
	if params.MaxTeams > 0 {
		maxTeams = params.MaxTeams
	}
	minSquadSize := DefaultMinSquadSize
	if params.MinSquadSize > 0 {
		minSquadSize = params.MinSquadSize
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}

	return &Reconciler{
		maxTeams:     maxTeams,
		minSquadSize: minSquadSize,
		log:          logger.With(zap.String("component", "SnapshotReconciler")),
		panels:       panelstore.CreateStore(maxTeams),
		memos:        make(map[int]*teamMemo),
	}
}

// Reset drops all per-match state. Called internally on a full refresh.
func (r *Reconciler) Reset() {
	r.panels.Reset()
	r.memos = make(map[int]*teamMemo)
	r.matchEnded = false
	r.wasFull = false
}

// Reconcile computes the diff for one delivered snapshot. fullRefresh means
// the driving snapshot belongs to a new match (or the producer demanded a
// rebuild): panel state is rebuilt from scratch and the renderer is told to
// snap instead of animating from stale indices.
func (r *Reconciler) Reconcile(snap *telemetry.MatchSnapshot, fullRefresh bool) *Diff {
	if fullRefresh {
		r.Reset()
	}

	roster := r.rankedRoster(snap)
	squads := r.squadCounts(snap)
	inMatch := currentMatchTeamIDs(snap)

	diff := &Diff{}
	matchEndedThisPass := false
	var eliminations []Elimination

	for _, team := range roster {
		index, created, err := r.panels.Assign(team.ID)
		if err != nil {
			r.log.Warn("No panel available for team", zap.String("team", team.Name), zap.Error(err))
			continue
		}

		squad := squads[team.ID]
		if squad.Size < r.minSquadSize {
			squad.Size = r.minSquadSize
		}

		diff.Upserts = append(diff.Upserts, TeamUpsert{
			TeamID:     team.ID,
			Name:       team.Name,
			PanelIndex: index,
			Created:    created,
			Team:       team,
			Squad:      squad,
		})

		memo := r.memos[team.ID]

		// Just-eliminated fires on the transition only: the team was in the
		// match and not yet out, and now every current-match player of its
		// squad is non-alive. Teams already out, or never in the match, do
		// not re-trigger.
		playerCount := squad.Alive + squad.Groggy + squad.Dead
		justEliminated := memo != nil && memo.inMatch && !memo.eliminated &&
			playerCount > 0 && squad.Alive == 0

		if justEliminated {
			eliminations = append(eliminations, Elimination{
				TeamID:        team.ID,
				Name:          team.Name,
				PlacementRank: team.PlacementRank,
			})

			if team.PlacementRank == runnerUpPlacement && !r.matchEnded {
				matchEndedThisPass = true
				r.matchEnded = true
			}
		}

		if memo != nil && memo.rank != team.Rank {
			direction := RankDown
			if team.Rank < memo.rank {
				direction = RankUp
			}
			diff.RankChanges = append(diff.RankChanges, RankChange{
				TeamID:    team.ID,
				Name:      team.Name,
				From:      memo.rank,
				To:        team.Rank,
				Direction: direction,
			})
		}

		if memo == nil {
			memo = &teamMemo{}
			r.memos[team.ID] = memo
		}
		memo.rank = team.Rank
		memo.inMatch = inMatch[team.ID]
		if team.Eliminated || justEliminated {
			memo.eliminated = true
		}
	}

	// The elimination-overlay batch is suppressed on the match-end pass;
	// position and score updates already computed above still apply.
	diff.MatchEnded = matchEndedThisPass
	if !matchEndedThisPass {
		sort.SliceStable(eliminations, func(i, j int) bool {
			return eliminations[i].PlacementRank > eliminations[j].PlacementRank
		})
		diff.Eliminations = eliminations
	}

	if fullRefresh {
		diff.SnapAll = true
	} else if !r.wasFull && r.panels.Full() {
		// First pass where the panel set reaches full size: snap everything
		// rather than animating from indices that never existed.
		diff.SnapAll = true
	}
	if r.panels.Full() {
		r.wasFull = true
	}

	return diff
}

// rankedRoster returns the cumulative roster sorted by rank ascending, ties
// broken by name ascending, capped at the displayed-team limit.
func (r *Reconciler) rankedRoster(snap *telemetry.MatchSnapshot) []telemetry.TeamRecord {
	roster := make([]telemetry.TeamRecord, len(snap.Roster))
	copy(roster, snap.Roster)

	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].Rank != roster[j].Rank {
			return roster[i].Rank < roster[j].Rank
		}
		return roster[i].Name < roster[j].Name
	})

	if len(roster) > r.maxTeams {
		roster = roster[:r.maxTeams]
	}
	return roster
}

// squadCounts joins current-match players to teams. The numeric team id is
// the primary join key; players carrying a zero id are joined by team name.
func (r *Reconciler) squadCounts(snap *telemetry.MatchSnapshot) map[int]SquadStatus {
	idByName := make(map[string]int, len(snap.Teams)+len(snap.Roster))
	for _, team := range snap.Roster {
		idByName[team.Name] = team.ID
	}
	for _, team := range snap.Teams {
		idByName[team.Name] = team.ID
	}

	squads := make(map[int]SquadStatus)
	for i := range snap.Players {
		player := &snap.Players[i]

		teamID := player.TeamID
		if teamID == 0 {
			resolved, has := idByName[player.TeamName]
			if !has {
				r.log.Debug("Player has no resolvable team", zap.String("player", player.Name))
				continue
			}
			teamID = resolved
		}

		squad := squads[teamID]
		switch player.Status() {
		case telemetry.StatusAlive:
			squad.Alive++
		case telemetry.StatusGroggy:
			squad.Groggy++
		case telemetry.StatusDead:
			squad.Dead++
		}
		squad.Size = squad.Alive + squad.Groggy + squad.Dead
		squads[teamID] = squad
	}
	return squads
}

func currentMatchTeamIDs(snap *telemetry.MatchSnapshot) map[int]bool {
	ids := make(map[int]bool, len(snap.Teams))
	for _, team := range snap.Teams {
		ids[team.ID] = true
	}
	return ids
}
