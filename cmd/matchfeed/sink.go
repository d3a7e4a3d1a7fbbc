package main

import (
	"go.uber.org/zap"

	"github.com/overlaykit/matchfeed/pkg/pipeline"
)

// loggingSink is a stand-in renderer: it logs every instruction the core
// emits. A real deployment replaces this with an IPC bridge to the overlay
// window.
type loggingSink struct {
	log *zap.Logger
}

func (s *loggingSink) Apply(update pipeline.Update) {
	log := s.log.With(
		zap.ByteString("matchId", update.Snapshot.MatchID),
		zap.Bool("reconnected", update.Reconnected),
	)

	if update.Rebuild {
		log.Info("Full rebuild", zap.Int("teams", len(update.Diff.Upserts)))
	}

	for _, upsert := range update.Diff.Upserts {
		log.Debug("Upsert team panel",
			zap.Int("teamId", upsert.TeamID),
			zap.String("team", upsert.Name),
			zap.Int("panelIndex", upsert.PanelIndex),
			zap.Bool("created", upsert.Created),
			zap.Int("alive", upsert.Squad.Alive))
	}

	for _, change := range update.Diff.RankChanges {
		log.Info("Rank change",
			zap.String("team", change.Name),
			zap.Int("from", change.From),
			zap.Int("to", change.To),
			zap.String("direction", change.Direction.String()))
	}

	for _, elim := range update.Diff.Eliminations {
		log.Info("Team eliminated",
			zap.String("team", elim.Name),
			zap.Int("placement", elim.PlacementRank))
	}

	if update.Diff.MatchEnded {
		log.Info("Match ended")
	}
	if update.Diff.SnapAll {
		log.Info("Snap all panels to position")
	}
}
