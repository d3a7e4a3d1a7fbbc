package pipeline

import (
	"github.com/overlaykit/matchfeed/pkg/reconcile"
	"github.com/overlaykit/matchfeed/pkg/telemetry"
)

// Update is the complete renderer instruction set for one delivered
// snapshot: zero-or-one rebuild, ordered upserts, rank-change and
// elimination events, and the snap-all hint.
type Update struct {
	// Rebuild is true when the snapshot belongs to a new match (or the
	// producer demanded a refresh) and the display must be rebuilt rather
	// than incrementally updated.
	Rebuild bool

	// Reconnected is true on the first update after an automatic reconnect.
	// It never implies Rebuild by itself.
	Reconnected bool

	Snapshot *telemetry.MatchSnapshot
	Diff     *reconcile.Diff
}

// Sink is the renderer boundary. Apply is invoked once per delivery, never
// concurrently; implementations own all animation and easing concerns.
type Sink interface {
	Apply(update Update)
}
