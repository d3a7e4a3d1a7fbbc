// Package pipeline wires the stages together: connection manager ->
// dispatch queue -> snapshot decode -> match-state tracking -> snapshot
// reconciliation -> renderer sink. Exactly one delivery is in flight at a
// time; the dispatcher's goroutine drives decode through sink synchronously.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/overlaykit/matchfeed/pkg/connection"
	"github.com/overlaykit/matchfeed/pkg/dispatch"
	"github.com/overlaykit/matchfeed/pkg/matchstate"
	"github.com/overlaykit/matchfeed/pkg/reconcile"
	"github.com/overlaykit/matchfeed/pkg/telemetry"
)

type PipelineParams struct {
	Manager *connection.Manager
	Sink    Sink

	// Pacing configuration, forwarded to the dispatch queue.
	PacingInterval time.Duration
	TickInterval   time.Duration

	// Display configuration, forwarded to the reconciler.
	MaxTeams     int
	MinSquadSize int

	Logger *zap.Logger

	// Now overrides the dispatch time source, for tests.
	Now func() time.Time
}

type MissingCollaboratorError struct {
	Name string
}

func (e *MissingCollaboratorError) Error() string {
	return "Cannot create pipeline without a " + e.Name
}

type Pipeline struct {
	manager    *connection.Manager
	queue      *dispatch.Queue
	tracker    *matchstate.Tracker
	reconciler *reconcile.Reconciler
	sink       Sink

	log *zap.Logger

	closeOnce sync.Once
	closeCh   chan struct{}
	closeErr  error
}

func CreatePipeline(params PipelineParams) (*Pipeline, error) {
	if params.Manager == nil {
		return nil, &MissingCollaboratorError{Name: "connection manager"}
	}
	if params.Sink == nil {
		return nil, &MissingCollaboratorError{Name: "renderer sink"}
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}

	p := &Pipeline{
		manager: params.Manager,
		tracker: matchstate.CreateTracker(),
		reconciler: reconcile.CreateReconciler(reconcile.ReconcilerParams{
			MaxTeams:     params.MaxTeams,
			MinSquadSize: params.MinSquadSize,
			Logger:       logger,
		}),
		sink:    params.Sink,
		log:     logger.With(zap.String("component", "Pipeline")),
		closeCh: make(chan struct{}),
	}

	p.queue = dispatch.CreateQueue(p.handleDelivery, dispatch.QueueParams{
		PacingInterval: params.PacingInterval,
		TickInterval:   params.TickInterval,
		Logger:         logger,
		Now:            params.Now,
	})

	return p, nil
}

// Run drives all stages until the context is done or Close is called.
func (p *Pipeline) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.manager.Run(runCtx); err != nil {
			p.log.Error("Connection manager exited with error", zap.Error(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.queue.Start(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.pump(runCtx)
	}()

	wg.Wait()
	return nil
}

// pump moves inbound payloads from the connection manager into the paced
// queue and logs lifecycle transitions.
func (p *Pipeline) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closeCh:
			return
		case msg := <-p.manager.Messages():
			p.queue.Enqueue(dispatch.Message{
				Reconnecting: msg.Reconnecting,
				Payload:      msg.Payload,
			})
		case change := <-p.manager.StateChanges():
			if change.Err != nil {
				p.log.Warn("Connection state changed",
					zap.String("old", change.Old.String()),
					zap.String("new", change.New.String()),
					zap.Error(change.Err))
			} else {
				p.log.Info("Connection state changed",
					zap.String("old", change.Old.String()),
					zap.String("new", change.New.String()))
			}
		}
	}
}

// handleDelivery runs on the dispatch goroutine, one call at a time. A
// decode or validation failure drops the single message; the queue keeps
// ticking.
func (p *Pipeline) handleDelivery(msg dispatch.Message) {
	snap, err := telemetry.DecodeSnapshot(msg.Payload)
	if err != nil {
		p.log.Warn("Dropping undecodable snapshot payload", zap.Error(err))
		return
	}

	rebuild := p.tracker.ShouldRefresh(snap.MatchID) || snap.Refresh
	diff := p.reconciler.Reconcile(snap, rebuild)
	p.tracker.UpdateState(snap.MatchID, snap.TournamentID)

	p.sink.Apply(Update{
		Rebuild:     rebuild,
		Reconnected: msg.Reconnecting,
		Snapshot:    snap,
		Diff:        diff,
	})
}

// Close tears down every stage and resets tracked match state. Idempotent.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		p.closeErr = multierr.Combine(
			p.manager.Close(),
			p.queue.Stop(),
		)
		p.tracker.Clear()
	})
	return p.closeErr
}
