// Package reconcile drives a local store from a streaming feed source:
// snapshot bootstrap, then incremental events in delivery order, with a
// loading/ready/degraded status and a structured teardown that releases
// the feed connection exactly once.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rsodre/d20-dojo/pkg/feed"
)

// Status is the reconciler lifecycle state. Degraded is tracked as a
// parallel flag, not a status: a degraded reconciler still serves the
// last successfully merged state.
type Status int32

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	}
	return "idle"
}

// ErrRunning is returned by Start when the reconciler is already running.
var ErrRunning = errors.New("reconcile: already running")

// Target is a store the reconciler populates. Reset clears it before a
// snapshot; Apply merges one item and returns an error only for items
// that should be skipped — the reconciler logs and continues.
type Target interface {
	Reset()
	Apply(item feed.Item) error
}

// Reconciler owns one feed subscription and is the sole writer of its
// targets. Create one per logical subscription; Stop it on teardown.
type Reconciler struct {
	source  feed.Source
	query   feed.Query
	targets []Target
	logger  *slog.Logger

	status   atomic.Int32
	degraded atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a reconciler feeding the given targets. Every item is
// offered to every target; targets ignore models they do not track.
func New(source feed.Source, query feed.Query, logger *slog.Logger, targets ...Target) *Reconciler {
	return &Reconciler{
		source:  source,
		query:   query,
		targets: targets,
		logger:  logger,
	}
}

// Start clears the targets, opens the feed, applies the initial snapshot
// and begins applying incremental events in the background. A feed that
// cannot be opened leaves the reconciler ready-but-degraded rather than
// failing: the caller's status indicator surfaces the condition.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrRunning
	}

	subID := uuid.New()
	logger := r.logger.With("subscription_id", subID.String())

	r.degraded.Store(false)
	r.status.Store(int32(StatusLoading))
	for _, t := range r.targets {
		t.Reset()
	}

	ctx, cancel := context.WithCancel(ctx)

	snapshot, sub, err := r.source.Subscribe(ctx, r.query)
	if err != nil {
		cancel()
		logger.Error("Feed subscription failed", "error", err)
		r.degraded.Store(true)
		r.status.Store(int32(StatusReady))
		return nil
	}

	applied := 0
	for _, it := range snapshot {
		if err := r.apply(it); err != nil {
			logger.Debug("Skipping malformed snapshot item", "model", it.Model, "error", err)
			continue
		}
		applied++
	}
	r.status.Store(int32(StatusReady))
	logger.Info("Feed snapshot applied", "items", applied, "skipped", len(snapshot)-applied)

	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, sub, logger)
	return nil
}

// run applies incremental events until cancellation, stream end or a
// feed-level error. The subscription is released on every exit path;
// Cancel itself guarantees the release happens only once.
func (r *Reconciler) run(ctx context.Context, sub feed.Subscription, logger *slog.Logger) {
	defer close(r.done)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				logger.Info("Feed stream ended")
				return
			}
			if ev.Err != nil {
				logger.Error("Feed error, keeping last merged state", "error", ev.Err)
				r.degraded.Store(true)
				return
			}
			// An event already in flight completes, but nothing is
			// applied once cancellation has been observed.
			if ctx.Err() != nil {
				return
			}
			if err := r.apply(ev.Item); err != nil {
				logger.Debug("Skipping malformed event", "model", ev.Item.Model, "error", err)
			}
		}
	}
}

func (r *Reconciler) apply(it feed.Item) error {
	for _, t := range r.targets {
		if err := t.Apply(it); err != nil {
			return err
		}
	}
	return nil
}

// Stop cancels the subscription and waits for the apply loop to finish.
// Already-applied merges are kept. Safe to call when not running and safe
// to call more than once.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.status.Store(int32(StatusIdle))
}

// Status returns the lifecycle state.
func (r *Reconciler) Status() Status {
	return Status(r.status.Load())
}

// Ready reports whether the initial snapshot has been applied.
func (r *Reconciler) Ready() bool {
	return r.Status() == StatusReady
}

// Degraded reports whether the feed failed after the reconciler started.
// The last successfully merged state remains queryable.
func (r *Reconciler) Degraded() bool {
	return r.degraded.Load()
}
