package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/state"
)

const (
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
	DefaultQueueSize   = 64
	DefaultPushTimeout = 10 * time.Second
)

// Config holds reconciler settings
type Config struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	QueueSize   int
	PushTimeout time.Duration
}

// DefaultConfig returns the default reconciler settings
func DefaultConfig() Config {
	return Config{
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		QueueSize:   DefaultQueueSize,
		PushTimeout: DefaultPushTimeout,
	}
}

// PushResult is the outcome of one outbound push
type PushResult struct {
	Revision int64
	Err      error
}

// Status is a connection lifecycle transition
type Status struct {
	Connected bool
	Err       error
}

// Hooks receive asynchronous outcomes. Nil hooks are skipped.
type Hooks struct {
	OnStatus  func(Status)
	OnPush    func(PushResult)
	OnInbound func(model.Event, error)
}

type pushJob struct {
	epoch    uint64
	snapshot *model.Snapshot
}

// Reconciler bridges a state.Store to a Channel
type Reconciler struct {
	store   *state.Store
	channel Channel
	clock   clock.Clock
	cfg     Config
	hooks   Hooks
	origin  string
	logger  *slog.Logger

	queue chan pushJob

	mu        sync.Mutex
	connected bool
	epoch     uint64
	lastSeen  int64
	lastPush  uint64
	pending   int
	drained   chan struct{}
}

// New creates a reconciler and attaches it to store as its syncer
func New(store *state.Store, ch Channel, clk clock.Clock, cfg Config, hooks Hooks, logger *slog.Logger) *Reconciler {
	d := DefaultConfig()
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = d.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = d.MaxDelay
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = d.QueueSize
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = d.PushTimeout
	}
	origin := uuid.NewString()
	r := &Reconciler{
		store:   store,
		channel: ch,
		clock:   clk,
		cfg:     cfg,
		hooks:   hooks,
		origin:  origin,
		logger:  logger.With(slog.String("component", "reconcile"), slog.String("origin", origin)),
		queue:   make(chan pushJob, cfg.QueueSize),
	}
	store.SetSyncer(r)
	return r
}

// Origin returns the tag carried by this client's pushes
func (r *Reconciler) Origin() string {
	return r.origin
}

// Connected reports whether local mutations can be pushed
func (r *Reconciler) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Ready fails fast when a push could not be delivered
func (r *Reconciler) Ready() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connected {
		return model.ErrNotConnected
	}
	if len(r.queue) >= cap(r.queue) {
		return model.ErrPushQueueFull
	}
	return nil
}

// Push queues s for delivery. Pushes are sent one at a time in the order
// they were queued.
func (r *Reconciler) Push(s *model.Snapshot) {
	r.mu.Lock()
	job := pushJob{epoch: r.epoch, snapshot: s}
	select {
	case r.queue <- job:
		r.lastPush = cache.SnapshotHash(s)
		r.pending++
		if r.pending == 1 {
			r.drained = make(chan struct{})
		}
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.logger.Error("push queue full, dropping push")
		r.emitPush(PushResult{Err: model.ErrPushQueueFull})
	}
}

// Flush waits until every queued push has been attempted
func (r *Reconciler) Flush(ctx context.Context) error {
	r.mu.Lock()
	if r.pending == 0 {
		r.mu.Unlock()
		return nil
	}
	drained := r.drained
	r.mu.Unlock()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DeleteHistory asks the backend to delete a history entry. The deletion
// is reflected locally when the backend's replace event arrives.
func (r *Reconciler) DeleteHistory(ctx context.Context, id string) error {
	if !r.Connected() {
		return model.ErrNotConnected
	}
	deleter, ok := r.channel.(HistoryDeleter)
	if !ok {
		return errors.New("channel does not support history deletion")
	}
	return deleter.DeleteHistory(ctx, id)
}

// Run connects and keeps reconnecting until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.pushLoop(ctx)
	}()
	defer wg.Wait()

	attempt := 0
	for {
		connected := false
		listenCtx, cancel := context.WithCancel(ctx)
		err := r.channel.Listen(listenCtx,
			func() {
				if loadErr := r.onConnect(listenCtx); loadErr != nil {
					r.logger.Warn("initial load failed", slog.String("error", loadErr.Error()))
					cancel()
					return
				}
				connected = true
			},
			r.handle)
		cancel()

		if connected {
			attempt = 0
			r.onDisconnect(err)
		} else if err != nil && ctx.Err() == nil {
			r.logger.Warn("connect failed", slog.String("error", err.Error()))
		}
		if ctx.Err() != nil {
			return nil
		}

		attempt++
		delay := Backoff(attempt, r.cfg.BaseDelay, r.cfg.MaxDelay)
		r.logger.Info("reconnecting", slog.Int("attempt", attempt), slog.Duration("delay", delay))
		if !r.sleep(ctx, delay) {
			return nil
		}
	}
}

func (r *Reconciler) sleep(ctx context.Context, d time.Duration) bool {
	done := make(chan struct{})
	timer := r.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return true
	case <-ctx.Done():
		timer.Stop()
		return false
	}
}

// onConnect loads the shared snapshot, replacing local state and
// discarding anything that was never pushed.
func (r *Reconciler) onConnect(ctx context.Context) error {
	snap, err := r.channel.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := r.store.ReplaceAll(snap, state.OriginRemote); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	r.mu.Lock()
	r.connected = true
	r.lastSeen = snap.Revision
	r.mu.Unlock()

	r.logger.Info("connected", slog.Int64("revision", snap.Revision))
	r.emitStatus(Status{Connected: true})
	return nil
}

func (r *Reconciler) onDisconnect(cause error) {
	r.mu.Lock()
	r.connected = false
	r.epoch++
	r.mu.Unlock()

	attrs := []any{}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	r.logger.Info("disconnected", attrs...)
	r.emitStatus(Status{Connected: false, Err: cause})
}

// handle applies one inbound event. Events already covered by the last
// seen revision are skipped. Events tagged with this client's origin are
// its own pushes coming back: only the echo of the latest queued push is
// applied, which brings the store back to the server's copy when a
// foreign event landed between queueing and delivery.
func (r *Reconciler) handle(ev model.Event) {
	r.mu.Lock()
	if ev.Revision > 0 && ev.Revision <= r.lastSeen {
		r.mu.Unlock()
		r.logger.Debug("skipping stale event", slog.String("type", string(ev.Type)), slog.Int64("revision", ev.Revision))
		return
	}
	if ev.Revision > r.lastSeen {
		r.lastSeen = ev.Revision
	}
	lastPush := r.lastPush
	r.mu.Unlock()

	if ev.Origin == r.origin {
		if ev.Type == model.EventStateReplaced && ev.Snapshot != nil && cache.SnapshotHash(ev.Snapshot) == lastPush {
			if err := r.store.ReplaceAll(ev.Snapshot, state.OriginRemote); err != nil {
				r.logger.Warn("own echo not applied", slog.String("error", err.Error()))
			}
		}
		r.store.SetRevision(ev.Revision)
		return
	}

	var err error
	switch ev.Type {
	case model.EventStateReplaced:
		err = r.store.ReplaceAll(ev.Snapshot, state.OriginRemote)
	case model.EventPlayerAdded:
		if ev.Player == nil {
			err = fmt.Errorf("%w: player-added without player", model.ErrMalformedSnapshot)
			break
		}
		err = r.store.ApplyRemoteAdd(*ev.Player)
	case model.EventPlayerUpdated:
		if ev.Patch == nil {
			err = fmt.Errorf("%w: player-updated without patch", model.ErrMalformedSnapshot)
			break
		}
		err = r.store.ApplyRemoteUpdate(*ev.Patch)
	case model.EventPlayerRemoved:
		if ev.Name == "" {
			err = fmt.Errorf("%w: player-removed without name", model.ErrMalformedSnapshot)
			break
		}
		err = r.store.ApplyRemoteRemove(ev.Name)
	default:
		r.logger.Debug("ignoring unknown event", slog.String("type", string(ev.Type)))
		return
	}
	if err == nil {
		r.store.SetRevision(ev.Revision)
	} else {
		r.logger.Warn("inbound event not applied",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()))
	}
	if r.hooks.OnInbound != nil {
		r.hooks.OnInbound(ev, err)
	}
}

func (r *Reconciler) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.abandonQueue()
			return
		case job := <-r.queue:
			r.deliver(ctx, job)
			r.done()
		}
	}
}

func (r *Reconciler) deliver(ctx context.Context, job pushJob) {
	r.mu.Lock()
	stale := job.epoch != r.epoch || !r.connected
	r.mu.Unlock()
	if stale {
		r.logger.Warn("dropping push queued before disconnect")
		r.emitPush(PushResult{Err: model.ErrNotConnected})
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, r.cfg.PushTimeout)
	defer cancel()
	ack, err := r.channel.PushState(pushCtx, model.Update{Origin: r.origin, Snapshot: *job.snapshot})
	if err != nil {
		r.logger.Error("push failed", slog.String("error", err.Error()))
		r.emitPush(PushResult{Err: err})
		return
	}
	r.store.SetRevision(ack.Revision)
	r.emitPush(PushResult{Revision: ack.Revision})
}

func (r *Reconciler) done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if r.pending == 0 && r.drained != nil {
		close(r.drained)
		r.drained = nil
	}
}

func (r *Reconciler) abandonQueue() {
	for {
		select {
		case <-r.queue:
			r.done()
		default:
			return
		}
	}
}

func (r *Reconciler) emitStatus(s Status) {
	if r.hooks.OnStatus != nil {
		r.hooks.OnStatus(s)
	}
}

func (r *Reconciler) emitPush(res PushResult) {
	if r.hooks.OnPush != nil {
		r.hooks.OnPush(res)
	}
}

// Backoff returns the delay before reconnect attempt n: base doubled per
// attempt, capped at maxDelay.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return min(d, maxDelay)
}
