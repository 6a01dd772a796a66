// Package runtime is the top-level dispatcher: given a backend name and a
// work order, it negotiates capabilities, compiles policy, prepares a
// workspace, spawns the backend, streams events to callers and hooks, seals
// the resulting receipt, and appends it to the receipt chain. It is the one
// place that knows how all the other packages fit together.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentbackplane/abp/backend"
	"github.com/agentbackplane/abp/capability"
	"github.com/agentbackplane/abp/contract"
	"github.com/agentbackplane/abp/policy"
	"github.com/agentbackplane/abp/queue"
	"github.com/agentbackplane/abp/receiptstore"
	"github.com/agentbackplane/abp/runtime/hooks"
	"github.com/agentbackplane/abp/telemetry"
	"github.com/agentbackplane/abp/workspace"
)

// RuntimeOptions configures a Runtime. The zero value is valid; every field
// falls back to a sane default.
type RuntimeOptions struct {
	// EventBufferSize sets the capacity of each run's internal event
	// channel. Defaults to 256.
	EventBufferSize int
	// QueueCapacity bounds Submit's backing queue. Defaults to 256. A
	// non-positive value after defaulting means unbounded.
	QueueCapacity int
	// Logger receives structured runtime diagnostics. Defaults to a no-op
	// logger.
	Logger telemetry.Logger
	// Metrics receives a gauge snapshot of the Runtime's RunCounters after
	// every run reaches a terminal state. Defaults to a no-op recorder; pass
	// telemetry.NewClueMetrics() to publish through OTEL.
	Metrics telemetry.Metrics
}

func (o RuntimeOptions) withDefaults() RuntimeOptions {
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 256
	}
	if o.QueueCapacity == 0 {
		o.QueueCapacity = 256
	}
	if o.Logger == nil {
		o.Logger = telemetry.NewNoopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.NewNoopMetrics()
	}
	return o
}

// Runtime dispatches work orders to registered backends. A Runtime owns a
// receipt chain, a hook bus, and run counters shared across every run it
// starts; callers typically construct one Runtime per process.
type Runtime struct {
	backends *backend.Registry
	chain    *receiptstore.Chain
	hooks    *hooks.Bus
	counters *telemetry.RunCounters
	queue    *queue.Bounded
	opts     RuntimeOptions
}

// New constructs a Runtime dispatching to the backends registered in reg.
// hookBus and chain may be nil, in which case Runtime creates its own.
func New(reg *backend.Registry, chain *receiptstore.Chain, hookBus *hooks.Bus, opts RuntimeOptions) *Runtime {
	opts = opts.withDefaults()
	if chain == nil {
		chain = receiptstore.NewChain()
	}
	if hookBus == nil {
		hookBus = hooks.NewBus()
	}
	return &Runtime{
		backends: reg,
		chain:    chain,
		hooks:    hookBus,
		counters: &telemetry.RunCounters{},
		queue:    queue.NewBounded(opts.QueueCapacity),
		opts:     opts,
	}
}

// Counters returns the run-lifecycle counters this Runtime maintains.
func (rt *Runtime) Counters() *telemetry.RunCounters { return rt.counters }

// Chain returns the receipt chain every completed run on this Runtime is
// appended to.
func (rt *Runtime) Chain() *receiptstore.Chain { return rt.chain }

// Hooks returns the hook bus subscribers register against to observe every
// run this Runtime dispatches.
func (rt *Runtime) Hooks() *hooks.Bus { return rt.hooks }

// RunHandle is the live handle to a dispatched run: its ID, a channel of
// streamed events (closed when the run ends), and a blocking accessor for
// the terminal receipt.
type RunHandle struct {
	RunID  string
	Events <-chan contract.AgentEvent

	done    chan struct{}
	receipt contract.Receipt
	err     error
}

// Wait blocks until the run ends, returning its sealed receipt or the error
// that ended it. Wait may be called more than once; it always returns the
// same result.
func (h *RunHandle) Wait() (contract.Receipt, error) {
	<-h.done
	return h.receipt, h.err
}

// RunStreaming dispatches one work order against the named backend and
// returns immediately with a RunHandle. It performs, in order: backend
// lookup, capability pre-check, policy compilation, workspace preparation,
// and run_id minting, all synchronously, before spawning the backend in a
// background goroutine. A failure in any synchronous step returns an error
// without spawning anything.
func (rt *Runtime) RunStreaming(ctx context.Context, backendName string, wo contract.WorkOrder) (*RunHandle, error) {
	if err := wo.Validate(); err != nil {
		return nil, err
	}

	b, err := rt.backends.Lookup(backendName)
	if err != nil {
		return nil, err
	}

	if err := capability.RequireCompatible(backendName, b.Capabilities(), wo.Requirements); err != nil {
		return nil, err
	}

	// Compiling validates every glob pattern before any goroutine is
	// spawned; the compiled Engine itself is enforced by the backend (a
	// sidecar consults it locally), not by the dispatcher.
	if _, err := policy.Compile(wo.Policy); err != nil {
		return nil, err
	}

	ws, err := workspace.Prepare(ctx, wo.Workspace)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	runWO := wo
	runWO.Workspace.Root = ws.Path()

	external := make(chan contract.AgentEvent, rt.opts.EventBufferSize)
	handle := &RunHandle{
		RunID:  runID,
		Events: external,
		done:   make(chan struct{}),
	}

	rt.counters.RunStarted()
	rt.hooks.PublishRunStart(ctx, runID, runWO)

	go rt.drive(ctx, b, runID, runWO, ws, external, handle)

	return handle, nil
}

func (rt *Runtime) drive(ctx context.Context, b backend.Backend, runID string, wo contract.WorkOrder, ws *workspace.PreparedWorkspace, external chan<- contract.AgentEvent, handle *RunHandle) {
	defer close(external)
	defer close(handle.done)
	defer func() {
		if err := ws.Close(); err != nil {
			rt.opts.Logger.Warn(ctx, "runtime: workspace cleanup failed", "run_id", runID, "error", err)
		}
	}()

	internal := make(chan contract.AgentEvent, rt.opts.EventBufferSize)
	runErrCh := make(chan error, 1)
	var receipt contract.Receipt
	go func() {
		r, err := b.Run(ctx, runID, wo, internal)
		receipt = r
		runErrCh <- err
		close(internal)
	}()

	for event := range internal {
		rt.counters.EventObserved()
		rt.hooks.PublishEvent(ctx, runID, event)
		external <- event
	}

	if err := <-runErrCh; err != nil {
		rt.counters.RunFailed()
		telemetry.PublishRunCounters(rt.opts.Metrics, rt.counters.Snapshot(), "backend", b.Identity().ID)
		rt.hooks.PublishError(ctx, runID, err)
		handle.err = fmt.Errorf("runtime: run %q: %w", runID, err)
		return
	}

	sealed, err := receipt.WithHash()
	if err != nil {
		rt.counters.RunFailed()
		telemetry.PublishRunCounters(rt.opts.Metrics, rt.counters.Snapshot(), "backend", b.Identity().ID)
		wrapped := fmt.Errorf("runtime: seal receipt for run %q: %w", runID, err)
		rt.hooks.PublishError(ctx, runID, wrapped)
		handle.err = wrapped
		return
	}

	if err := rt.chain.Push(sealed); err != nil {
		rt.counters.RunFailed()
		telemetry.PublishRunCounters(rt.opts.Metrics, rt.counters.Snapshot(), "backend", b.Identity().ID)
		wrapped := fmt.Errorf("runtime: append receipt for run %q: %w", runID, err)
		rt.hooks.PublishError(ctx, runID, wrapped)
		handle.err = wrapped
		return
	}

	rt.counters.RunCompleted()
	telemetry.PublishRunCounters(rt.opts.Metrics, rt.counters.Snapshot(), "backend", b.Identity().ID)
	rt.hooks.PublishRunComplete(ctx, runID, sealed)
	handle.receipt = sealed
}

// Run dispatches wo against backendName and blocks until the run ends,
// draining every streamed event before returning the sealed receipt. Use
// RunStreaming directly when callers need events as they arrive.
func (rt *Runtime) Run(ctx context.Context, backendName string, wo contract.WorkOrder) (contract.Receipt, error) {
	handle, err := rt.RunStreaming(ctx, backendName, wo)
	if err != nil {
		return contract.Receipt{}, err
	}
	for range handle.Events {
	}
	return handle.Wait()
}

// queuedRun is the payload queued by Submit and dequeued by the background
// worker started by RunQueue.
type queuedRun struct {
	ctx         context.Context
	backendName string
	wo          contract.WorkOrder
	result      chan<- submitResult
}

type submitResult struct {
	handle *RunHandle
	err    error
}

// Submit enqueues a work order for later dispatch instead of starting it
// immediately, so the number of pending runs is bounded by the queue's
// capacity. It does not bound how many runs execute at once: RunQueue starts
// each dequeued run without waiting for earlier ones to finish.
// Submit returns queue.ErrFull if the queue is already at capacity. Queued
// runs are only dispatched once a worker goroutine started by RunQueue is
// draining; Submit alone never starts a run.
func (rt *Runtime) Submit(ctx context.Context, priority int, backendName string, wo contract.WorkOrder) (<-chan *RunHandle, error) {
	resultCh := make(chan submitResult, 1)
	item := queuedRun{ctx: ctx, backendName: backendName, wo: wo, result: resultCh}
	if err := rt.queue.Push(item, priority, time.Now()); err != nil {
		return nil, err
	}

	out := make(chan *RunHandle, 1)
	go func() {
		defer close(out)
		res := <-resultCh
		if res.err == nil {
			out <- res.handle
		}
	}()
	return out, nil
}

// RunQueue drains Submit's queue with a single worker goroutine, dispatching
// one queued run at a time via RunStreaming. It blocks until ctx is
// canceled, at which point it returns after the in-flight dispatch (if any)
// has been started.
func (rt *Runtime) RunQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := rt.queue.Pop()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}

		qr := item.Value.(queuedRun)
		handle, runErr := rt.RunStreaming(qr.ctx, qr.backendName, qr.wo)
		qr.result <- submitResult{handle: handle, err: runErr}
	}
}
