// Package hooks provides a small synchronous pub/sub fan-out for runtime
// lifecycle callbacks: a run starting, each streamed event, a run
// completing, and a run erroring. Subscribers are invoked in registration
// order; callbacks return no error, so a subscriber cannot abort the run.
package hooks

import (
	"context"
	"sync"

	"github.com/agentbackplane/abp/contract"
)

// Subscriber reacts to runtime lifecycle callbacks. Any method may be left
// nil; Bus skips nil methods without error.
type Subscriber struct {
	// OnRunStart fires once, before the backend is spawned.
	OnRunStart func(ctx context.Context, runID string, wo contract.WorkOrder)
	// OnEvent fires once per event streamed from the backend.
	OnEvent func(ctx context.Context, runID string, event contract.AgentEvent)
	// OnRunComplete fires once, after the receipt has been sealed and
	// appended to the chain.
	OnRunComplete func(ctx context.Context, runID string, receipt contract.Receipt)
	// OnError fires once if the run ends in an error instead of a receipt.
	OnError func(ctx context.Context, runID string, err error)
}

// Subscription is returned by Bus.Register; Close unregisters the
// subscriber. Close is idempotent and safe to call multiple times.
type Subscription struct {
	bus  *Bus
	once sync.Once
	id   *Subscriber
}

// Close unregisters the subscriber. After Close returns, the subscriber
// receives no further callbacks, though a callback already in flight at the
// moment Close is called may still complete.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		for i, sub := range s.bus.subs {
			if sub == s.id {
				s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
				break
			}
		}
	})
}

// Bus fans runtime lifecycle callbacks out to every registered Subscriber,
// synchronously, in registration order. Bus is safe for concurrent
// Register/Publish/Close.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscriber
}

// NewBus returns an empty Bus.
func NewBus() *Bus { return &Bus{} }

// Register adds sub to the bus and returns a Subscription that can be
// closed to unregister it.
func (b *Bus) Register(sub Subscriber) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &sub
	b.subs = append(b.subs, s)
	return &Subscription{bus: b, id: s}
}

func (b *Bus) snapshot() []*Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Subscriber, len(b.subs))
	copy(out, b.subs)
	return out
}

// PublishRunStart fans OnRunStart out to every subscriber.
func (b *Bus) PublishRunStart(ctx context.Context, runID string, wo contract.WorkOrder) {
	for _, sub := range b.snapshot() {
		if sub.OnRunStart != nil {
			sub.OnRunStart(ctx, runID, wo)
		}
	}
}

// PublishEvent fans OnEvent out to every subscriber.
func (b *Bus) PublishEvent(ctx context.Context, runID string, event contract.AgentEvent) {
	for _, sub := range b.snapshot() {
		if sub.OnEvent != nil {
			sub.OnEvent(ctx, runID, event)
		}
	}
}

// PublishRunComplete fans OnRunComplete out to every subscriber.
func (b *Bus) PublishRunComplete(ctx context.Context, runID string, receipt contract.Receipt) {
	for _, sub := range b.snapshot() {
		if sub.OnRunComplete != nil {
			sub.OnRunComplete(ctx, runID, receipt)
		}
	}
}

// PublishError fans OnError out to every subscriber.
func (b *Bus) PublishError(ctx context.Context, runID string, err error) {
	for _, sub := range b.snapshot() {
		if sub.OnError != nil {
			sub.OnError(ctx, runID, err)
		}
	}
}
