// Package receiptstore holds the in-memory receipt chain and the
// disk-backed store that persists sealed receipts as one JSON file per run.
package receiptstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/agentbackplane/abp/contract"
)

// ErrDuplicateID is returned by Chain.Push when a receipt's run ID has
// already been pushed.
type ErrDuplicateID struct{ RunID string }

func (e *ErrDuplicateID) Error() string { return fmt.Sprintf("receiptstore: duplicate run_id %q", e.RunID) }

// ErrInvalidHash is returned by Chain.Push when a receipt's stored
// receipt_sha256 does not match its recomputed hash.
type ErrInvalidHash struct{ RunID string }

func (e *ErrInvalidHash) Error() string {
	return fmt.Sprintf("receiptstore: invalid receipt_sha256 for run_id %q", e.RunID)
}

// Chain is an append-only, duplicate-rejecting sequence of sealed receipts.
// The chain owns every receipt it holds; receipts carry no reference back
// to it.
type Chain struct {
	mu       sync.Mutex
	receipts []contract.Receipt
	seenIDs  map[string]struct{}
}

// NewChain returns an empty Chain.
func NewChain() *Chain {
	return &Chain{seenIDs: make(map[string]struct{})}
}

// Push appends r to the chain after checking for a duplicate run_id and, if
// receipt_sha256 is set, that it matches the recomputed hash.
func (c *Chain) Push(r contract.Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.seenIDs[r.Meta.RunID]; seen {
		return &ErrDuplicateID{RunID: r.Meta.RunID}
	}
	if r.ReceiptSHA256 != nil {
		want, err := contract.ReceiptHash(r)
		if err != nil {
			return fmt.Errorf("receiptstore: recompute hash: %w", err)
		}
		if want != *r.ReceiptSHA256 {
			return &ErrInvalidHash{RunID: r.Meta.RunID}
		}
	}

	c.receipts = append(c.receipts, r)
	c.seenIDs[r.Meta.RunID] = struct{}{}
	return nil
}

// Len returns the number of receipts in the chain.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.receipts)
}

// Snapshot returns a copy of every receipt currently in the chain, in push
// order.
func (c *Chain) Snapshot() []contract.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]contract.Receipt, len(c.receipts))
	copy(out, c.receipts)
	return out
}

// Verify re-hashes every receipt in the chain, returning the run IDs of any
// whose stored hash no longer matches.
func (c *Chain) Verify() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var invalid []string
	for _, r := range c.receipts {
		want, err := contract.ReceiptHash(r)
		if err != nil {
			return nil, fmt.Errorf("receiptstore: hash run_id %q: %w", r.Meta.RunID, err)
		}
		if r.ReceiptSHA256 == nil || *r.ReceiptSHA256 != want {
			invalid = append(invalid, r.Meta.RunID)
		}
	}
	return invalid, nil
}

// TotalEvents sums the trace length across every receipt in the chain.
func (c *Chain) TotalEvents() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, r := range c.receipts {
		total += len(r.Trace)
	}
	return total
}

// SuccessRate returns the fraction of receipts whose Outcome is complete, or
// 0 for an empty chain.
func (c *Chain) SuccessRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.receipts) == 0 {
		return 0
	}
	complete := 0
	for _, r := range c.receipts {
		if r.Outcome == contract.OutcomeComplete {
			complete++
		}
	}
	return float64(complete) / float64(len(c.receipts))
}

// DurationRange returns the minimum and maximum run durations across the
// chain. ok is false for an empty chain.
func (c *Chain) DurationRange() (min, max time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.receipts) == 0 {
		return 0, 0, false
	}
	min = time.Duration(c.receipts[0].Meta.DurationMs) * time.Millisecond
	max = min
	for _, r := range c.receipts[1:] {
		d := time.Duration(r.Meta.DurationMs) * time.Millisecond
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max, true
}
