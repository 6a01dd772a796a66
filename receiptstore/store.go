package receiptstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentbackplane/abp/contract"
	"github.com/google/uuid"
)

// Store persists sealed receipts as one pretty-printed JSON file per run,
// named {run_id}.json, under a directory created lazily on first Save.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. dir is not created until Save is
// first called.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) pathFor(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// Save writes r to {dir}/{run_id}.json, pretty-printed, creating dir if
// necessary.
func (s *Store) Save(r contract.Receipt) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("receiptstore: create store dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("receiptstore: marshal receipt: %w", err)
	}
	if err := os.WriteFile(s.pathFor(r.Meta.RunID), data, 0o644); err != nil {
		return fmt.Errorf("receiptstore: write receipt: %w", err)
	}
	return nil
}

// Load reads and parses the receipt with the given run ID.
func (s *Store) Load(runID string) (contract.Receipt, error) {
	data, err := os.ReadFile(s.pathFor(runID))
	if err != nil {
		return contract.Receipt{}, fmt.Errorf("receiptstore: read receipt %q: %w", runID, err)
	}
	var r contract.Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return contract.Receipt{}, fmt.Errorf("receiptstore: parse receipt %q: %w", runID, err)
	}
	return r, nil
}

// List enumerates run IDs in the store directory: every *.json entry whose
// stem parses as a UUID. Non-matching files are ignored. Result is sorted
// for determinism.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("receiptstore: list store dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".json")
		if _, err := uuid.Parse(stem); err != nil {
			continue
		}
		ids = append(ids, stem)
	}
	sort.Strings(ids)
	return ids, nil
}

// VerifyOne recomputes the hash of the stored receipt with the given run ID
// and reports whether it matches the stored receipt_sha256.
func (s *Store) VerifyOne(runID string) (bool, error) {
	r, err := s.Load(runID)
	if err != nil {
		return false, err
	}
	if r.ReceiptSHA256 == nil {
		return false, nil
	}
	want, err := contract.ReceiptHash(r)
	if err != nil {
		return false, fmt.Errorf("receiptstore: recompute hash for %q: %w", runID, err)
	}
	return want == *r.ReceiptSHA256, nil
}

// ChainVerification summarizes the integrity of every receipt currently in
// the store.
type ChainVerification struct {
	IsValid       bool
	ValidCount    int
	InvalidHashes []string
	Gaps          []int64 // milliseconds between consecutive started_at, in started_at order
}

// VerifyChain loads every receipt in the store, checks each hash, and
// computes inter-receipt start-time gaps ordered by started_at.
func (s *Store) VerifyChain() (ChainVerification, error) {
	ids, err := s.List()
	if err != nil {
		return ChainVerification{}, err
	}
	receipts := make([]contract.Receipt, 0, len(ids))
	for _, id := range ids {
		r, err := s.Load(id)
		if err != nil {
			return ChainVerification{}, err
		}
		receipts = append(receipts, r)
	}
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].Meta.StartedAt.Before(receipts[j].Meta.StartedAt)
	})

	result := ChainVerification{IsValid: true}
	for _, r := range receipts {
		ok, err := verifyReceiptHash(r)
		if err != nil {
			return ChainVerification{}, err
		}
		if ok {
			result.ValidCount++
		} else {
			result.IsValid = false
			result.InvalidHashes = append(result.InvalidHashes, r.Meta.RunID)
		}
	}
	for i := 1; i < len(receipts); i++ {
		gap := receipts[i].Meta.StartedAt.Sub(receipts[i-1].Meta.StartedAt).Milliseconds()
		result.Gaps = append(result.Gaps, gap)
	}
	return result, nil
}

func verifyReceiptHash(r contract.Receipt) (bool, error) {
	if r.ReceiptSHA256 == nil {
		return false, nil
	}
	want, err := contract.ReceiptHash(r)
	if err != nil {
		return false, err
	}
	return want == *r.ReceiptSHA256, nil
}
