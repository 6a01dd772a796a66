package receiptstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentbackplane/abp/contract"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sealedReceipt(t *testing.T, runID string, started time.Time, durationMs int64) contract.Receipt {
	t.Helper()
	r := contract.Receipt{
		Meta: contract.Meta{
			RunID: runID, WorkOrderID: "wo", ContractVersion: contract.ContractVersion,
			StartedAt: started, FinishedAt: started.Add(time.Duration(durationMs) * time.Millisecond),
			DurationMs: durationMs,
		},
		Backend:      contract.BackendInfo{ID: "mock"},
		Capabilities: contract.NewCapabilityManifest(),
		Mode:         contract.ModePassthrough,
		Outcome:      contract.OutcomeComplete,
	}
	sealed, err := r.WithHash()
	require.NoError(t, err)
	return sealed
}

func TestChainPushRejectsDuplicateID(t *testing.T) {
	c := NewChain()
	r := sealedReceipt(t, uuid.NewString(), time.Now(), 10)
	require.NoError(t, c.Push(r))
	err := c.Push(r)
	var dup *ErrDuplicateID
	require.ErrorAs(t, err, &dup)
}

func TestChainPushRejectsInvalidHash(t *testing.T) {
	c := NewChain()
	r := sealedReceipt(t, uuid.NewString(), time.Now(), 10)
	r.Outcome = contract.OutcomeFailed // mutate after sealing
	err := c.Push(r)
	var bad *ErrInvalidHash
	require.ErrorAs(t, err, &bad)
}

func TestChainAnalytics(t *testing.T) {
	c := NewChain()
	now := time.Now()
	require.NoError(t, c.Push(sealedReceipt(t, uuid.NewString(), now, 100)))
	require.NoError(t, c.Push(sealedReceipt(t, uuid.NewString(), now.Add(time.Second), 300)))
	require.Equal(t, 1.0, c.SuccessRate())
	min, max, ok := c.DurationRange()
	require.True(t, ok)
	require.Equal(t, 100*time.Millisecond, min)
	require.Equal(t, 300*time.Millisecond, max)
}

func TestStoreSaveLoadList(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	id := uuid.NewString()
	r := sealedReceipt(t, id, time.Now(), 42)
	require.NoError(t, s.Save(r))

	loaded, err := s.Load(id)
	require.NoError(t, err)
	require.Equal(t, r.Meta.RunID, loaded.Meta.RunID)

	ids, err := s.List()
	require.NoError(t, err)
	require.Contains(t, ids, id)

	ok, err := s.VerifyOne(id)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStoreListIgnoresNonUUIDFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Save(sealedReceipt(t, uuid.NewString(), time.Now(), 1)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644))

	ids, err := s.List()
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestVerifyChainSingleElementHasNoGaps(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Save(sealedReceipt(t, uuid.NewString(), time.Now(), 5)))

	v, err := s.VerifyChain()
	require.NoError(t, err)
	require.True(t, v.IsValid)
	require.Equal(t, 1, v.ValidCount)
	require.Empty(t, v.Gaps)
}
