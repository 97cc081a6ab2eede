package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvidh/loom/internal/hlo"
	"github.com/arvidh/loom/internal/selectfold"
	"github.com/arvidh/loom/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func foldedModule(t *testing.T) (*hlo.Module, selectfold.Result) {
	t.Helper()
	m, _ := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs:     []hlo.SourceTargetPair{{Source: 1, Target: 0}, {Source: 2, Target: 1}},
		ChannelID: testutil.Int64(1),
	})
	result, err := selectfold.Fold(m)
	require.NoError(t, err)
	require.True(t, result.Changed)
	return m, result
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Opening an existing database must be a no-op schema-wise.
	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestRecordRun_FoldedDecisions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m, result := foldedModule(t)
	require.NoError(t, s.RecordRun(ctx, m, result))

	decisions, err := s.ListDecisions(ctx, "")
	require.NoError(t, err)
	require.Len(t, decisions, 1)

	d := decisions[0]
	assert.Equal(t, m.ID(), d.ModuleID)
	assert.Equal(t, hlo.Fingerprint(m), d.ModuleFingerprint)
	assert.Equal(t, PassSelectFold, d.Pass)
	assert.Equal(t, "main", d.Computation)
	assert.Equal(t, "cp", d.Instruction)
	assert.Equal(t, OutcomeFolded, d.Outcome)
	assert.Contains(t, d.Detail, "select sel evaluated true")
	assert.Contains(t, d.Detail, "operand now fwd")
}

func TestRecordRun_UnchangedMarker(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := hlo.NewModule("noop")
	m.NewComputation("main").AddParameter("p")

	require.NoError(t, s.RecordRun(ctx, m, selectfold.Result{}))

	decisions, err := s.ListDecisions(ctx, m.ID())
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeUnchanged, decisions[0].Outcome)
	assert.Empty(t, decisions[0].Instruction)
}

func TestListDecisions_FilterByModule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m1, r1 := foldedModule(t)
	m2, r2 := foldedModule(t)
	require.NoError(t, s.RecordRun(ctx, m1, r1))
	require.NoError(t, s.RecordRun(ctx, m2, r2))

	all, err := s.ListDecisions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := s.ListDecisions(ctx, m1.ID())
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, m1.ID(), only[0].ModuleID)

	none, err := s.ListDecisions(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
