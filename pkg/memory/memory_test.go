package memory_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/memory"
	"github.com/jodin-lang/jodin/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaveLoadScopeRoundTrip exercises spec §8 testable property #4
// literally: save_current_scope(k); push_scope(); set_var(0,v);
// load_scope(k); get_var(0) must return v. The scope saved under k is
// the node as of the save, but it is still live — push_scope extends
// the current chain from it, and load_scope must follow that
// extension back down to reach v.
func TestSaveLoadScopeRoundTrip(t *testing.T) {
	m := memory.New()
	m.SaveCurrentScope("k")
	m.PushScope()
	m.SetVar(0, value.NewInteger(42))

	require.NoError(t, m.LoadScope("k"))
	got, err := m.GetVar(0)
	require.NoError(t, err)
	assert.True(t, got.Equal(value.NewInteger(42)))
}

// TestSaveLoadScopeDeadBranchNotReachable: once the branch pushed
// after a save is popped away, load_scope(k) no longer reaches it —
// the live-child pointer was cleared on pop, so only the saved node's
// ancestors are reconstructed.
func TestSaveLoadScopeDeadBranchNotReachable(t *testing.T) {
	m := memory.New()
	m.SaveCurrentScope("k")
	m.PushScope()
	m.SetVar(0, value.NewInteger(42))
	m.PopScope()

	require.NoError(t, m.LoadScope("k"))
	_, err := m.GetVar(0)
	require.Error(t, err)
}

func TestGetVarWalksInnermostToRoot(t *testing.T) {
	m := memory.New()
	m.SetVar(0, value.NewStr("global"))
	m.PushScope()
	v, err := m.GetVar(0)
	require.NoError(t, err)
	assert.Equal(t, "global", v.Str())

	m.SetVar(0, value.NewStr("local"))
	v, err = m.GetVar(0)
	require.NoError(t, err)
	assert.Equal(t, "local", v.Str())
}

func TestPopScopePanicsOnGlobal(t *testing.T) {
	m := memory.New()
	assert.Panics(t, func() { m.PopScope() })
}

func TestPopScopeRemovesInnermost(t *testing.T) {
	m := memory.New()
	m.PushScope()
	m.SetVar(0, value.NewInteger(1))
	m.PopScope()
	_, err := m.GetVar(0)
	require.Error(t, err)
	var notSet *memory.ErrVariableNotSet
	require.ErrorAs(t, err, &notSet)
}

func TestBackScopeEmptyErrors(t *testing.T) {
	m := memory.New()
	err := m.BackScope()
	require.ErrorIs(t, err, memory.ErrBackScopeEmpty)
}

func TestNextVarNumberReusesReclaimedAscending(t *testing.T) {
	m := memory.New()
	a := m.NextVarNumber()
	b := m.NextVarNumber()
	c := m.NextVarNumber()
	assert.Equal(t, []int{0, 1, 2}, []int{a, b, c})

	m.ReclaimVarNumber(b)
	m.ReclaimVarNumber(a)
	assert.Equal(t, a, m.NextVarNumber())
	assert.Equal(t, b, m.NextVarNumber())

	d := m.NextVarNumber()
	assert.Equal(t, 3, d)
}

func TestValueStackTakeAndReplace(t *testing.T) {
	m := memory.New()
	m.Push(value.NewInteger(1))
	m.Push(value.NewInteger(2))
	taken := m.TakeStack()
	assert.Equal(t, 0, m.StackLen())

	m.Push(value.NewInteger(9))
	m.ReplaceStack(taken)
	assert.Equal(t, 2, m.StackLen())
	top, err := m.Pop()
	require.NoError(t, err)
	assert.True(t, top.Equal(value.NewInteger(2)))
}

func TestClearVarInnermostOnly(t *testing.T) {
	m := memory.New()
	m.SetVar(0, value.NewInteger(1))
	m.PushScope()
	err := m.ClearVar(0)
	require.Error(t, err)

	m.SetVar(0, value.NewInteger(2))
	require.NoError(t, m.ClearVar(0))
	v, err := m.GetVar(0)
	require.NoError(t, err)
	assert.True(t, v.Equal(value.NewInteger(1)))
}
