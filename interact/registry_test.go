package interact

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/espxls/espxerr"
)

func TestTryGetInteractRoundTrip(t *testing.T) {
	r := NewRegistry()
	packed := r.TryGetInteract("@_What is 2+2?")
	require.NotNil(t, packed)
	cmd, scope, err := r.InterractTuple(*packed)
	require.NoError(t, err)
	require.Equal(t, CommandPrompt, cmd)
	require.Equal(t, ScopeGlobal, scope)
}

func TestTryGetInteractSkipsLeadingWhitespace(t *testing.T) {
	r := NewRegistry()
	packed := r.TryGetInteract("   +.push this")
	require.NotNil(t, packed)
	cmd, scope, err := r.InterractTuple(*packed)
	require.NoError(t, err)
	require.Equal(t, CommandPush, cmd)
	require.Equal(t, ScopeDocument, scope)
}

func TestTryGetInteractUnregisteredCharsReturnNil(t *testing.T) {
	r := NewRegistry()
	require.Nil(t, r.TryGetInteract("just a comment"))
	require.Nil(t, r.TryGetInteract("@"))
	require.Nil(t, r.TryGetInteract(""))
}

func TestRegisterScopeAllocatesIncrementally(t *testing.T) {
	r := NewRegistry()
	a, err := r.RegisterScope('a')
	require.NoError(t, err)
	require.Equal(t, ScopeID(2), a)
	b, err := r.RegisterScope('b')
	require.NoError(t, err)
	require.Equal(t, ScopeID(3), b)
}

func TestRegisterScopeRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterScope('a')
	require.NoError(t, err)
	_, err = r.RegisterScope('a')
	require.ErrorIs(t, err, espxerr.ErrDuplicateScope)
}

func TestRegisterScopeFillsAllFourteenCustomSlots(t *testing.T) {
	r := NewRegistry()
	letters := "abcdefghijklmn" // 14 letters
	for _, ch := range letters {
		_, err := r.RegisterScope(ch)
		require.NoError(t, err)
	}
	_, err := r.RegisterScope('o')
	require.Error(t, err)
}

func TestInterractTupleInverse(t *testing.T) {
	r := NewRegistry()
	scope, err := r.RegisterScope('x')
	require.NoError(t, err)
	packed := Pack(CommandRagPush, scope)
	cmd, gotScope, err := r.InterractTuple(packed)
	require.NoError(t, err)
	require.Equal(t, CommandRagPush, cmd)
	require.Equal(t, scope, gotScope)
}

func TestInterractTupleRejectsUnregisteredScope(t *testing.T) {
	r := NewRegistry()
	packed := Pack(CommandPrompt, ScopeID(9))
	_, _, err := r.InterractTuple(packed)
	require.Error(t, err)
}
