package testsuite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/lexer"
	"github.com/lexcodex/espxls/reconcile"
)

func newTestReconciler(t *testing.T) (*reconcile.Reconciler, *interact.Registry, *agent.Pool) {
	t.Helper()
	reg := interact.NewRegistry()
	_, err := reg.RegisterScope('b')
	require.NoError(t, err)

	model := agent.CompletionModelConfig{}
	pool := agent.NewPool("", model)
	pool.CreateCustom('b', "", model)

	return reconcile.New(reg, pool, model), reg, pool
}

// TestPushBlockToCustomScope checks that a Push comment targeting
// custom scope 'b' appends the following block verbatim to
// agent b's cache, and reconciling the unchanged text again leaves the
// cache untouched (idempotence).
func TestPushBlockToCustomScope(t *testing.T) {
	r, reg, pool := newTestReconciler(t)
	const uri = "foo.rs"
	src := "// +bThis is important context\nthe body\n"

	tokens, err := lexer.Lex(src, "rs", reg)
	require.NoError(t, err)

	require.NoError(t, r.Update(uri, nil, tokens, nil))

	b, ok := pool.CustomRef('b')
	require.True(t, ok)
	require.Equal(t, []agent.Message{
		{Role: agent.Other(uri, agent.WireUser), Content: "the body\n"},
	}, b.Messages())

	// Re-applying the same text is idempotent: the cache is unchanged.
	require.NoError(t, r.Update(uri, tokens, tokens, nil))
	require.Equal(t, []agent.Message{
		{Role: agent.Other(uri, agent.WireUser), Content: "the body\n"},
	}, b.Messages())
}

// TestRemovePushByEditing checks that editing the push comment out
// of the document removes the corresponding message from
// the custom agent's cache.
func TestRemovePushByEditing(t *testing.T) {
	r, reg, _ := newTestReconciler(t)
	const uri = "foo.rs"
	oldSrc := "// +bThis is important context\nthe body\n"
	newSrc := "the body\n"

	oldTokens, err := lexer.Lex(oldSrc, "rs", reg)
	require.NoError(t, err)
	require.NoError(t, r.Update(uri, nil, oldTokens, nil))

	newTokens, err := lexer.Lex(newSrc, "rs", reg)
	require.NoError(t, err)
	require.NoError(t, r.Update(uri, oldTokens, newTokens, nil))

	b, ok := r.Pool.CustomRef('b')
	require.True(t, ok)
	for _, msg := range b.Messages() {
		require.False(t, msg.Role.Equal(agent.Other(uri, agent.WireUser)))
	}
}

// TestReconcilerLocality checks that updating one document never
// touches another document's messages in a shared agent.
func TestReconcilerLocality(t *testing.T) {
	r, reg, pool := newTestReconciler(t)

	srcA := "// +bcontext from a\nbody a\n"
	tokensA, err := lexer.Lex(srcA, "rs", reg)
	require.NoError(t, err)
	require.NoError(t, r.Update("a.rs", nil, tokensA, nil))

	srcB := "// +bcontext from b\nbody b\n"
	tokensB, err := lexer.Lex(srcB, "rs", reg)
	require.NoError(t, err)
	require.NoError(t, r.Update("b.rs", nil, tokensB, nil))

	b, ok := pool.CustomRef('b')
	require.True(t, ok)

	countFor := func(uri string) int {
		n := 0
		for _, msg := range b.Messages() {
			if msg.Role.Equal(agent.Other(uri, agent.WireUser)) {
				n++
			}
		}
		return n
	}
	require.Equal(t, 1, countFor("a.rs"))
	require.Equal(t, 1, countFor("b.rs"))

	// Re-running a.rs's update must not disturb b.rs's message count.
	require.NoError(t, r.Update("a.rs", tokensA, tokensA, nil))
	require.Equal(t, 1, countFor("a.rs"))
	require.Equal(t, 1, countFor("b.rs"))
}

// ragBlockSink collects PushBlock calls in place of a real persistence
// layer, for testing RagPush wiring independent of sqlitekv.
type ragBlockSink struct {
	pushed []string
}

func (s *ragBlockSink) PushBlock(id agent.ID, uri, content string) error {
	s.pushed = append(s.pushed, content)
	return nil
}

func TestRagPushReachesSink(t *testing.T) {
	r, reg, _ := newTestReconciler(t)
	src := "// ~_watermelon notes\nwatermelon is a fruit\n"
	tokens, err := lexer.Lex(src, "rs", reg)
	require.NoError(t, err)

	sink := &ragBlockSink{}
	require.NoError(t, r.Update("fruit.rs", nil, tokens, sink))
	require.Equal(t, []string{"watermelon is a fruit\n"}, sink.pushed)
}
