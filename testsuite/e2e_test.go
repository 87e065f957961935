package testsuite

import (
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/bufferop"
	"github.com/lexcodex/espxls/config"
	"github.com/lexcodex/espxls/lspserver"
)

// drainUntilFinished runs fn on its own goroutine with a fresh channel
// and an automatic Finish call (mirroring the dispatcher's runHandler),
// collecting every Working operation relayed before Finished arrives.
func drainUntilFinished(t *testing.T, fn func(ctx context.Context, ch *bufferop.Channel) error) []bufferop.Operation {
	t.Helper()
	ctx := context.Background()
	ch := bufferop.NewChannel()

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, ch)
		_ = ch.Finish(ctx)
		errCh <- err
	}()

	var ops []bufferop.Operation
	for status := range ch.Receive() {
		if status.Kind == bufferop.StatusFinished {
			break
		}
		ops = append(ops, status.Op)
	}
	require.NoError(t, <-errCh)
	return ops
}

// TestActivatePromptSingleLineRust is the full end-to-end activation
// flow: open foo.rs, activate the Prompt|Global comment,
// and observe the WorkDone.Begin, WorkDone.Report*, WorkDone.End,
// ShowMessage sequence the client would receive.
func TestActivatePromptSingleLineRust(t *testing.T) {
	cfg := config.Defaults()
	completer := &scriptedCompleter{tokens: []string{"4", "."}}
	embedder := &vocabEmbedder{}

	s, err := lspserver.NewState(cfg, nil, completer, embedder, t.TempDir(), log.Default())
	require.NoError(t, err)

	const uri = "file:///foo.rs"
	const src = "// @_What is 2+2?\nfn x(){}\n"

	ops := drainUntilFinished(t, func(ctx context.Context, ch *bufferop.Channel) error {
		return lspserver.OpenDocument(ctx, s, ch, uri, src)
	})
	require.Len(t, ops, 1)
	require.Equal(t, bufferop.KindDiagnosticsPublish, ops[0].Kind)
	require.Len(t, ops[0].Diagnostics, 1)

	global := s.Pool.GlobalRef()
	require.Empty(t, global.Messages())

	ops = drainUntilFinished(t, func(ctx context.Context, ch *bufferop.Channel) error {
		_, err := lspserver.ActivateAt(ctx, s, ch, uri, protocol.Position{Line: 0, Character: 5})
		return err
	})

	require.Len(t, ops, 5)
	require.Equal(t, bufferop.KindWorkDoneBegin, ops[0].Kind)
	require.Equal(t, bufferop.KindWorkDoneReport, ops[1].Kind)
	require.Equal(t, bufferop.KindWorkDoneReport, ops[2].Kind)
	require.Equal(t, bufferop.KindWorkDoneEnd, ops[3].Kind)
	require.Equal(t, bufferop.KindShowMessage, ops[4].Kind)
	require.Equal(t, "4.", ops[4].Message)

	msgs := global.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "What is 2+2?", msgs[0].Content)
	require.Equal(t, "4.", msgs[1].Content)
}

// TestRagActivationSurfacesRelevantBlocks pushes a block into the
// persistence layer through a RagPush comment, then activates the same
// comment as a retrieval query and expects the pushed content back,
// ranked above the threshold.
func TestRagActivationSurfacesRelevantBlocks(t *testing.T) {
	cfg := config.Defaults()
	embedder := &vocabEmbedder{vocab: []string{"watermelon", "melon", "banana"}}
	s, err := lspserver.NewState(cfg, openTestEngine(t), &scriptedCompleter{}, embedder, t.TempDir(), log.Default())
	require.NoError(t, err)

	const uri = "file:///fruit.rs"
	const src = "// ~_melon\nthe watermelon is ripe\n"

	drainUntilFinished(t, func(ctx context.Context, ch *bufferop.Channel) error {
		return lspserver.OpenDocument(ctx, s, ch, uri, src)
	})

	ops := drainUntilFinished(t, func(ctx context.Context, ch *bufferop.Channel) error {
		_, err := lspserver.ActivateAt(ctx, s, ch, uri, protocol.Position{Line: 0, Character: 4})
		return err
	})

	require.Len(t, ops, 1)
	require.Equal(t, bufferop.KindShowMessage, ops[0].Kind)
	require.Contains(t, ops[0].Message, "watermelon")
	require.Equal(t, 1, s.HotCache.Len())
}
