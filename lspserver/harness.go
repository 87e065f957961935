package lspserver

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/bufferop"
	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/store"
)

// The functions in this file are the method bodies behind
// textDocument/didOpen, didChange, didSave, and the "activate"
// affordance, factored out from their JSON-RPC decode wrappers in
// dispatch.go/commands.go so the testsuite package can drive the full
// lex → reconcile → persist → stream pipeline directly, without
// standing up a jsonrpc2 transport.

// OpenDocument runs the didOpen pipeline: creates the document agent
// (restoring its persisted memory on first open), lexes text, and
// reconciles against it with no prior tokens.
func OpenDocument(ctx context.Context, s *State, ch *bufferop.Channel, uri, text string) error {
	s.Lock()
	defer s.Unlock()
	_, existed := s.Pool.DocRef(uri)
	a := s.Pool.UpdateOrCreateDoc(uri, text, s.Reconciler.DefaultModel)
	if !existed && s.DB != nil {
		msgs, err := s.DB.LoadMemory(ctx, agent.DocumentID(uri))
		if err != nil {
			s.Logger.Printf("espxls: restoring memory for %s failed: %v", uri, err)
		}
		for _, m := range msgs {
			a.Append(m)
		}
	}
	return reconcileAndStore(ctx, s, ch, uri, text)
}

// ChangeDocument runs the didChange pipeline against the document's
// new full text.
func ChangeDocument(ctx context.Context, s *State, ch *bufferop.Channel, uri, text string) error {
	s.Lock()
	defer s.Unlock()
	return reconcileAndStore(ctx, s, ch, uri, text)
}

// SaveDocument runs the didSave pipeline: materialize blocks and
// persist every agent's memory. A failing database operation is
// retried once; a second failure disables persistence for the rest of
// the session.
func SaveDocument(ctx context.Context, s *State, uri string) error {
	s.Lock()
	tokens, ok := s.Documents.Get(uri)
	db := s.DB
	s.Unlock()
	if !ok || db == nil {
		return nil
	}

	blocks := store.ChunkBlocks(uri, tokens.BlockText(), "")
	if err := db.UpsertBlocks(ctx, blocks); err != nil {
		if err = db.UpsertBlocks(ctx, blocks); err != nil {
			s.disablePersistence(err)
			return err
		}
	}

	s.Lock()
	entries := s.Pool.Iterate()
	s.Unlock()
	if err := db.SaveAll(ctx, entries); err != nil {
		if err = db.SaveAll(ctx, entries); err != nil {
			s.disablePersistence(err)
			return err
		}
	}
	return nil
}

// ActivateAt runs the "activate" affordance for the interact code at
// pos in uri: a streamed completion for Prompt codes, a retrieval
// query for RagPush codes. This is the logic both
// textDocument/definition and the espxls.activate command invoke.
func ActivateAt(ctx context.Context, s *State, ch *bufferop.Channel, uri string, pos protocol.Position) (string, error) {
	s.RLock()
	tokens, ok := s.Documents.Get(uri)
	s.RUnlock()
	if !ok {
		return "", espxerr.ErrNoSuchAgent
	}
	comment, ok := commentAtPosition(tokens, pos)
	if !ok || comment.Interact == nil {
		return "", espxerr.ErrInvalidPackedID
	}
	cmd, _, err := s.Registry.InterractTuple(*comment.Interact)
	if err != nil {
		return "", err
	}
	switch cmd {
	case interact.CommandPrompt:
		return activatePrompt(ctx, s, ch, uri, comment)
	case interact.CommandRagPush:
		return activateRag(ctx, s, ch, comment)
	default:
		return "", espxerr.ErrInvalidPackedID
	}
}

// WalkProject runs the workspace/executeCommand espxls.walkProject
// pipeline directly.
func WalkProject(ctx context.Context, s *State, ch *bufferop.Channel) error {
	return walkWorkspace(ctx, s, ch)
}
