package lspserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/bufferop"
	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/lexer"
	"github.com/lexcodex/espxls/reconcile"
)

// dispatchDidOpen lexes the newly opened document, reconciles agent
// caches against it with no prior tokens, and stores the result.
func dispatchDidOpen(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.DidOpenTextDocumentParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	return nil, OpenDocument(ctx, s, ch, string(params.TextDocument.URI), params.TextDocument.Text)
}

// dispatchDidChange re-lexes the document against its current full
// text and reconciles against the previously stored tokens. The
// final content change event's Text is treated as the document's
// complete new text: the reconciler's diff operates on lexed tokens,
// not on wire-level edit deltas, so this handler only needs the
// resulting full buffer.
func dispatchDidChange(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.DidChangeTextDocumentParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.ContentChanges) == 0 {
		return nil, nil
	}
	uri := string(params.TextDocument.URI)
	text := params.ContentChanges[len(params.ContentChanges)-1].Text

	return nil, ChangeDocument(ctx, s, ch, uri, text)
}

// dispatchDidSave materializes the document's 25-line blocks and
// persists every agent's memory. Blocks are rematerialized on every
// save, not on every change.
func dispatchDidSave(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.DidSaveTextDocumentParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	return nil, SaveDocument(ctx, s, string(params.TextDocument.URI))
}

// reconcileAndStore runs the lex+reconcile+store pipeline common to
// didOpen and didChange. Caller must already hold s's write lock.
func reconcileAndStore(ctx context.Context, s *State, ch *bufferop.Channel, uri, text string) error {
	ext := extFromURI(uri)
	oldTokens, hadOld := s.Documents.Get(uri)

	newTokens, err := lexer.Lex(text, ext, s.Registry)
	if err != nil {
		if errors.Is(err, espxerr.ErrUnknownExtension) {
			return ch.Send(ctx, bufferop.ShowError(fmt.Sprintf("espxls: no comment syntax known for %q", uri)))
		}
		return err
	}

	var old *lexer.TokenVec
	if hadOld {
		old = oldTokens
	}

	// A nil *sqlitekv.Engine boxed into the blockUpserter interface
	// would compare non-nil, so only construct a sink when a database
	// is actually configured. Running without persistence is a valid
	// session state after a database failure.
	var sink reconcile.BlockSink
	if s.DB != nil {
		sink = newRagSink(ctx, s.DB)
	}
	if err := s.Reconciler.Update(uri, old, newTokens, sink); err != nil {
		return err
	}

	s.Documents.Set(uri, newTokens)

	// Mark every recognized interact code with a hint diagnostic so the
	// user can see which comments the server will act on. A document
	// with no codes left clears its previous hints.
	uriT := protocol.DocumentURI(uri)
	if diags := interactDiagnostics(s.Registry, newTokens); len(diags) > 0 {
		return ch.Send(ctx, bufferop.PublishDiagnostics(uriT, diags))
	}
	return ch.Send(ctx, bufferop.ClearDiagnostics(uriT))
}

func interactDiagnostics(reg *interact.Registry, tv *lexer.TokenVec) []protocol.Diagnostic {
	var diags []protocol.Diagnostic
	for _, c := range tv.Comments() {
		if c.Interact == nil {
			continue
		}
		cmd, scope, err := reg.InterractTuple(*c.Interact)
		if err != nil {
			continue
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    c.Range,
			Severity: protocol.DiagnosticSeverityHint,
			Source:   "espxls",
			Message:  fmt.Sprintf("%s into scope %s", cmd, scopeLabel(reg, scope)),
		})
	}
	return diags
}

func scopeLabel(reg *interact.Registry, scope interact.ScopeID) string {
	switch scope {
	case interact.ScopeGlobal:
		return "global"
	case interact.ScopeDocument:
		return "document"
	default:
		if ch, ok := reg.ScopeChar(scope); ok {
			return fmt.Sprintf("%q", ch)
		}
		return "unknown"
	}
}
