package lspserver

import (
	"context"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/bufferop"
)

// dispatchHover looks up the comment at the cursor position and, if
// it carries a recognized interact code, describes the resolved
// command and scope.
func dispatchHover(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.HoverParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)

	s.RLock()
	tokens, ok := s.Documents.Get(uri)
	s.RUnlock()
	if !ok {
		return nil, ch.Send(ctx, bufferop.HoverResponse(req.ID, nil))
	}

	comment, ok := commentAtPosition(tokens, params.Position)
	if !ok || comment.Interact == nil {
		return nil, ch.Send(ctx, bufferop.HoverResponse(req.ID, nil))
	}

	s.RLock()
	cmd, scope, err := s.Registry.InterractTuple(*comment.Interact)
	s.RUnlock()
	if err != nil {
		return nil, ch.Send(ctx, bufferop.HoverResponse(req.ID, nil))
	}

	hover := &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: fmt.Sprintf("**espxls**: `%s` into scope `%s`", cmd, scopeLabel(s.Registry, scope)),
		},
		Range: &comment.Range,
	}
	return nil, ch.Send(ctx, bufferop.HoverResponse(req.ID, hover))
}

// dispatchDefinition is the "activate" affordance: goto-definition
// on a Prompt-command interact code sends the comment's content to
// the resolved agent and streams the completion back, and on a
// RagPush code runs a retrieval query (see ActivateAt). Every case,
// including a failed or impossible activation, replies with no
// locations; there is nothing to jump to, this request is an
// activation trigger rather than real navigation.
func dispatchDefinition(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.DefinitionParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)

	if _, err := ActivateAt(ctx, s, ch, uri, params.Position); err != nil {
		return nil, ch.Send(ctx, bufferop.GotoFile(req.ID, nil))
	}
	return nil, ch.Send(ctx, bufferop.GotoFile(req.ID, nil))
}

// dispatchCodeAction offers an "Activate" quick action over any range
// containing a recognized interact code, wired to the same
// espxls.activate command workspace/executeCommand serves.
func dispatchCodeAction(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.CodeActionParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)

	s.RLock()
	tokens, ok := s.Documents.Get(uri)
	s.RUnlock()
	if !ok {
		return []protocol.CodeAction{}, nil
	}

	var actions []protocol.CodeAction
	for _, c := range tokens.Comments() {
		if c.Interact == nil || !rangeOverlaps(c.Range, params.Range) {
			continue
		}
		actions = append(actions, protocol.CodeAction{
			Title: "espxls: activate",
			Kind:  protocol.RefactorRewrite,
			Command: &protocol.Command{
				Title:   "espxls: activate",
				Command: CommandActivate,
				Arguments: []interface{}{
					map[string]any{
						"uri":  uri,
						"line": c.Range.Start.Line,
						"char": c.Range.Start.Character,
					},
				},
			},
		})
	}
	return actions, nil
}

func rangeOverlaps(a, b protocol.Range) bool {
	return !(a.End.Line < b.Start.Line || b.End.Line < a.Start.Line)
}
