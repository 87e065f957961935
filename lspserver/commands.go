package lspserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/bufferop"
)

// Commands accepted by workspace/executeCommand.
const (
	// CommandActivate replays the goto-definition "activate" flow
	// (dispatchDefinition) from a code action instead of a cursor jump.
	CommandActivate = "espxls.activate"

	// CommandWalkProject recursively enumerates the workspace,
	// excluding dotfiles, adding each file to the document store.
	CommandWalkProject = "espxls.walkProject"
)

// nullResult is a non-nil handler result that marshals to JSON null,
// so runHandler still sends a reply for it.
var nullResult = json.RawMessage("null")

type activateArgs struct {
	URI  string `json:"uri"`
	Line uint32 `json:"line"`
	Char uint32 `json:"char"`
}

// dispatchExecuteCommand routes workspace/executeCommand by command
// name. Both commands report progress through the buffer-op channel
// and reply with a null result, the conventional executeCommand
// response shape when there's nothing structured to hand back.
func dispatchExecuteCommand(ctx context.Context, s *State, _ *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error) {
	var params protocol.ExecuteCommandParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}

	switch params.Command {
	case CommandActivate:
		if len(params.Arguments) == 0 {
			return nil, fmt.Errorf("espxls: %s requires arguments", CommandActivate)
		}
		// Arguments arrive as already-decoded interface{} values, so
		// round-trip through JSON to land them in the typed struct.
		raw, err := json.Marshal(params.Arguments[0])
		if err != nil {
			return nil, err
		}
		var args activateArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		if _, err := ActivateAt(ctx, s, ch, args.URI, protocol.Position{Line: args.Line, Character: args.Char}); err != nil {
			return nil, err
		}
		return nullResult, nil

	case CommandWalkProject:
		if err := WalkProject(ctx, s, ch); err != nil {
			return nil, err
		}
		return nullResult, nil

	default:
		return nil, fmt.Errorf("espxls: unknown command %q", params.Command)
	}
}
