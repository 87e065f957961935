// Server wiring: a jsonrpc2 connection served with the VSCode object
// codec over stdio or a Unix socket, dispatching into the handler
// tables in dispatch.go.
package lspserver

import (
	"context"
	"io"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Server owns the dispatcher and advertises the server capabilities.
type Server struct {
	dispatcher *Dispatcher
}

// NewServer builds a server over an already-wired State.
func NewServer(s *State) *Server {
	return &Server{dispatcher: NewDispatcher(s)}
}

// Capabilities returns the advertised ServerCapabilities:
// incremental sync, hover/definition/codeAction, and a completion
// provider triggered on "?", '"', and space.
func Capabilities() protocol.ServerCapabilities {
	syncKind := protocol.TextDocumentSyncKindIncremental
	return protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    syncKind,
			Save:      &protocol.SaveOptions{IncludeText: true},
		},
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{"?", "\"", " "},
			ResolveProvider:   false,
		},
		CodeActionProvider:  true,
		HoverProvider:       true,
		DefinitionProvider:  true,
		ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
			Commands: []string{CommandActivate, CommandWalkProject},
		},
	}
}

// rootHandler intercepts initialize/shutdown/exit itself (they answer
// from server-global state, not State's documents/agents) and defers
// everything else to the dispatcher.
type rootHandler struct {
	s *Server
}

func (h rootHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "initialize":
		result := protocol.InitializeResult{Capabilities: Capabilities()}
		_ = conn.Reply(ctx, req.ID, &result)
	case "initialized":
		// no-op: nothing to acknowledge server-side.
	case "shutdown":
		_ = conn.Reply(ctx, req.ID, nil)
	case "exit":
		_ = conn.Close()
	default:
		h.s.dispatcher.Handle(ctx, conn, req)
	}
}

// Run serves one LSP session over stream (stdio or a Unix socket
// connection) until the connection closes.
func (s *Server) Run(ctx context.Context, stream io.ReadWriteCloser) error {
	jsonStream := jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, jsonStream, rootHandler{s: s})
	<-conn.DisconnectNotify()
	return nil
}
