package lspserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/lexcodex/espxls/bufferop"
)

// rawHandler is what every method handler in this package implements:
// it owns the sender end of ch for its entire duration and must not
// return until every BufferOperation it wants delivered has been
// sent. The dispatcher calls ch.Finish on its behalf once the handler
// returns.
type rawHandler func(ctx context.Context, s *State, conn *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) (any, error)

var notificationHandlers = map[string]rawHandler{
	"textDocument/didOpen":   dispatchDidOpen,
	"textDocument/didChange": dispatchDidChange,
	"textDocument/didSave":   dispatchDidSave,
}

var requestHandlers = map[string]rawHandler{
	"textDocument/hover":       dispatchHover,
	"textDocument/definition":  dispatchDefinition,
	"textDocument/codeAction":  dispatchCodeAction,
	"workspace/executeCommand": dispatchExecuteCommand,
}

// Dispatcher routes incoming LSP requests/notifications to handlers:
// it synchronously creates a buffer-op channel, spawns the handler as
// a goroutine that owns the sender, and drains Status values in a
// foreground loop, relaying each Working operation to the outbound
// LSP writer and turning a handler error into a single error-level
// ShowMessage.
type Dispatcher struct {
	State *State
}

// NewDispatcher builds a dispatcher over an already-wired State.
func NewDispatcher(s *State) *Dispatcher {
	return &Dispatcher{State: s}
}

// Handle implements jsonrpc2.Handler's single method directly. The
// dispatcher doesn't need HandlerWithError's error-to-response
// translation because every outbound message, including request
// replies, goes through the buffer-op channel instead.
func (d *Dispatcher) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	fn, ok := lookup(req)
	if !ok {
		if !req.Notif {
			_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeMethodNotFound,
				Message: "espxls: unhandled method " + req.Method,
			})
		}
		return
	}

	ch := bufferop.NewChannel()
	go d.runHandler(ctx, fn, conn, req, ch)
	d.drain(ctx, conn, req, ch)
}

func lookup(req *jsonrpc2.Request) (rawHandler, bool) {
	if req.Notif {
		fn, ok := notificationHandlers[req.Method]
		return fn, ok
	}
	fn, ok := requestHandlers[req.Method]
	return fn, ok
}

// runHandler owns ch's sender for the handler's entire lifetime. A
// handler that replies by emitting a HoverResponse/GotoFile operation
// returns a nil result so this function doesn't double-reply; any
// non-nil result is sent directly as the JSON-RPC response, the
// shape textDocument/codeAction uses (no streaming, one-shot answer).
func (d *Dispatcher) runHandler(ctx context.Context, fn rawHandler, conn *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) {
	result, err := fn(ctx, d.State, conn, req, ch)
	if err != nil {
		d.State.Logger.Printf("espxls: handler %s failed: %v", req.Method, err)
		_ = ch.Send(ctx, bufferop.ShowError(err.Error()))
	} else if !req.Notif && result != nil {
		if rerr := conn.Reply(ctx, req.ID, result); rerr != nil {
			d.State.Logger.Printf("espxls: reply %s failed: %v", req.Method, rerr)
		}
	}
	if ferr := ch.Finish(ctx); ferr != nil {
		d.State.Logger.Printf("espxls: finish %s failed: %v", req.Method, ferr)
	}
}

// drain pulls Status values off ch and relays each Working operation
// to the outbound LSP writer, returning once Finished arrives.
// Individual message failures are non-fatal: a relay failure is
// logged, not propagated.
func (d *Dispatcher) drain(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, ch *bufferop.Channel) {
	for status := range ch.Receive() {
		if status.Kind == bufferop.StatusFinished {
			return
		}
		if err := relay(ctx, conn, status.Op); err != nil {
			d.State.Logger.Printf("espxls: relay %s failed: %v", req.Method, err)
		}
	}
}

// decodeParams unmarshals req.Params into v, the small helper every
// handler below uses before doing real work.
func decodeParams(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return nil
	}
	return json.Unmarshal(*req.Params, v)
}
