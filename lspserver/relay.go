package lspserver

import (
	"context"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/bufferop"
)

// relay turns one BufferOperation into the outbound LSP notification
// or response it represents, the single place drained operations
// touch the wire.
func relay(ctx context.Context, conn *jsonrpc2.Conn, op bufferop.Operation) error {
	switch op.Kind {
	case bufferop.KindWorkDoneBegin:
		return conn.Notify(ctx, "$/progress", &protocol.ProgressParams{
			Token: op.ProgressToken,
			Value: protocol.WorkDoneProgressBegin{
				Kind:    "begin",
				Title:   op.Title,
				Message: op.Message,
			},
		})
	case bufferop.KindWorkDoneReport:
		return conn.Notify(ctx, "$/progress", &protocol.ProgressParams{
			Token: op.ProgressToken,
			Value: protocol.WorkDoneProgressReport{
				Kind:        "report",
				Message:     op.Message,
				Percentage:  op.Percentage,
				Cancellable: false,
			},
		})
	case bufferop.KindWorkDoneEnd:
		return conn.Notify(ctx, "$/progress", &protocol.ProgressParams{
			Token: op.ProgressToken,
			Value: protocol.WorkDoneProgressEnd{
				Kind:    "end",
				Message: op.Message,
			},
		})
	case bufferop.KindShowMessage:
		return conn.Notify(ctx, "window/showMessage", &protocol.ShowMessageParams{
			Type:    op.MessageType,
			Message: op.Message,
		})
	case bufferop.KindWorkspaceEdit:
		var applied bool
		return conn.Call(ctx, "workspace/applyEdit", &protocol.ApplyWorkspaceEditParams{Edit: *op.Edit}, &applied)
	case bufferop.KindHoverResponse:
		return conn.Reply(ctx, op.RequestID, op.Hover)
	case bufferop.KindGotoFile:
		return conn.Reply(ctx, op.RequestID, op.Locations)
	case bufferop.KindDiagnosticsPublish:
		return conn.Notify(ctx, "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
			URI:         op.URI,
			Diagnostics: op.Diagnostics,
		})
	case bufferop.KindDiagnosticsClear:
		return conn.Notify(ctx, "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
			URI:         op.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
	default:
		return fmt.Errorf("espxls: unknown buffer operation kind %v", op.Kind)
	}
}
