// Package bufferop implements the buffer-op channel: a bounded,
// single-producer single-consumer channel bridging async handlers to
// the LSP outbound writer.
package bufferop

import (
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Kind enumerates the buffer operation variants.
type Kind int

const (
	KindWorkDoneBegin Kind = iota
	KindWorkDoneReport
	KindWorkDoneEnd
	KindShowMessage
	KindWorkspaceEdit
	KindHoverResponse
	KindGotoFile
	KindDiagnosticsPublish
	KindDiagnosticsClear
)

func (k Kind) String() string {
	switch k {
	case KindWorkDoneBegin:
		return "WorkDoneBegin"
	case KindWorkDoneReport:
		return "WorkDoneReport"
	case KindWorkDoneEnd:
		return "WorkDoneEnd"
	case KindShowMessage:
		return "ShowMessage"
	case KindWorkspaceEdit:
		return "WorkspaceEdit"
	case KindHoverResponse:
		return "HoverResponse"
	case KindGotoFile:
		return "GotoFile"
	case KindDiagnosticsPublish:
		return "DiagnosticsPublish"
	case KindDiagnosticsClear:
		return "DiagnosticsClear"
	default:
		return "Unknown"
	}
}

// Operation is the BufferOperation sum type. Only the fields relevant
// to Kind are populated; this mirrors the tagged-struct style used for
// ParsedComment and AgentID rather than an interface hierarchy.
type Operation struct {
	Kind Kind

	// WorkDone{Begin,Report,End}
	ProgressToken protocol.ProgressToken
	Title         string
	Message       string
	Percentage    uint32

	// ShowMessage
	MessageType protocol.MessageType

	// WorkspaceEdit
	Edit *protocol.WorkspaceEdit

	// HoverResponse / GotoFile, correlated to the originating request
	RequestID jsonrpc2.ID
	Hover     *protocol.Hover
	Locations []protocol.Location

	// Diagnostics{Publish,Clear}
	URI         protocol.DocumentURI
	Diagnostics []protocol.Diagnostic
}

// WorkDoneBegin builds a Begin progress operation.
func WorkDoneBegin(token protocol.ProgressToken, title, message string) Operation {
	return Operation{Kind: KindWorkDoneBegin, ProgressToken: token, Title: title, Message: message}
}

// WorkDoneReport builds a Report progress operation.
func WorkDoneReport(token protocol.ProgressToken, message string, percentage uint32) Operation {
	return Operation{Kind: KindWorkDoneReport, ProgressToken: token, Message: message, Percentage: percentage}
}

// WorkDoneEnd builds an End progress operation.
func WorkDoneEnd(token protocol.ProgressToken, message string) Operation {
	return Operation{Kind: KindWorkDoneEnd, ProgressToken: token, Message: message}
}

// ShowMessage builds a client-visible message operation.
func ShowMessage(typ protocol.MessageType, message string) Operation {
	return Operation{Kind: KindShowMessage, MessageType: typ, Message: message}
}

// ShowError is ShowMessage with MessageType = Error, the shape
// handlers use when surfacing a failure to the user.
func ShowError(message string) Operation {
	return ShowMessage(protocol.MessageTypeError, message)
}

// Edit builds a WorkspaceEdit operation.
func Edit(edit *protocol.WorkspaceEdit) Operation {
	return Operation{Kind: KindWorkspaceEdit, Edit: edit}
}

// HoverResponse builds a hover reply correlated to requestID.
func HoverResponse(requestID jsonrpc2.ID, hover *protocol.Hover) Operation {
	return Operation{Kind: KindHoverResponse, RequestID: requestID, Hover: hover}
}

// GotoFile builds a definition-response operation correlated to
// requestID.
func GotoFile(requestID jsonrpc2.ID, locations []protocol.Location) Operation {
	return Operation{Kind: KindGotoFile, RequestID: requestID, Locations: locations}
}

// PublishDiagnostics builds a diagnostics-publish operation.
func PublishDiagnostics(uri protocol.DocumentURI, diags []protocol.Diagnostic) Operation {
	return Operation{Kind: KindDiagnosticsPublish, URI: uri, Diagnostics: diags}
}

// ClearDiagnostics builds a diagnostics-clear operation.
func ClearDiagnostics(uri protocol.DocumentURI) Operation {
	return Operation{Kind: KindDiagnosticsClear, URI: uri}
}
