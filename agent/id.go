package agent

import "encoding/base64"

// IDKind enumerates AgentID's tagged-union variants: Global,
// Document, or Custom.
type IDKind int

const (
	IDGlobal IDKind = iota
	IDDocument
	IDCustom
)

// ID is the tagged union identifying which agent a scope resolves to.
// URI is set only when Kind is IDDocument; Char only when Kind is
// IDCustom.
type ID struct {
	Kind IDKind
	URI  string
	Char rune
}

func GlobalID() ID            { return ID{Kind: IDGlobal} }
func DocumentID(uri string) ID { return ID{Kind: IDDocument, URI: uri} }
func CustomID(ch rune) ID      { return ID{Kind: IDCustom, Char: ch} }

// EncodeKey renders the ID as its database-key form: the literal
// character for Custom, the URL-safe base64 of the URI for Document,
// and a fixed literal for Global.
func (id ID) EncodeKey() string {
	switch id.Kind {
	case IDGlobal:
		return "global"
	case IDDocument:
		return base64.URLEncoding.EncodeToString([]byte(id.URI))
	case IDCustom:
		return string(id.Char)
	default:
		return ""
	}
}

// String renders a human-readable form, used in log messages and
// error text.
func (id ID) String() string {
	switch id.Kind {
	case IDGlobal:
		return "Global"
	case IDDocument:
		return "Document(" + id.URI + ")"
	case IDCustom:
		return "Custom(" + string(id.Char) + ")"
	default:
		return "Unknown"
	}
}
