// Package espxerr defines the sentinel error kinds shared across the
// interaction engine. Handlers wrap these with fmt.Errorf("%w: ...") and
// compare with errors.Is rather than type-switching on custom error structs.
package espxerr

import "errors"

var (
	// ErrUnknownExtension is raised only when a file with an
	// unrecognized extension is actually lexed, not at startup.
	ErrUnknownExtension = errors.New("espxls: unknown file extension")

	// ErrDuplicateScope is raised when register_scope is called for a
	// character already present in the registry.
	ErrDuplicateScope = errors.New("espxls: scope already registered")

	// ErrRegistryFull is raised when all 16 scope slots (14 after
	// reserving Global and Document) are already allocated.
	ErrRegistryFull = errors.New("espxls: interact registry full")

	// ErrInvalidPackedID is raised when interract_tuple is asked to split
	// a byte whose command or scope nibble isn't registered.
	ErrInvalidPackedID = errors.New("espxls: invalid packed interact id")

	// ErrNoSuchAgent is raised when the agent pool is asked for an
	// AgentID it has never created.
	ErrNoSuchAgent = errors.New("espxls: no such agent")

	// ErrCompletionProvider wraps any failure surfaced by a completion
	// or embedding provider.
	ErrCompletionProvider = errors.New("espxls: completion provider failure")

	// ErrDatabase wraps a persistence-layer failure. Transient errors
	// are retried once by the caller before this is returned.
	ErrDatabase = errors.New("espxls: database failure")

	// ErrBufferOpTimeout is returned when a send to the buffer-op channel
	// doesn't complete within its 1s budget.
	ErrBufferOpTimeout = errors.New("espxls: buffer operation timed out")

	// ErrBufferOpClosed is returned when a send targets a channel whose
	// receiver has already been dropped.
	ErrBufferOpClosed = errors.New("espxls: buffer operation channel closed")

	// ErrConfig wraps malformed-TOML / unknown-provider / too-many-scopes
	// configuration failures raised at startup.
	ErrConfig = errors.New("espxls: configuration error")
)
