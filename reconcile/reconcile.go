// Package reconcile keeps agent caches consistent with the current
// textual content of documents across edits, by diffing the previous
// and current lexed tokens for a URI.
package reconcile

import (
	"strings"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/lexer"
)

// BlockSink receives the block content of a RagPush interact code so
// the persistence layer can chunk and upsert it for later retrieval.
type BlockSink interface {
	PushBlock(id agent.ID, uri, content string) error
}

// Reconciler binds an interact registry and an agent pool together
// to apply per-document updates.
type Reconciler struct {
	Registry *interact.Registry
	Pool     *agent.Pool

	// DefaultModel seeds a document agent lazily created during
	// reconciliation.
	DefaultModel agent.CompletionModelConfig
}

// New builds a Reconciler over an existing registry and pool.
func New(reg *interact.Registry, pool *agent.Pool, defaultModel agent.CompletionModelConfig) *Reconciler {
	return &Reconciler{Registry: reg, Pool: pool, DefaultModel: defaultModel}
}

// Update applies the reconciliation procedure for one text change to
// uri: oldTokens is the previously stored TokenVec (nil on first
// open), newTokens is the just-lexed current state. sink may be nil if
// no RagPush handling is wired yet.
func (r *Reconciler) Update(uri string, oldTokens, newTokens *lexer.TokenVec, sink BlockSink) error {
	role := agent.Other(uri, agent.WireUser)

	prevScopes := make(map[interact.ScopeID]bool)
	if oldTokens != nil {
		for _, c := range oldTokens.Comments() {
			if c.Interact == nil {
				continue
			}
			cmd, scope, err := r.Registry.InterractTuple(*c.Interact)
			if err != nil {
				continue
			}
			if cmd == interact.CommandPush {
				prevScopes[scope] = true
			}
		}
	}

	for i, tok := range newTokens.Tokens {
		if tok.Kind != lexer.KindComment || tok.Comment.Interact == nil {
			continue
		}
		cmd, scope, err := r.Registry.InterractTuple(*tok.Comment.Interact)
		if err != nil {
			continue
		}
		delete(prevScopes, scope)

		id, err := scopeToAgentID(r.Registry, scope, uri)
		if err != nil {
			continue
		}
		a, ok := r.resolve(id)
		if !ok {
			continue
		}

		a.RemoveRole(role)

		switch cmd {
		case interact.CommandPush:
			if content, ok := nextBlockAfter(newTokens.Tokens, i); ok {
				a.Append(agent.Message{Role: role, Content: content})
			}
		case interact.CommandRagPush:
			if content, ok := nextBlockAfter(newTokens.Tokens, i); ok && sink != nil {
				if err := sink.PushBlock(id, uri, content); err != nil {
					return err
				}
			}
		}
	}

	for scope := range prevScopes {
		id, err := scopeToAgentID(r.Registry, scope, uri)
		if err != nil {
			continue
		}
		if a, ok := r.resolve(id); ok {
			a.RemoveRole(role)
		}
	}

	return nil
}

// resolve looks up the agent for id, lazily creating a document
// agent if needed. Custom scopes are never lazily created: they only
// exist if declared in configuration at startup.
func (r *Reconciler) resolve(id agent.ID) (*agent.Agent, bool) {
	switch id.Kind {
	case agent.IDGlobal:
		return r.Pool.GlobalRef(), true
	case agent.IDDocument:
		return r.Pool.UpdateOrCreateDoc(id.URI, "", r.DefaultModel), true
	case agent.IDCustom:
		return r.Pool.CustomRef(id.Char)
	default:
		return nil, false
	}
}

func scopeToAgentID(reg *interact.Registry, scope interact.ScopeID, uri string) (agent.ID, error) {
	switch scope {
	case interact.ScopeGlobal:
		return agent.GlobalID(), nil
	case interact.ScopeDocument:
		return agent.DocumentID(uri), nil
	default:
		ch, ok := reg.ScopeChar(scope)
		if !ok {
			return agent.ID{}, espxerr.ErrInvalidPackedID
		}
		return agent.CustomID(ch), nil
	}
}

// nextBlockAfter returns the text of the first Block token after index
// i, skipping over any CommentStr tokens in between (the closing
// delimiter of a multiline comment) and dropping the single newline
// that ends the comment's own line. It reports false if the next
// substantive token isn't a Block, or nothing of it is left once that
// newline is dropped, i.e. the comment is immediately followed by
// another comment or the end of the file.
func nextBlockAfter(tokens []lexer.Token, i int) (string, bool) {
	j := i + 1
	for j < len(tokens) && tokens[j].Kind == lexer.KindCommentStr {
		j++
	}
	if j < len(tokens) && tokens[j].Kind == lexer.KindBlock {
		text := strings.TrimPrefix(tokens[j].Text, "\n")
		return text, text != ""
	}
	return "", false
}
