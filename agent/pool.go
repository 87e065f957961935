package agent

import "sync"

// Pool owns every agent in the server: the global agent, one agent per
// open document, and one agent per custom scope configured at
// startup. The pool's own mutex only guards the membership maps;
// mutation of an individual Agent's cache is serialized by the
// caller's server-wide RW lock.
type Pool struct {
	mu sync.RWMutex

	global *Agent
	docs   map[string]*Agent
	custom map[rune]*Agent
}

// NewPool creates the pool with the global agent already present;
// document and custom agents are added over the server's lifetime.
func NewPool(globalSystemPrompt string, model CompletionModelConfig) *Pool {
	return &Pool{
		global: NewAgent(globalSystemPrompt, model),
		docs:   make(map[string]*Agent),
		custom: make(map[rune]*Agent),
	}
}

// GlobalRef and GlobalMut both return the single global agent; Go
// has no read/write reference distinction, so the two names only
// signal intent at call sites.
func (p *Pool) GlobalRef() *Agent { return p.global }
func (p *Pool) GlobalMut() *Agent { return p.global }

// DocRef and DocMut look up the agent for an already-open document.
func (p *Pool) DocRef(uri string) (*Agent, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.docs[uri]
	return a, ok
}
func (p *Pool) DocMut(uri string) (*Agent, bool) { return p.DocRef(uri) }

// CustomRef and CustomMut look up the agent bound to a custom scope
// character.
func (p *Pool) CustomRef(ch rune) (*Agent, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.custom[ch]
	return a, ok
}
func (p *Pool) CustomMut(ch rune) (*Agent, bool) { return p.CustomRef(ch) }

// CreateCustom registers the agent for a custom scope, called once
// per configured scope at startup. Replaces any existing agent for
// the same character.
func (p *Pool) CreateCustom(ch rune, sysPrompt string, model CompletionModelConfig) *Agent {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := NewAgent(sysPrompt, model)
	p.custom[ch] = a
	return a
}

// UpdateOrCreateDoc returns the agent for uri, creating it lazily on
// first open if absent. documentText is accepted for symmetry with
// the open notification; a fresh document agent starts with an empty
// cache regardless, which the reconciler populates on the following
// update pass.
func (p *Pool) UpdateOrCreateDoc(uri, documentText string, model CompletionModelConfig) *Agent {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = documentText
	if a, ok := p.docs[uri]; ok {
		return a
	}
	a := NewAgent("", model)
	p.docs[uri] = a
	return a
}

// RefFor resolves an agent by its tagged ID, the lookup the reconciler
// needs when it already holds a resolved AgentID rather than a raw
// scope character or document URI.
func (p *Pool) RefFor(id ID) (*Agent, bool) {
	switch id.Kind {
	case IDGlobal:
		return p.GlobalRef(), true
	case IDDocument:
		return p.DocRef(id.URI)
	case IDCustom:
		return p.CustomRef(id.Char)
	default:
		return nil, false
	}
}

// Entry pairs an AgentID with its Agent, the shape the persistence
// layer consumes when saving every memory in one batch.
type Entry struct {
	ID    ID
	Agent *Agent
}

// Iterate returns every agent in the pool paired with its ID, global
// first, then documents, then custom scopes.
func (p *Pool) Iterate() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, 0, 1+len(p.docs)+len(p.custom))
	out = append(out, Entry{ID: GlobalID(), Agent: p.global})
	for uri, a := range p.docs {
		out = append(out, Entry{ID: DocumentID(uri), Agent: a})
	}
	for ch, a := range p.custom {
		out = append(out, Entry{ID: CustomID(ch), Agent: a})
	}
	return out
}
