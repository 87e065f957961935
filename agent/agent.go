// Package agent owns the agent pool: a global agent, a per-document
// agent map, and a per-custom-scope agent map, each agent holding a
// system prompt, a completion model configuration, and an ordered
// message cache.
package agent

// ProviderKind names a configured completion provider.
type ProviderKind int

const (
	ProviderOpenAI ProviderKind = iota
	ProviderAnthropic
)

func (p ProviderKind) String() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAi"
	case ProviderAnthropic:
		return "Anthropic"
	default:
		return "Unknown"
	}
}

// CompletionModelConfig is the provider, parameters, and credential an
// agent completes against.
type CompletionModelConfig struct {
	Provider ProviderKind
	Params   map[string]any
	APIKey   string
}

// Message is one entry in an agent's cache.
type Message struct {
	Role    Role
	Content string
}

// Agent wraps a completion model, a system prompt, and an ordered
// message cache. Agents carry no lock of their own: all cache
// mutation, a streaming completion's full duration included, is
// serialized by the server-wide RW lock, so the reconciler can touch
// multiple agents atomically.
type Agent struct {
	SystemPrompt string
	Model        CompletionModelConfig
	Cache        []Message
}

// NewAgent builds an agent with an empty cache.
func NewAgent(systemPrompt string, model CompletionModelConfig) *Agent {
	return &Agent{SystemPrompt: systemPrompt, Model: model}
}

// Append adds a message to the cache.
func (a *Agent) Append(msg Message) {
	a.Cache = append(a.Cache, msg)
}

// RemoveRole drops every cached message whose role equals role,
// preserving the order of the remainder, and reports how many were
// removed. Idempotent: calling it twice in a row with the same role
// removes nothing the second time.
func (a *Agent) RemoveRole(role Role) int {
	kept := a.Cache[:0]
	removed := 0
	for _, msg := range a.Cache {
		if msg.Role.Equal(role) {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	a.Cache = kept
	return removed
}

// Messages returns a copy of the current cache, safe for a caller to
// range over after releasing the server lock.
func (a *Agent) Messages() []Message {
	out := make([]Message, len(a.Cache))
	copy(out, a.Cache)
	return out
}
