// Package lspserver implements the LSP dispatcher and the server's
// shared-state model: a single read-write lock wraps documents, the
// database handle, the interact registry, and the agent pool.
package lspserver

import (
	"context"
	"log"
	"sync"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/config"
	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/provider"
	"github.com/lexcodex/espxls/reconcile"
	"github.com/lexcodex/espxls/store"
	"github.com/lexcodex/espxls/store/sqlitekv"
)

// State is the server's entire shared world. Handlers take the write
// lock only for the duration of reconciliation or cache mutation; a
// streaming completion runs with the lock held, so one streaming
// completion blocks other writers.
type State struct {
	mu sync.RWMutex

	Config     config.Config
	Registry   *interact.Registry
	Pool       *agent.Pool
	Documents  *store.DocumentStore
	Reconciler *reconcile.Reconciler
	HotCache   *store.HotCache

	DB        *sqlitekv.Engine
	Completer provider.Completer
	Embedder  provider.Embedder

	Logger           *log.Logger
	WorkspaceRoot    string
	ConversationPath string
}

// Lock, Unlock, RLock, and RUnlock expose the state's mutex directly
// so handlers compose their own critical sections.
func (s *State) Lock()    { s.mu.Lock() }
func (s *State) Unlock()  { s.mu.Unlock() }
func (s *State) RLock()   { s.mu.RLock() }
func (s *State) RUnlock() { s.mu.RUnlock() }

// NewState wires every subsystem together: the registry gets the
// fixed command alphabet plus one scope per configured custom scope,
// and the global agent is created immediately.
func NewState(cfg config.Config, db *sqlitekv.Engine, completer provider.Completer, embedder provider.Embedder, workspaceRoot string, logger *log.Logger) (*State, error) {
	if logger == nil {
		logger = log.Default()
	}

	reg := interact.NewRegistry()

	model := agent.CompletionModelConfig{
		Provider: providerFromString(cfg.Model.Provider),
		APIKey:   cfg.Model.APIKey,
		Params:   map[string]any{},
	}

	pool := agent.NewPool("", model)

	// Sorted iteration keeps custom-scope registration order
	// deterministic across runs, so the same config always yields the
	// same packed scope IDs.
	for _, ch := range sortedScopeKeys(cfg.Scopes) {
		r := []rune(ch)[0]
		if _, err := reg.RegisterScope(r); err != nil {
			return nil, err
		}
		pool.CreateCustom(r, cfg.Scopes[ch].SysPrompt, model)
	}

	return &State{
		Config:           cfg,
		Registry:         reg,
		Pool:             pool,
		Documents:        store.NewDocumentStore(),
		Reconciler:       reconcile.New(reg, pool, model),
		HotCache:         store.NewHotCache(64),
		DB:               db,
		Completer:        completer,
		Embedder:         embedder,
		Logger:           logger,
		WorkspaceRoot:    workspaceRoot,
		ConversationPath: workspaceRoot + "/.espx-ls/conversation.md",
	}, nil
}

// LoadPersistedMemories restores agent caches from the database for
// every agent already in the pool (the global agent and the
// custom-scope agents created from configuration). Document agents
// are restored lazily as their files are opened.
func (s *State) LoadPersistedMemories(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	s.Lock()
	defer s.Unlock()
	for _, entry := range s.Pool.Iterate() {
		msgs, err := s.DB.LoadMemory(ctx, entry.ID)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			entry.Agent.Append(m)
		}
	}
	return nil
}

// disablePersistence drops the database handle after a repeated
// failure so the session keeps running without persistence. Warned
// once; later saves become no-ops.
func (s *State) disablePersistence(err error) {
	s.Lock()
	defer s.Unlock()
	if s.DB == nil {
		return
	}
	s.Logger.Printf("espxls: database failing, persistence disabled for this session: %v", err)
	s.DB = nil
}

func providerFromString(s string) agent.ProviderKind {
	if s == "Anthropic" {
		return agent.ProviderAnthropic
	}
	return agent.ProviderOpenAI
}

func sortedScopeKeys(scopes map[string]config.ScopeConfig) []string {
	out := make([]string, 0, len(scopes))
	for ch := range scopes {
		out = append(out, ch)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
