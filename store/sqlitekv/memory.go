package sqlitekv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/store"
)

// wireMessage is the JSON-on-disk shape of an agent.Message, encoding
// the Role sum type's variant explicitly so it round-trips.
type wireMessage struct {
	RoleKind int    `json:"role_kind"`
	Alias    string `json:"alias,omitempty"`
	CoerceTo string `json:"coerce_to,omitempty"`
	Content  string `json:"content"`
}

func toWire(messages []agent.Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		out[i] = wireMessage{
			RoleKind: int(m.Role.Kind),
			Alias:    m.Role.Alias,
			CoerceTo: string(m.Role.CoerceTo),
			Content:  m.Content,
		}
	}
	return out
}

func fromWire(wire []wireMessage) []agent.Message {
	out := make([]agent.Message, len(wire))
	for i, w := range wire {
		out[i] = agent.Message{
			Role: agent.Role{
				Kind:     agent.RoleKind(w.RoleKind),
				Alias:    w.Alias,
				CoerceTo: agent.WireRole(w.CoerceTo),
			},
			Content: w.Content,
		}
	}
	return out
}

// SaveMemory upserts the messages cache for one agent, keyed by its
// AgentID's encoded form. One row per agent.
func (e *Engine) SaveMemory(ctx context.Context, id agent.ID, messages []agent.Message) error {
	raw, err := json.Marshal(toWire(messages))
	if err != nil {
		return fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	b := store.NewBuilder().Upsert(store.Record{
		Table: "memories",
		ID:    id.EncodeKey(),
		Fields: map[string]any{
			"messages": string(raw),
		},
	})
	_, err = e.Execute(ctx, b)
	return err
}

// LoadMemory returns the stored messages for id, or nil if no row
// exists yet.
func (e *Engine) LoadMemory(ctx context.Context, id agent.ID) ([]agent.Message, error) {
	b := store.NewBuilder().Select("memories", &store.FieldMatch{Field: "id", Value: id.EncodeKey()}, nil)
	rows, err := e.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var wire []wireMessage
	if err := json.Unmarshal([]byte(asString(rows[0]["messages"])), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	return fromWire(wire), nil
}

// SaveAll persists every agent in entries in one transaction, the
// batch form used at save time. Rows live until the next save
// replaces them; the database is authoritative across sessions.
func (e *Engine) SaveAll(ctx context.Context, entries []agent.Entry) error {
	b := store.NewBuilder()
	for _, entry := range entries {
		raw, err := json.Marshal(toWire(entry.Agent.Messages()))
		if err != nil {
			return fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
		}
		b.Upsert(store.Record{
			Table:  "memories",
			ID:     entry.ID.EncodeKey(),
			Fields: map[string]any{"messages": string(raw)},
		})
	}
	_, err := e.Execute(ctx, b)
	return err
}
