package lspserver

import (
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/bufferop"
	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/lexer"
)

// promptText strips the leading whitespace and the two-character
// interact code off a comment body, "@_What is 2+2?" -> "What is
// 2+2?".
func promptText(body string) string {
	runes := []rune(body)
	i := 0
	for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
		i++
	}
	i += 2
	if i > len(runes) {
		return ""
	}
	return strings.TrimPrefix(string(runes[i:]), " ")
}

// scopeAgentID resolves a registered scope to the AgentID it targets.
func scopeAgentID(reg *interact.Registry, scope interact.ScopeID, uri string) (agent.ID, bool) {
	switch scope {
	case interact.ScopeGlobal:
		return agent.GlobalID(), true
	case interact.ScopeDocument:
		return agent.DocumentID(uri), true
	default:
		ch, ok := reg.ScopeChar(scope)
		if !ok {
			return agent.ID{}, false
		}
		return agent.CustomID(ch), true
	}
}

const ragThreshold = 0.5

// activateRag treats the comment's stripped content as a retrieval
// query: embed it, pull every persisted block whose cosine similarity
// clears the threshold, and show the ranked contents to the user.
// Results are memoized in the hot cache keyed by query text.
func activateRag(ctx context.Context, s *State, ch *bufferop.Channel, comment lexer.ParsedComment) (string, error) {
	s.RLock()
	db := s.DB
	s.RUnlock()
	if db == nil {
		return "", espxerr.ErrDatabase
	}
	query := promptText(comment.Content)

	blocks, cached := s.HotCache.Get(query)
	if !cached {
		vecs, err := s.Embedder.EmbedBatch(ctx, []string{query})
		if err != nil || len(vecs) == 0 {
			return "", fmt.Errorf("%w: embedding query: %v", espxerr.ErrCompletionProvider, err)
		}
		blocks, err = db.GetRelevant(ctx, s.Embedder, vecs[0], ragThreshold)
		if err != nil {
			return "", err
		}
		s.HotCache.Put(query, blocks)
	}

	var sb strings.Builder
	if len(blocks) == 0 {
		sb.WriteString("no relevant blocks")
	}
	for i, blk := range blocks {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(blk.Content)
	}
	if err := ch.Send(ctx, bufferop.ShowMessage(protocol.MessageTypeInfo, sb.String())); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// activatePrompt implements the "activate" affordance: send the
// comment's stripped content to the resolved agent as a user
// message, stream the completion back as WorkDoneProgress.Report
// operations, and finalize with WorkDoneProgress.End plus a
// ShowMessage carrying the full response. It returns the accumulated
// response text so the caller can finalize its own reply shape
// (GotoFile for textDocument/definition, a plain ack for
// workspace/executeCommand).
func activatePrompt(ctx context.Context, s *State, ch *bufferop.Channel, uri string, comment lexer.ParsedComment) (string, error) {
	cmd, scope, err := s.Registry.InterractTuple(*comment.Interact)
	if err != nil || cmd != interact.CommandPrompt {
		return "", espxerr.ErrInvalidPackedID
	}
	id, ok := scopeAgentID(s.Registry, scope, uri)
	if !ok {
		return "", espxerr.ErrNoSuchAgent
	}

	// The write lock is held for the whole completion, streaming loop
	// included, so a concurrent reconciliation cannot mutate the cache
	// between the user message going in and the assistant reply coming
	// back. One streaming completion blocks other writers.
	s.Lock()
	defer s.Unlock()

	a, ok := s.Pool.RefFor(id)
	if !ok {
		return "", espxerr.ErrNoSuchAgent
	}

	token := *protocol.NewProgressToken("espxls/" + id.EncodeKey())
	if err := ch.Send(ctx, bufferop.WorkDoneBegin(token, "espxls", "generating a completion")); err != nil {
		return "", err
	}

	prompt := promptText(comment.Content)
	a.Append(agent.Message{Role: agent.User(), Content: prompt})

	stream, err := s.Completer.StreamChat(ctx, a.Model, a.Messages())
	if err != nil {
		_ = ch.Send(ctx, bufferop.WorkDoneEnd(token, "failed"))
		return "", err
	}

	var full strings.Builder
	for tok := range stream {
		full.WriteString(tok)
		if err := ch.Send(ctx, bufferop.WorkDoneReport(token, tok, 0)); err != nil {
			return "", err
		}
	}

	a.Append(agent.Message{Role: agent.Assistant(), Content: full.String()})

	if id.Kind == agent.IDGlobal {
		if err := appendConversation(s.ConversationPath, prompt, full.String()); err != nil {
			s.Logger.Printf("espxls: conversation transcript write failed: %v", err)
		}
	}

	if err := ch.Send(ctx, bufferop.WorkDoneEnd(token, "done")); err != nil {
		return "", err
	}
	if err := ch.Send(ctx, bufferop.ShowMessage(protocol.MessageTypeInfo, full.String())); err != nil {
		return "", err
	}
	return full.String(), nil
}
