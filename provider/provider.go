// Package provider defines the completion and embedding interfaces
// the agent pool completes against, plus a shared HTTP-backed adapter
// for the two configured provider kinds (OpenAi, Anthropic).
package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/espxerr"
)

// Completer streams a chat completion for an ordered message history.
// Implementations forward each token on the returned channel as it
// arrives and close it when the response is complete.
type Completer interface {
	StreamChat(ctx context.Context, model agent.CompletionModelConfig, messages []agent.Message) (<-chan string, error)
}

// Embedder batches strings into fixed-length vectors, in the same
// order they were given.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// HTTPAdapter implements both Completer and Embedder against a chat
// completion / embedding HTTP API, selecting OpenAi- or
// Anthropic-shaped endpoints from CompletionModelConfig.Provider.
type HTTPAdapter struct {
	OpenAIEndpoint    string
	AnthropicEndpoint string
	EmbeddingEndpoint string

	client *http.Client
}

// NewHTTPAdapter builds an adapter with sensible default endpoints,
// overridable per field after construction.
func NewHTTPAdapter() *HTTPAdapter {
	return &HTTPAdapter{
		OpenAIEndpoint:    "https://api.openai.com/v1/chat/completions",
		AnthropicEndpoint: "https://api.anthropic.com/v1/messages",
		EmbeddingEndpoint: "https://api.openai.com/v1/embeddings",
		client:            &http.Client{Timeout: 3 * time.Minute},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toWireMessages(messages []agent.Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		out[i] = wireMessage{Role: string(m.Role.Wire()), Content: m.Content}
	}
	return out
}

// StreamChat posts the message history to the configured provider's
// streaming endpoint and forwards each line of the response body as a
// token on the returned channel.
func (a *HTTPAdapter) StreamChat(ctx context.Context, model agent.CompletionModelConfig, messages []agent.Message) (<-chan string, error) {
	endpoint := a.OpenAIEndpoint
	if model.Provider == agent.ProviderAnthropic {
		endpoint = a.AnthropicEndpoint
	}

	payload := map[string]any{
		"model":    model.Params["model"],
		"messages": toWireMessages(messages),
		"stream":   true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+model.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", espxerr.ErrCompletionProvider, resp.StatusCode)
	}

	ch := make(chan string)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case ch <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

type embedRequest struct {
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch posts texts to the embedding endpoint and returns their
// vectors in the same order.
func (a *HTTPAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Input: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.EmbeddingEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", espxerr.ErrCompletionProvider, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrCompletionProvider, err)
	}
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
