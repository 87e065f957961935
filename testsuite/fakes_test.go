package testsuite

import (
	"context"
	"strings"

	"github.com/lexcodex/espxls/agent"
)

// scriptedCompleter implements provider.Completer with a fixed token
// sequence instead of calling a real provider.
type scriptedCompleter struct {
	tokens []string
}

func (s *scriptedCompleter) StreamChat(ctx context.Context, model agent.CompletionModelConfig, messages []agent.Message) (<-chan string, error) {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, t := range s.tokens {
			select {
			case ch <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// vocabEmbedder embeds a string as a 0/1 bag-of-words vector over a
// fixed small vocabulary, just enough to make cosine similarity behave
// predictably in the RAG retrieval scenario without a real embedding
// provider.
type vocabEmbedder struct {
	vocab []string
}

func (v *vocabEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(v.vocab))
		lower := strings.ToLower(text)
		for j, word := range v.vocab {
			if strings.Contains(lower, word) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}
