package embedder

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

// maxInputLen keeps embedding inputs inside the model's token budget.
const maxInputLen = 8000

type openAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAI(apiKey, model string) Embedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &openAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}
}

// CleanText collapses whitespace runs and trims the input to the
// embedding length cap, never splitting a rune at the boundary.
func CleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) <= maxInputLen {
		return cleaned
	}
	cut := maxInputLen
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return cleaned[:cut]
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty text after cleaning")
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{cleaned},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}
