package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
)

// NewEmbeddingFunc bridges a Genkit ai.Embedder to the chromem-go
// embedding function used by the persistent collection.
//
// chromem-go normalizes vectors itself, so no normalization happens here.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if text == "" {
			return nil, fmt.Errorf("embed: empty input text")
		}

		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{
				ai.DocumentFromText(text, nil),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}

		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned")
		}

		return resp.Embeddings[0].Embedding, nil
	}
}
