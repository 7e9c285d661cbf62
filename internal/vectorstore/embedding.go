package vectorstore

import (
	"context"
	"math"
	"strings"

	"github.com/philippgille/chromem-go"
)

const localDims = 384

// LocalEmbedding returns a deterministic offline embedding: a hashed
// bag-of-words with neighbor smearing, L2-normalized. It has no semantic
// model behind it, but it is stable, fast and needs no API key, which is
// what scheduled ingestion and the test suite want by default.
func LocalEmbedding() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		embedding := make([]float32, localDims)
		words := strings.Fields(strings.ToLower(text))

		for _, word := range words {
			hash := 0
			for _, char := range word {
				hash = (hash*31 + int(char)) % localDims
			}
			embedding[hash] += 1.0
			if hash > 0 {
				embedding[hash-1] += 0.5
			}
			if hash < localDims-1 {
				embedding[hash+1] += 0.5
			}
		}

		var sum float32
		for _, v := range embedding {
			sum += v * v
		}
		if sum > 0 {
			norm := 1.0 / float32(math.Sqrt(float64(sum)))
			for i := range embedding {
				embedding[i] *= norm
			}
		}

		return embedding, nil
	}
}

// OpenAIEmbedding returns chromem's OpenAI embedding function.
func OpenAIEmbedding(apiKey string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI3Small)
}
