package embedding

// EmbeddingProvider generates a vector for a piece of text. taskType hints
// the retrieval role ("RETRIEVAL_QUERY" vs "RETRIEVAL_DOCUMENT"); providers
// that make no such distinction ignore it.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}
