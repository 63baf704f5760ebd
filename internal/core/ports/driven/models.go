package driven

// ModelProvider resolves "provider/model" references into services.
// Implementations own the credentials needed to reach each provider.
type ModelProvider interface {
	// LLM returns a text generation service for the reference.
	LLM(ref string) (LLMService, error)

	// Embedding returns an embedding service for the reference.
	Embedding(ref string) (EmbeddingService, error)
}
