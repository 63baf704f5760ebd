package driven

import "context"

// EmbeddingService turns texts into vectors for the secondary classifier.
// When no embedding model is configured the classifier is disabled.
type EmbeddingService interface {
	// EmbedBatch returns one vector per text, index-aligned with texts.
	// An empty input returns nil without a request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size the model produces.
	Dimensions() int

	// ModelName returns the provider's model name.
	ModelName() string

	// Ping checks the model's provider is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
