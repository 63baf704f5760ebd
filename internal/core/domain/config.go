package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Run configuration defaults.
const (
	DefaultModel          = "anthropic/claude-3-5-sonnet-20241022"
	DefaultFastModel      = "anthropic/claude-3-haiku-20240307"
	DefaultSampleSize     = 100
	DefaultBatchSize      = 200
	DefaultMaxNumClusters = 5
	DefaultUseCase        = "Generate taxonomy for categorizing document content"
	DefaultConcurrency    = 4
	DefaultRequestsPerSec = 5.0

	// MaxNumClustersLimit bounds MaxNumClusters.
	MaxNumClustersLimit = 50

	DefaultClusterNameLength        = 10
	DefaultClusterDescriptionLength = 30
	DefaultExplanationLength        = 20

	DefaultEmbeddingModel      = "openai/text-embedding-3-large"
	DefaultClassifierNeighbors = 5
	DefaultClassifierTestSplit = 0.2
)

// RevisionPolicy decides what happens when a revision batch yields no categories.
type RevisionPolicy string

// Available revision policies.
const (
	// RevisionPolicyRetain keeps the previous snapshot and continues.
	RevisionPolicyRetain RevisionPolicy = "retain"

	// RevisionPolicyFail aborts the run with ErrRevisionFailed.
	RevisionPolicyFail RevisionPolicy = "fail"
)

// IsValid returns true if the policy is recognised.
func (p RevisionPolicy) IsValid() bool {
	return p == RevisionPolicyRetain || p == RevisionPolicyFail
}

// ClassifierConfig configures the optional embedding classifier that
// extends LLM labels to documents outside the sample.
type ClassifierConfig struct {
	// Enabled turns the classifier on.
	Enabled bool

	// EmbeddingModel is a provider/model reference.
	EmbeddingModel string

	// ConfidenceThreshold sends predictions below it to the LLM labeler.
	// Zero accepts every prediction.
	ConfidenceThreshold float64

	// Neighbors is k for the nearest-neighbour vote.
	Neighbors int

	// TestSplit is the held-out fraction used for metrics.
	TestSplit float64
}

// RunConfig is threaded through every stage of one pipeline run.
type RunConfig struct {
	// Model is the provider/model used for taxonomy generation.
	Model string

	// FastModel is the provider/model used for summaries and labels.
	FastModel string

	// SampleSize bounds the documents used for discovery. Zero means all.
	SampleSize int

	// BatchSize is the minibatch length.
	BatchSize int

	// MaxNumClusters caps the discovered and revised snapshots. A predefined
	// taxonomy is used as given.
	MaxNumClusters int

	// UseCase describes what the taxonomy is for.
	UseCase string

	// PredefinedTaxonomy skips discovery when non-empty.
	PredefinedTaxonomy Taxonomy

	// Concurrency bounds in-flight per-document generation calls.
	Concurrency int

	// RequestsPerSecond limits generation calls. Zero disables limiting.
	RequestsPerSecond float64

	// RevisionPolicy applies when a revision yields no categories.
	RevisionPolicy RevisionPolicy

	// Seed makes sampling reproducible. Zero picks a random seed.
	Seed int64

	// Prompt length hints, in words.
	ClusterNameLength        int
	ClusterDescriptionLength int
	ExplanationLength        int

	// Classifier configures the optional secondary classifier.
	Classifier ClassifierConfig
}

// DefaultRunConfig returns a configuration with sensible defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Model:                    DefaultModel,
		FastModel:                DefaultFastModel,
		SampleSize:               DefaultSampleSize,
		BatchSize:                DefaultBatchSize,
		MaxNumClusters:           DefaultMaxNumClusters,
		UseCase:                  DefaultUseCase,
		Concurrency:              DefaultConcurrency,
		RequestsPerSecond:        DefaultRequestsPerSec,
		RevisionPolicy:           RevisionPolicyRetain,
		ClusterNameLength:        DefaultClusterNameLength,
		ClusterDescriptionLength: DefaultClusterDescriptionLength,
		ExplanationLength:        DefaultExplanationLength,
		Classifier: ClassifierConfig{
			EmbeddingModel: DefaultEmbeddingModel,
			Neighbors:      DefaultClassifierNeighbors,
			TestSplit:      DefaultClassifierTestSplit,
		},
	}
}

// Path returns the branch this configuration selects.
func (c RunConfig) Path() Path {
	if len(c.PredefinedTaxonomy) > 0 {
		return PathDirectLabel
	}
	return PathDiscovery
}

// Validate reports every invalid field wrapped in ErrConfiguration.
func (c RunConfig) Validate() error {
	var errs []error

	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("sample size must not be negative, got %d", c.SampleSize))
	}
	if c.MaxNumClusters <= 0 || c.MaxNumClusters > MaxNumClustersLimit {
		errs = append(errs, fmt.Errorf("max clusters must be between 1 and %d, got %d",
			MaxNumClustersLimit, c.MaxNumClusters))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests per second must not be negative, got %g", c.RequestsPerSecond))
	}
	if !c.RevisionPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("unknown revision policy %q", c.RevisionPolicy))
	}
	if strings.TrimSpace(c.UseCase) == "" && c.Path() == PathDiscovery {
		errs = append(errs, errors.New("use case is required"))
	}
	if err := validateUniqueIDs(c.PredefinedTaxonomy); err != nil {
		errs = append(errs, err)
	}
	if c.Classifier.Enabled {
		if c.Classifier.ConfidenceThreshold < 0 || c.Classifier.ConfidenceThreshold > 1 {
			errs = append(errs, fmt.Errorf("classifier confidence threshold must be within [0,1], got %g",
				c.Classifier.ConfidenceThreshold))
		}
		if c.Classifier.Neighbors <= 0 {
			errs = append(errs, fmt.Errorf("classifier neighbours must be positive, got %d", c.Classifier.Neighbors))
		}
		if c.Classifier.TestSplit < 0 || c.Classifier.TestSplit >= 1 {
			errs = append(errs, fmt.Errorf("classifier test split must be within [0,1), got %g", c.Classifier.TestSplit))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

func validateUniqueIDs(t Taxonomy) error {
	seen := make(map[string]struct{}, len(t))
	for _, c := range t {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("predefined category %q has no name", c.ID)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("predefined taxonomy repeats id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
