package domain

import (
	"sort"
	"time"
)

// ClassifierMetrics reports the secondary classifier's quality on the
// LLM-labeled training data.
type ClassifierMetrics struct {
	TrainAccuracy float64 `json:"train_accuracy"`
	TrainF1       float64 `json:"train_f1"`
	TestAccuracy  float64 `json:"test_accuracy"`
	TestF1        float64 `json:"test_f1"`
	TrainSize     int     `json:"train_size"`
	TestSize      int     `json:"test_size"`
}

// CategoryCount is the number of documents assigned to one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// RunMetadata holds the statistics of a completed run.
type RunMetadata struct {
	Path                   Path               `json:"path"`
	NumDocuments           int                `json:"num_documents"`
	NumCategories          int                `json:"num_categories"`
	SampleSize             int                `json:"sample_size"`
	BatchSize              int                `json:"batch_size"`
	NumBatches             int                `json:"num_batches"`
	MaxNumClusters         int                `json:"max_num_clusters"`
	UseCase                string             `json:"use_case"`
	Model                  string             `json:"model"`
	FastModel              string             `json:"fast_model"`
	LLMLabeledCount        int                `json:"llm_labeled_count"`
	ClassifierLabeledCount int                `json:"classifier_labeled_count"`
	SkippedDocumentCount   int                `json:"skipped_document_count"`
	CategoryCounts         []CategoryCount    `json:"category_counts"`
	ClassifierMetrics      *ClassifierMetrics `json:"classifier_metrics,omitempty"`
	Warnings               []string           `json:"warnings"`
	StatusLog              []string           `json:"status_log"`
	StartedAt              time.Time          `json:"started_at"`
	Duration               time.Duration      `json:"duration"`
}

// RunResult is the immutable outcome of a completed pipeline run.
type RunResult struct {
	ID        string      `json:"id"`
	Taxonomy  Taxonomy    `json:"taxonomy"`
	Snapshots []Snapshot  `json:"snapshots"`
	Documents []Document  `json:"documents"`
	Metadata  RunMetadata `json:"metadata"`
}

// Count returns the document count for a category name.
func (m RunMetadata) Count(category string) int {
	for _, c := range m.CategoryCounts {
		if c.Category == category {
			return c.Count
		}
	}
	return 0
}

// CountCategories groups documents by category name. Results are ordered by
// descending count, then by name.
func CountCategories(docs []Document) []CategoryCount {
	counts := make(map[string]int)
	for _, d := range docs {
		counts[d.Category]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Category: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DocumentsIn returns the documents labeled with the given category name.
func (r *RunResult) DocumentsIn(category string) []Document {
	var out []Document
	for _, d := range r.Documents {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID            string        `json:"id"`
	UseCase       string        `json:"use_case"`
	Model         string        `json:"model"`
	Path          Path          `json:"path"`
	NumDocuments  int           `json:"num_documents"`
	NumCategories int           `json:"num_categories"`
	Skipped       int           `json:"skipped"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// Summary returns the listing view of the result.
func (r *RunResult) Summary() RunSummary {
	return RunSummary{
		ID:            r.ID,
		UseCase:       r.Metadata.UseCase,
		Model:         r.Metadata.Model,
		Path:          r.Metadata.Path,
		NumDocuments:  r.Metadata.NumDocuments,
		NumCategories: r.Metadata.NumCategories,
		Skipped:       r.Metadata.SkippedDocumentCount,
		StartedAt:     r.Metadata.StartedAt,
		Duration:      r.Metadata.Duration,
	}
}
