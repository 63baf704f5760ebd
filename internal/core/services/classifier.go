package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

const embedChunkSize = 64

// Classifier extends LLM labels to unlabeled documents with an embedding
// nearest-neighbour model trained on the LLM-labeled examples.
type Classifier struct {
	embedder driven.EmbeddingService
}

// NewClassifier creates a classifier using embedder for document vectors.
func NewClassifier(embedder driven.EmbeddingService) *Classifier {
	return &Classifier{embedder: embedder}
}

// ClassifyResult is the outcome of extending labels.
type ClassifyResult struct {
	// Classified holds documents labeled by the model, in input order.
	Classified []domain.Document

	// Deferred holds documents whose prediction fell below the confidence
	// threshold, or all documents when no model could be trained.
	Deferred []domain.Document

	// Metrics is nil when no model was trained.
	Metrics *domain.ClassifierMetrics
}

// Extend trains on labeled (fallback labels excluded) and predicts rest.
func (c *Classifier) Extend(
	ctx context.Context,
	rc *RunContext,
	labeled, rest []domain.Document,
	taxonomy domain.Taxonomy,
) (ClassifyResult, error) {
	cfg := rc.Config().Classifier

	var train []domain.Document
	var trainIDs []string
	for _, d := range labeled {
		if d.LabeledBy == domain.LabelSourceFallback {
			continue
		}
		if cat, ok := findByName(taxonomy, d.Category); ok {
			train = append(train, d)
			trainIDs = append(trainIDs, cat.ID)
		}
	}
	if len(distinct(trainIDs)) < 2 {
		rc.Warn("Classifier needs at least two labeled categories, got %d; labeling remaining documents with LLM",
			len(distinct(trainIDs)))
		return ClassifyResult{Deferred: rest}, nil
	}

	trainVecs, err := c.embed(ctx, rc, train)
	if err != nil {
		return ClassifyResult{}, err
	}

	metrics := evaluate(trainVecs, trainIDs, cfg, rc.Config().Seed)
	rc.Status("Trained classifier on %d documents (test F1 %.3f, test accuracy %.3f)",
		len(train), metrics.TestF1, metrics.TestAccuracy)

	restVecs, err := c.embed(ctx, rc, rest)
	if err != nil {
		return ClassifyResult{}, err
	}

	model := trainKNN(trainVecs, trainIDs, cfg.Neighbors)
	res := ClassifyResult{Metrics: &metrics}
	for i, d := range rest {
		id, confidence := model.predict(restVecs[i], -1)
		cat, ok := taxonomy.Find(id)
		if !ok || confidence < cfg.ConfidenceThreshold {
			logger.Debug("doc %s deferred to LLM (confidence %.2f)", d.ID, confidence)
			res.Deferred = append(res.Deferred, d)
			continue
		}
		d.Category = cat.Name
		d.LabeledBy = domain.LabelSourceClassifier
		res.Classified = append(res.Classified, d)
	}

	rc.recordClassified(len(res.Classified))
	rc.Status("Classified %d documents with model, %d below confidence threshold",
		len(res.Classified), len(res.Deferred))
	return res, nil
}

// embed returns one vector per document, computed in chunks.
func (c *Classifier) embed(ctx context.Context, rc *RunContext, docs []domain.Document) ([][]float32, error) {
	vecs := make([][]float32, len(docs))
	chunks := (len(docs) + embedChunkSize - 1) / embedChunkSize

	err := rc.forEach(ctx, chunks, func(ctx context.Context, n int) error {
		start := n * embedChunkSize
		end := min(start+embedChunkSize, len(docs))

		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Content)
		}
		out, err := c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
		if len(out) != len(texts) {
			return fmt.Errorf("embed documents: got %d vectors for %d texts", len(out), len(texts))
		}
		copy(vecs[start:end], out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// evaluate splits the examples, trains on the training part and reports
// leave-one-out training metrics and held-out test metrics.
func evaluate(vecs [][]float32, labels []string, cfg domain.ClassifierConfig, seed int64) domain.ClassifierMetrics {
	idx := make([]int, len(vecs))
	for i := range idx {
		idx[i] = i
	}
	rng := newRand(seed)
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	testN := int(float64(len(idx)) * cfg.TestSplit)
	if testN >= len(idx) {
		testN = len(idx) - 1
	}
	testIdx, trainIdx := idx[:testN], idx[testN:]

	trainVecs, trainLabels := pick(vecs, labels, trainIdx)
	model := trainKNN(trainVecs, trainLabels, cfg.Neighbors)

	trainPred := make([]string, len(trainVecs))
	for i, v := range trainVecs {
		trainPred[i], _ = model.predict(v, i)
	}

	testVecs, testLabels := pick(vecs, labels, testIdx)
	testPred := make([]string, len(testVecs))
	for i, v := range testVecs {
		testPred[i], _ = model.predict(v, -1)
	}

	return domain.ClassifierMetrics{
		TrainAccuracy: accuracy(trainLabels, trainPred),
		TrainF1:       macroF1(trainLabels, trainPred),
		TestAccuracy:  accuracy(testLabels, testPred),
		TestF1:        macroF1(testLabels, testPred),
		TrainSize:     len(trainLabels),
		TestSize:      len(testLabels),
	}
}

func pick(vecs [][]float32, labels []string, idx []int) ([][]float32, []string) {
	v := make([][]float32, len(idx))
	l := make([]string, len(idx))
	for i, j := range idx {
		v[i], l[i] = vecs[j], labels[j]
	}
	return v, l
}

func distinct(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func findByName(t domain.Taxonomy, name string) (domain.Category, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Category{}, false
}
