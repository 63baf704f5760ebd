package services

import (
	"math"
	"sort"
)

// knnModel is a class-weighted k-nearest-neighbour classifier over unit
// vectors. Labels are category IDs; weights are keyed by the same IDs.
type knnModel struct {
	vectors [][]float32
	labels  []string
	weights map[string]float64
	k       int
}

// classWeights returns balanced inverse-frequency weights keyed by label:
// n / (classes * count).
func classWeights(labels []string) map[string]float64 {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	weights := make(map[string]float64, len(counts))
	for l, c := range counts {
		weights[l] = float64(len(labels)) / float64(len(counts)*c)
	}
	return weights
}

func trainKNN(vectors [][]float32, labels []string, k int) *knnModel {
	normed := make([][]float32, len(vectors))
	for i, v := range vectors {
		normed[i] = normalize(v)
	}
	return &knnModel{
		vectors: normed,
		labels:  append([]string(nil), labels...),
		weights: classWeights(labels),
		k:       max(1, k),
	}
}

// predict returns the winning label and its share of the weighted vote.
// exclude skips one training index, for leave-one-out evaluation; pass -1
// to use every example.
func (m *knnModel) predict(v []float32, exclude int) (string, float64) {
	type neighbour struct {
		idx int
		sim float64
	}

	q := normalize(v)
	nbrs := make([]neighbour, 0, len(m.vectors))
	for i, tv := range m.vectors {
		if i == exclude {
			continue
		}
		nbrs = append(nbrs, neighbour{idx: i, sim: dot(q, tv)})
	}
	if len(nbrs) == 0 {
		return "", 0
	}
	sort.SliceStable(nbrs, func(i, j int) bool { return nbrs[i].sim > nbrs[j].sim })
	if len(nbrs) > m.k {
		nbrs = nbrs[:m.k]
	}

	votes := make(map[string]float64)
	var total float64
	for _, n := range nbrs {
		label := m.labels[n.idx]
		// Cosine similarity mapped to [0,1] so opposite vectors still vote weakly.
		w := m.weights[label] * (1 + n.sim) / 2
		votes[label] += w
		total += w
	}

	best, bestVote := "", -1.0
	for label, vote := range votes {
		if vote > bestVote || (vote == bestVote && label < best) {
			best, bestVote = label, vote
		}
	}
	if total == 0 {
		return best, 0
	}
	return best, bestVote / total
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	n := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// accuracy returns the fraction of matching predictions.
func accuracy(truth, pred []string) float64 {
	if len(truth) == 0 {
		return 0
	}
	var hit int
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

// macroF1 averages per-class F1 over every class seen in truth or pred.
func macroF1(truth, pred []string) float64 {
	if len(truth) == 0 {
		return 0
	}
	classes := make(map[string]struct{})
	for i := range truth {
		classes[truth[i]] = struct{}{}
		classes[pred[i]] = struct{}{}
	}

	var sum float64
	for c := range classes {
		var tp, fp, fn float64
		for i := range truth {
			switch {
			case truth[i] == c && pred[i] == c:
				tp++
			case pred[i] == c:
				fp++
			case truth[i] == c:
				fn++
			}
		}
		if tp == 0 {
			continue
		}
		precision := tp / (tp + fp)
		recall := tp / (tp + fn)
		sum += 2 * precision * recall / (precision + recall)
	}
	return sum / float64(len(classes))
}
