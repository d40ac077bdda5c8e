// Package modelstore loads serialized tree-ensemble artifacts and serves
// them through a hot-swappable registry.
package modelstore

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"

	"github.com/masarhr/murshid/internal/domain/feature"
)

// Artifact is the on-disk model document: two tree ensembles trained over
// the fixed feature space, plus the metadata needed to validate and map
// their outputs.
type Artifact struct {
	Version      string        `json:"version"`
	FeatureNames []string      `json:"feature_names"`
	Classes      []string      `json:"classes"`
	Bagging      *BaggingSpec  `json:"bagging,omitempty"`
	Boosting     *BoostingSpec `json:"boosting,omitempty"`
}

// BaggingSpec is a forest of classification trees whose leaves carry full
// class distributions.
type BaggingSpec struct {
	Trees []Tree `json:"trees"`
}

// BoostingSpec is an additive model: per class, a sequence of regression
// trees whose leaf values accumulate into a raw score, softmaxed across
// classes at prediction time.
type BoostingSpec struct {
	LearningRate  float64  `json:"learning_rate"`
	TreesPerClass [][]Tree `json:"trees_per_class"`
}

// Tree is one decision tree in flat node-array form. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is one tree node. Internal nodes route on feature/threshold via the
// left/right child indices; leaves have both children set to -1 and carry
// either a class distribution (bagging) or a scalar value (boosting).
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Dist      []float64 `json:"dist,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

// IsLeaf reports whether the node is a terminal node.
func (n Node) IsLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

// ParseArtifact decodes and validates an artifact document.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}

	if len(a.Classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidArtifact)
	}

	want := feature.FeatureNames()
	if len(a.FeatureNames) != len(want) {
		return nil, fmt.Errorf("%w: artifact has %d features, encoder produces %d",
			ErrFeatureMismatch, len(a.FeatureNames), len(want))
	}
	for i, name := range a.FeatureNames {
		if name != want[i] {
			return nil, fmt.Errorf("%w: feature %d is %q, encoder produces %q",
				ErrFeatureMismatch, i, name, want[i])
		}
	}

	return &a, nil
}

// leaf walks a tree for one vector and returns its terminal node. Malformed
// child indices surface as an error rather than a panic.
func (t Tree) leaf(v feature.Vector) (Node, error) {
	if len(t.Nodes) == 0 {
		return Node{}, fmt.Errorf("%w: empty tree", ErrInvalidArtifact)
	}

	idx := 0
	// A valid tree never needs more hops than it has nodes.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[idx]
		if n.IsLeaf() {
			return n, nil
		}
		if n.Feature < 0 || n.Feature >= len(v) {
			return Node{}, fmt.Errorf("%w: node references feature %d", ErrInvalidArtifact, n.Feature)
		}

		if v[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return Node{}, fmt.Errorf("%w: child index %d out of range", ErrInvalidArtifact, idx)
		}
	}
	return Node{}, fmt.Errorf("%w: cycle in tree", ErrInvalidArtifact)
}

// baggedModel averages the leaf distributions of its trees.
type baggedModel struct {
	trees   []Tree
	classes int
}

func newBaggedModel(spec *BaggingSpec, classes int) (*baggedModel, error) {
	if spec == nil || len(spec.Trees) == 0 {
		return nil, fmt.Errorf("%w: bagging section missing or empty", ErrInvalidArtifact)
	}
	return &baggedModel{trees: spec.Trees, classes: classes}, nil
}

// PredictProbabilities implements ensemble.Classifier.
func (m *baggedModel) PredictProbabilities(v feature.Vector) ([]float64, error) {
	sum := make([]float64, m.classes)
	for _, t := range m.trees {
		n, err := t.leaf(v)
		if err != nil {
			return nil, err
		}
		if len(n.Dist) != m.classes {
			return nil, fmt.Errorf("%w: leaf distribution has %d classes, want %d",
				ErrInvalidArtifact, len(n.Dist), m.classes)
		}
		for i, p := range n.Dist {
			sum[i] += p
		}
	}

	inv := 1.0 / float64(len(m.trees))
	for i := range sum {
		sum[i] *= inv
	}
	return sum, nil
}

// boostedModel accumulates per-class raw scores and softmaxes them.
type boostedModel struct {
	treesPerClass [][]Tree
	learningRate  float64
}

func newBoostedModel(spec *BoostingSpec, classes int) (*boostedModel, error) {
	if spec == nil || len(spec.TreesPerClass) == 0 {
		return nil, fmt.Errorf("%w: boosting section missing or empty", ErrInvalidArtifact)
	}
	if len(spec.TreesPerClass) != classes {
		return nil, fmt.Errorf("%w: boosting covers %d classes, artifact declares %d",
			ErrInvalidArtifact, len(spec.TreesPerClass), classes)
	}
	lr := spec.LearningRate
	if lr <= 0 {
		lr = 0.1
	}
	return &boostedModel{treesPerClass: spec.TreesPerClass, learningRate: lr}, nil
}

// PredictProbabilities implements ensemble.Classifier.
func (m *boostedModel) PredictProbabilities(v feature.Vector) ([]float64, error) {
	raw := make([]float64, len(m.treesPerClass))
	for class, trees := range m.treesPerClass {
		for _, t := range trees {
			n, err := t.leaf(v)
			if err != nil {
				return nil, err
			}
			raw[class] += m.learningRate * n.Value
		}
	}
	return softmax(raw), nil
}

// softmax converts raw scores into a probability distribution, shifted by
// the max score for numeric stability.
func softmax(raw []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range raw {
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(raw))
	var total float64
	for i, s := range raw {
		out[i] = math.Exp(s - maxScore)
		total += out[i]
	}
	if total == 0 {
		uniform := 1.0 / float64(len(raw))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
