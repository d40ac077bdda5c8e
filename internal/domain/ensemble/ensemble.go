// Package ensemble fuses the probability outputs of two independently
// trained classifiers into one ML confidence per candidate course.
package ensemble

import (
	"github.com/masarhr/murshid/internal/domain/feature"
)

// Fusion weights over the two classifiers.
const (
	baggedWeight  = 0.6
	boostedWeight = 0.4
)

// NeutralConfidence is returned for every candidate when no classifier is
// available, letting the rule path dominate the fusion instead of failing
// the request.
const NeutralConfidence = 0.5

// Mode describes which classifiers actually contributed to a prediction.
type Mode int

// Prediction modes, from full ensemble down to no ML signal at all.
const (
	ModeFull Mode = iota
	ModeDegraded
	ModeNeutral
)

// String implements fmt.Stringer for log and metric labels.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeDegraded:
		return "degraded"
	case ModeNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Classifier is one trained model over the fixed feature space. A
// probability distribution is returned in class order.
type Classifier interface {
	// PredictProbabilities scores one feature vector. The returned slice
	// has one entry per class, summing to ~1.
	PredictProbabilities(v feature.Vector) ([]float64, error)
}

// Predictor combines a bagged and a boosted classifier over a shared class
// list. Either classifier may be nil; prediction is total regardless.
type Predictor struct {
	bagged  Classifier
	boosted Classifier
	classes []string
	// classIndex maps class label to its distribution position.
	classIndex map[string]int
}

// NewPredictor creates a Predictor. classes is the label list both
// classifiers were trained against, in distribution order.
func NewPredictor(bagged, boosted Classifier, classes []string) *Predictor {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return &Predictor{
		bagged:     bagged,
		boosted:    boosted,
		classes:    classes,
		classIndex: idx,
	}
}

// Score computes the fused ML confidence for each candidate course.
//
// Candidates whose id matches a trained class label read that class's fused
// probability; unmatched candidates fall back to a positional mapping so a
// catalog that drifted from the training set still gets a stable, bounded
// signal instead of an error.
func (p *Predictor) Score(v feature.Vector, candidateIDs []string) (map[string]float64, Mode) {
	fused, mode := p.fuse(v)

	out := make(map[string]float64, len(candidateIDs))
	if fused == nil {
		for _, id := range candidateIDs {
			out[id] = NeutralConfidence
		}
		return out, ModeNeutral
	}

	for i, id := range candidateIDs {
		if pos, ok := p.classIndex[id]; ok {
			out[id] = clamp01(fused[pos])
			continue
		}
		out[id] = clamp01(fused[i%len(fused)])
	}
	return out, mode
}

// fuse runs both classifiers and combines their distributions. A failing or
// absent boosted model degrades to the bagged distribution alone; if neither
// produces a distribution the result is nil.
func (p *Predictor) fuse(v feature.Vector) ([]float64, Mode) {
	var bagged, boosted []float64

	if p.bagged != nil {
		if dist, err := p.bagged.PredictProbabilities(v); err == nil && len(dist) > 0 {
			bagged = dist
		}
	}
	if p.boosted != nil {
		if dist, err := p.boosted.PredictProbabilities(v); err == nil && len(dist) > 0 {
			boosted = dist
		}
	}

	switch {
	case bagged != nil && boosted != nil && len(bagged) == len(boosted):
		fused := make([]float64, len(bagged))
		for i := range bagged {
			fused[i] = baggedWeight*bagged[i] + boostedWeight*boosted[i]
		}
		return fused, ModeFull
	case bagged != nil:
		return bagged, ModeDegraded
	case boosted != nil:
		return boosted, ModeDegraded
	default:
		return nil, ModeNeutral
	}
}

// Classes returns the trained class labels in distribution order.
func (p *Predictor) Classes() []string {
	return p.classes
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
