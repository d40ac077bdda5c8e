package ensemble_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/masarhr/murshid/internal/domain/ensemble"
	"github.com/masarhr/murshid/internal/domain/feature"
)

type stubClassifier struct {
	dist []float64
	err  error
}

func (s *stubClassifier) PredictProbabilities(_ feature.Vector) ([]float64, error) {
	return s.dist, s.err
}

func TestPredictorFusion(t *testing.T) {
	Convey("Given both classifiers over three classes", t, func() {
		classes := []string{"c-1", "c-2", "c-3"}
		bagged := &stubClassifier{dist: []float64{0.6, 0.3, 0.1}}
		boosted := &stubClassifier{dist: []float64{0.2, 0.5, 0.3}}
		p := ensemble.NewPredictor(bagged, boosted, classes)
		v := make(feature.Vector, feature.Dim)

		Convey("When scoring candidates that match class labels", func() {
			scores, mode := p.Score(v, classes)

			Convey("Then the mode is full", func() {
				So(mode, ShouldEqual, ensemble.ModeFull)
			})

			Convey("Then each confidence is the 0.6/0.4 blend", func() {
				So(scores["c-1"], ShouldAlmostEqual, 0.6*0.6+0.4*0.2, 1e-9)
				So(scores["c-2"], ShouldAlmostEqual, 0.6*0.3+0.4*0.5, 1e-9)
				So(scores["c-3"], ShouldAlmostEqual, 0.6*0.1+0.4*0.3, 1e-9)
			})
		})

		Convey("When a candidate id is outside the trained classes", func() {
			scores, _ := p.Score(v, []string{"c-2", "unmapped"})

			Convey("Then label matches still resolve by label", func() {
				So(scores["c-2"], ShouldAlmostEqual, 0.6*0.3+0.4*0.5, 1e-9)
			})

			Convey("Then the stranger falls back to its position", func() {
				// Position 1 of the fused distribution.
				So(scores["unmapped"], ShouldAlmostEqual, 0.6*0.3+0.4*0.5, 1e-9)
			})
		})
	})
}

func TestPredictorDegradation(t *testing.T) {
	Convey("Given a three-class predictor", t, func() {
		classes := []string{"c-1", "c-2", "c-3"}
		v := make(feature.Vector, feature.Dim)
		bagged := &stubClassifier{dist: []float64{0.6, 0.3, 0.1}}

		Convey("When the boosted classifier errors at inference", func() {
			boosted := &stubClassifier{err: errors.New("corrupt trees")}
			p := ensemble.NewPredictor(bagged, boosted, classes)
			scores, mode := p.Score(v, classes)

			Convey("Then the predictor degrades to the bagged output alone", func() {
				So(mode, ShouldEqual, ensemble.ModeDegraded)
				So(scores["c-1"], ShouldAlmostEqual, 0.6, 1e-9)
			})
		})

		Convey("When the boosted classifier is absent", func() {
			p := ensemble.NewPredictor(bagged, nil, classes)
			scores, mode := p.Score(v, classes)

			Convey("Then the result is the same degraded mode", func() {
				So(mode, ShouldEqual, ensemble.ModeDegraded)
				So(scores["c-3"], ShouldAlmostEqual, 0.1, 1e-9)
			})
		})

		Convey("When no classifier is available", func() {
			p := ensemble.NewPredictor(nil, nil, classes)
			scores, mode := p.Score(v, []string{"a", "b"})

			Convey("Then every candidate gets the neutral confidence", func() {
				So(mode, ShouldEqual, ensemble.ModeNeutral)
				So(scores["a"], ShouldEqual, ensemble.NeutralConfidence)
				So(scores["b"], ShouldEqual, ensemble.NeutralConfidence)
			})
		})

		Convey("When both classifiers fail", func() {
			p := ensemble.NewPredictor(
				&stubClassifier{err: errors.New("bad artifact")},
				&stubClassifier{err: errors.New("bad artifact")},
				classes,
			)
			_, mode := p.Score(v, classes)

			Convey("Then prediction still never errors to the caller", func() {
				So(mode, ShouldEqual, ensemble.ModeNeutral)
			})
		})
	})
}

func TestPredictorBounds(t *testing.T) {
	Convey("Given a classifier emitting out-of-range values", t, func() {
		p := ensemble.NewPredictor(
			&stubClassifier{dist: []float64{1.7, -0.4}},
			nil,
			[]string{"c-1", "c-2"},
		)
		scores, _ := p.Score(make(feature.Vector, feature.Dim), []string{"c-1", "c-2"})

		Convey("Then confidences are clamped into [0,1]", func() {
			So(scores["c-1"], ShouldEqual, 1.0)
			So(scores["c-2"], ShouldEqual, 0.0)
		})
	})
}
