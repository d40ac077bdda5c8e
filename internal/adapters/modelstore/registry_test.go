package modelstore_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/masarhr/murshid/internal/adapters/modelstore"
	"github.com/masarhr/murshid/internal/domain/ensemble"
	"github.com/masarhr/murshid/internal/domain/feature"
	"github.com/masarhr/murshid/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// leafTree is a single-leaf classification tree with a fixed distribution.
func leafTree(dist ...float64) modelstore.Tree {
	return modelstore.Tree{Nodes: []modelstore.Node{
		{Left: -1, Right: -1, Dist: dist},
	}}
}

// valueTree is a single-leaf regression tree with a fixed raw score.
func valueTree(value float64) modelstore.Tree {
	return modelstore.Tree{Nodes: []modelstore.Node{
		{Left: -1, Right: -1, Value: value},
	}}
}

func artifact(version string) modelstore.Artifact {
	return modelstore.Artifact{
		Version:      version,
		FeatureNames: feature.FeatureNames(),
		Classes:      []string{"c-1", "c-2"},
		Bagging: &modelstore.BaggingSpec{
			Trees: []modelstore.Tree{
				leafTree(0.8, 0.2),
				leafTree(0.6, 0.4),
			},
		},
		Boosting: &modelstore.BoostingSpec{
			LearningRate: 1.0,
			TreesPerClass: [][]modelstore.Tree{
				{valueTree(2.0)},
				{valueTree(1.0)},
			},
		},
	}
}

func writeArtifact(t *testing.T, dir string, a modelstore.Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(dir, "ensemble.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestParseArtifact(t *testing.T) {
	Convey("Given artifact documents", t, func() {
		Convey("When the document is valid", func() {
			data, err := json.Marshal(artifact("v1"))
			So(err, ShouldBeNil)
			a, err := modelstore.ParseArtifact(data)

			Convey("Then it parses with its metadata intact", func() {
				So(err, ShouldBeNil)
				So(a.Version, ShouldEqual, "v1")
				So(a.Classes, ShouldHaveLength, 2)
			})
		})

		Convey("When the JSON is malformed", func() {
			_, err := modelstore.ParseArtifact([]byte("{not json"))
			So(err, ShouldWrap, modelstore.ErrInvalidArtifact)
		})

		Convey("When the feature names disagree with the encoder", func() {
			a := artifact("v1")
			a.FeatureNames[0] = "renamed_feature"
			data, _ := json.Marshal(a)
			_, err := modelstore.ParseArtifact(data)
			So(err, ShouldWrap, modelstore.ErrFeatureMismatch)
		})

		Convey("When the feature list is the wrong length", func() {
			a := artifact("v1")
			a.FeatureNames = a.FeatureNames[:10]
			data, _ := json.Marshal(a)
			_, err := modelstore.ParseArtifact(data)
			So(err, ShouldWrap, modelstore.ErrFeatureMismatch)
		})

		Convey("When there are no classes", func() {
			a := artifact("v1")
			a.Classes = nil
			data, _ := json.Marshal(a)
			_, err := modelstore.ParseArtifact(data)
			So(err, ShouldWrap, modelstore.ErrInvalidArtifact)
		})
	})
}

func TestRegistryLoad(t *testing.T) {
	Convey("Given a registry over a valid artifact file", t, func() {
		dir := t.TempDir()
		path := writeArtifact(t, dir, artifact("v1"))
		r := modelstore.NewRegistry(path)
		ctx := context.Background()

		Convey("Before loading, the registry serves neutral predictions", func() {
			scores, mode := r.Score(make(feature.Vector, feature.Dim), []string{"c-1"})
			So(mode, ShouldEqual, ensemble.ModeNeutral)
			So(scores["c-1"], ShouldEqual, ensemble.NeutralConfidence)
			So(r.Status().Mode, ShouldEqual, "neutral")
		})

		Convey("When loading succeeds", func() {
			So(r.Load(ctx), ShouldBeNil)

			Convey("Then both classifiers serve", func() {
				st := r.Status()
				So(st.Version, ShouldEqual, "v1")
				So(st.Mode, ShouldEqual, "full")
				So(st.BaggedLoaded, ShouldBeTrue)
				So(st.BoostedLoaded, ShouldBeTrue)
				So(st.Classes, ShouldEqual, 2)
			})

			Convey("Then predictions fuse both distributions", func() {
				scores, mode := r.Score(make(feature.Vector, feature.Dim), []string{"c-1", "c-2"})
				So(mode, ShouldEqual, ensemble.ModeFull)
				// bagged mean is (0.7, 0.3); boosted softmax of (2,1)
				// favors c-1; the fused c-1 outranks c-2.
				So(scores["c-1"], ShouldBeGreaterThan, scores["c-2"])
			})
		})

		Convey("When the artifact file is missing", func() {
			missing := modelstore.NewRegistry(filepath.Join(dir, "nope.json"))
			err := missing.Load(ctx)

			Convey("Then load fails but neutral serving continues", func() {
				So(err, ShouldWrap, modelstore.ErrArtifactNotFound)
				_, mode := missing.Score(make(feature.Vector, feature.Dim), []string{"c-1"})
				So(mode, ShouldEqual, ensemble.ModeNeutral)
			})
		})
	})
}

func TestRegistryDegradedLoad(t *testing.T) {
	Convey("Given an artifact with an unusable boosting section", t, func() {
		dir := t.TempDir()
		a := artifact("v2")
		a.Boosting = nil
		path := writeArtifact(t, dir, a)
		r := modelstore.NewRegistry(path)
		ctx := context.Background()

		Convey("When loading", func() {
			So(r.Load(ctx), ShouldBeNil)

			Convey("Then the registry serves degraded from the bagged model", func() {
				st := r.Status()
				So(st.Mode, ShouldEqual, "degraded")
				So(st.BaggedLoaded, ShouldBeTrue)
				So(st.BoostedLoaded, ShouldBeFalse)

				scores, mode := r.Score(make(feature.Vector, feature.Dim), []string{"c-1", "c-2"})
				So(mode, ShouldEqual, ensemble.ModeDegraded)
				So(scores["c-1"], ShouldAlmostEqual, 0.7, 1e-9)
				So(scores["c-2"], ShouldAlmostEqual, 0.3, 1e-9)
			})
		})
	})
}

func TestRegistryReload(t *testing.T) {
	Convey("Given a loaded registry", t, func() {
		dir := t.TempDir()
		path := writeArtifact(t, dir, artifact("v1"))
		r := modelstore.NewRegistry(path)
		ctx := context.Background()
		So(r.Load(ctx), ShouldBeNil)

		Convey("When the file is replaced and reloaded", func() {
			writeArtifact(t, dir, artifact("v2"))
			So(r.Reload(ctx), ShouldBeNil)

			Convey("Then the new version serves", func() {
				So(r.Status().Version, ShouldEqual, "v2")
			})
		})

		Convey("When the replacement is corrupt", func() {
			So(os.WriteFile(path, []byte("{broken"), 0o600), ShouldBeNil)
			err := r.Reload(ctx)

			Convey("Then reload fails and the old snapshot keeps serving", func() {
				So(err, ShouldWrap, modelstore.ErrInvalidArtifact)
				So(r.Status().Version, ShouldEqual, "v1")
				So(r.Status().Mode, ShouldEqual, "full")
			})
		})

		Convey("When predictions race a reload", func() {
			writeArtifact(t, dir, artifact("v2"))

			var wg sync.WaitGroup
			var torn atomic.Int32
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						// A snapshot is internally consistent even while
						// the registry pointer moves underneath it.
						snap := r.Current()
						if snap.Predictor == nil {
							torn.Add(1)
							continue
						}
						scores, _ := snap.Predictor.Score(make(feature.Vector, feature.Dim), []string{"c-1"})
						if len(scores) != 1 {
							torn.Add(1)
						}
					}
				}()
			}
			So(r.Reload(ctx), ShouldBeNil)
			wg.Wait()

			Convey("Then no reader ever saw a torn snapshot", func() {
				So(torn.Load(), ShouldEqual, 0)
				So(r.Status().Version, ShouldEqual, "v2")
			})
		})
	})
}
