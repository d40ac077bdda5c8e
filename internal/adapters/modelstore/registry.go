package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"
	"time"

	"github.com/masarhr/murshid/internal/domain/ensemble"
	"github.com/masarhr/murshid/internal/domain/feature"
	"github.com/masarhr/murshid/pkg/logger"
	"github.com/masarhr/murshid/pkg/metrics"
)

// Snapshot is one fully-built model state. It is immutable after creation;
// readers share it without synchronization.
type Snapshot struct {
	Version       string
	Predictor     *ensemble.Predictor
	BaggedLoaded  bool
	BoostedLoaded bool
	LoadedAt      time.Time
}

// Mode returns the prediction mode this snapshot serves in.
func (s *Snapshot) Mode() ensemble.Mode {
	switch {
	case s.BaggedLoaded && s.BoostedLoaded:
		return ensemble.ModeFull
	case s.BaggedLoaded || s.BoostedLoaded:
		return ensemble.ModeDegraded
	default:
		return ensemble.ModeNeutral
	}
}

// Status is the externally visible model state.
type Status struct {
	Version       string    `json:"version"`
	Mode          string    `json:"mode"`
	BaggedLoaded  bool      `json:"bagged_loaded"`
	BoostedLoaded bool      `json:"boosted_loaded"`
	Classes       int       `json:"classes"`
	LoadedAt      time.Time `json:"loaded_at,omitempty"`
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// Registry holds the current model snapshot behind an atomic pointer.
// Reload swaps the whole snapshot; in-flight predictions see either the
// old or the new model in full, never a mix.
type Registry struct {
	path    string
	log     logger.Logger
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry serving neutral predictions until Load
// succeeds.
func NewRegistry(path string, opts ...Option) *Registry {
	r := &Registry{
		path: path,
		log:  logger.Named("modelstore"),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.current.Store(neutralSnapshot())
	return r
}

func neutralSnapshot() *Snapshot {
	return &Snapshot{
		Predictor: ensemble.NewPredictor(nil, nil, nil),
	}
}

// Load reads and installs the artifact from the configured path. On any
// failure the previous snapshot stays installed and keeps serving.
func (r *Registry) Load(ctx context.Context) error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		metrics.RecordModelReloadError()
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactNotFound, r.path)
		}
		return fmt.Errorf("read artifact: %w", err)
	}

	artifact, err := ParseArtifact(data)
	if err != nil {
		metrics.RecordModelReloadError()
		return err
	}

	snap := r.build(ctx, artifact)
	r.current.Store(snap)

	metrics.RecordModelReload()
	metrics.UpdateModelLoaded("bagged", snap.BaggedLoaded)
	metrics.UpdateModelLoaded("boosted", snap.BoostedLoaded)

	r.log.Info(ctx, "model artifact loaded",
		logger.String("version", snap.Version),
		logger.String("mode", snap.Mode().String()),
		logger.Int("classes", len(snap.Predictor.Classes())),
	)
	return nil
}

// Reload is Load under its operational name; exposed to the HTTP surface.
func (r *Registry) Reload(ctx context.Context) error {
	return r.Load(ctx)
}

// build assembles a snapshot from a parsed artifact. Either classifier may
// fail to build independently; the other still serves.
func (r *Registry) build(ctx context.Context, a *Artifact) *Snapshot {
	var bagged, boosted ensemble.Classifier

	bm, err := newBaggedModel(a.Bagging, len(a.Classes))
	if err != nil {
		r.log.Warn(ctx, "bagged model unavailable", logger.Error(err))
	} else {
		bagged = bm
	}

	bo, err := newBoostedModel(a.Boosting, len(a.Classes))
	if err != nil {
		r.log.Warn(ctx, "boosted model unavailable, serving degraded", logger.Error(err))
	} else {
		boosted = bo
	}

	return &Snapshot{
		Version:       a.Version,
		Predictor:     ensemble.NewPredictor(bagged, boosted, a.Classes),
		BaggedLoaded:  bagged != nil,
		BoostedLoaded: boosted != nil,
		LoadedAt:      time.Now().UTC(),
	}
}

// Current returns the installed snapshot. Never nil.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Score implements the ranker's ML boundary against the current snapshot.
func (r *Registry) Score(v feature.Vector, candidateIDs []string) (map[string]float64, ensemble.Mode) {
	return r.Current().Predictor.Score(v, candidateIDs)
}

// Status reports the current model state.
func (r *Registry) Status() Status {
	snap := r.Current()
	return Status{
		Version:       snap.Version,
		Mode:          snap.Mode().String(),
		BaggedLoaded:  snap.BaggedLoaded,
		BoostedLoaded: snap.BoostedLoaded,
		Classes:       len(snap.Predictor.Classes()),
		LoadedAt:      snap.LoadedAt,
	}
}
