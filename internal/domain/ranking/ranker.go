// Package ranking orchestrates the recommendation pipeline: one feature
// encoding per employee, both scoring paths per candidate, score fusion,
// diversity-aware selection and explanation.
package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/masarhr/murshid/internal/domain/ensemble"
	"github.com/masarhr/murshid/internal/domain/explain"
	"github.com/masarhr/murshid/internal/domain/feature"
	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/internal/domain/scoring"
	"github.com/masarhr/murshid/pkg/metrics"
)

// DefaultAlpha is the fusion weight on the ML confidence. 0.5 trusts the
// data-driven and the expert-authored signal equally; neither path is
// allowed to dominate by default.
const DefaultAlpha = 0.5

// DefaultTopK is the result size when the caller does not ask for one.
const DefaultTopK = 3

// Diversity grouping strategies.
const (
	GroupBySkillCategory = "skill_category"
	GroupByDepartment    = "department"
)

// poolPressureFactor decides when diversity skipping must stop: once the
// remaining pool is no larger than this multiple of the open slots,
// skipping risks returning fewer than topK results.
const poolPressureFactor = 1.5

// MLScorer is the ensemble boundary the ranker predicts through. The
// model registry satisfies it with whatever snapshot is current.
type MLScorer interface {
	Score(v feature.Vector, candidateIDs []string) (map[string]float64, ensemble.Mode)
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithAlpha sets the fusion weight on the ML confidence. Values outside
// [0,1] are ignored.
func WithAlpha(alpha float64) Option {
	return func(r *Ranker) {
		if alpha >= 0 && alpha <= 1 {
			r.alpha = alpha
		}
	}
}

// WithGrouping sets the diversity grouping strategy.
func WithGrouping(grouping string) Option {
	return func(r *Ranker) {
		if grouping == GroupBySkillCategory || grouping == GroupByDepartment {
			r.grouping = grouping
		}
	}
}

// Ranker is the pipeline entry point. It holds only configuration and
// collaborators and is safe for concurrent use.
type Ranker struct {
	encoder  *feature.Encoder
	rules    *scoring.Scorer
	ml       MLScorer
	alpha    float64
	grouping string
}

// NewRanker wires the pipeline. ml may serve degraded or neutral
// predictions; the ranker never fails because of the ML path.
func NewRanker(encoder *feature.Encoder, rules *scoring.Scorer, ml MLScorer, opts ...Option) *Ranker {
	r := &Ranker{
		encoder:  encoder,
		rules:    rules,
		ml:       ml,
		alpha:    DefaultAlpha,
		grouping: GroupBySkillCategory,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// scored is one candidate with both path scores attached.
type scored struct {
	candidate model.CourseCandidate
	ml        float64
	rule      float64
	final     float64
	breakdown model.ScoreBreakdown
}

// Rank produces at most topK recommendations for one employee using the
// configured fusion weight. An empty candidate list yields an empty
// result, not an error; topK above the candidate count returns everything
// ranked, no padding.
func (r *Ranker) Rank(ctx context.Context, p model.EmployeeProfile, candidates []model.CourseCandidate, topK int) ([]model.Recommendation, error) {
	return r.RankWithAlpha(ctx, p, candidates, topK, r.alpha)
}

// RankWithAlpha is Rank with a per-call fusion weight. Out-of-range alpha
// falls back to the configured default.
func (r *Ranker) RankWithAlpha(ctx context.Context, p model.EmployeeProfile, candidates []model.CourseCandidate, topK int, alpha float64) ([]model.Recommendation, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []model.Recommendation{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if alpha < 0 || alpha > 1 {
		alpha = r.alpha
	}

	// One encoding per employee; the vector does not depend on the course.
	vector := r.encoder.Encode(p)

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	confidences, mode := r.ml.Score(vector, ids)
	switch mode {
	case ensemble.ModeDegraded:
		metrics.RecordDegradedPrediction()
	case ensemble.ModeNeutral:
		metrics.RecordNeutralPrediction()
	}

	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		rule, breakdown := r.rules.Score(p, c)
		ml := confidences[c.ID]
		pool = append(pool, scored{
			candidate: c,
			ml:        ml,
			rule:      rule,
			final:     alpha*ml + (1-alpha)*rule,
			breakdown: breakdown,
		})
	}
	metrics.RecordCandidatesRanked(len(pool))

	// Final score descending, course id ascending on ties, so identical
	// inputs always rank identically.
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].final != pool[j].final {
			return pool[i].final > pool[j].final
		}
		return pool[i].candidate.ID < pool[j].candidate.ID
	})

	selected := r.selectDiverse(pool, topK)

	out := make([]model.Recommendation, 0, len(selected))
	for i, s := range selected {
		rec := model.Recommendation{
			CourseID:     s.candidate.ID,
			CourseTitle:  s.candidate.Title,
			FinalScore:   s.final,
			Rank:         i + 1,
			MLConfidence: s.ml,
			RuleScore:    s.rule,
			Breakdown:    s.breakdown,
			Explanation:  explain.Explain(s.final, s.breakdown),
		}
		out = append(out, rec)
		metrics.RecordFinalScore(s.final)
		metrics.RecordRecommendationGenerated()
	}

	return out, nil
}

// selectDiverse greedily picks from the score-ordered pool, skipping a
// candidate whose category is already covered unless the remaining pool is
// too thin to fill the open slots without it. Skipped candidates backfill
// in score order, so topK is met whenever the pool allows.
func (r *Ranker) selectDiverse(pool []scored, topK int) []scored {
	if len(pool) <= topK {
		return pool
	}

	selected := make([]scored, 0, topK)
	skipped := make([]scored, 0, len(pool))
	covered := map[string]struct{}{}

	for i, s := range pool {
		if len(selected) == topK {
			break
		}

		cat := r.categoryOf(s.candidate)
		if _, seen := covered[cat]; seen {
			remaining := len(pool) - i - 1
			slots := topK - len(selected)
			if float64(remaining) > float64(slots)*poolPressureFactor {
				skipped = append(skipped, s)
				continue
			}
		}

		covered[cat] = struct{}{}
		selected = append(selected, s)
	}

	for _, s := range skipped {
		if len(selected) == topK {
			break
		}
		selected = append(selected, s)
	}

	// Backfill keeps the final list in score order.
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].final != selected[j].final {
			return selected[i].final > selected[j].final
		}
		return selected[i].candidate.ID < selected[j].candidate.ID
	})

	return selected
}

// Alpha returns the configured fusion weight.
func (r *Ranker) Alpha() float64 {
	return r.alpha
}

// Grouping returns the configured diversity grouping strategy.
func (r *Ranker) Grouping() string {
	return r.grouping
}

func (r *Ranker) categoryOf(c model.CourseCandidate) string {
	if r.grouping == GroupByDepartment {
		if dept := model.Normalize(c.Department); dept != "" {
			return dept
		}
		return generalCategory
	}
	return skillCategoryOf(c)
}
