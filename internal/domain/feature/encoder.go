// Package feature turns employee profiles into the fixed-width numeric
// vectors the ensemble classifiers were trained on.
//
// The feature ordering is a contract shared with the model artifact: any
// change here invalidates every trained model, so the vocabularies and the
// layout below only ever grow at the end, never reorder.
package feature

import (
	"strings"
	"time"

	"github.com/masarhr/murshid/internal/domain/model"
)

// Dim is the fixed width of every encoded vector.
const Dim = 43

// Vector is one encoded employee profile.
type Vector []float64

// Encoder converts profiles into 43-dimensional vectors. It is stateless
// apart from configuration and safe for concurrent use.
type Encoder struct {
	// Career thresholds in ascending years; boundaries between the four
	// experience buckets.
	thresholds [3]int
	// now supplies the reference time for training recency. Injected so
	// encoding stays deterministic under test.
	now func() time.Time
}

// Option applies a configuration option to the Encoder.
type Option func(*Encoder)

// WithExperienceThresholds sets the career-level year boundaries.
func WithExperienceThresholds(beginner, intermediate, advanced int) Option {
	return func(e *Encoder) {
		if beginner > 0 && intermediate > beginner && advanced > intermediate {
			e.thresholds = [3]int{beginner, intermediate, advanced}
		}
	}
}

// WithClock sets the reference clock for recency features.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEncoder creates an encoder with default thresholds (2, 5, 10 years).
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		thresholds: [3]int{2, 5, 10},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Encode produces the feature vector for a profile. It is total: every
// profile, including a zero value, yields exactly Dim finite values.
func (e *Encoder) Encode(p model.EmployeeProfile) Vector {
	v := make(Vector, 0, Dim)

	levels := p.SkillLevels()

	// Skill block: tracked vocabulary levels, then aggregate stats.
	for _, name := range trackedSkills {
		if lvl, ok := levels[name]; ok {
			v = append(v, float64(lvl))
		} else {
			v = append(v, absentSkillLevel)
		}
	}
	v = append(v, avgSkillLevel(p.Skills), float64(len(p.Skills)))

	// Experience block.
	v = append(v, p.ExperienceYears, float64(e.ExperienceBucket(p.ExperienceYears)))

	// Department block: one-hot by containment so compound names like
	// "Information Technology - Infrastructure" still hit their bucket.
	dept := model.Normalize(p.Department.Name)
	for _, d := range departments {
		if d != "" && strings.Contains(dept, d) {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}

	// Location block with explicit unknown bucket.
	v = append(v, e.locationOneHot(p.Location)...)

	// Skill-gap block.
	v = append(v, e.skillGapBlock(p)...)

	// Career block.
	v = append(v, e.careerBlock(p)...)

	// Training-history block.
	v = append(v, e.trainingBlock(p.TrainingHistory)...)

	return v
}

// ExperienceBucket maps years to the 1-4 experience level used both as a
// feature and by the career block.
func (e *Encoder) ExperienceBucket(years float64) int {
	switch {
	case years < float64(e.thresholds[0]):
		return minExperienceBucket
	case years < float64(e.thresholds[1]):
		return 2
	case years < float64(e.thresholds[2]):
		return 3
	default:
		return maxExperienceBucket
	}
}

func (e *Encoder) locationOneHot(location string) []float64 {
	loc := model.Normalize(location)
	out := make([]float64, len(locations))
	matched := false
	for i, l := range locations[:len(locations)-1] {
		if loc != "" && strings.Contains(loc, l) {
			out[i] = 1
			matched = true
		}
	}
	if !matched {
		out[len(locations)-1] = 1
	}
	return out
}

func (e *Encoder) skillGapBlock(p model.EmployeeProfile) []float64 {
	if len(p.Skills) == 0 {
		return []float64{noSkillsWeakCount, noSkillsStrongCount, noSkillsGapScore, noSkillsProgression}
	}

	var weak, strong int
	var progression float64
	for _, s := range p.Skills {
		lvl := s.ClampedLevel()
		if lvl <= weakSkillLevelCeiling {
			weak++
		}
		if lvl >= strongSkillLevelFloor {
			strong++
		}
		// Skills below level 4 have headroom; mastered skills contribute
		// little progression potential.
		if lvl <= 3 {
			progression += float64(model.MaxSkillLevel-lvl) / 5.0
		} else {
			progression += float64(model.MaxSkillLevel-lvl) / 10.0
		}
	}
	progression /= float64(len(p.Skills))

	gap := noCriticalGapScore
	if critical := model.NormalizedSet(p.Department.CriticalSkills); len(critical) > 0 {
		held := p.SkillLevels()
		missing := 0
		for name := range critical {
			if _, ok := held[name]; !ok {
				missing++
			}
		}
		gap = float64(missing) / float64(len(critical))
	}

	return []float64{float64(weak), float64(strong), gap, progression}
}

func (e *Encoder) careerBlock(p model.EmployeeProfile) []float64 {
	avg := avgSkillLevel(p.Skills)

	careerLevel := float64(e.ExperienceBucket(p.ExperienceYears))

	experienceReadiness := p.ExperienceYears / float64(e.thresholds[2])
	if experienceReadiness > 1 {
		experienceReadiness = 1
	}
	nextLevelReadiness := (experienceReadiness + avg/float64(model.MaxSkillLevel)) / 2

	specialization := 0.0
	if len(p.Skills) > 0 {
		strong := 0
		for _, s := range p.Skills {
			if s.ClampedLevel() >= strongSkillLevelFloor {
				strong++
			}
		}
		specialization = float64(strong) / float64(len(p.Skills))
	}

	leadership := 0.0
	held := p.SkillLevels()
	for _, name := range leadershipSkills {
		if _, ok := held[name]; ok {
			leadership = 1
			break
		}
	}

	return []float64{careerLevel, nextLevelReadiness, specialization, leadership}
}

func (e *Encoder) trainingBlock(history []model.TrainingRecord) []float64 {
	if len(history) == 0 {
		return []float64{noHistoryFrequency, noHistoryCompletionRate, noHistoryAvgAssessment, noHistoryRecencyDays}
	}

	completed := 0
	var scoreSum float64
	scored := 0
	var last *time.Time
	for i := range history {
		r := history[i]
		if r.CompletionDate != nil {
			completed++
			if last == nil || r.CompletionDate.After(*last) {
				last = r.CompletionDate
			}
		}
		if r.AssessmentScore != nil {
			scoreSum += *r.AssessmentScore
			scored++
		}
	}

	completionRate := float64(completed) / float64(len(history))

	avgAssessment := noHistoryAvgAssessment
	if scored > 0 {
		avgAssessment = scoreSum / float64(scored) / 100.0
	}

	recency := noHistoryRecencyDays
	if last != nil {
		days := e.now().Sub(*last).Hours() / 24
		if days < 0 {
			days = 0
		}
		if days < noHistoryRecencyDays {
			recency = days
		}
	}

	return []float64{float64(len(history)), completionRate, avgAssessment, recency}
}

func avgSkillLevel(skills []model.Skill) float64 {
	if len(skills) == 0 {
		return noSkillsAverageLevel
	}
	sum := 0
	for _, s := range skills {
		sum += s.ClampedLevel()
	}
	return float64(sum) / float64(len(skills))
}

// FeatureNames returns the 43 feature names in vector order. The artifact
// loader validates trained models against this list.
func FeatureNames() []string {
	names := make([]string, 0, Dim)
	for _, s := range trackedSkills {
		names = append(names, "skill_"+s)
	}
	names = append(names, "avg_skill_level", "num_skills")
	names = append(names, "experience_years", "experience_level")
	for _, d := range departments {
		names = append(names, "dept_"+d)
	}
	for _, l := range locations {
		names = append(names, "location_"+l)
	}
	names = append(names,
		"weak_skills_count", "strong_skills_count", "skill_gap_score", "skill_progression_potential",
		"career_level", "next_level_readiness", "specialization_score", "leadership_skills",
		"training_frequency", "completion_rate", "avg_assessment_score", "days_since_last_training",
	)
	return names
}
