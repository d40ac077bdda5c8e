// Package scoring implements the rule-based course evaluation path: four
// expert-weighted criteria combined into one composite score per
// (employee, course) pair.
package scoring

import (
	"github.com/masarhr/murshid/internal/domain/model"
)

// Composite criterion weights. They sum to 1 so the composite stays in [0,1].
const (
	weightSkillMatch    = 0.3
	weightSkillGapFill  = 0.3
	weightDeptAlignment = 0.2
	weightCareerFit     = 0.2
)

// CriterionWeights returns the composite weight of each criterion keyed by
// its canonical name.
func CriterionWeights() map[string]float64 {
	return map[string]float64{
		"skill_match":    weightSkillMatch,
		"skill_gap_fill": weightSkillGapFill,
		"dept_alignment": weightDeptAlignment,
		"career_fit":     weightCareerFit,
	}
}

// skill_match sub-weights.
const (
	weightCoverage        = 0.5
	weightProficiency     = 0.3
	weightExperienceMatch = 0.2
)

// skill_gap_fill sub-weights.
const (
	weightFillsCritical = 0.5
	weightFillsNew      = 0.3
	weightImprovesWeak  = 0.2

	// Courses with no listed requirements get a flat neutral-low gap score
	// rather than a divide-by-zero or an unearned maximum.
	emptyRequirementsGapScore = 0.3

	// Skills held at this level or below still benefit from a refresher.
	weakSkillCeiling = 2
)

// Department alignment tiers.
const (
	deptExact   = 1.0
	deptRelated = 0.7
	deptDistant = 0.3
	deptUnknown = 0.5 // either side missing a department
)

// career_fit sub-weights and progression tiers.
const (
	weightProgressionFit = 0.6
	weightSkillReadiness = 0.25
	weightDurationFactor = 0.15

	progressionNextLevel    = 1.0
	progressionCurrentLevel = 0.7
	progressionStretch      = 0.6 // two levels up
	progressionBelow        = 0.3 // targets a level already passed
	progressionFar          = 0.4 // more than two levels up
	progressionNeutral      = 0.5 // target level unparseable

	// Duration factor saturates at this many days; longer courses gain
	// nothing extra.
	substantialDurationDays = 60.0
)

// Experience-match tolerances for target-level ranges, in years.
const expMatchToleranceYears = 3.0

// Severity of an experience mismatch outside the tolerated band.
const (
	expMatchExact   = 1.0
	expMatchNear    = 0.7
	expMatchDistant = 0.3
	expMatchNeutral = 0.5 // target level unparseable
)

// levelRange is the experience-year band a target level addresses.
type levelRange struct {
	low, high float64
}

// levelRanges maps each target experience level to the tenure band its
// courses are written for.
var levelRanges = map[model.ExperienceLevel]levelRange{
	model.Beginner:     {0, 2},
	model.Intermediate: {2, 5},
	model.Advanced:     {5, 10},
	model.Expert:       {10, 50},
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRelatedDepartments sets the department relatedness table. Keys and
// values are matched after normalization.
func WithRelatedDepartments(related map[string][]string) Option {
	return func(s *Scorer) {
		table := make(map[string]map[string]struct{}, len(related))
		for dept, rels := range related {
			set := make(map[string]struct{}, len(rels))
			for _, r := range rels {
				set[model.Normalize(r)] = struct{}{}
			}
			table[model.Normalize(dept)] = set
		}
		s.related = table
	}
}

// WithCareerThresholds sets the experience-year boundaries used to place an
// employee on the four-level career ladder.
func WithCareerThresholds(beginner, intermediate, advanced int) Option {
	return func(s *Scorer) {
		if beginner > 0 && intermediate > beginner && advanced > intermediate {
			s.thresholds = [3]int{beginner, intermediate, advanced}
		}
	}
}

// Scorer evaluates one course against one employee profile. It holds only
// configuration and is safe for concurrent use.
type Scorer struct {
	related    map[string]map[string]struct{}
	thresholds [3]int
}

// NewScorer creates a Scorer with default thresholds and an empty
// relatedness table.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		related:    map[string]map[string]struct{}{},
		thresholds: [3]int{2, 5, 10},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the composite rule score and its per-criterion breakdown.
// It is total: every (profile, course) pair yields values in [0,1].
func (s *Scorer) Score(p model.EmployeeProfile, c model.CourseCandidate) (float64, model.ScoreBreakdown) {
	b := model.ScoreBreakdown{
		SkillMatch:    s.skillMatch(p, c),
		SkillGapFill:  s.skillGapFill(p, c),
		DeptAlignment: s.deptAlignment(p, c),
		CareerFit:     s.careerFit(p, c),
	}

	composite := weightSkillMatch*b.SkillMatch +
		weightSkillGapFill*b.SkillGapFill +
		weightDeptAlignment*b.DeptAlignment +
		weightCareerFit*b.CareerFit

	return composite, b
}

func (s *Scorer) skillMatch(p model.EmployeeProfile, c model.CourseCandidate) float64 {
	required := model.NormalizeAll(c.RequiredSkills)

	// An employee with nothing to match contributes no signal on this
	// criterion, including the experience component.
	if len(p.Skills) == 0 && len(required) > 0 {
		return 0
	}

	coverage := 0.0
	proficiency := 0.0
	if len(required) > 0 {
		held := p.SkillLevels()
		matched := 0
		levelSum := 0
		for _, name := range required {
			if lvl, ok := held[name]; ok {
				matched++
				levelSum += lvl
			}
		}
		coverage = float64(matched) / float64(len(required))
		if matched > 0 {
			proficiency = float64(levelSum) / float64(matched) / float64(model.MaxSkillLevel)
		}
	}

	return weightCoverage*coverage +
		weightProficiency*proficiency +
		weightExperienceMatch*s.experienceMatch(p.ExperienceYears, c.TargetLevel)
}

// experienceMatch grades how well an employee's tenure fits the band the
// course targets: full credit inside the band, partial within a few years
// of it, a floor beyond that. An unrecognized target level is neutral, the
// same treatment progressionFit gives it.
func (s *Scorer) experienceMatch(years float64, target model.ExperienceLevel) float64 {
	r, ok := levelRanges[target]
	if !ok {
		return expMatchNeutral
	}

	if years >= r.low && years <= r.high {
		return expMatchExact
	}
	if years >= r.low-expMatchToleranceYears && years <= r.high+expMatchToleranceYears {
		return expMatchNear
	}
	return expMatchDistant
}

func (s *Scorer) skillGapFill(p model.EmployeeProfile, c model.CourseCandidate) float64 {
	required := model.NormalizeAll(c.RequiredSkills)
	if len(required) == 0 {
		return emptyRequirementsGapScore
	}

	held := p.SkillLevels()
	critical := model.NormalizedSet(p.Department.CriticalSkills)

	var fillsCritical, fillsNew, improvesWeak int
	for _, name := range required {
		lvl, has := held[name]
		if !has {
			fillsNew++
			if _, crit := critical[name]; crit {
				fillsCritical++
			}
			continue
		}
		if lvl <= weakSkillCeiling {
			improvesWeak++
		}
	}

	criticalShare := 0.0
	if len(critical) > 0 {
		criticalShare = float64(fillsCritical) / float64(len(critical))
	}
	newShare := float64(fillsNew) / float64(len(required))
	weakShare := float64(improvesWeak) / float64(len(required))

	return weightFillsCritical*criticalShare +
		weightFillsNew*newShare +
		weightImprovesWeak*weakShare
}

func (s *Scorer) deptAlignment(p model.EmployeeProfile, c model.CourseCandidate) float64 {
	emp := model.Normalize(p.Department.Name)
	course := model.Normalize(c.Department)

	if emp == "" || course == "" {
		return deptUnknown
	}
	if emp == course {
		return deptExact
	}
	if rels, ok := s.related[emp]; ok {
		if _, related := rels[course]; related {
			return deptRelated
		}
	}
	return deptDistant
}

func (s *Scorer) careerFit(p model.EmployeeProfile, c model.CourseCandidate) float64 {
	progression := s.progressionFit(p.ExperienceYears, c.TargetLevel)

	readiness := 0.0
	if len(p.Skills) > 0 {
		sum := 0
		for _, sk := range p.Skills {
			sum += sk.ClampedLevel()
		}
		readiness = float64(sum) / float64(len(p.Skills)) / float64(model.MaxSkillLevel)
	}

	duration := float64(c.DurationDays) / substantialDurationDays
	if duration > 1 {
		duration = 1
	}
	if duration < 0 {
		duration = 0
	}

	return weightProgressionFit*progression +
		weightSkillReadiness*readiness +
		weightDurationFactor*duration
}

// progressionFit rewards courses pitched at the employee's next career
// level above courses at the current level, a two-level stretch, or a
// level already passed.
func (s *Scorer) progressionFit(years float64, target model.ExperienceLevel) float64 {
	ord := target.Ordinal()
	if ord == 0 {
		return progressionNeutral
	}

	current := s.careerLevel(years)
	next := current + 1
	if next > 4 {
		next = 4
	}

	switch {
	case ord == next && next != current:
		return progressionNextLevel
	case ord == current:
		return progressionCurrentLevel
	case ord == next+1:
		return progressionStretch
	case ord < current:
		return progressionBelow
	case ord > next+1:
		return progressionFar
	default:
		return progressionNeutral
	}
}

func (s *Scorer) careerLevel(years float64) int {
	switch {
	case years < float64(s.thresholds[0]):
		return 1
	case years < float64(s.thresholds[1]):
		return 2
	case years < float64(s.thresholds[2]):
		return 3
	default:
		return 4
	}
}
