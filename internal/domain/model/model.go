// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Skill level bounds. Levels outside the range are clamped, never rejected.
const (
	MinSkillLevel = 1
	MaxSkillLevel = 5
)

// ExperienceLevel enumerates the course target audience levels.
type ExperienceLevel string

// Known experience levels, ascending.
const (
	Beginner     ExperienceLevel = "Beginner"
	Intermediate ExperienceLevel = "Intermediate"
	Advanced     ExperienceLevel = "Advanced"
	Expert       ExperienceLevel = "Expert"
)

// Ordinal returns the 1-based order of the level, or 0 for unknown values.
func (l ExperienceLevel) Ordinal() int {
	switch l {
	case Beginner:
		return 1
	case Intermediate:
		return 2
	case Advanced:
		return 3
	case Expert:
		return 4
	default:
		return 0
	}
}

// Skill is one employee skill with a 1-5 proficiency level.
type Skill struct {
	Name     string     `json:"name"`
	Level    int        `json:"level"`
	LastUsed *time.Time `json:"last_used,omitempty"`
}

// ClampedLevel returns the level forced into the 1-5 range.
// Zero and negative levels map to the minimum.
func (s Skill) ClampedLevel() int {
	if s.Level < MinSkillLevel {
		return MinSkillLevel
	}
	if s.Level > MaxSkillLevel {
		return MaxSkillLevel
	}
	return s.Level
}

// TrainingRecord is one entry of an employee's training history.
type TrainingRecord struct {
	CourseRef       string     `json:"course_ref"`
	CompletionDate  *time.Time `json:"completion_date,omitempty"`
	AssessmentScore *float64   `json:"assessment_score,omitempty"`
}

// Department describes the employee's organizational unit together with
// the skills the unit considers critical.
type Department struct {
	Name           string   `json:"name"`
	Subgroup       string   `json:"subgroup,omitempty"`
	CriticalSkills []string `json:"critical_skills,omitempty"`
}

// EmployeeProfile is the full input for one ranking call. The core never
// mutates it.
type EmployeeProfile struct {
	EmployeeID      string           `json:"employee_id"`
	Skills          []Skill          `json:"skills"`
	ExperienceYears float64          `json:"experience_years"`
	Department      Department       `json:"department"`
	Location        string           `json:"location"`
	TrainingHistory []TrainingRecord `json:"training_history,omitempty"`
}

// SkillLevels returns a normalized-name -> clamped-level map. Later entries
// win on duplicate names, matching the uniqueness invariant on input.
func (p EmployeeProfile) SkillLevels() map[string]int {
	levels := make(map[string]int, len(p.Skills))
	for _, s := range p.Skills {
		levels[Normalize(s.Name)] = s.ClampedLevel()
	}
	return levels
}

// CourseCandidate is one course from the active catalog, immutable for the
// duration of a ranking call.
type CourseCandidate struct {
	ID             string          `json:"id"`
	Title          string          `json:"title,omitempty"`
	RequiredSkills []string        `json:"required_skills"`
	TargetLevel    ExperienceLevel `json:"target_experience_level"`
	Department     string          `json:"department"`
	DurationDays   int             `json:"duration"`
}

// ScoreBreakdown carries the four rule-based criterion scores, each in [0,1].
type ScoreBreakdown struct {
	SkillMatch    float64 `json:"skill_match"`
	SkillGapFill  float64 `json:"skill_gap_fill"`
	DeptAlignment float64 `json:"dept_alignment"`
	CareerFit     float64 `json:"career_fit"`
}

// Reason is one human-readable justification with its weighted impact.
type Reason struct {
	Criterion        string  `json:"criterion"`
	Reason           string  `json:"reason"`
	Score            float64 `json:"score"`
	ImpactPercentage float64 `json:"impact_percentage"`
}

// Explanation summarizes why a course was recommended.
type Explanation struct {
	OverallFit  float64  `json:"overall_fit"`
	FitCategory string   `json:"fit_category"`
	TopReasons  []Reason `json:"top_reasons"`
}

// Recommendation is one ranked output row of the hybrid pipeline.
type Recommendation struct {
	CourseID     string         `json:"course_id"`
	CourseTitle  string         `json:"course_title,omitempty"`
	FinalScore   float64        `json:"final_score"`
	Rank         int            `json:"rank"`
	MLConfidence float64        `json:"ml_confidence"`
	RuleScore    float64        `json:"rule_score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Explanation  Explanation    `json:"explanation"`
}

// BatchJob is one unit of batch work: rank a single employee against a
// shared course catalog. Candidates is shared across the batch's jobs and
// must not be mutated.
type BatchJob struct {
	JobID      string
	BatchID    string
	Profile    EmployeeProfile
	Candidates []CourseCandidate
	TopK       int
}

// Normalize lowercases a categorical name and replaces spaces with
// underscores. All skill, department and location comparisons go through
// this so "Machine Learning" and "machine_learning" collide.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// NormalizeAll maps Normalize over a list, dropping empties.
func NormalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if v := Normalize(n); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizedSet builds a membership set of normalized names.
func NormalizedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if v := Normalize(n); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
