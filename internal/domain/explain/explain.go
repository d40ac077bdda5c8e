// Package explain renders a score breakdown into the human-readable
// explanation that ships with every recommendation.
package explain

import (
	"fmt"
	"sort"

	"github.com/masarhr/murshid/internal/domain/model"
)

// Fit category boundaries over the final score.
const (
	excellentFloor = 0.85
	veryGoodFloor  = 0.70
	goodFloor      = 0.55
)

// Fit category labels.
const (
	CategoryExcellent = "Excellent"
	CategoryVeryGood  = "Very Good"
	CategoryGood      = "Good"
	CategoryFair      = "Fair"
)

// Number of reasons attached to an explanation.
const topReasonCount = 3

// criterion pairs a breakdown field with its composite weight and the
// sentence templates used to narrate it.
type criterion struct {
	name   string
	weight float64
	value  func(model.ScoreBreakdown) float64
	phrase func(score float64) string
}

var criteria = []criterion{
	{
		name:   "skill_match",
		weight: 0.3,
		value:  func(b model.ScoreBreakdown) float64 { return b.SkillMatch },
		phrase: func(s float64) string {
			return fmt.Sprintf("Your current skills are a %s match for what this course builds on", qualifier(s))
		},
	},
	{
		name:   "skill_gap_fill",
		weight: 0.3,
		value:  func(b model.ScoreBreakdown) float64 { return b.SkillGapFill },
		phrase: func(s float64) string {
			return fmt.Sprintf("This course offers %s coverage of skills you are missing or hold at a low level", qualifier(s))
		},
	},
	{
		name:   "dept_alignment",
		weight: 0.2,
		value:  func(b model.ScoreBreakdown) float64 { return b.DeptAlignment },
		phrase: func(s float64) string {
			return fmt.Sprintf("The course content has %s alignment with your department's focus", qualifier(s))
		},
	},
	{
		name:   "career_fit",
		weight: 0.2,
		value:  func(b model.ScoreBreakdown) float64 { return b.CareerFit },
		phrase: func(s float64) string {
			return fmt.Sprintf("The target level is a %s fit for your career stage", qualifier(s))
		},
	},
}

// Explain produces the explanation for one scored candidate. It is pure
// and total: an all-zero breakdown still yields a category and reasons.
func Explain(finalScore float64, b model.ScoreBreakdown) model.Explanation {
	type contribution struct {
		c      criterion
		score  float64
		weight float64
	}

	contributions := make([]contribution, 0, len(criteria))
	var total float64
	for _, c := range criteria {
		score := c.value(b)
		weighted := score * c.weight
		total += weighted
		contributions = append(contributions, contribution{c: c, score: score, weight: weighted})
	}

	// Highest weighted contribution first; criterion order breaks ties so
	// identical breakdowns always explain identically.
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].weight > contributions[j].weight
	})

	n := topReasonCount
	if n > len(contributions) {
		n = len(contributions)
	}

	reasons := make([]model.Reason, 0, n)
	for _, ct := range contributions[:n] {
		impact := 0.0
		if total > 0 {
			impact = ct.weight / total * 100
		}
		reasons = append(reasons, model.Reason{
			Criterion:        ct.c.name,
			Reason:           ct.c.phrase(ct.score),
			Score:            ct.score,
			ImpactPercentage: impact,
		})
	}

	return model.Explanation{
		OverallFit:  finalScore,
		FitCategory: Category(finalScore),
		TopReasons:  reasons,
	}
}

// Category discretizes a final score into its fit label.
func Category(finalScore float64) string {
	switch {
	case finalScore >= excellentFloor:
		return CategoryExcellent
	case finalScore >= veryGoodFloor:
		return CategoryVeryGood
	case finalScore >= goodFloor:
		return CategoryGood
	default:
		return CategoryFair
	}
}

func qualifier(score float64) string {
	switch {
	case score >= 0.8:
		return "strong"
	case score >= 0.6:
		return "good"
	case score >= 0.4:
		return "moderate"
	default:
		return "limited"
	}
}
