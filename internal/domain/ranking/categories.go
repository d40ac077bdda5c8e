package ranking

import "github.com/masarhr/murshid/internal/domain/model"

// Coarse skill categories used for diversity grouping. A course belongs to
// the category that covers most of its required skills.
var skillCategories = map[string]string{
	"python":     "programming",
	"javascript": "programming",
	"java":       "programming",
	"node.js":    "programming",
	"react":      "programming",

	"sql":              "data",
	"data_analysis":    "data",
	"machine_learning": "data",
	"database_design":  "data",

	"devops":           "infrastructure",
	"cloud_computing":  "infrastructure",
	"cybersecurity":    "infrastructure",
	"network_security": "infrastructure",

	"project_management": "management",
	"agile":              "management",

	"web_development": "development",
}

// generalCategory is assigned when no required skill maps to a category.
const generalCategory = "general"

// skillCategoryOf buckets a course by the dominant category of its
// required skills. Category name breaks ties so the result is stable.
func skillCategoryOf(c model.CourseCandidate) string {
	counts := map[string]int{}
	for _, name := range model.NormalizeAll(c.RequiredSkills) {
		if cat, ok := skillCategories[name]; ok {
			counts[cat]++
		}
	}
	if len(counts) == 0 {
		return generalCategory
	}

	best := ""
	bestCount := 0
	for cat, n := range counts {
		if n > bestCount || (n == bestCount && (best == "" || cat < best)) {
			best = cat
			bestCount = n
		}
	}
	return best
}
