package feature

// Defaulting policy for the 43-feature contract. Every value a feature
// falls back to when its source data is absent lives here, so the contract
// is auditable in one place instead of being re-derived per field.
const (
	// Skill block defaults.
	absentSkillLevel     = 0.0 // tracked skill the employee does not hold
	noSkillsAverageLevel = 0.0 // avg_skill_level with an empty skill list
	noSkillsCount        = 0.0 // num_skills with an empty skill list

	// Skill-gap block defaults.
	noSkillsWeakCount     = 0.0
	noSkillsStrongCount   = 0.0
	noSkillsGapScore      = 1.0 // maximum gap when the employee has no skills at all
	noCriticalGapScore    = 0.0 // no department-critical skills configured
	noSkillsProgression   = 0.0
	weakSkillLevelCeiling = 2 // level <= 2 counts as weak
	strongSkillLevelFloor = 4 // level >= 4 counts as strong

	// Training-history block defaults.
	noHistoryFrequency      = 0.0
	noHistoryCompletionRate = 0.0
	noHistoryAvgAssessment  = 0.0
	noHistoryRecencyDays    = 999.0 // sentinel: also the cap for very old training

	// Experience and career bucket floors.
	minExperienceBucket = 1
	maxExperienceBucket = 4
)

// leadershipSkills is the fixed subset whose presence flips the
// leadership_skills feature.
var leadershipSkills = []string{"project_management", "agile", "leadership", "management"}

// trackedSkills is the fixed vocabulary of the skill block, in feature order.
var trackedSkills = []string{
	"python", "javascript", "java", "sql", "react", "node.js",
	"machine_learning", "data_analysis", "project_management",
	"agile", "devops", "cloud_computing", "cybersecurity",
	"network_security", "database_design", "web_development",
}

// departments is the fixed one-hot vocabulary for the department block.
// Out-of-vocabulary departments leave the whole block at zero.
var departments = []string{
	"information_technology", "human_resources", "finance",
	"marketing", "operations", "sales", "engineering",
}

// locations is the fixed one-hot vocabulary for the location block. The
// trailing unknown bucket absorbs out-of-vocabulary locations so unseen
// cities degrade gracefully instead of erroring.
var locations = []string{"jeddah", "riyadh", "dammam", "unknown"}
