package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileTypeDivisor = 6
)

// Constants for experience generation ranges, in years.
const (
	juniorMin      = 0.0
	juniorRange    = 2.0
	midMin         = 2.0
	midRange       = 3.0
	seniorMin      = 5.0
	seniorRange    = 5.0
	principalMin   = 10.0
	principalRange = 15.0
	careerBreakMin = 0.0
	fullRangeMax   = 25.0
)

// Constants for profile type cases.
const (
	caseJunior      = 0
	caseMid         = 1
	caseSenior      = 2
	casePrincipal   = 3
	caseCareerBreak = 4
	caseFullRange   = 5
)

// Skill/level generation bounds.
const (
	minSkillsPerEmployee  = 1
	maxExtraSkills        = 7
	minRequiredSkills     = 1
	maxExtraRequired      = 3
	minCourseDurationDays = 3
	maxExtraDurationDays  = 87
	maxHistoryEntries     = 5
	assessmentScoreRange  = 60.0
	assessmentScoreFloor  = 40.0
	historyDaySpread      = 720
)

// Pools the generator draws categorical values from. These mirror the
// vocabularies the scoring pipeline recognizes plus a few strays so the
// unknown-value paths get exercised too.
var (
	skillPool = []string{
		"Python", "JavaScript", "Java", "SQL", "React", "Node.js",
		"Machine Learning", "Data Analysis", "Project Management", "Agile",
		"DevOps", "Cloud Computing", "Cybersecurity", "Network Security",
		"Database Design", "Web Development", "Technical Writing", "Negotiation",
	}

	departmentPool = []string{
		"Information Technology", "Human Resources", "Finance", "Marketing",
		"Operations", "Sales", "Engineering", "Legal",
	}

	locationPool = []string{"Jeddah", "Riyadh", "Dammam", "Remote"}

	targetLevels = []model.ExperienceLevel{
		model.Beginner, model.Intermediate, model.Advanced, model.Expert,
	}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n) using crypto/rand.
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateCatalog creates the shared course catalog.
func generateCatalog(ctx context.Context, config *Config, stats *Stats) []model.CourseCandidate {
	logger.Get().Info(ctx, "generating course catalog", logger.Int("size", config.CatalogSize))

	courses := make([]model.CourseCandidate, config.CatalogSize)
	for i := range courses {
		required := make([]string, minRequiredSkills+getRandomInt(maxExtraRequired+1))
		for j := range required {
			required[j] = skillPool[getRandomInt(len(skillPool))]
		}

		courses[i] = model.CourseCandidate{
			ID:             "course_" + strconv.Itoa(i),
			Title:          "Course " + strconv.Itoa(i),
			RequiredSkills: required,
			TargetLevel:    targetLevels[getRandomInt(len(targetLevels))],
			Department:     departmentPool[getRandomInt(len(departmentPool))],
			DurationDays:   minCourseDurationDays + getRandomInt(maxExtraDurationDays+1),
		}
	}

	stats.CoursesGenerated = len(courses)
	return courses
}

// generateEmployees creates the specified number of employee profiles with
// unique ids, spread across a worker pool.
func generateEmployees(ctx context.Context, config *Config, stats *Stats) ([]model.EmployeeProfile, error) {
	logger.Get().Info(ctx, "generating employee profiles", logger.Int("numEmployees", config.NumEmployees))

	profiles := make([]model.EmployeeProfile, config.NumEmployees)

	employeeIDs := make([]string, config.NumEmployees)
	for i := 0; i < config.NumEmployees; i++ {
		employeeIDs[i] = uuid.New().String()
	}

	type profileResult struct {
		index   int
		profile model.EmployeeProfile
		err     error
	}

	resultChan := make(chan profileResult, config.NumEmployees)

	workerCount := minInt(config.Workers, config.NumEmployees)
	perWorker := config.NumEmployees / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumEmployees
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- profileResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- profileResult{index: i, profile: generateSingleEmployee(employeeIDs[i])}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumEmployees; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during employee generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate employee %d: %w", result.index, result.err)
			}
			profiles[result.index] = result.profile
		}
	}

	stats.EmployeesGenerated = len(profiles)
	logger.Get().Info(ctx, "generated employee profiles", logger.Int("count", len(profiles)))

	return profiles, nil
}

// generateSingleEmployee creates one synthetic profile.
func generateSingleEmployee(employeeID string) model.EmployeeProfile {
	numSkills := minSkillsPerEmployee + getRandomInt(maxExtraSkills+1)
	skills := make([]model.Skill, 0, numSkills)
	seen := make(map[string]struct{}, numSkills)
	for len(skills) < numSkills {
		name := skillPool[getRandomInt(len(skillPool))]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		skills = append(skills, model.Skill{
			Name:  name,
			Level: model.MinSkillLevel + getRandomInt(model.MaxSkillLevel),
		})
	}

	dept := departmentPool[getRandomInt(len(departmentPool))]
	critical := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		critical = append(critical, skillPool[getRandomInt(len(skillPool))])
	}

	return model.EmployeeProfile{
		EmployeeID:      employeeID,
		Skills:          skills,
		ExperienceYears: generateVariedExperience(),
		Department: model.Department{
			Name:           dept,
			CriticalSkills: critical,
		},
		Location:        locationPool[getRandomInt(len(locationPool))],
		TrainingHistory: generateHistory(),
	}
}

// generateVariedExperience creates experience years with a varied
// distribution so every encoder bucket shows up in the load.
func generateVariedExperience() float64 {
	switch getRandomInt(profileTypeDivisor) {
	case caseJunior:
		return juniorMin + getRandomFloat()*juniorRange
	case caseMid:
		return midMin + getRandomFloat()*midRange
	case caseSenior:
		return seniorMin + getRandomFloat()*seniorRange
	case casePrincipal:
		return principalMin + getRandomFloat()*principalRange
	case caseCareerBreak:
		return careerBreakMin
	case caseFullRange:
		return getRandomFloat() * fullRangeMax
	default:
		return getRandomFloat() * fullRangeMax
	}
}

// generateHistory creates up to maxHistoryEntries past training records,
// some completed with assessment scores and some still open.
func generateHistory() []model.TrainingRecord {
	n := getRandomInt(maxHistoryEntries + 1)
	if n == 0 {
		return nil
	}

	records := make([]model.TrainingRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := model.TrainingRecord{
			CourseRef: "past_course_" + strconv.Itoa(getRandomInt(1000)),
		}
		if getRandomFloat() > 0.3 {
			completed := time.Now().AddDate(0, 0, -getRandomInt(historyDaySpread))
			score := assessmentScoreFloor + getRandomFloat()*assessmentScoreRange
			rec.CompletionDate = &completed
			rec.AssessmentScore = &score
		}
		records = append(records, rec)
	}
	return records
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
