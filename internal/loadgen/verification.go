package loadgen

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults checks structural invariants of the retrieved
// recommendations: contiguous ranks, scores in range, topK respected, and
// scores non-increasing by rank.
func verifyResults(config *Config, results []StoredResult) error {
	log.Println("verifying results...")

	if len(results) == 0 {
		return fmt.Errorf("no results to verify")
	}

	violations := 0
	for _, res := range results {
		if err := verifySingleResult(config, res); err != nil {
			violations++
			if config.Verbose {
				log.Printf("invariant violation for %s: %v", res.EmployeeID, err)
			}
		}
	}

	if violations > 0 {
		return fmt.Errorf("%d of %d results violated ranking invariants", violations, len(results))
	}

	displayScoreStats(results, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// verifySingleResult validates one stored recommendation list.
func verifySingleResult(config *Config, res StoredResult) error {
	recs := res.Recommendations
	if len(recs) == 0 {
		return fmt.Errorf("empty recommendation list")
	}
	if config.TopK > 0 && len(recs) > config.TopK {
		return fmt.Errorf("got %d recommendations, asked for %d", len(recs), config.TopK)
	}

	for i, rec := range recs {
		if rec.Rank != i+1 {
			return fmt.Errorf("rank %d at position %d", rec.Rank, i)
		}
		if rec.FinalScore < 0 || rec.FinalScore > 1 {
			return fmt.Errorf("final score %.3f out of range for %s", rec.FinalScore, rec.CourseID)
		}
		if i > 0 && recs[i].FinalScore > recs[i-1].FinalScore {
			return fmt.Errorf("scores not non-increasing at position %d", i)
		}
		if rec.Explanation.FitCategory == "" {
			return fmt.Errorf("missing fit category for %s", rec.CourseID)
		}
	}
	return nil
}

// displayScoreStats prints aggregate score statistics over all top-ranked
// recommendations.
func displayScoreStats(results []StoredResult, verbose bool) {
	topScores := make([]float64, 0, len(results))
	categories := make(map[string]int)

	for _, res := range results {
		top := res.Recommendations[0]
		topScores = append(topScores, top.FinalScore)
		categories[top.Explanation.FitCategory]++
	}

	sort.Float64s(topScores)

	sum := 0.0
	for _, s := range topScores {
		sum += s
	}

	log.Printf(`top-1 score statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, sum/float64(len(topScores)), topScores[len(topScores)-1], topScores[0])

	if verbose {
		for category, count := range categories {
			log.Printf("   %s: %d", category, count)
		}
	}
}
