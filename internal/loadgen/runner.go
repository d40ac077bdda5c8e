package loadgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete recommendation load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting murshid load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("employees", config.NumEmployees),
		logger.Int("catalog", config.CatalogSize),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("topK", config.TopK),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the shared catalog and employee profiles
	catalog := generateCatalog(ctx, config, stats)
	profiles, err := generateEmployees(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("employee generation failed: %w", err)
	}

	// Step 3: Submit batches concurrently
	batchIDs, err := submitBatches(ctx, config, profiles, catalog, stats)
	if err != nil {
		return fmt.Errorf("batch submission failed: %w", err)
	}

	// Step 4: Wait for the workers to drain the batches
	if err := waitForBatches(ctx, config, batchIDs); err != nil {
		return fmt.Errorf("batch completion wait failed: %w", err)
	}

	// Step 5: Retrieve stored recommendations concurrently
	results, err := retrieveResults(ctx, config, profiles, stats)
	if err != nil {
		return fmt.Errorf("result retrieval failed: %w", err)
	}

	// Step 6: Verify ranking invariants
	if err := verifyResults(config, results); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save generated profiles for replay
	if err := saveProfilesToFile(ctx, config, profiles); err != nil {
		logger.Get().Warn(ctx, "failed to save profiles to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveProfilesToFile saves the generated employee profiles to a JSON file.
func saveProfilesToFile(ctx context.Context, config *Config, profiles []model.EmployeeProfile) error {
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_profiles_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := marshalJSON(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "profiles saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var coverage, jobsPerSecond float64

	if stats.EmployeesGenerated > 0 {
		coverage = float64(stats.ResultsRetrieved) / float64(stats.EmployeesGenerated) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		jobsPerSecond = float64(stats.JobsQueued) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("employeesGenerated", stats.EmployeesGenerated),
		logger.Int("coursesGenerated", stats.CoursesGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("jobsQueued", stats.JobsQueued),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("resultsRetrieved", stats.ResultsRetrieved),
		logger.Int("resultsMissing", stats.ResultsMissing),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("coveragePercent", coverage),
		logger.Float64("jobsPerSecond", jobsPerSecond))
}
