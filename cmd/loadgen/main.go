package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/masarhr/murshid/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumEmployees = 1000
	defaultCatalogSize  = 50
	defaultBatchSize    = 100
	defaultTopK         = 3
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEmployees = flag.Int("employees", defaultNumEmployees, "Number of employee profiles to generate")
		catalogSize  = flag.Int("catalog", defaultCatalogSize, "Number of courses in the shared catalog")
		batchSize    = flag.Int("batch", defaultBatchSize, "Employees per batch submission")
		topK         = flag.Int("top", defaultTopK, "Recommendations requested per employee")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Output file for generated profiles (default: generated_profiles_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for test output (default: loadtest_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	// Setup logging
	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadgen.Config{
		BaseURL:      *baseURL,
		NumEmployees: *numEmployees,
		CatalogSize:  *catalogSize,
		BatchSize:    *batchSize,
		TopK:         *topK,
		Workers:      *workers,
		Timeout:      *timeout,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the test
	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
