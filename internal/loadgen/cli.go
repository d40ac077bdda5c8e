// Package loadgen is a concurrent load-test tool for the recommendation
// service: it generates synthetic employees and courses, submits them in
// batches, waits for the pipeline to drain, and verifies the results.
package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/masarhr/murshid/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Murshid Load Test Tool
======================

A concurrent tool for load testing the Murshid course recommendation
service.

Usage:
  go run cmd/loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -employees int
        Number of employee profiles to generate (default 1000)
  -catalog int
        Number of courses in the shared catalog (default 50)
  -batch int
        Employees per batch submission (default 100)
  -top int
        Recommendations requested per employee (default 3)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated profiles (default: generated_profiles_TIMESTAMP.json)
  -log string
        Log file for test output (default: loadtest_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/loadgen/main.go

  # Test with custom parameters
  go run cmd/loadgen/main.go -employees 10000 -workers 16 -url http://localhost:8080

  # Test with verbose output
  go run cmd/loadgen/main.go -verbose -employees 5000 -batch 250
`)
}
