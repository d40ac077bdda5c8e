package loadgen

import (
	"time"

	"github.com/masarhr/murshid/internal/domain/model"
)

// Config holds configuration for the recommendation load test
type Config struct {
	BaseURL      string        // Base URL of the service
	NumEmployees int           // Number of employees to generate
	CatalogSize  int           // Number of courses in the shared catalog
	BatchSize    int           // Employees per batch submission
	TopK         int           // Recommendations requested per employee
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Output file for generated employees
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// BatchAck represents the response from batch submission
type BatchAck struct {
	BatchID   string `json:"batch_id"`
	Queued    int    `json:"queued"`
	Duplicate bool   `json:"duplicate"`
}

// BatchProgress represents the polled status of one batch
type BatchProgress struct {
	BatchID   string `json:"batch_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Pending   int    `json:"pending"`
	Done      bool   `json:"done"`
}

// StoredResult represents one employee's stored recommendations
type StoredResult struct {
	EmployeeID      string                 `json:"employee_id"`
	BatchID         string                 `json:"batch_id"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// Stats holds test statistics
type Stats struct {
	EmployeesGenerated int
	CoursesGenerated   int
	BatchesSubmitted   int
	JobsQueued         int
	BatchesFailed      int
	ResultsRetrieved   int
	ResultsMissing     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
