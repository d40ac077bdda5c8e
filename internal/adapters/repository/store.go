// Package repository defines the recommendation result store interface
// and its in-memory implementation.
package repository

import (
	"context"
	"time"

	"github.com/masarhr/murshid/internal/domain/model"
)

// Result is the stored outcome of one employee's ranking run.
type Result struct {
	EmployeeID      string
	BatchID         string
	Recommendations []model.Recommendation
	GeneratedAt     time.Time
}

// Store provides read/write access to per-employee recommendation results.
type Store interface {
	// Put stores the latest result for an employee, replacing any
	// previous one.
	Put(ctx context.Context, res Result) error

	// Get returns the latest result for an employee.
	// Returns ErrNotFound if the employee has none.
	Get(ctx context.Context, employeeID string) (Result, error)

	// Count returns the number of employees with a stored result.
	Count(ctx context.Context) int

	// Close stops background work.
	Close() error
}
