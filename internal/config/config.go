// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath points at the serialized ensemble artifact (JSON).
	// Empty or missing file means the service runs on the rule-based path only.
	ModelPath string `koanf:"model_path"`

	// Alpha weights ML confidence against the rule-based score in fusion.
	// 0.5 trusts both paths equally.
	Alpha float64 `koanf:"alpha"`

	// DefaultTopK is the number of recommendations returned when the
	// request does not ask for a specific count.
	DefaultTopK int `koanf:"default_top_k"`

	// MaxTopK caps the per-request top_k.
	MaxTopK int `koanf:"max_top_k"`

	// DiversityGrouping selects how candidates are bucketed for
	// diversity-aware selection: "skill_category" or "department".
	DiversityGrouping string `koanf:"diversity_grouping"`

	// RelatedDepartments maps a department to the departments considered
	// adjacent for the 0.7 alignment credit.
	RelatedDepartments map[string][]string `koanf:"related_departments"`

	// CareerThresholds are the experience-year boundaries between the four
	// career levels, ascending.
	CareerThresholds []int `koanf:"career_thresholds"`

	// BatchQueueSize bounds the in-memory batch job queue.
	BatchQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch ranking workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the batch idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the result store.
	ShardCount int `koanf:"shard_count"`
}

// New creates a Config populated with defaults. The relatedness table and
// career thresholds default to the values the product ships with; both are
// deployment-tunable rather than derived.
func New() *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		ModelPath:         "./models/ensemble.json",
		Alpha:             0.5,
		DefaultTopK:       3,
		MaxTopK:           50,
		DiversityGrouping: "skill_category",
		RelatedDepartments: map[string][]string{
			"information_technology": {"engineering", "operations"},
			"engineering":            {"information_technology", "operations"},
			"operations":             {"engineering", "information_technology"},
			"finance":                {"operations"},
			"human_resources":        {"operations"},
		},
		CareerThresholds: []int{2, 5, 10},
		BatchQueueSize:   100_000,
		WorkerCount:      runtime.NumCPU() * 4,
		DedupeSize:       500_000,
		ShardCount:       8,
	}
	return c
}
