package loadgen

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
	StatusNotFound = 404
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	BatchPollInterval    = 500 * time.Millisecond
	BatchPollTimeout     = 5 * time.Minute
	PercentageMultiplier = 100
)
