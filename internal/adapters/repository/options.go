package repository

import "time"

// Option applies a configuration option to the ShardStore.
type Option func(*ShardStore)

// WithShardCount sets the number of shards. Values below 1 are ignored.
func WithShardCount(n int) Option {
	return func(s *ShardStore) {
		if n >= 1 {
			s.shardCount = n
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
