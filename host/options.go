package host

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	identity  string
	shards    int
	backoff   time.Duration
	shardFunc func(workflowID string) bool
	metrics   func(workflow string) Metrics
}

type option func(*options)

// WithIdentity returns an option to define the identity the host polls
// with. It defaults to a random uuid.
func WithIdentity(identity string) option {
	return func(o *options) {
		o.identity = identity
	}
}

// WithShards returns an option to define the number of goroutines deciding
// tasks concurrently. It defaults to 1.
func WithShards(n int) option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithPollBackoff returns an option to define the delay after a failed poll.
func WithPollBackoff(d time.Duration) option {
	return func(o *options) {
		o.backoff = d
	}
}

// WithHashedShard returns an option to only consume the stream events of
// executions of shard m of n. The shard of an execution is the consistent
// hash of its workflow id.
// This option only applies to RegisterStream.
func WithHashedShard(m, n int) option {
	return func(o *options) {
		o.shardFunc = func(workflowID string) bool {
			return shardOf(workflowID, n) == m
		}
	}
}

// WithShardFunc returns an option to define a custom stream shard filter.
// This option only applies to RegisterStream.
func WithShardFunc(fn func(workflowID string) bool) option {
	return func(o *options) {
		o.shardFunc = fn
	}
}

// WithHostMetrics returns an option to define host metrics.
// It overrides the default prometheus metrics.
func WithHostMetrics(m func(workflow string) Metrics) option {
	return func(o *options) {
		o.metrics = m
	}
}

type Metrics struct {
	IncHandled    func()
	IncErrors     func()
	ObserveDecide func(time.Duration)
}

func defaultOptions() options {
	return options{
		identity:  uuid.New().String(),
		shards:    1,
		backoff:   time.Second,
		shardFunc: func(string) bool { return true },
		metrics: func(workflow string) Metrics {
			return Metrics{
				IncHandled: tasksHandled.WithLabelValues(workflow).Inc,
				IncErrors:  taskErrors.WithLabelValues(workflow).Inc,
				ObserveDecide: func(d time.Duration) {
					decideLatency.WithLabelValues(workflow).Observe(d.Seconds())
				},
			}
		},
	}
}
