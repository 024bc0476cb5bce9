// Package metrics registers the Prometheus collectors the controller
// and scheduler processes update as they run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ElevatorStatus is 1 for the elevator's current status label, 0
	// for the other two, per elevator id.
	ElevatorStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "elevator_status",
		Help: "Current motion status of an elevator (1 = active label)",
	}, []string{"elevator_id", "status"})

	// ElevatorDestinationQueueDepth tracks how many destinations are
	// queued per elevator.
	ElevatorDestinationQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "elevator_destination_queue_depth",
		Help: "Number of queued destinations for an elevator",
	}, []string{"elevator_id"})

	// SchedulingLatency measures time from reading a pending request to
	// dispatching it to an elevator.
	SchedulingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_latency_seconds",
		Help:    "Time to select and dispatch an elevator for a request",
		Buckets: prometheus.DefBuckets,
	})

	// RequestsScheduled counts successfully dispatched requests.
	RequestsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requests_scheduled_total",
		Help: "Total requests successfully dispatched to an elevator",
	})

	// RequestsFailed counts requests that could not be dispatched.
	RequestsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requests_failed_total",
		Help: "Total requests that failed to dispatch (e.g. no suitable elevator)",
	})

	// DoorCycleDuration measures open-to-closed door cycle time.
	DoorCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "door_cycle_duration_seconds",
		Help:    "Time a door spends open before closing again",
		Buckets: prometheus.DefBuckets,
	})

	// TravelDuration measures the travel time of one hop, from departure
	// to arrival at the target floor, however many floors it spans.
	TravelDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "travel_duration_seconds",
		Help:    "Time to travel from departure to the target floor",
		Buckets: prometheus.DefBuckets,
	})

	// CommandProcessingLatency measures time from a command arriving on
	// the command topic to its effect being applied.
	CommandProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "command_processing_latency_seconds",
		Help:    "Time to apply an elevator command after receipt",
		Buckets: prometheus.DefBuckets,
	})
)

// Timer measures elapsed wall-clock time for ObserveDuration.
type Timer struct {
	start time.Time
}

// NewTimer starts a new Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since NewTimer into h.
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(time.Since(t.start).Seconds())
}
