// Package metrics exposes HabitPulse counters in Prometheus format.
//
// The counters are process-local and reset on restart; they describe what the
// running process did, not the user's history. `habitpulse run --metrics-addr`
// serves them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Habits is the size of the collection after the last load or mutation.
	Habits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "habitpulse_habits",
		Help: "Number of tracked habits",
	})

	// Toggles counts completion toggles.
	Toggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_toggles_total",
			Help: "Total number of completion toggles",
		},
		[]string{"direction"}, // done, undone
	)

	// RolloverTicks counts scheduler ticks by outcome.
	RolloverTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_rollover_ticks_total",
			Help: "Total number of rollover scheduler ticks",
		},
		[]string{"outcome"}, // rolled, noop, busy, conflict, error
	)

	// RolloverDays counts day boundaries closed by the scheduler.
	RolloverDays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "habitpulse_rollover_days_total",
		Help: "Total number of day boundaries applied to the collection",
	})

	// Notifications counts reminder deliveries.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_notifications_total",
			Help: "Total number of notifications by kind and result",
		},
		[]string{"kind", "result"}, // result: sent, failed, suppressed
	)
)

// RecordToggle counts one toggle in the given direction.
func RecordToggle(done bool) {
	if done {
		Toggles.WithLabelValues("done").Inc()
		return
	}
	Toggles.WithLabelValues("undone").Inc()
}

// RecordRolloverTick counts one scheduler tick and the days it closed.
func RecordRolloverTick(outcome string, days int) {
	RolloverTicks.WithLabelValues(outcome).Inc()
	if days > 0 {
		RolloverDays.Add(float64(days))
	}
}

// RecordNotification counts one delivery attempt.
func RecordNotification(kind, result string) {
	Notifications.WithLabelValues(kind, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
