package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sessionsCreated,
		chatTurns,
		gateTrips,
		qualificationScores,
		dealbreakers,
	)
}

var (
	sessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sessions_created_total",
			Help: "Count of visitor sessions created.",
		},
	)

	chatTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Completed chat turns by qualification outcome.",
		},
		[]string{"qualified"},
	)

	gateTrips = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_contact_gate_trips_total",
			Help: "Turns answered with the contact-capture prompt instead of a generated reply.",
		},
	)

	qualificationScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_qualification_score",
			Help:    "Distribution of per-turn qualification scores.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	dealbreakers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_dealbreakers_total",
			Help: "Dealbreaker detections by label.",
		},
		[]string{"label"},
	)
)

func SessionCreated() { sessionsCreated.Inc() }

func TurnScored(score int, qualified bool) {
	chatTurns.WithLabelValues(strconv.FormatBool(qualified)).Inc()
	qualificationScores.Observe(float64(score))
}

func GateTripped() { gateTrips.Inc() }

func DealbreakerHit(label string) { dealbreakers.WithLabelValues(label).Inc() }
