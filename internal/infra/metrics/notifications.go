package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(notifications)
}

var notifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "operator_notifications_total",
		Help: "Operator digest email attempts by outcome.",
	},
	[]string{"success"},
)

func NotificationResult(success bool) {
	notifications.WithLabelValues(strconv.FormatBool(success)).Inc()
}
