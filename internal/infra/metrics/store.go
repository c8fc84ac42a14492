package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(storeOps)
}

var storeOps = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "conversation_store_op_ms",
		Help:    "Conversation store operation latency in milliseconds.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	},
	[]string{"driver", "op", "success"},
)

func ObserveStoreOp(driver, op string, start time.Time, err error) {
	storeOps.WithLabelValues(driver, op, strconv.FormatBool(err == nil)).
		Observe(float64(time.Since(start).Milliseconds()))
}
