package mockapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests, by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	messagesPostedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "messages_posted_total",
		Help:      "Total messages posted, by channel (rest, ws, chatter).",
	}, []string{"via"})

	pagesServedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "history_pages_served_total",
		Help:      "Total history pages served.",
	})

	sendThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "send_throttled_total",
		Help:      "Total sends rejected by the per-user rate limit.",
	})

	tokenReissuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "token_reissues_total",
		Help:      "Total token reissue requests, by result.",
	}, []string{"result"})

	slowSubscriberDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "slow_subscriber_drops_total",
		Help:      "Messages dropped for WebSocket subscribers with full buffers.",
	})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "studyroom",
		Subsystem: "mockapi",
		Name:      "ws_connections_active",
		Help:      "Number of active WebSocket connections.",
	})
)
