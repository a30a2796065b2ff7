package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RatingSubmissions 评分提交结果计数
	// result: ok / invalid / movie_not_found / user_not_found / partial / error
	RatingSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moovie_rating_submissions_total",
			Help: "Total number of rating submissions by result",
		},
		[]string{"result"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moovie_catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RecommenderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moovie_recommender_requests_total",
			Help: "Total number of recommendation engine calls by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	// RecommenderCircuitState 0 = closed, 1 = half-open, 2 = open
	RecommenderCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moovie_recommender_circuit_state",
			Help: "Circuit breaker state of the recommendation bridge",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moovie_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveQuery 记录一次目录查询耗时
func ObserveQuery(operation string, start time.Time) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
