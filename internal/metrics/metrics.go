package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	CrawlDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_run_duration_seconds",
			Help:    "Duration of each crawl run in seconds.",
			Buckets: []float64{30, 60, 300, 900, 1800, 3600},
		},
	)
	FetchDuration = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name:       "crawler_fetch_duration_seconds",
			Help:       "Duration of a single outgoing page request.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)
	FetchAttemptsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_fetch_attempts_total",
			Help: "Total number of page request attempts by outcome.",
		},
		[]string{"outcome"},
	)
	ListingsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_listings_total",
			Help: "Total number of merged listings by change kind.",
		},
		[]string{"change"},
	)
	ExtractionSkippedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_listings_skipped_total",
			Help: "Total number of listing nodes that could not be parsed.",
		},
	)
	ClosedJobsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_jobs_closed_total",
			Help: "Total number of jobs closed by the expiry sweep.",
		},
	)
	SkippedRunsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_runs_skipped_total",
			Help: "Total number of scheduled runs skipped because a run was in progress.",
		},
	)
)

func Register(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ErrorsCounter,
		CrawlDuration,
		FetchDuration,
		FetchAttemptsCounter,
		ListingsCounter,
		ExtractionSkippedCounter,
		ClosedJobsCounter,
		SkippedRunsCounter,
	)
}

func StartMetricsServer(port int) {
	Register(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), mux))
	}()
}
