package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the gateway's prometheus collectors. HTTP request metrics are
// recorded by the gin middleware; domain counters are incremented by the ITN
// pipeline and the API client.
type Metrics struct {
	registry *prometheus.Registry

	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	ItnReceived   prometheus.Counter
	ItnOutcome    *prometheus.CounterVec
	APICallResult *prometheus.CounterVec

	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqCnt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "gateway",
				Name:      "req_total",
				Help:      "HTTP requests processed, partitioned by status code, method and route.",
			},
			[]string{"code", "method", "url"},
		),
		reqDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: "gateway",
				Name:      "req_dur_ms",
				Help:      "HTTP request latency in milliseconds.",
				Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 15000, 45000, 75000},
			},
			[]string{"code", "method", "url"},
		),
		ItnReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: "itn",
			Name:      "received_total",
			Help:      "ITN webhook deliveries received.",
		}),
		ItnOutcome: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "itn",
				Name:      "outcome_total",
				Help:      "ITN reconciliation outcomes, partitioned by result.",
			},
			[]string{"outcome"},
		),
		APICallResult: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "payfast_api",
				Name:      "call_total",
				Help:      "Outbound PayFast API calls, partitioned by command and result.",
			},
			[]string{"command", "result"},
		),
		log: log,
	}
	m.registry.MustRegister(m.reqCnt, m.reqDur, m.ItnReceived, m.ItnOutcome, m.APICallResult)
	return m
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
		}
		code := strconv.Itoa(c.Writer.Status())
		m.reqCnt.WithLabelValues(code, c.Request.Method, url).Inc()
		m.reqDur.WithLabelValues(code, c.Request.Method, url).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Serve exposes /metrics on a dedicated listener so the scrape endpoint never
// shares a port with the payment routes.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.log.Errorf("metrics listener error: %v", err)
		}
	}()
}
