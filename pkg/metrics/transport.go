package metrics

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	bucketsConfig = []float64{50, 100, 300, 500, 1000, 5000}
)

const (
	// EnvAPILatencyBuckets represents an environment variable, which is formatted like "100,200,300,400" as string
	EnvAPILatencyBuckets   = "RADAR_API_LATENCY_BUCKETS"
	RequestsCollectorName  = "api_requests_total"
	LatencyCollectorName   = "api_request_duration_milliseconds"
	unknownEndpoint        = "unknown"
	transportErrorCodeText = "error"
)

type endpointKey struct{}

// WithEndpoint tags the outgoing request context with a low cardinality endpoint name.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey{}, endpoint)
}

func endpointFromContext(ctx context.Context) string {
	if e, ok := ctx.Value(endpointKey{}).(string); ok && e != "" {
		return e
	}
	return unknownEndpoint
}

// Transport is a http.RoundTripper that exposes prometheus metrics for the number of requests
// sent to the screening service and their latency, partitioned by status code, method and endpoint.
type Transport struct {
	next     http.RoundTripper
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func setBucket() error {
	conf, ok := os.LookupEnv(EnvAPILatencyBuckets)
	if !ok {
		return nil
	}
	var buckets []float64
	for _, v := range strings.Split(conf, ",") {
		f64v, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		buckets = append(buckets, f64v)
	}
	bucketsConfig = buckets
	return nil
}

// NewTransport wraps next (http.DefaultTransport when nil). The collectors are not registered.
func NewTransport(name string, next http.RoundTripper) (*Transport, error) {
	if err := setBucket(); err != nil {
		return nil, err
	}
	if next == nil {
		next = http.DefaultTransport
	}

	t := &Transport{next: next}
	t.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem:   radar,
			Name:        RequestsCollectorName,
			Help:        "Number of API requests partitioned by status code, method and endpoint.",
			ConstLabels: prometheus.Labels{"client": name},
		}, []string{"code", "method", "endpoint"})

	t.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem:   radar,
		Name:        LatencyCollectorName,
		Help:        "Time spent on the request partitioned by status code, method and endpoint.",
		ConstLabels: prometheus.Labels{"client": name},
		Buckets:     bucketsConfig,
	}, []string{"code", "method", "endpoint"})

	return t, nil
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(r)

	code := transportErrorCodeText
	if err == nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	endpoint := endpointFromContext(r.Context())
	since := float64(time.Since(start).Milliseconds())
	t.requests.WithLabelValues(code, r.Method, endpoint).Inc()
	t.latency.WithLabelValues(code, r.Method, endpoint).Observe(since)

	return resp, err
}

// Collectors returns collector for your own collector registry.
func (t *Transport) Collectors() []prometheus.Collector {
	return []prometheus.Collector{t.requests, t.latency}
}

// MustRegisterDefault registers collectors to DefaultRegisterer.
func (t *Transport) MustRegisterDefault() {
	if t.requests == nil || t.latency == nil {
		panic("collectors must be set")
	}
	prometheus.MustRegister(t.requests)
	prometheus.MustRegister(t.latency)
}
