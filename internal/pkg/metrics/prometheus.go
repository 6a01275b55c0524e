package metrics

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/client-go/tools/metrics"
)

// namespace is the Prometheus metric namespace prefix for every collector
// this package registers.
const namespace = "signature_reloader"

// clientGoRequestMetrics implements metrics.LatencyMetric and
// metrics.ResultMetric so the rest.Config used by the watchers and the
// worker reports rest_client_requests_total / rest_client_request_duration_seconds
// for every call the controller makes against the API server.
type clientGoRequestMetrics struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func (m *clientGoRequestMetrics) Increment(ctx context.Context, code string, method string, host string) {
	m.requestCounter.WithLabelValues(code, method, host).Inc()
}

func (m *clientGoRequestMetrics) Observe(ctx context.Context, verb string, u url.URL, latency time.Duration) {
	m.requestLatency.WithLabelValues(verb, u.Host).Observe(latency.Seconds())
}

var clientGoMetrics = &clientGoRequestMetrics{
	requestCounter: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rest_client_requests_total",
			Help: "Number of HTTP requests the controller's clientset issued, partitioned by status code, method, and host.",
		},
		[]string{"code", "method", "host"},
	),
	requestLatency: prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rest_client_request_duration_seconds",
			Help:    "Latency of the controller's clientset requests, partitioned by verb and host.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"verb", "host"},
	),
}

func init() {
	prometheus.MustRegister(clientGoMetrics.requestCounter)
	prometheus.MustRegister(clientGoMetrics.requestLatency)

	metrics.RequestResult = clientGoMetrics
	metrics.RequestLatency = clientGoMetrics
}

// Collectors holds every Prometheus collector the controller exposes. Every
// method is a nil-safe pointer receiver so a Collectors obtained from a test
// that passes nil never needs a no-op wrapper.
type Collectors struct {
	ReloadsTotal       *prometheus.CounterVec
	ReloadsByNamespace *prometheus.CounterVec
	countByNamespace   bool

	ResolveTotal     *prometheus.CounterVec   // resolver runs, by source kind and outcome
	ResolveDuration  *prometheus.HistogramVec // time spent walking candidate workloads per run
	ActionTotal      *prometheus.CounterVec   // patch attempts, by workload kind and outcome
	ActionLatency    *prometheus.HistogramVec // time from flush tick to patch applied
	SkippedTotal     *prometheus.CounterVec   // ingest items skipped, by reason
	QueueDepth       prometheus.Gauge         // current depth of the debounce ingest queue
	QueueAdds        prometheus.Counter       // items added (including requeues) to the ingest queue
	ErrorsTotal      *prometheus.CounterVec   // errors, by stage
	RetriesTotal     prometheus.Counter       // requeue attempts
	EventsReceived   *prometheus.CounterVec   // watch events received, by event type and source kind
	EventsProcessed  *prometheus.CounterVec   // resolutions completed, by source kind, config kind, and outcome
	WorkloadsScanned *prometheus.CounterVec   // workloads listed during resolution, by kind
	WorkloadsMatched *prometheus.CounterVec   // workloads matched and enqueued during resolution, by kind
}

// RecordReload records a patch attempt's outcome against the target's
// namespace. Namespace breakdown is gated by METRICS_COUNT_BY_NAMESPACE since
// it carries unbounded cardinality on clusters with many namespaces.
func (c *Collectors) RecordReload(success bool, namespace string) {
	if c == nil {
		return
	}

	successLabel := "false"
	if success {
		successLabel = "true"
	}

	c.ReloadsTotal.With(prometheus.Labels{"success": successLabel}).Inc()

	if c.countByNamespace {
		c.ReloadsByNamespace.With(prometheus.Labels{
			"success":   successLabel,
			"namespace": namespace,
		}).Inc()
	}
}

// RecordResolve records one Resolver.Resolve run: how long it took to walk
// every candidate workload kind for a single changed ConfigMap or Secret, and
// whether it found a match.
func (c *Collectors) RecordResolve(sourceKind, result string, duration time.Duration) {
	if c == nil {
		return
	}
	c.ResolveTotal.With(prometheus.Labels{"source_kind": sourceKind, "result": result}).Inc()
	c.ResolveDuration.With(prometheus.Labels{"source_kind": sourceKind}).Observe(duration.Seconds())
}

// RecordAction records a patch attempt against a single target workload.
func (c *Collectors) RecordAction(workloadKind string, result string, latency time.Duration) {
	if c == nil {
		return
	}
	c.ActionTotal.With(prometheus.Labels{"workload_kind": workloadKind, "result": result}).Inc()
	c.ActionLatency.With(prometheus.Labels{"workload_kind": workloadKind}).Observe(latency.Seconds())
}

// RecordSkipped records an item the Worker set aside without patching, with
// the reason: "not_ready" items are requeued, "unknown_kind" pending updates
// are dropped.
func (c *Collectors) RecordSkipped(reason string) {
	if c == nil {
		return
	}
	c.SkippedTotal.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordQueueAdd records an item being added to the ingest queue, whether
// from a fresh resolution match or a requeue after a transient failure.
func (c *Collectors) RecordQueueAdd() {
	if c == nil {
		return
	}
	c.QueueAdds.Inc()
}

// SetQueueDepth sets the current ingest queue depth.
func (c *Collectors) SetQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.QueueDepth.Set(float64(depth))
}

// RecordError records an error by the stage it occurred in (list_workloads,
// pod_readiness, patch_marshal, patch_apply, post_patch, ...).
func (c *Collectors) RecordError(stage string) {
	if c == nil {
		return
	}
	c.ErrorsTotal.With(prometheus.Labels{"type": stage}).Inc()
}

// RecordRetry records a requeue of an ingest item.
func (c *Collectors) RecordRetry() {
	if c == nil {
		return
	}
	c.RetriesTotal.Inc()
}

// RecordEventReceived records a single watch event arriving off the
// ConfigMap or Secret watch stream.
func (c *Collectors) RecordEventReceived(eventType string, sourceKind string) {
	if c == nil {
		return
	}
	c.EventsReceived.With(prometheus.Labels{"event_type": eventType, "source_kind": sourceKind}).Inc()
}

// RecordEventProcessed records the outcome of resolving a single watch
// event: "enqueued" if at least one workload matched and was stale,
// "no_match" otherwise.
func (c *Collectors) RecordEventProcessed(sourceKind string, configKind string, result string) {
	if c == nil {
		return
	}
	c.EventsProcessed.With(prometheus.Labels{"source_kind": sourceKind, "config_kind": configKind, "result": result}).Inc()
}

// RecordWorkloadsScanned records the number of workloads of kind listed
// while resolving a single changed ConfigMap or Secret.
func (c *Collectors) RecordWorkloadsScanned(kind string, count int) {
	if c == nil {
		return
	}
	c.WorkloadsScanned.With(prometheus.Labels{"kind": kind}).Add(float64(count))
}

// RecordWorkloadsMatched records the number of workloads of kind matched and
// enqueued while resolving a single changed ConfigMap or Secret.
func (c *Collectors) RecordWorkloadsMatched(kind string, count int) {
	if c == nil {
		return
	}
	c.WorkloadsMatched.With(prometheus.Labels{"kind": kind}).Add(float64(count))
}

// NewCollectors builds an unregistered Collectors. Tests that don't need
// metrics registered with the default Prometheus registry can call this
// directly instead of SetupPrometheusEndpoint.
func NewCollectors() Collectors {
	reloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Total number of workload patches applied, by outcome.",
		},
		[]string{"success"},
	)
	reloadsTotal.With(prometheus.Labels{"success": "true"}).Add(0)
	reloadsTotal.With(prometheus.Labels{"success": "false"}).Add(0)

	reloadsByNamespace := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total_by_namespace",
			Help:      "Total number of workload patches applied, by outcome and namespace.",
		},
		[]string{"success", "namespace"},
	)

	resolveTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Total number of reverse-dependency resolutions run, by source kind and outcome.",
		},
		[]string{"source_kind", "result"},
	)

	resolveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent walking candidate workloads for a single changed ConfigMap or Secret.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source_kind"},
	)

	actionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_total",
			Help:      "Total number of patch attempts, by workload kind and outcome.",
		},
		[]string{"workload_kind", "result"},
	)

	actionLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_latency_seconds",
			Help:      "Time from a flush tick picking up a pending update to the patch being applied.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"workload_kind"},
	)

	skippedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_total",
			Help:      "Total number of ingest items skipped, by reason.",
		},
		[]string{"reason"},
	)

	queueDepth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_queue_depth",
			Help:      "Current depth of the debounce ingest queue.",
		},
	)

	queueAdds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_queue_adds_total",
			Help:      "Total number of items added to the debounce ingest queue, including requeues.",
		},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors, by stage.",
		},
		[]string{"type"},
	)

	retriesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of ingest items requeued after a transient failure.",
		},
	)

	eventsReceived := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of watch events received, by event type and source kind.",
		},
		[]string{"event_type", "source_kind"},
	)

	eventsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total number of watch events resolved, by source kind, config kind, and outcome.",
		},
		[]string{"source_kind", "config_kind", "result"},
	)

	workloadsScanned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workloads_scanned_total",
			Help:      "Total number of workloads listed during resolution, by kind.",
		},
		[]string{"kind"},
	)

	workloadsMatched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workloads_matched_total",
			Help:      "Total number of workloads matched and enqueued during resolution, by kind.",
		},
		[]string{"kind"},
	)

	return Collectors{
		ReloadsTotal:       reloadsTotal,
		ReloadsByNamespace: reloadsByNamespace,
		countByNamespace:   os.Getenv("METRICS_COUNT_BY_NAMESPACE") == "enabled",

		ResolveTotal:     resolveTotal,
		ResolveDuration:  resolveDuration,
		ActionTotal:      actionTotal,
		ActionLatency:    actionLatency,
		SkippedTotal:     skippedTotal,
		QueueDepth:       queueDepth,
		QueueAdds:        queueAdds,
		ErrorsTotal:      errorsTotal,
		RetriesTotal:     retriesTotal,
		EventsReceived:   eventsReceived,
		EventsProcessed:  eventsProcessed,
		WorkloadsScanned: workloadsScanned,
		WorkloadsMatched: workloadsMatched,
	}
}

// SetupPrometheusEndpoint builds a Collectors, registers every collector
// with the default Prometheus registry, and mounts /metrics on
// http.DefaultServeMux. The caller owns serving that mux.
func SetupPrometheusEndpoint() Collectors {
	collectors := NewCollectors()

	prometheus.MustRegister(collectors.ReloadsTotal)
	prometheus.MustRegister(collectors.ResolveTotal)
	prometheus.MustRegister(collectors.ResolveDuration)
	prometheus.MustRegister(collectors.ActionTotal)
	prometheus.MustRegister(collectors.ActionLatency)
	prometheus.MustRegister(collectors.SkippedTotal)
	prometheus.MustRegister(collectors.QueueDepth)
	prometheus.MustRegister(collectors.QueueAdds)
	prometheus.MustRegister(collectors.ErrorsTotal)
	prometheus.MustRegister(collectors.RetriesTotal)
	prometheus.MustRegister(collectors.EventsReceived)
	prometheus.MustRegister(collectors.EventsProcessed)
	prometheus.MustRegister(collectors.WorkloadsScanned)
	prometheus.MustRegister(collectors.WorkloadsMatched)

	if os.Getenv("METRICS_COUNT_BY_NAMESPACE") == "enabled" {
		prometheus.MustRegister(collectors.ReloadsByNamespace)
	}

	http.Handle("/metrics", promhttp.Handler())

	return collectors
}
