// Package supervisor wires the controller's components together: it builds
// the in-cluster clientset, starts one Watcher per source kind and the
// debounce Worker, serves the health endpoints, and runs until its context
// is cancelled. The /metrics endpoint is served by the caller.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/record"

	"github.com/opsguru/signature-reloader/internal/pkg/alerting"
	"github.com/opsguru/signature-reloader/internal/pkg/config"
	"github.com/opsguru/signature-reloader/internal/pkg/debounce"
	"github.com/opsguru/signature-reloader/internal/pkg/events"
	"github.com/opsguru/signature-reloader/internal/pkg/metrics"
	"github.com/opsguru/signature-reloader/internal/pkg/watcher"
	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

// Supervisor owns every long-running component of the controller process.
type Supervisor struct {
	cfg        *config.Config
	log        logr.Logger
	clientset  kubernetes.Interface
	collectors *metrics.Collectors
}

// New builds a Supervisor. clientset is accepted directly so tests can pass
// a fake.Clientset instead of discovering in-cluster config.
func New(cfg *config.Config, log logr.Logger, clientset kubernetes.Interface, collectors *metrics.Collectors) *Supervisor {
	return &Supervisor{cfg: cfg, log: log, clientset: clientset, collectors: collectors}
}

// NewInCluster builds a Supervisor's clientset via in-cluster config
// discovery, tuned for QPS, burst, and connection pool size.
func NewInCluster(cfg *config.Config, log logr.Logger, collectors *metrics.Collectors) (*Supervisor, error) {
	restCfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("discovering in-cluster config: %w", err)
	}
	restCfg.QPS = cfg.QPS
	restCfg.Burst = cfg.Burst

	restCfg.WrapTransport = func(rt http.RoundTripper) http.RoundTripper {
		if transport, ok := rt.(*http.Transport); ok {
			transport.MaxIdleConnsPerHost = cfg.ConnectionPoolSize
		}
		return rt
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("building clientset: %w", err)
	}

	return New(cfg, log, clientset, collectors), nil
}

// Run constructs the registry, queue, resolver, watchers, and worker, starts
// them as goroutines, serves the health endpoint, and blocks until ctx is
// cancelled. The caller is responsible for serving /metrics separately via
// metrics.SetupPrometheusEndpoint and its own http.Server on MetricsAddr.
func (s *Supervisor) Run(ctx context.Context) error {
	registry := workload.NewRegistry(s.clientset)
	queue := debounce.NewQueue()
	resolver := watcher.NewResolver(registry)
	recorder := s.newEventRecorder()
	notifier := s.newNotifier()

	worker := debounce.New(
		queue, registry, s.clientset, s.log.WithName("worker"),
		s.cfg.FlushInterval, s.cfg.UpdateResourceTimeout, notifier, s.collectors, recorder,
	)

	configMapWatcher := watcher.New(
		watcher.SourceConfigMap, s.clientset, resolver, queue, s.log,
		s.cfg.ReconnectBackoff, s.cfg.ReconnectBackoffMax, s.collectors,
	)
	secretWatcher := watcher.New(
		watcher.SourceSecret, s.clientset, resolver, queue, s.log,
		s.cfg.ReconnectBackoff, s.cfg.ReconnectBackoffMax, s.collectors,
	)

	healthServer := s.newHealthServer()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); configMapWatcher.Run(ctx) }()
	go func() { defer wg.Done(); secretWatcher.Run(ctx) }()
	go func() { defer wg.Done(); worker.Run(ctx) }()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error(err, "shutting down health server")
		}
	}()

	s.log.Info("starting health server", "addr", s.cfg.HealthAddr)
	if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error(err, "health server exited unexpectedly")
	}

	wg.Wait()
	return nil
}

func (s *Supervisor) newHealthServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{Addr: s.cfg.HealthAddr, Handler: mux}
}

func (s *Supervisor) newEventRecorder() *events.Recorder {
	broadcaster := record.NewBroadcaster()
	broadcaster.StartStructuredLogging(0)
	broadcaster.StartRecordingToSink(&typedcorev1.EventSinkImpl{
		Interface: s.clientset.CoreV1().Events(""),
	})
	recorder := broadcaster.NewRecorder(scheme.Scheme, corev1.EventSource{Component: workload.FieldManager})
	return events.NewRecorder(recorder)
}

// newNotifier adapts the configured Alerter into the debounce.Notifier the
// Worker calls after every successful patch.
func (s *Supervisor) newNotifier() debounce.Notifier {
	return &alertNotifier{alerter: alerting.NewAlerter(s.cfg), log: s.log.WithName("alerting")}
}

type alertNotifier struct {
	alerter alerting.Alerter
	log     logr.Logger
}

func (n *alertNotifier) NotifyReload(ctx context.Context, kind workload.Kind, namespace, name string, changes map[string]string) {
	msg := alerting.AlertMessage{
		WorkloadKind:      string(kind),
		WorkloadName:      name,
		WorkloadNamespace: namespace,
		ConfigChange:      summarizeChanges(changes),
		PatchedAt:         time.Now(),
	}
	if err := n.alerter.Send(ctx, msg); err != nil {
		n.log.Error(err, "sending reload notification", "kind", kind, "namespace", namespace, "name", name)
	}
}

func summarizeChanges(changes map[string]string) string {
	if len(changes) == 1 {
		for k := range changes {
			return k
		}
	}
	return fmt.Sprintf("%d config sources", len(changes))
}
