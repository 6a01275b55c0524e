// Package watcher implements the long-lived watch stream and
// reverse-dependency resolver: one Watcher instance
// per source kind (ConfigMap, Secret), reconnecting on failure and fanning
// out each event to a resolution that may enqueue WorkItems.
package watcher

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/opsguru/signature-reloader/internal/pkg/metrics"
	"github.com/opsguru/signature-reloader/internal/pkg/reload"
)

// SourceKind identifies which built-in resource a Watcher streams.
type SourceKind string

const (
	SourceConfigMap SourceKind = "ConfigMap"
	SourceSecret    SourceKind = "Secret"
)

// Enqueuer is the shared queue the resolver feeds. workqueue.TypedInterface
// satisfies this with Add.
type Enqueuer interface {
	Add(item reload.WorkItem)
}

// Watcher maintains one source kind's cluster-wide watch stream and resolves
// each event into WorkItems via Resolver.
type Watcher struct {
	kind       SourceKind
	clientset  kubernetes.Interface
	resolver   *Resolver
	queue      Enqueuer
	log        logr.Logger
	backoffMin time.Duration
	backoffMax time.Duration
	metrics    *metrics.Collectors
}

// New builds a Watcher for kind. backoffMin/backoffMax bound the reconnect
// delay applied after a watch stream closes.
// collectors may be nil.
func New(kind SourceKind, clientset kubernetes.Interface, resolver *Resolver, queue Enqueuer, log logr.Logger, backoffMin, backoffMax time.Duration, collectors *metrics.Collectors) *Watcher {
	return &Watcher{
		kind:       kind,
		clientset:  clientset,
		resolver:   resolver,
		queue:      queue,
		log:        log.WithValues("sourceKind", kind),
		backoffMin: backoffMin,
		backoffMax: backoffMax,
		metrics:    collectors,
	}
}

// Run blocks, alternating STREAMING and RECONNECTING until ctx is cancelled.
// A watch stream is expected to terminate periodically; every termination or
// error restarts it after an exponential backoff capped at backoffMax, reset
// to backoffMin as soon as a stream delivers at least one event.
func (w *Watcher) Run(ctx context.Context) {
	backoff := w.backoffMin
	for ctx.Err() == nil {
		sawEvent, err := w.stream(ctx)
		if err != nil {
			w.log.Error(err, "watch stream failed, reconnecting", "backoff", backoff)
		} else {
			w.log.Info("watch stream closed, reconnecting", "backoff", backoff)
		}
		if sawEvent {
			backoff = w.backoffMin
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > w.backoffMax {
			backoff = w.backoffMax
		}
	}
}

// stream opens one watch and processes events from it until it closes or
// errors, reporting whether any event was observed.
func (w *Watcher) stream(ctx context.Context) (sawEvent bool, err error) {
	result, err := w.open(ctx)
	if err != nil {
		return false, err
	}
	defer result.Stop()

	for {
		select {
		case <-ctx.Done():
			return sawEvent, nil
		case event, ok := <-result.ResultChan():
			if !ok {
				return sawEvent, nil
			}
			sawEvent = true
			w.handle(ctx, event)
		}
	}
}

func (w *Watcher) open(ctx context.Context) (watch.Interface, error) {
	switch w.kind {
	case SourceConfigMap:
		return w.clientset.CoreV1().ConfigMaps(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{})
	case SourceSecret:
		return w.clientset.CoreV1().Secrets(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{})
	default:
		panic("watcher: unknown source kind " + string(w.kind))
	}
}

// handle resolves one watch event. DELETED events are processed identically
// to ADDED/MODIFIED: the resource-version comparison in the resolver is what
// elides redundant work, not the event type.
func (w *Watcher) handle(ctx context.Context, event watch.Event) {
	var namespace, name, resourceVersion string
	switch obj := event.Object.(type) {
	case *corev1.ConfigMap:
		if w.kind == SourceConfigMap {
			namespace, name, resourceVersion = obj.Namespace, obj.Name, obj.ResourceVersion
		}
	case *corev1.Secret:
		if w.kind == SourceSecret {
			namespace, name, resourceVersion = obj.Namespace, obj.Name, obj.ResourceVersion
		}
	default:
		w.log.Info("malformed event object, dropping", "eventType", event.Type)
		return
	}
	if namespace == "" || name == "" {
		w.log.Info("malformed event object, dropping", "eventType", event.Type)
		return
	}

	w.metrics.RecordEventReceived(string(event.Type), string(w.kind))

	// Each event resolves in its own goroutine so that a slow list call for
	// one event never blocks the delivery of the next (concurrency
	// within the Watcher").
	go w.resolver.Resolve(ctx, w.log, w.kind, namespace, name, resourceVersion, w.queue, w.metrics)
}
