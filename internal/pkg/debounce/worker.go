// Package debounce implements the Worker: the ingest loop that gates on pod
// readiness and coalesces WorkItems into per-target PendingUpdates, and the
// flush loop that patches every target whose debounce window has elapsed.
package debounce

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/workqueue"

	corev1 "k8s.io/api/core/v1"

	"github.com/opsguru/signature-reloader/internal/pkg/annotator"
	"github.com/opsguru/signature-reloader/internal/pkg/events"
	"github.com/opsguru/signature-reloader/internal/pkg/metrics"
	"github.com/opsguru/signature-reloader/internal/pkg/pods"
	"github.com/opsguru/signature-reloader/internal/pkg/reload"
	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

// Queue is the shared work queue between the Watcher and the Worker.
type Queue = workqueue.TypedInterface[reload.WorkItem]

// NewQueue builds the shared queue used by both the Watcher producers and
// the Worker consumer.
func NewQueue() Queue {
	return workqueue.NewTyped[reload.WorkItem]()
}

// Notifier is the optional post-patch side effect hook. A nil-safe no-op
// Notifier is used when alerting is not configured.
type Notifier interface {
	NotifyReload(ctx context.Context, kind workload.Kind, namespace, name string, changes map[string]string)
}

// Worker is the controller's debouncer and applier.
type Worker struct {
	queue         Queue
	registry      *workload.Registry
	clientset     kubernetes.Interface
	pending       *reload.PendingMap
	log           logr.Logger
	flushInterval time.Duration
	timeout       time.Duration
	notifier      Notifier
	metrics       *metrics.Collectors
	events        *events.Recorder
}

// New builds a Worker. timeout is the debounce window (spec's
// UPDATE_RESOURCE_TIMEOUT); flushInterval is the flush-tick cadence.
// collectors and recorder may both be nil.
func New(queue Queue, registry *workload.Registry, clientset kubernetes.Interface, log logr.Logger, flushInterval, timeout time.Duration, notifier Notifier, collectors *metrics.Collectors, recorder *events.Recorder) *Worker {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Worker{
		queue:         queue,
		registry:      registry,
		clientset:     clientset,
		pending:       reload.NewPendingMap(),
		log:           log,
		flushInterval: flushInterval,
		timeout:       timeout,
		notifier:      notifier,
		metrics:       collectors,
		events:        recorder,
	}
}

// Run starts the ingest and flush loops and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.ingestLoop(ctx)
	}()

	w.flushLoop(ctx)
	w.queue.ShutDown()
	<-done
}

// ingestLoop dequeues WorkItems, gates on readiness, requeues if not ready,
// and otherwise coalesces into the pending map.
func (w *Worker) ingestLoop(ctx context.Context) {
	for {
		item, shutdown := w.queue.Get()
		if shutdown {
			return
		}

		w.ingestOne(ctx, item)
		w.queue.Done(item)
	}
}

func (w *Worker) ingestOne(ctx context.Context, item reload.WorkItem) {
	ready, err := pods.Ready(ctx, w.clientset, item.ResKind, item.ResNamespace, item.ResName)
	if err != nil {
		w.log.Error(err, "checking pod readiness, requeuing", "resKind", item.ResKind,
			"namespace", item.ResNamespace, "name", item.ResName)
		w.metrics.RecordError("pod_readiness")
		w.metrics.RecordRetry()
		w.queue.Add(item)
		w.metrics.RecordQueueAdd()
		return
	}
	if !ready {
		w.metrics.RecordSkipped("not_ready")
		w.metrics.RecordRetry()
		w.queue.Add(item)
		w.metrics.RecordQueueAdd()
		return
	}

	w.pending.Coalesce(item, time.Now())
	w.metrics.SetQueueDepth(w.queue.Len())
}

// flushLoop patches every due target on a fixed cadence.
func (w *Worker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Worker) flush(ctx context.Context) {
	due := w.pending.Due(time.Now(), w.timeout)
	for _, snap := range due {
		w.flushOne(ctx, snap)
	}
}

func (w *Worker) flushOne(ctx context.Context, snap reload.Snapshot) {
	start := time.Now()
	ref := objectReference(snap.Kind, snap.Namespace, snap.Name)

	handler, ok := w.registry.HandlerFor(snap.Kind)
	if !ok {
		w.log.Error(nil, "unknown workload kind, dropping pending update", "kind", snap.Kind,
			"namespace", snap.Namespace, "name", snap.Name)
		w.metrics.RecordSkipped("unknown_kind")
		w.pending.DeleteIfUnchanged(snap.Key, snap.DeadlineBase)
		return
	}

	body, err := json.Marshal(annotator.BuildPatch(snap.Changes))
	if err != nil {
		w.log.Error(err, "building patch body, will retry next flush", "namespace", snap.Namespace, "name", snap.Name)
		w.metrics.RecordError("patch_marshal")
		return
	}

	if err := handler.Patch(ctx, snap.Namespace, snap.Name, body); err != nil {
		w.log.Error(err, "patching workload, will retry next flush", "kind", snap.Kind,
			"namespace", snap.Namespace, "name", snap.Name)
		w.metrics.RecordAction(string(snap.Kind), "error", time.Since(start))
		w.metrics.RecordReload(false, snap.Namespace)
		w.metrics.RecordError("patch_apply")
		w.events.ReloadFailed(ref, "config", configChangeSummary(snap.Changes), err)
		return
	}

	if err := handler.PostPatch(ctx, w.log, snap.Namespace, snap.Name); err != nil {
		w.log.Error(err, "post-patch action failed", "kind", snap.Kind, "namespace", snap.Namespace, "name", snap.Name)
		w.metrics.RecordError("post_patch")
	}

	w.metrics.RecordAction(string(snap.Kind), "success", time.Since(start))
	w.metrics.RecordReload(true, snap.Namespace)
	w.events.ReloadSuccess(ref, "config", configChangeSummary(snap.Changes))
	w.notifier.NotifyReload(ctx, snap.Kind, snap.Namespace, snap.Name, snap.Changes)
	w.pending.DeleteIfUnchanged(snap.Key, snap.DeadlineBase)
}

// objectReference builds the minimal runtime.Object the event recorder needs
// to attach an Event to the target workload, without a live read of it.
func objectReference(kind workload.Kind, namespace, name string) *corev1.ObjectReference {
	return &corev1.ObjectReference{
		APIVersion: apiVersionFor(kind),
		Kind:       string(kind),
		Namespace:  namespace,
		Name:       name,
	}
}

func apiVersionFor(kind workload.Kind) string {
	if kind == workload.KindReplicationController {
		return "v1"
	}
	return "apps/v1"
}

// configChangeSummary renders the set of annotation keys in a patch as a
// short human-readable string for event messages.
func configChangeSummary(changes map[string]string) string {
	if len(changes) == 1 {
		for k := range changes {
			return strings.TrimPrefix(k, annotator.Domain+"/")
		}
	}
	return "multiple config sources"
}

type noopNotifier struct{}

func (noopNotifier) NotifyReload(context.Context, workload.Kind, string, string, map[string]string) {}
