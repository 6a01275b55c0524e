package watcher

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/opsguru/signature-reloader/internal/pkg/annotator"
	"github.com/opsguru/signature-reloader/internal/pkg/metrics"
	"github.com/opsguru/signature-reloader/internal/pkg/reload"
	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

// candidateKinds are the workload kinds enumerated during resolution.
// StatefulSets are deliberately omitted here even though the workload
// registry can patch them: resolution never lists them as candidates, so a
// StatefulSet only rolls if something else patches it directly.
var candidateKinds = []workload.Kind{
	workload.KindDaemonSet,
	workload.KindDeployment,
	workload.KindReplicationController,
}

// Resolver implements the reverse-dependency resolution algorithm: given a
// changed ConfigMap or Secret, find every workload in its
// namespace that references it and is stale, and enqueue a WorkItem for
// each.
type Resolver struct {
	registry *workload.Registry
}

// NewResolver builds a Resolver over the given workload dispatch table.
func NewResolver(registry *workload.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve lists every candidate workload kind in namespace, matches each
// against the changed source object by volume (both kinds) or env
// (SourceSecret only), and enqueues a WorkItem for every match that opted in
// and is not already up to date.
func (r *Resolver) Resolve(ctx context.Context, log logr.Logger, kind SourceKind, namespace, name, resourceVersion string, queue Enqueuer, collectors *metrics.Collectors) {
	start := time.Now()
	cfgKind := reload.ConfigKindConfigMap
	if kind == SourceSecret {
		cfgKind = reload.ConfigKindSecret
	}

	matched := 0
	for _, resKind := range candidateKinds {
		handler, ok := r.registry.HandlerFor(resKind)
		if !ok {
			continue
		}
		accessors, err := handler.List(ctx, namespace)
		if err != nil {
			log.Error(err, "listing workloads during resolution, dropping event",
				"resKind", resKind, "namespace", namespace, "cfgName", name)
			collectors.RecordError("list_workloads")
			return
		}
		collectors.RecordWorkloadsScanned(string(resKind), len(accessors))

		for _, res := range accessors {
			if !matches(res, kind, name) {
				continue
			}
			if enqueueIfStale(res, cfgKind, name, resourceVersion, queue, collectors) {
				matched++
				collectors.RecordWorkloadsMatched(string(resKind), 1)
			}
		}
	}

	result := "enqueued"
	if matched == 0 {
		result = "no_match"
	}
	collectors.RecordEventProcessed(string(kind), string(cfgKind), result)
	collectors.RecordResolve(string(kind), result, time.Since(start))
}

// matches reports whether workload res references the changed source object,
// either as a mounted volume (both kinds) or, for Secrets only, as a
// container environment reference.
func matches(res workload.Accessor, kind SourceKind, name string) bool {
	for _, vol := range res.GetVolumes() {
		switch kind {
		case SourceConfigMap:
			if vol.ConfigMap != nil && vol.ConfigMap.Name == name {
				return true
			}
		case SourceSecret:
			if vol.Secret != nil && vol.Secret.SecretName == name {
				return true
			}
		}
	}

	if kind != SourceSecret {
		return false
	}
	for _, container := range res.GetContainers() {
		for _, env := range container.Env {
			if env.ValueFrom != nil && env.ValueFrom.SecretKeyRef != nil && env.ValueFrom.SecretKeyRef.Name == name {
				return true
			}
		}
	}
	return false
}

func enqueueIfStale(res workload.Accessor, cfgKind reload.ConfigKind, cfgName, resourceVersion string, queue Enqueuer, collectors *metrics.Collectors) bool {
	if !annotator.HasSignature(res.GetAnnotations()) {
		return false
	}
	if annotator.IsUpToDate(res.GetPodTemplateAnnotations(), string(cfgKind), cfgName, resourceVersion) {
		return false
	}

	queue.Add(reload.WorkItem{
		ResKind:      res.Kind(),
		ResNamespace: res.GetNamespace(),
		ResName:      res.GetName(),
		CfgKind:      cfgKind,
		CfgName:      cfgName,
		CfgVersion:   resourceVersion,
	})
	collectors.RecordQueueAdd()
	return true
}
