// Package reload defines the data that flows between the Watcher and the
// Worker: the WorkItem produced by reverse-dependency resolution, and the
// PendingUpdate debounce state the Worker coalesces WorkItems into.
package reload

import (
	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

// ConfigKind identifies the kind of the source object that triggered a
// WorkItem.
type ConfigKind string

const (
	ConfigKindConfigMap ConfigKind = "ConfigMap"
	ConfigKindSecret    ConfigKind = "Secret"
)

// WorkItem is the unit flowing through the shared queue: a target workload
// that needs an annotation update because one of its dependencies changed.
// The queue deduplicates only items equal in every field; coalescing by
// target (ResNamespace, ResName) happens in the PendingMap through Key. The
// Cfg* fields describe the change that justified this item and are merged
// into the target's PendingUpdate on ingest.
type WorkItem struct {
	ResKind      workload.Kind
	ResNamespace string
	ResName      string
	CfgKind      ConfigKind
	CfgName      string
	CfgVersion   string
}

// Key is the debounce-map key for this item's target workload.
func (w WorkItem) Key() string {
	return w.ResNamespace + "/" + w.ResName
}
