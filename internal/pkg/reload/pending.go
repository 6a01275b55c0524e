package reload

import (
	"sync"
	"time"

	"github.com/opsguru/signature-reloader/internal/pkg/annotator"
	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

// PendingUpdate is the per-target debounce state: the
// accumulated set of annotation changes a target workload needs, and the
// timestamp that determines when it becomes eligible to flush.
type PendingUpdate struct {
	Kind         workload.Kind
	Namespace    string
	Name         string
	Changes      map[string]string
	DeadlineBase time.Time
}

// Snapshot is an immutable copy of a PendingUpdate taken under the lock,
// safe to read after the lock is released while I/O is in flight.
type Snapshot struct {
	Key string
	PendingUpdate
}

// PendingMap is the single mutual-exclusion-guarded map of in-flight
// debounce state: at most one PendingUpdate per
// (namespace, name) target, mutated by both the ingest and flush paths.
type PendingMap struct {
	mu      sync.Mutex
	entries map[string]*PendingUpdate
}

// NewPendingMap creates an empty PendingMap.
func NewPendingMap() *PendingMap {
	return &PendingMap{entries: make(map[string]*PendingUpdate)}
}

// Coalesce merges a single WorkItem's annotation change into the target's
// PendingUpdate, creating one if none exists yet, and resets DeadlineBase to
// now -- last-writer-wins per annotation key.
func (m *PendingMap) Coalesce(item WorkItem, now time.Time) {
	key := item.Key()
	annKey := annotator.VersionAnnotationKey(string(item.CfgKind), item.CfgName)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		entry = &PendingUpdate{
			Kind:      item.ResKind,
			Namespace: item.ResNamespace,
			Name:      item.ResName,
			Changes:   make(map[string]string),
		}
		m.entries[key] = entry
	}
	entry.Changes[annKey] = item.CfgVersion
	entry.DeadlineBase = now
}

// Due returns a snapshot of every entry whose debounce window has elapsed as
// of now, without removing them from the map. The caller performs the patch
// I/O against these snapshots and then calls DeleteIfUnchanged to retire
// each one that succeeded.
func (m *PendingMap) Due(now time.Time, timeout time.Duration) []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []Snapshot
	for key, entry := range m.entries {
		if now.Sub(entry.DeadlineBase) <= timeout {
			continue
		}
		changes := make(map[string]string, len(entry.Changes))
		for k, v := range entry.Changes {
			changes[k] = v
		}
		due = append(due, Snapshot{
			Key: key,
			PendingUpdate: PendingUpdate{
				Kind:         entry.Kind,
				Namespace:    entry.Namespace,
				Name:         entry.Name,
				Changes:      changes,
				DeadlineBase: entry.DeadlineBase,
			},
		})
	}
	return due
}

// DeleteIfUnchanged removes the entry for key only if its DeadlineBase still
// equals expected, i.e. nothing coalesced into it while the caller's patch
// I/O for the prior snapshot was in flight. This is the fix for the
// ingest/flush race: a
// late arrival during the patch call must survive as its own pending entry,
// not be silently deleted out from under the next coalesce.
func (m *PendingMap) DeleteIfUnchanged(key string, expected time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return false
	}
	if !entry.DeadlineBase.Equal(expected) {
		return false
	}
	delete(m.entries, key)
	return true
}

// Len reports the number of targets currently pending a flush.
func (m *PendingMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
