// Package events emits Kubernetes Events against the workload a signature
// patch targeted, so `kubectl describe` on that workload shows why its pod
// template annotations changed.
package events

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
)

const (
	// EventTypeNormal marks a successful signature patch.
	EventTypeNormal = corev1.EventTypeNormal
	// EventTypeWarning marks a failed signature patch attempt.
	EventTypeWarning = corev1.EventTypeWarning

	// ReasonSignaturePatched is the Event reason for a successful
	// annotation patch.
	ReasonSignaturePatched = "SignaturePatched"
	// ReasonSignaturePatchFailed is the Event reason for a patch attempt
	// the API server rejected.
	ReasonSignaturePatchFailed = "SignaturePatchFailed"
)

// Recorder wraps a client-go EventRecorder with the two Event shapes this
// controller ever emits. A nil Recorder (or one built over a nil
// record.EventRecorder) is safe to call: every method is a no-op.
type Recorder struct {
	recorder record.EventRecorder
}

// NewRecorder wraps recorder. It returns nil if recorder is nil, so callers
// that never configured event recording can pass the result straight
// through without a nil check of their own.
func NewRecorder(recorder record.EventRecorder) *Recorder {
	if recorder == nil {
		return nil
	}
	return &Recorder{recorder: recorder}
}

// ReloadSuccess records that object's pod template annotations were patched
// because configKind/configName changed.
func (r *Recorder) ReloadSuccess(object runtime.Object, configKind, configName string) {
	if r == nil || r.recorder == nil {
		return
	}
	r.recorder.Event(
		object,
		EventTypeNormal,
		ReasonSignaturePatched,
		fmt.Sprintf("Patched pod template annotations for %s %s change", configKind, configName),
	)
}

// ReloadFailed records that a signature patch for object was attempted and
// rejected by the API server.
func (r *Recorder) ReloadFailed(object runtime.Object, configKind, configName string, err error) {
	if r == nil || r.recorder == nil {
		return
	}
	r.recorder.Event(
		object,
		EventTypeWarning,
		ReasonSignaturePatchFailed,
		fmt.Sprintf("Failed to patch pod template annotations for %s %s change: %v", configKind, configName, err),
	)
}
