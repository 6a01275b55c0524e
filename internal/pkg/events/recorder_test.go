package events

import (
	"errors"
	"strings"
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/tools/record"
)

func deploymentRef(namespace, name string) *corev1.ObjectReference {
	return &corev1.ObjectReference{
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Namespace:  namespace,
		Name:       name,
	}
}

func TestNewRecorder_NilInput(t *testing.T) {
	r := NewRecorder(nil)
	if r != nil {
		t.Error("NewRecorder(nil) should return nil")
	}
}

func TestNewRecorder_ValidInput(t *testing.T) {
	fakeRecorder := record.NewFakeRecorder(10)
	r := NewRecorder(fakeRecorder)
	if r == nil {
		t.Error("NewRecorder with valid recorder should not return nil")
	}
}

func TestReloadSuccess_RecordsEvent(t *testing.T) {
	fakeRecorder := record.NewFakeRecorder(10)
	r := NewRecorder(fakeRecorder)

	r.ReloadSuccess(deploymentRef("default", "web"), "ConfigMap", "my-config")

	select {
	case event := <-fakeRecorder.Events:
		for _, want := range []string{"Normal", ReasonSignaturePatched, "ConfigMap", "my-config"} {
			if !strings.Contains(event, want) {
				t.Errorf("Event %q should contain %q", event, want)
			}
		}
	default:
		t.Error("Expected event to be recorded, but none was")
	}
}

func TestReloadFailed_RecordsWarningEvent(t *testing.T) {
	fakeRecorder := record.NewFakeRecorder(10)
	r := NewRecorder(fakeRecorder)

	testErr := errors.New("update conflict")
	r.ReloadFailed(deploymentRef("default", "web"), "Secret", "my-secret", testErr)

	select {
	case event := <-fakeRecorder.Events:
		for _, want := range []string{"Warning", ReasonSignaturePatchFailed, "Secret", "my-secret", "update conflict"} {
			if !strings.Contains(event, want) {
				t.Errorf("Event %q should contain %q", event, want)
			}
		}
	default:
		t.Error("Expected event to be recorded, but none was")
	}
}

func TestNilRecorder_NoPanic(t *testing.T) {
	var r *Recorder

	ref := deploymentRef("default", "web")
	r.ReloadSuccess(ref, "ConfigMap", "my-config")
	r.ReloadFailed(ref, "Secret", "my-secret", errors.New("test error"))
}

func TestRecorder_NilInternalRecorder(t *testing.T) {
	r := &Recorder{recorder: nil}

	ref := deploymentRef("default", "web")
	r.ReloadSuccess(ref, "ConfigMap", "my-config")
	r.ReloadFailed(ref, "Secret", "my-secret", errors.New("test error"))
}

func TestEventConstants(t *testing.T) {
	if EventTypeNormal != corev1.EventTypeNormal {
		t.Errorf("EventTypeNormal = %q, want %q", EventTypeNormal, corev1.EventTypeNormal)
	}
	if EventTypeWarning != corev1.EventTypeWarning {
		t.Errorf("EventTypeWarning = %q, want %q", EventTypeWarning, corev1.EventTypeWarning)
	}
	if ReasonSignaturePatched != "SignaturePatched" {
		t.Errorf("ReasonSignaturePatched = %q, want %q", ReasonSignaturePatched, "SignaturePatched")
	}
	if ReasonSignaturePatchFailed != "SignaturePatchFailed" {
		t.Errorf("ReasonSignaturePatchFailed = %q, want %q", ReasonSignaturePatchFailed, "SignaturePatchFailed")
	}
}

func TestReloadSuccess_DifferentObjectKinds(t *testing.T) {
	fakeRecorder := record.NewFakeRecorder(10)
	r := NewRecorder(fakeRecorder)

	tests := []struct {
		name string
		ref  *corev1.ObjectReference
	}{
		{name: "Deployment", ref: deploymentRef("default", "web")},
		{name: "DaemonSet", ref: &corev1.ObjectReference{APIVersion: "apps/v1", Kind: "DaemonSet", Namespace: "default", Name: "agent"}},
		{name: "ReplicationController", ref: &corev1.ObjectReference{APIVersion: "v1", Kind: "ReplicationController", Namespace: "default", Name: "legacy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.ReloadSuccess(tt.ref, "ConfigMap", "my-config")

			select {
			case event := <-fakeRecorder.Events:
				if event == "" {
					t.Error("Expected event to be recorded")
				}
			default:
				t.Error("Expected event to be recorded")
			}
		})
	}
}
