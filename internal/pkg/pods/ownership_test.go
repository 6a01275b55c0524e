package pods

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

func podWithCreator(name, namespace, kind, creatorName string, phase corev1.PodPhase) *corev1.Pod {
	blob := `{"reference":{"kind":"` + kind + `","name":"` + creatorName + `"}}`
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Annotations: map[string]string{
				createdByAnnotation: blob,
			},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}

func TestReady_DaemonSet_AllRunning(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		podWithCreator("p1", "default", "DaemonSet", "fluentd", corev1.PodRunning),
		podWithCreator("p2", "default", "DaemonSet", "fluentd", corev1.PodRunning),
	)

	ready, err := Ready(context.Background(), clientset, workload.KindDaemonSet, "default", "fluentd")
	if err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if !ready {
		t.Error("Ready() = false, want true when all owned pods are Running")
	}
}

func TestReady_DaemonSet_OnePending(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		podWithCreator("p1", "default", "DaemonSet", "fluentd", corev1.PodRunning),
		podWithCreator("p2", "default", "DaemonSet", "fluentd", corev1.PodPending),
	)

	ready, err := Ready(context.Background(), clientset, workload.KindDaemonSet, "default", "fluentd")
	if err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if ready {
		t.Error("Ready() = true, want false when a pod is not Running")
	}
}

func TestReady_NoOwnedPods(t *testing.T) {
	clientset := fake.NewSimpleClientset()

	ready, err := Ready(context.Background(), clientset, workload.KindDaemonSet, "default", "fluentd")
	if err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if ready {
		t.Error("Ready() = true, want false for a target with zero owned pods")
	}
}

func TestReady_Deployment_ViaReplicaSet(t *testing.T) {
	rs := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "web-abc123",
			Namespace: "default",
			OwnerReferences: []metav1.OwnerReference{
				{Kind: "Deployment", Name: "web"},
			},
		},
		Status: appsv1.ReplicaSetStatus{Replicas: 2},
	}
	pod := podWithCreator("web-abc123-xyz", "default", "ReplicaSet", "web-abc123", corev1.PodRunning)

	clientset := fake.NewSimpleClientset(rs, pod)

	ready, err := Ready(context.Background(), clientset, workload.KindDeployment, "default", "web")
	if err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if !ready {
		t.Error("Ready() = false, want true via the owning ReplicaSet")
	}
}

func TestReady_Deployment_MultipleActiveReplicaSets(t *testing.T) {
	owner := []metav1.OwnerReference{{Kind: "Deployment", Name: "web"}}
	rs1 := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{Name: "web-old", Namespace: "default", OwnerReferences: owner},
		Status:     appsv1.ReplicaSetStatus{Replicas: 1},
	}
	rs2 := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{Name: "web-new", Namespace: "default", OwnerReferences: owner},
		Status:     appsv1.ReplicaSetStatus{Replicas: 1},
	}

	clientset := fake.NewSimpleClientset(rs1, rs2)

	ready, err := Ready(context.Background(), clientset, workload.KindDeployment, "default", "web")
	if err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if ready {
		t.Error("Ready() = true, want false when a rollout is in progress (two active ReplicaSets)")
	}
}
