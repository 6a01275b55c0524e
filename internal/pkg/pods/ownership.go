// Package pods implements the readiness gate: before a target workload is
// patched, every pod it currently owns must be Running, so the controller
// never layers a new rollout onto one already in flight.
package pods

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

// createdByAnnotation is the legacy, deprecated annotation this controller
// relies on to map a Pod back to the controller that created it. Walking
// pod.OwnerReferences would be the modern replacement; kept as-is since
// clusters this controller targets still rely on it.
const createdByAnnotation = "kubernetes.io/created-by"

// createdBy mirrors the deprecated SerializedReference JSON blob Kubernetes
// used to write into the kubernetes.io/created-by annotation.
type createdBy struct {
	Reference struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	} `json:"reference"`
}

// Owned lists the pods in namespace whose created-by reference matches
// (referenceKind, referenceName).
func Owned(ctx context.Context, clientset kubernetes.Interface, namespace, referenceKind, referenceName string) ([]corev1.Pod, error) {
	list, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing pods in %q: %w", namespace, err)
	}

	var owned []corev1.Pod
	for _, pod := range list.Items {
		raw, ok := pod.Annotations[createdByAnnotation]
		if !ok {
			continue
		}
		var ref createdBy
		if err := json.Unmarshal([]byte(raw), &ref); err != nil {
			continue
		}
		if ref.Reference.Kind == referenceKind && ref.Reference.Name == referenceName {
			owned = append(owned, pod)
		}
	}
	return owned, nil
}

// ReferenceFor resolves the (kind, name) a target workload's pods are
// expected to reference. For a Deployment, pods are owned by
// an intermediate ReplicaSet, so this looks up the single active ReplicaSet
// first; more than one active ReplicaSet means a rollout is in progress and
// Ready reports false. Every other kind's pods reference it directly.
func ReferenceFor(ctx context.Context, clientset kubernetes.Interface, kind workload.Kind, namespace, name string) (referenceKind, referenceName string, ok bool, err error) {
	if kind != workload.KindDeployment {
		return string(kind), name, true, nil
	}

	list, err := clientset.AppsV1().ReplicaSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", "", false, fmt.Errorf("listing replicasets in %q: %w", namespace, err)
	}

	var matchName string
	count := 0
	for i := range list.Items {
		rs := &list.Items[i]
		if rs.Status.Replicas <= 0 {
			continue
		}
		for _, owner := range rs.OwnerReferences {
			if owner.Kind == string(workload.KindDeployment) && owner.Name == name {
				count++
				matchName = rs.Name
			}
		}
	}

	if count == 0 {
		return "", "", false, nil
	}
	if count > 1 {
		// More than one active ReplicaSet: a rollout is already in progress.
		return "", "", false, nil
	}
	return "ReplicaSet", matchName, true, nil
}

// Ready reports whether every pod owned by (kind, namespace, name) is in
// phase Running. A target with zero owned pods is treated as not ready.
func Ready(ctx context.Context, clientset kubernetes.Interface, kind workload.Kind, namespace, name string) (bool, error) {
	referenceKind, referenceName, ok, err := ReferenceFor(ctx, clientset, kind, namespace, name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	owned, err := Owned(ctx, clientset, namespace, referenceKind, referenceName)
	if err != nil {
		return false, err
	}
	if len(owned) == 0 {
		return false, nil
	}

	for _, pod := range owned {
		if pod.Status.Phase != corev1.PodRunning {
			return false, nil
		}
	}
	return true, nil
}
