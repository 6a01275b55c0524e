package watcher

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/opsguru/signature-reloader/internal/pkg/reload"
	"github.com/opsguru/signature-reloader/internal/pkg/workload"
)

type fakeQueue struct {
	items []reload.WorkItem
}

func (q *fakeQueue) Add(item reload.WorkItem) {
	q.items = append(q.items, item)
}

func deploymentWithVolume(name, cfgName string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "default",
			Annotations: map[string]string{
				"opsguru.signature/should_update": "True",
			},
		},
		Spec: appsv1.DeploymentSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Volumes: []corev1.Volume{
						{
							Name: "cfg",
							VolumeSource: corev1.VolumeSource{
								ConfigMap: &corev1.ConfigMapVolumeSource{
									LocalObjectReference: corev1.LocalObjectReference{Name: cfgName},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestResolve_VolumeMatch_EnqueuesWorkItem(t *testing.T) {
	dep := deploymentWithVolume("web", "app-cfg")
	reg := workload.NewRegistry(fake.NewSimpleClientset(dep))
	resolver := NewResolver(reg)
	queue := &fakeQueue{}

	resolver.Resolve(context.Background(), logr.Discard(), SourceConfigMap, "default", "app-cfg", "42", queue, nil)

	if len(queue.items) != 1 {
		t.Fatalf("got %d work items, want 1: %+v", len(queue.items), queue.items)
	}
	item := queue.items[0]
	if item.ResName != "web" || item.CfgName != "app-cfg" || item.CfgVersion != "42" {
		t.Errorf("unexpected work item: %+v", item)
	}
}

func TestResolve_MissingSignature_NoEnqueue(t *testing.T) {
	dep := deploymentWithVolume("web", "app-cfg")
	delete(dep.Annotations, "opsguru.signature/should_update")
	reg := workload.NewRegistry(fake.NewSimpleClientset(dep))
	resolver := NewResolver(reg)
	queue := &fakeQueue{}

	resolver.Resolve(context.Background(), logr.Discard(), SourceConfigMap, "default", "app-cfg", "42", queue, nil)

	if len(queue.items) != 0 {
		t.Fatalf("got %d work items, want 0 for a workload without the opt-in signature", len(queue.items))
	}
}

func TestResolve_AlreadyUpToDate_NoEnqueue(t *testing.T) {
	dep := deploymentWithVolume("web", "app-cfg")
	dep.Spec.Template.Annotations = map[string]string{
		"opsguru.signature/ConfigMap.app-cfg": "42",
	}
	reg := workload.NewRegistry(fake.NewSimpleClientset(dep))
	resolver := NewResolver(reg)
	queue := &fakeQueue{}

	resolver.Resolve(context.Background(), logr.Discard(), SourceConfigMap, "default", "app-cfg", "42", queue, nil)

	if len(queue.items) != 0 {
		t.Fatalf("got %d work items, want 0 when the version annotation already matches", len(queue.items))
	}
}

func TestResolve_SecretEnvMatch(t *testing.T) {
	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "web",
			Namespace: "default",
			Annotations: map[string]string{
				"opsguru.signature/should_update": "True",
			},
		},
		Spec: appsv1.DeploymentSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name: "app",
							Env: []corev1.EnvVar{
								{
									Name: "API_KEY",
									ValueFrom: &corev1.EnvVarSource{
										SecretKeyRef: &corev1.SecretKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: "api-key"},
										},
									},
								},
								{
									Name: "FEATURES",
									ValueFrom: &corev1.EnvVarSource{
										ConfigMapKeyRef: &corev1.ConfigMapKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: "api-key"},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	reg := workload.NewRegistry(fake.NewSimpleClientset(dep))
	resolver := NewResolver(reg)
	queue := &fakeQueue{}

	resolver.Resolve(context.Background(), logr.Discard(), SourceSecret, "default", "api-key", "11", queue, nil)
	if len(queue.items) != 1 {
		t.Fatalf("got %d work items, want 1 for a Secret env reference", len(queue.items))
	}

	queueCM := &fakeQueue{}
	resolver.Resolve(context.Background(), logr.Discard(), SourceConfigMap, "default", "api-key", "11", queueCM, nil)
	if len(queueCM.items) != 0 {
		t.Error("ConfigMap env refs must not trigger a patch")
	}
}
