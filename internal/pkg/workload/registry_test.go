package workload

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestRegistry_HandlerFor(t *testing.T) {
	reg := NewRegistry(fake.NewSimpleClientset())

	for _, kind := range SupportedKinds() {
		if _, ok := reg.HandlerFor(kind); !ok {
			t.Errorf("HandlerFor(%s) missing from registry", kind)
		}
	}

	if _, ok := reg.HandlerFor("Job"); ok {
		t.Error("HandlerFor(Job) should not be registered")
	}
}

func TestDeploymentHandler_ListAndPatch(t *testing.T) {
	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
	}
	clientset := fake.NewSimpleClientset(dep)
	reg := NewRegistry(clientset)

	h, ok := reg.HandlerFor(KindDeployment)
	if !ok {
		t.Fatal("expected deployment handler")
	}

	accessors, err := h.List(context.Background(), "default")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(accessors) != 1 || accessors[0].GetName() != "web" {
		t.Fatalf("List() = %v, want one accessor named web", accessors)
	}

	body := []byte(`{"spec":{"template":{"metadata":{"annotations":{"opsguru.signature/ConfigMap.app-cfg":"42"}}}}}`)
	if err := h.Patch(context.Background(), "default", "web", body); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	updated, err := clientset.AppsV1().Deployments("default").Get(context.Background(), "web", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := updated.Spec.Template.Annotations["opsguru.signature/ConfigMap.app-cfg"]; got != "42" {
		t.Errorf("patched annotation = %q, want 42", got)
	}

	if err := h.PostPatch(context.Background(), logr.Discard(), "default", "web"); err != nil {
		t.Errorf("PostPatch() error = %v", err)
	}
}
