package watcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func TestWatcher_Run_ReconnectsOnClosedStream(t *testing.T) {
	clientset := fake.NewSimpleClientset()

	var opens int32
	clientset.PrependWatchReactor("configmaps", func(action k8stesting.Action) (bool, watch.Interface, error) {
		atomic.AddInt32(&opens, 1)
		w := watch.NewFake()
		// Close the stream immediately so Run loops back into reconnect.
		go w.Stop()
		return true, w, nil
	})

	resolver := NewResolver(nil)
	queue := &fakeQueue{}
	wat := New(SourceConfigMap, clientset, resolver, queue, logr.Discard(), time.Millisecond, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	wat.Run(ctx)

	if atomic.LoadInt32(&opens) < 2 {
		t.Errorf("expected at least 2 reconnect attempts, got %d", opens)
	}
}

func TestWatcher_Handle_DropsMalformedEvent(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	resolver := NewResolver(nil)
	queue := &fakeQueue{}
	wat := New(SourceConfigMap, clientset, resolver, queue, logr.Discard(), time.Millisecond, time.Millisecond, nil)

	// A Secret object delivered on the ConfigMap watch stream doesn't type
	// assert to *corev1.ConfigMap and must be dropped without panicking.
	wat.handle(context.Background(), watch.Event{Type: watch.Added, Object: &corev1.Secret{}})

	if len(queue.items) != 0 {
		t.Errorf("expected no items enqueued for a malformed event, got %d", len(queue.items))
	}
}

func TestWatcher_Handle_EmptyNameDropped(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	resolver := NewResolver(nil)
	queue := &fakeQueue{}
	wat := New(SourceConfigMap, clientset, resolver, queue, logr.Discard(), time.Millisecond, time.Millisecond, nil)

	wat.handle(context.Background(), watch.Event{
		Type: watch.Added,
		Object: &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Namespace: "default"},
		},
	})

	if len(queue.items) != 0 {
		t.Errorf("expected no items enqueued when name is empty, got %d", len(queue.items))
	}
}
