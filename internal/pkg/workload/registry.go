package workload

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// FieldManager identifies this controller as the actor making changes when
// patching workloads.
const FieldManager = "opsguru-signature-reloader"

// Handler is the per-kind entry in the dispatch table: a uniform
// {List, Patch, PostPatch} surface, built once per Kind over a shared
// clientset.
type Handler struct {
	kind      Kind
	list      func(ctx context.Context, namespace string) ([]Accessor, error)
	patch     func(ctx context.Context, namespace, name string, body []byte) error
	postPatch func(ctx context.Context, log logr.Logger, namespace, name string) error
}

// Kind returns the workload kind this handler dispatches for.
func (h Handler) Kind() Kind { return h.kind }

// List returns every workload of this kind in namespace.
func (h Handler) List(ctx context.Context, namespace string) ([]Accessor, error) {
	return h.list(ctx, namespace)
}

// Patch applies a strategic-merge patch body to the named workload.
func (h Handler) Patch(ctx context.Context, namespace, name string, body []byte) error {
	return h.patch(ctx, namespace, name, body)
}

// PostPatch runs the kind-specific action after a successful patch. For
// rolling kinds (Deployment, DaemonSet) this is a no-op: the native rolling
// update mechanism takes it from here. For ReplicationController and
// StatefulSet it logs that manual restart is unimplemented.
func (h Handler) PostPatch(ctx context.Context, log logr.Logger, namespace, name string) error {
	return h.postPatch(ctx, log, namespace, name)
}

// Registry is the dispatch table keyed by Kind, built once over a shared
// clientset at startup.
type Registry struct {
	handlers map[Kind]Handler
}

// NewRegistry builds the dispatch table for all four supported kinds.
func NewRegistry(clientset kubernetes.Interface) *Registry {
	return &Registry{
		handlers: map[Kind]Handler{
			KindDeployment:            newDeploymentHandler(clientset),
			KindDaemonSet:             newDaemonSetHandler(clientset),
			KindReplicationController: newReplicationControllerHandler(clientset),
			KindStatefulSet:           newStatefulSetHandler(clientset),
		},
	}
}

// HandlerFor returns the handler for kind, or (Handler{}, false) for an
// unsupported kind. The worker treats a missing handler as "log and drop"
// (an unknown workload kind).
func (r *Registry) HandlerFor(kind Kind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

func newDeploymentHandler(clientset kubernetes.Interface) Handler {
	return Handler{
		kind: KindDeployment,
		list: func(ctx context.Context, namespace string) ([]Accessor, error) {
			list, err := clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, fmt.Errorf("listing deployments in %q: %w", namespace, err)
			}
			out := make([]Accessor, 0, len(list.Items))
			for i := range list.Items {
				out = append(out, deploymentAccessor{obj: &list.Items[i]})
			}
			return out, nil
		},
		patch: func(ctx context.Context, namespace, name string, body []byte) error {
			_, err := clientset.AppsV1().Deployments(namespace).Patch(
				ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{FieldManager: FieldManager},
			)
			return err
		},
		postPatch: func(ctx context.Context, log logr.Logger, namespace, name string) error {
			log.V(1).Info("relying on native rolling update", "kind", KindDeployment, "namespace", namespace, "name", name)
			return nil
		},
	}
}

func newDaemonSetHandler(clientset kubernetes.Interface) Handler {
	return Handler{
		kind: KindDaemonSet,
		list: func(ctx context.Context, namespace string) ([]Accessor, error) {
			list, err := clientset.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, fmt.Errorf("listing daemonsets in %q: %w", namespace, err)
			}
			out := make([]Accessor, 0, len(list.Items))
			for i := range list.Items {
				out = append(out, daemonSetAccessor{obj: &list.Items[i]})
			}
			return out, nil
		},
		patch: func(ctx context.Context, namespace, name string, body []byte) error {
			_, err := clientset.AppsV1().DaemonSets(namespace).Patch(
				ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{FieldManager: FieldManager},
			)
			return err
		},
		postPatch: func(ctx context.Context, log logr.Logger, namespace, name string) error {
			// Requires spec.updateStrategy.type=RollingUpdate; not enforced here.
			log.V(1).Info("relying on native rolling update", "kind", KindDaemonSet, "namespace", namespace, "name", name)
			return nil
		},
	}
}

func newReplicationControllerHandler(clientset kubernetes.Interface) Handler {
	return Handler{
		kind: KindReplicationController,
		list: func(ctx context.Context, namespace string) ([]Accessor, error) {
			list, err := clientset.CoreV1().ReplicationControllers(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, fmt.Errorf("listing replicationcontrollers in %q: %w", namespace, err)
			}
			out := make([]Accessor, 0, len(list.Items))
			for i := range list.Items {
				out = append(out, replicationControllerAccessor{obj: &list.Items[i]})
			}
			return out, nil
		},
		patch: func(ctx context.Context, namespace, name string, body []byte) error {
			_, err := clientset.CoreV1().ReplicationControllers(namespace).Patch(
				ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{FieldManager: FieldManager},
			)
			return err
		},
		postPatch: updateManually(KindReplicationController),
	}
}

func newStatefulSetHandler(clientset kubernetes.Interface) Handler {
	return Handler{
		kind: KindStatefulSet,
		list: func(ctx context.Context, namespace string) ([]Accessor, error) {
			list, err := clientset.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, fmt.Errorf("listing statefulsets in %q: %w", namespace, err)
			}
			out := make([]Accessor, 0, len(list.Items))
			for i := range list.Items {
				out = append(out, statefulSetAccessor{obj: &list.Items[i]})
			}
			return out, nil
		},
		patch: func(ctx context.Context, namespace, name string, body []byte) error {
			_, err := clientset.AppsV1().StatefulSets(namespace).Patch(
				ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{FieldManager: FieldManager},
			)
			return err
		},
		postPatch: updateManually(KindStatefulSet),
	}
}

// updateManually is the post-patch action for ReplicationController and
// StatefulSet: neither kind gets an active restart here, so a rollout for
// these two depends entirely on an external actor noticing the pod-template
// annotation change. This logs the gap rather than silently doing nothing.
func updateManually(kind Kind) func(ctx context.Context, log logr.Logger, namespace, name string) error {
	return func(ctx context.Context, log logr.Logger, namespace, name string) error {
		log.Info("manual restart required but not implemented", "kind", kind, "namespace", namespace, "name", name)
		return nil
	}
}

// ensure the accessor types satisfy Accessor at compile time.
var (
	_ Accessor = deploymentAccessor{}
	_ Accessor = daemonSetAccessor{}
	_ Accessor = replicationControllerAccessor{}
	_ Accessor = statefulSetAccessor{}
)
