package workload

import (
	corev1 "k8s.io/api/core/v1"
)

// replicationControllerAccessor adapts a corev1.ReplicationController to
// Accessor. Unlike the other three kinds, its pod template is a pointer and
// may be nil on a malformed or bare object.
type replicationControllerAccessor struct {
	obj *corev1.ReplicationController
}

func (a replicationControllerAccessor) Kind() Kind           { return KindReplicationController }
func (a replicationControllerAccessor) GetName() string      { return a.obj.Name }
func (a replicationControllerAccessor) GetNamespace() string { return a.obj.Namespace }

func (a replicationControllerAccessor) GetAnnotations() map[string]string {
	return a.obj.Annotations
}

func (a replicationControllerAccessor) GetPodTemplateAnnotations() map[string]string {
	if a.obj.Spec.Template == nil {
		return nil
	}
	return a.obj.Spec.Template.Annotations
}

func (a replicationControllerAccessor) GetVolumes() []corev1.Volume {
	if a.obj.Spec.Template == nil {
		return nil
	}
	return a.obj.Spec.Template.Spec.Volumes
}

func (a replicationControllerAccessor) GetContainers() []corev1.Container {
	if a.obj.Spec.Template == nil {
		return nil
	}
	return a.obj.Spec.Template.Spec.Containers
}
