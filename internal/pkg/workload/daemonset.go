package workload

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// daemonSetAccessor adapts an appsv1.DaemonSet to Accessor.
type daemonSetAccessor struct {
	obj *appsv1.DaemonSet
}

func (a daemonSetAccessor) Kind() Kind           { return KindDaemonSet }
func (a daemonSetAccessor) GetName() string      { return a.obj.Name }
func (a daemonSetAccessor) GetNamespace() string { return a.obj.Namespace }

func (a daemonSetAccessor) GetAnnotations() map[string]string {
	return a.obj.Annotations
}

func (a daemonSetAccessor) GetPodTemplateAnnotations() map[string]string {
	return a.obj.Spec.Template.Annotations
}

func (a daemonSetAccessor) GetVolumes() []corev1.Volume {
	return a.obj.Spec.Template.Spec.Volumes
}

func (a daemonSetAccessor) GetContainers() []corev1.Container {
	return a.obj.Spec.Template.Spec.Containers
}
