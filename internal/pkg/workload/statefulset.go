package workload

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// statefulSetAccessor adapts an appsv1.StatefulSet to Accessor.
type statefulSetAccessor struct {
	obj *appsv1.StatefulSet
}

func (a statefulSetAccessor) Kind() Kind           { return KindStatefulSet }
func (a statefulSetAccessor) GetName() string      { return a.obj.Name }
func (a statefulSetAccessor) GetNamespace() string { return a.obj.Namespace }

func (a statefulSetAccessor) GetAnnotations() map[string]string {
	return a.obj.Annotations
}

func (a statefulSetAccessor) GetPodTemplateAnnotations() map[string]string {
	return a.obj.Spec.Template.Annotations
}

func (a statefulSetAccessor) GetVolumes() []corev1.Volume {
	return a.obj.Spec.Template.Spec.Volumes
}

func (a statefulSetAccessor) GetContainers() []corev1.Container {
	return a.obj.Spec.Template.Spec.Containers
}
