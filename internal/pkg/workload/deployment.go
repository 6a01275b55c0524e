package workload

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// deploymentAccessor adapts an appsv1.Deployment to Accessor.
type deploymentAccessor struct {
	obj *appsv1.Deployment
}

func (a deploymentAccessor) Kind() Kind             { return KindDeployment }
func (a deploymentAccessor) GetName() string        { return a.obj.Name }
func (a deploymentAccessor) GetNamespace() string   { return a.obj.Namespace }
func (a deploymentAccessor) GetAnnotations() map[string]string {
	return a.obj.Annotations
}

func (a deploymentAccessor) GetPodTemplateAnnotations() map[string]string {
	return a.obj.Spec.Template.Annotations
}

func (a deploymentAccessor) GetVolumes() []corev1.Volume {
	return a.obj.Spec.Template.Spec.Volumes
}

func (a deploymentAccessor) GetContainers() []corev1.Container {
	return a.obj.Spec.Template.Spec.Containers
}
