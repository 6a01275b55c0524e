package workload

import (
	corev1 "k8s.io/api/core/v1"
)

// Accessor is the read-only surface the resolver needs from a workload, regardless of its concrete Kind. It deliberately exposes
// only what the resolution algorithm and the annotator
// §4.1) require, so neither has to type-switch over the four concrete
// k8s.io/api types.
type Accessor interface {
	Kind() Kind
	GetName() string
	GetNamespace() string

	// GetAnnotations returns the workload's own metadata.annotations, where
	// the opt-in signature lives.
	GetAnnotations() map[string]string

	// GetPodTemplateAnnotations returns spec.template.metadata.annotations,
	// where the controller-managed version annotations live.
	GetPodTemplateAnnotations() map[string]string

	// GetVolumes returns spec.template.spec.volumes.
	GetVolumes() []corev1.Volume

	// GetContainers returns spec.template.spec.containers.
	GetContainers() []corev1.Container
}
