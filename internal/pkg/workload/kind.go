// Package workload provides a uniform, kind-agnostic view over the four
// workload types the controller can patch: Deployment, DaemonSet,
// ReplicationController, and StatefulSet. It plays the role of the
// reference design's dynamic dispatch table (see Design Notes §9 of the
// spec) as a typed Go map instead of runtime dictionary lookup.
package workload

// Kind identifies a supported workload type. String values match the
// Kubernetes Kind field exactly, since they are also used in Event object
// references, metric labels, and log fields.
type Kind string

const (
	KindDeployment            Kind = "Deployment"
	KindDaemonSet             Kind = "DaemonSet"
	KindReplicationController Kind = "ReplicationController"
	KindStatefulSet           Kind = "StatefulSet"
)

// SupportedKinds lists every kind the worker knows how to dispatch to.
func SupportedKinds() []Kind {
	return []Kind{KindDeployment, KindDaemonSet, KindReplicationController, KindStatefulSet}
}
