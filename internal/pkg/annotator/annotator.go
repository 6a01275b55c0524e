// Package annotator provides the pure, I/O-free helpers over the
// opsguru.signature annotation scheme: the opt-in signature a workload must
// carry to be managed, and the per-dependency version annotations the
// controller maintains to know whether a workload has already seen the
// current revision of a ConfigMap or Secret.
package annotator

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// Domain is the annotation namespace every key of this scheme lives under.
const Domain = "opsguru.signature"

// ShouldUpdateKey is the operator-placed opt-in annotation. A workload is
// only ever patched when it carries this annotation with ShouldUpdateValue.
const ShouldUpdateKey = Domain + "/should_update"

// ShouldUpdateValue is the only value that counts as opted in.
const ShouldUpdateValue = "True"

// HasSignature reports whether the workload opted in to being managed.
func HasSignature(annotations map[string]string) bool {
	return annotations[ShouldUpdateKey] == ShouldUpdateValue
}

// VersionAnnotationKey returns the per-dependency annotation key for a
// ConfigMap or Secret named cfgName, e.g. "opsguru.signature/ConfigMap.app-cfg".
func VersionAnnotationKey(cfgKind, cfgName string) string {
	return fmt.Sprintf("%s/%s.%s", Domain, cfgKind, cfgName)
}

// CurrentVersion reads the last-recorded resourceVersion for (cfgKind,
// cfgName) from a workload's pod template annotations. ok is false when no
// such annotation has been written yet.
func CurrentVersion(podTemplateAnnotations map[string]string, cfgKind, cfgName string) (version string, ok bool) {
	version, ok = podTemplateAnnotations[VersionAnnotationKey(cfgKind, cfgName)]
	return version, ok
}

// IsUpToDate reports whether the workload's recorded version for (cfgKind,
// cfgName) already equals resourceVersion, meaning a patch would be a no-op.
func IsUpToDate(podTemplateAnnotations map[string]string, cfgKind, cfgName, resourceVersion string) bool {
	current, ok := CurrentVersion(podTemplateAnnotations, cfgKind, cfgName)
	return ok && current == resourceVersion
}

// BuildPatch returns the strategic-merge patch body that sets exactly the
// given annotation keys/values on spec.template.metadata.annotations. All
// values are strings; no other field of the workload is touched. The result
// marshals with encoding/json to exactly
// {"spec":{"template":{"metadata":{"annotations":{...}}}}} -- deliberately a
// plain map tree rather than typed metav1/corev1 structs, since those carry
// many other fields that only omit from JSON when the zero value is a basic
// type, not a struct, and would otherwise leak into the patch body.
func BuildPatch(changes map[string]string) map[string]any {
	return map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"metadata": map[string]any{
					"annotations": changes,
				},
			},
		},
	}
}

// PodTemplateAnnotations is a small convenience reader shared by callers that
// only have a corev1.PodTemplateSpec at hand (most callers go through
// workload.Accessor instead).
func PodTemplateAnnotations(tmpl corev1.PodTemplateSpec) map[string]string {
	return tmpl.Annotations
}
