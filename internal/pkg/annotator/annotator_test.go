package annotator

import (
	"encoding/json"
	"testing"
)

func TestHasSignature(t *testing.T) {
	tests := []struct {
		name string
		ann  map[string]string
		want bool
	}{
		{"opted in", map[string]string{ShouldUpdateKey: "True"}, true},
		{"wrong value", map[string]string{ShouldUpdateKey: "true"}, false},
		{"missing", map[string]string{}, false},
		{"nil map", nil, false},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				if got := HasSignature(tt.ann); got != tt.want {
					t.Errorf("HasSignature() = %v, want %v", got, tt.want)
				}
			},
		)
	}
}

func TestVersionAnnotationKey(t *testing.T) {
	got := VersionAnnotationKey("ConfigMap", "app-cfg")
	want := "opsguru.signature/ConfigMap.app-cfg"
	if got != want {
		t.Errorf("VersionAnnotationKey() = %q, want %q", got, want)
	}
}

func TestCurrentVersion(t *testing.T) {
	ann := map[string]string{
		VersionAnnotationKey("ConfigMap", "app-cfg"): "42",
	}

	if v, ok := CurrentVersion(ann, "ConfigMap", "app-cfg"); !ok || v != "42" {
		t.Errorf("CurrentVersion() = (%q, %v), want (42, true)", v, ok)
	}

	if _, ok := CurrentVersion(ann, "ConfigMap", "other"); ok {
		t.Error("CurrentVersion() should report absent for an unseen dependency")
	}
}

func TestIsUpToDate(t *testing.T) {
	ann := map[string]string{
		VersionAnnotationKey("Secret", "db"): "11",
	}

	if !IsUpToDate(ann, "Secret", "db", "11") {
		t.Error("IsUpToDate() should be true when the recorded version matches")
	}
	if IsUpToDate(ann, "Secret", "db", "12") {
		t.Error("IsUpToDate() should be false when the resourceVersion has moved on")
	}
	if IsUpToDate(ann, "Secret", "unknown", "1") {
		t.Error("IsUpToDate() should be false for a dependency never recorded")
	}
}

func TestBuildPatch(t *testing.T) {
	changes := map[string]string{
		VersionAnnotationKey("ConfigMap", "app-cfg"): "42",
	}

	body, err := json.Marshal(BuildPatch(changes))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	want := `{"spec":{"template":{"metadata":{"annotations":{"opsguru.signature/ConfigMap.app-cfg":"42"}}}}}`
	if string(body) != want {
		t.Errorf("BuildPatch() JSON = %s, want %s", body, want)
	}
}
