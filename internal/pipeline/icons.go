package pipeline

import (
	"maps"

	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
)

const (
	DefaultFallbackIcon   = "step-generic"
	DefaultDependencyIcon = "dependency-step"
)

var defaultIcons = map[string]string{
	"Run":                        "run-step",
	"RunTests":                   "run-tests",
	"Plugin":                     "plugin",
	"BuildAndPushDockerRegistry": "docker",
	"BuildAndPushECR":            "ecr",
	"BuildAndPushGCR":            "gcr",
	"SaveCacheS3":                "s3-cache",
	"RestoreCacheS3":             "s3-cache",
	"SaveCacheGCS":               "gcs-cache",
	"RestoreCacheGCS":            "gcs-cache",
	"S3Upload":                   "s3-upload",
	"GCSUpload":                  "gcs-upload",
	"CI":                         "ci-stage",
	"ci":                         "ci-stage",
	"Deployment":                 "cd-stage",
	"Approval":                   "approval",
	graph.StepTypeFork:           "fork",
	graph.StepTypeLiteEngineTask: "initialize",
}

// IconTable maps step types to icon names. It is immutable after creation.
type IconTable struct {
	byType     map[string]string
	fallback   string
	dependency string
}

// DefaultIcons returns the built-in table.
func DefaultIcons() *IconTable {
	return NewIconTable(nil, "", "")
}

// NewIconTable layers overrides on top of the built-in table. Empty fallback
// or dependency icons keep the defaults.
func NewIconTable(overrides map[string]string, fallback, dependency string) *IconTable {
	t := &IconTable{
		byType:     maps.Clone(defaultIcons),
		fallback:   DefaultFallbackIcon,
		dependency: DefaultDependencyIcon,
	}
	for k, v := range overrides {
		t.byType[k] = v
	}
	if fallback != "" {
		t.fallback = fallback
	}
	if dependency != "" {
		t.dependency = dependency
	}
	return t
}

// Lookup returns the icon for stepType, or the fallback icon.
func (t *IconTable) Lookup(stepType string) string {
	if icon, ok := t.byType[stepType]; ok {
		return icon
	}
	return t.fallback
}

// Dependency is the fixed icon for service-dependency items.
func (t *IconTable) Dependency() string { return t.dependency }

// Snapshot returns a copy of the table, including the fallback and
// dependency icons under their own keys.
func (t *IconTable) Snapshot() map[string]string {
	out := maps.Clone(t.byType)
	out["*fallback"] = t.fallback
	out["*dependency"] = t.dependency
	return out
}
