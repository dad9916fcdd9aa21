package model

import (
	"fmt"
	"time"

	"house-price-api/internal/features"
	"house-price-api/pkg/registry"
)

// Load reads the artifact at path and returns a Handle. It never fails hard:
// a missing or corrupt artifact yields a failed Handle so the server can still
// start and report the problem on /health.
//
// modelType, when non-empty, must match the artifact's declared type. The
// artifact's feature order must equal schema.
func Load(modelType, path string, schema features.Schema) *Handle {
	info := Info{ModelType: modelType, Path: path, LoadedAt: time.Now().UTC()}

	artifact, err := registry.LoadArtifact(path)
	if err != nil {
		return Failed(fmt.Errorf("load model artifact: %w", err), info)
	}
	info.Name = artifact.Name
	info.Version = artifact.Version
	info.ModelType = artifact.ModelType
	info.Digest = artifact.Digest

	if modelType != "" && modelType != artifact.ModelType {
		return Failed(fmt.Errorf("configured model type %q but artifact is %q", modelType, artifact.ModelType), info)
	}

	p, err := FromArtifact(artifact, schema)
	if err != nil {
		return Failed(err, info)
	}
	return NewHandle(p, info)
}

// FromArtifact builds a Predictor and checks it against schema.
func FromArtifact(a *registry.ModelArtifact, schema features.Schema) (Predictor, error) {
	if len(a.FeatureNames) > 0 {
		if err := schema.Matches(a.FeatureNames); err != nil {
			return nil, fmt.Errorf("artifact feature order does not match schema: %w", err)
		}
	}

	switch a.ModelType {
	case registry.ModelTypeLinear:
		if a.Linear == nil {
			return nil, registry.ErrEmptyModel
		}
		if len(a.Linear.Weights) != schema.Len() {
			return nil, fmt.Errorf("model expects %d features, schema has %d", len(a.Linear.Weights), schema.Len())
		}
		return NewLinearRegression(a.Linear.Weights, a.Linear.Bias)
	case registry.ModelTypeDecisionTree, registry.ModelTypeRandomForest:
		return NewTreeEnsemble(a.Trees, schema.Len())
	default:
		return nil, fmt.Errorf("%w: %q", registry.ErrUnknownModelType, a.ModelType)
	}
}
