// pkg/registry/registry.go
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrEmptyModel       = errors.New("model has no parameters")
)

// LoadArtifact reads and structurally validates an artifact file.
func LoadArtifact(path string) (*ModelArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	a.Digest = hex.EncodeToString(sum[:])
	return &a, nil
}

// SaveArtifact writes a to path as indented JSON.
func SaveArtifact(path string, a *ModelArtifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// NumFeatures returns the input width the artifact expects, or 0 when it
// cannot be determined (trees without feature names).
func (a *ModelArtifact) NumFeatures() int {
	if len(a.FeatureNames) > 0 {
		return len(a.FeatureNames)
	}
	if a.Linear != nil {
		return len(a.Linear.Weights)
	}
	return 0
}

// Validate checks the artifact is internally consistent.
func (a *ModelArtifact) Validate() error {
	switch a.ModelType {
	case ModelTypeLinear:
		if a.Linear == nil || len(a.Linear.Weights) == 0 {
			return ErrEmptyModel
		}
		if len(a.FeatureNames) > 0 && len(a.FeatureNames) != len(a.Linear.Weights) {
			return fmt.Errorf("featureNames has %d entries but weights has %d",
				len(a.FeatureNames), len(a.Linear.Weights))
		}
		for i, w := range a.Linear.Weights {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("weight %d is not finite", i)
			}
		}
	case ModelTypeDecisionTree, ModelTypeRandomForest:
		if len(a.Trees) == 0 {
			return ErrEmptyModel
		}
		if a.ModelType == ModelTypeDecisionTree && len(a.Trees) != 1 {
			return fmt.Errorf("decision_tree expects exactly 1 tree, got %d", len(a.Trees))
		}
		for i, tree := range a.Trees {
			if err := validateTree(tree, a.NumFeatures()); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModelType, a.ModelType)
	}
	return nil
}

func validateTree(nodes []TreeNode, numFeatures int) error {
	if len(nodes) == 0 {
		return ErrEmptyModel
	}
	for i, n := range nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || (numFeatures > 0 && n.FeatureIdx >= numFeatures) {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.FeatureIdx)
		}
		// Children must point forward so evaluation always terminates.
		if n.Left <= i || n.Left >= len(nodes) || n.Right <= i || n.Right >= len(nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}
