package model

import (
	"errors"
	"fmt"

	"house-price-api/pkg/registry"
)

// RegressionTree walks a flattened tree: x[f] <= threshold goes left.
type RegressionTree struct {
	nodes []registry.TreeNode
}

func (t *RegressionTree) predict(features []float64) (float64, error) {
	if len(t.nodes) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	// Children always point forward, so at most len(nodes) steps.
	for steps := 0; steps <= len(t.nodes); steps++ {
		node := t.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("feature index %d out of range", node.FeatureIdx)
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx <= 0 || idx >= len(t.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree did not terminate")
}

// TreeEnsemble averages its trees. A single-tree ensemble is a decision tree.
type TreeEnsemble struct {
	trees       []RegressionTree
	numFeatures int
}

// NewTreeEnsemble copies the node slices; numFeatures may be 0 if unknown.
func NewTreeEnsemble(trees [][]registry.TreeNode, numFeatures int) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, errors.New("ensemble needs at least one tree")
	}
	e := &TreeEnsemble{trees: make([]RegressionTree, len(trees)), numFeatures: numFeatures}
	for i, nodes := range trees {
		cp := make([]registry.TreeNode, len(nodes))
		copy(cp, nodes)
		e.trees[i] = RegressionTree{nodes: cp}
	}
	return e, nil
}

func (e *TreeEnsemble) Predict(features []float64) (float64, error) {
	sum := 0.0
	for i := range e.trees {
		v, err := e.trees[i].predict(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	return sum / float64(len(e.trees)), nil
}

func (e *TreeEnsemble) NumFeatures() int {
	return e.numFeatures
}
