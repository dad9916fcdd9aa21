// pkg/registry/schema.go
package registry

// Supported model types.
const (
	ModelTypeLinear       = "linear_regression"
	ModelTypeDecisionTree = "decision_tree"
	ModelTypeRandomForest = "random_forest"
)

// ModelArtifact is the on-disk form of a trained regression model.
type ModelArtifact struct {
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	CreatedAt    string        `json:"createdAt"`
	Description  string        `json:"description,omitempty"`
	ModelType    string        `json:"modelType"`
	FeatureNames []string      `json:"featureNames,omitempty"`
	Linear       *LinearParams `json:"linear,omitempty"`
	Trees        [][]TreeNode  `json:"trees,omitempty"`
	Metrics      TrainMetrics  `json:"metrics,omitempty"`

	// Digest is the hex sha256 of the file the artifact was read from.
	Digest string `json:"-"`
}

// LinearParams holds an ordinary least squares fit.
type LinearParams struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TreeNode is one node of a flattened regression tree. Index 0 is the root.
type TreeNode struct {
	FeatureIdx int     `json:"featureIdx"`
	Threshold  float64 `json:"threshold"`
	Left       int     `json:"left"`
	Right      int     `json:"right"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"isLeaf"`
}

// TrainMetrics is informational only.
type TrainMetrics struct {
	R2   float64 `json:"r2,omitempty"`
	RMSE float64 `json:"rmse,omitempty"`
	MAE  float64 `json:"mae,omitempty"`
}
