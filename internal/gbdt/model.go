// Package gbdt implements inference for a pre-trained gradient-boosted
// decision tree binary classifier.
//
// The model artifact is a JSON document exported at training time: a base
// score in log-odds, a list of regression trees, and the ordered list of
// feature names the trees were fitted against. Prediction sums the leaf
// value of every tree and squashes through the sigmoid to get P(fraud).
// Training is out of scope; this package only evaluates.
package gbdt

import (
	"encoding/json"
	"fmt"
	"math"
)

// Class labels produced by the classifier.
const (
	LabelLegitimate = 0
	LabelFraud      = 1
)

// Node is a single tree node. Internal nodes route on
// features[Feature] < Threshold (left on true); leaf nodes carry the raw
// score contribution in Value. Child indexes must point forward in the
// node array, which guarantees traversal terminates.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is one regression tree of the ensemble, nodes stored root-first.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// score traverses the tree for one feature vector and returns the leaf value.
func (t Tree) score(features []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if features[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a loaded, immutable GBDT ensemble.
type Model struct {
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	BaseScore    float64  `json:"base_score"`
	Trees        []Tree   `json:"trees"`
}

// Prediction is the classifier output for one feature vector: the predicted
// class label and the probability distribution over both classes.
type Prediction struct {
	Label         int
	Probabilities [2]float64 // index 0 legitimate, index 1 fraud
}

// IsFraud reports whether the predicted class is fraud.
func (p Prediction) IsFraud() bool {
	return p.Label == LabelFraud
}

// Confidence is the probability mass assigned to the predicted class.
func (p Prediction) Confidence() float64 {
	return p.Probabilities[p.Label]
}

// Parse decodes and structurally validates a model artifact.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("model artifact has no feature names")
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model artifact has no trees")
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.FeatureNames) {
				return fmt.Errorf("tree %d node %d references feature %d of %d", ti, ni, n.Feature, len(m.FeatureNames))
			}
			// Forward-pointing children make cycles impossible.
			if n.Left <= ni || n.Left >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid left child %d", ti, ni, n.Left)
			}
			if n.Right <= ni || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid right child %d", ti, ni, n.Right)
			}
		}
	}
	return nil
}

// FraudProbability returns P(fraud) for a feature vector in the model's
// feature order. Pure function of its input: identical vectors always yield
// identical probabilities.
func (m *Model) FraudProbability(features []float64) (float64, error) {
	if len(features) != len(m.FeatureNames) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(features), len(m.FeatureNames))
	}

	score := m.BaseScore
	for _, tree := range m.Trees {
		score += tree.score(features)
	}
	return sigmoid(score), nil
}

// Predict runs the classifier and returns the label with its probability
// distribution. The decision threshold is 0.5, matching the training
// objective.
func (m *Model) Predict(features []float64) (Prediction, error) {
	pFraud, err := m.FraudProbability(features)
	if err != nil {
		return Prediction{}, err
	}

	label := LabelLegitimate
	if pFraud >= 0.5 {
		label = LabelFraud
	}
	return Prediction{
		Label:         label,
		Probabilities: [2]float64{1 - pFraud, pFraud},
	}, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
