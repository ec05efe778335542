// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"

	"github.com/adxyz/ctr/feature"
)

// GBDT is the gradient-boosted-tree predictor variant: shallow
// regression trees fit to logistic-loss gradients, one Newton-step leaf
// value per leaf.
type GBDT struct {
	trees     []*treeNode
	baseScore float64

	numRound     int
	maxDepth     int
	learningRate float64
	minLeafRows  int
	trained      bool
}

type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Value     float64   `json:"value"`
	Leaf      bool      `json:"leaf"`
}

// NewGBDT creates an untrained gradient-boosted-tree predictor.
func NewGBDT() *GBDT {
	return &GBDT{
		numRound:     10,
		maxDepth:     3,
		learningRate: 0.3,
		minLeafRows:  1,
	}
}

// Train fits numRound boosting rounds against the training set. The
// validation set is accepted to satisfy the capability set; this variant
// does not early-stop on it.
func (g *GBDT) Train(xTrain *feature.Matrix, yTrain []float64, xValid *feature.Matrix, yValid []float64) error {
	if len(xTrain.Rows) == 0 || len(xTrain.Rows) != len(yTrain) {
		return fmt.Errorf("train: %d feature rows for %d labels", len(xTrain.Rows), len(yTrain))
	}

	rows := make([][]float64, len(xTrain.Rows))
	for i, r := range xTrain.Rows {
		row := make([]float64, len(r))
		for j, v := range r {
			row[j] = numericValue(v)
		}
		rows[i] = row
	}

	mean := 0.0
	for _, y := range yTrain {
		mean += y
	}
	mean /= float64(len(yTrain))
	mean = math.Min(math.Max(mean, 1e-6), 1-1e-6)
	g.baseScore = math.Log(mean / (1 - mean))

	score := make([]float64, len(rows))
	for i := range score {
		score[i] = g.baseScore
	}

	g.trees = nil
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	grad := make([]float64, len(rows))
	hess := make([]float64, len(rows))
	for round := 0; round < g.numRound; round++ {
		for i := range rows {
			p := sigmoid(score[i])
			grad[i] = yTrain[i] - p
			hess[i] = p * (1 - p)
		}
		tree := g.buildTree(rows, grad, hess, idx, 0)
		g.trees = append(g.trees, tree)
		for i := range rows {
			score[i] += g.learningRate * evalTree(tree, rows[i])
		}
	}

	g.trained = true
	return nil
}

// buildTree grows one regression tree on the gradient targets, greedy
// best split per node.
func (g *GBDT) buildTree(rows [][]float64, grad, hess []float64, idx []int, depth int) *treeNode {
	if depth >= g.maxDepth || len(idx) <= g.minLeafRows {
		return leafNode(grad, hess, idx)
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	base := splitScore(grad, hess, idx)

	nFeatures := len(rows[idx[0]])
	order := make([]int, len(idx))
	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return rows[order[a]][f] < rows[order[b]][f]
		})

		sumG, sumH := 0.0, 0.0
		totalG, totalH := 0.0, 0.0
		for _, i := range idx {
			totalG += grad[i]
			totalH += hess[i]
		}
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			sumG += grad[i]
			sumH += hess[i]
			left := rows[order[k]][f]
			right := rows[order[k+1]][f]
			if left == right {
				continue
			}
			gain := gainValue(sumG, sumH) + gainValue(totalG-sumG, totalH-sumH) - base
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (left + right) / 2
			}
		}
	}

	if bestFeature < 0 {
		return leafNode(grad, hess, idx)
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if rows[i][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return leafNode(grad, hess, idx)
	}

	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      g.buildTree(rows, grad, hess, leftIdx, depth+1),
		Right:     g.buildTree(rows, grad, hess, rightIdx, depth+1),
	}
}

func leafNode(grad, hess []float64, idx []int) *treeNode {
	sumG, sumH := 0.0, 0.0
	for _, i := range idx {
		sumG += grad[i]
		sumH += hess[i]
	}
	// Newton step with a small ridge term keeps leaves finite when all
	// probabilities saturate.
	return &treeNode{Leaf: true, Value: sumG / (sumH + 1e-6)}
}

func splitScore(grad, hess []float64, idx []int) float64 {
	sumG, sumH := 0.0, 0.0
	for _, i := range idx {
		sumG += grad[i]
		sumH += hess[i]
	}
	return gainValue(sumG, sumH)
}

func gainValue(sumG, sumH float64) float64 {
	return sumG * sumG / (sumH + 1e-6)
}

func evalTree(n *treeNode, row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// PredictProba scores each row as a click probability.
func (g *GBDT) PredictProba(x *feature.Matrix) ([]float64, error) {
	if !g.trained {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(x.Rows))
	for i, r := range x.Rows {
		row := make([]float64, len(r))
		for j, v := range r {
			row[j] = numericValue(v)
		}
		z := g.baseScore
		for _, tree := range g.trees {
			z += g.learningRate * evalTree(tree, row)
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

type gbdtState struct {
	BaseScore    float64     `json:"base_score"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*treeNode `json:"trees"`
}

// Encode serializes the trained ensemble.
func (g *GBDT) Encode() ([]byte, error) {
	if !g.trained {
		return nil, ErrNotTrained
	}
	return json.Marshal(gbdtState{
		BaseScore:    g.baseScore,
		LearningRate: g.learningRate,
		Trees:        g.trees,
	})
}

// Decode restores a trained ensemble from Encode output.
func (g *GBDT) Decode(data []byte) error {
	var state gbdtState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decode gbdt model: %w", err)
	}
	g.baseScore = state.BaseScore
	g.learningRate = state.LearningRate
	g.trees = state.Trees
	g.trained = true
	return nil
}
