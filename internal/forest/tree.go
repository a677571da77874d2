package forest

import (
	"math/rand/v2"
	"sort"
)

// featureThreshold is the minimum gap between two values for a split to be placed between them.
const featureThreshold = 1e-7

const leaf = -1

// Node is a flattened tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	// Positive is the weighted fraction of positive samples that reached the node.
	Positive float64 `json:"p"`
}

// Tree is a binary CART classification tree grown with gini impurity.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type sample struct {
	value  float64
	label  int
	weight float64
}

type builder struct {
	x           [][]float64
	y           []int
	weights     []float64
	maxFeatures int
	rng         *rand.Rand
	tree        *Tree
	buf         []sample
}

func newLeafTree(positive float64) *Tree {
	return &Tree{Nodes: []Node{{Feature: leaf, Positive: positive}}}
}

// growTree fits a fully grown tree on the samples with non-zero weight.
func growTree(x [][]float64, y []int, weights []float64, maxFeatures int, rng *rand.Rand) *Tree {
	b := &builder{
		x:           x,
		y:           y,
		weights:     weights,
		maxFeatures: maxFeatures,
		rng:         rng,
		tree:        &Tree{},
	}

	indices := make([]int, 0, len(x))
	for i, w := range weights {
		if w > 0 {
			indices = append(indices, i)
		}
	}

	b.build(indices)

	return b.tree
}

func (b *builder) build(indices []int) int {
	id := len(b.tree.Nodes)

	var total, positive float64
	for _, i := range indices {
		total += b.weights[i]
		if b.y[i] == 1 {
			positive += b.weights[i]
		}
	}

	node := Node{Feature: leaf}
	if total > 0 {
		node.Positive = positive / total
	}
	b.tree.Nodes = append(b.tree.Nodes, node)

	if len(indices) < 2 || positive == 0 || positive == total {
		return id
	}

	feature, threshold, ok := b.bestSplit(indices, total, positive)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.tree.Nodes[id].Feature = feature
	b.tree.Nodes[id].Threshold = threshold
	b.tree.Nodes[id].Left = b.build(left)
	b.tree.Nodes[id].Right = b.build(right)

	return id
}

// bestSplit draws candidate features in random order until maxFeatures have been
// visited and at least one of them was non-constant in the node.
func (b *builder) bestSplit(indices []int, total, positive float64) (int, float64, bool) {
	features := b.rng.Perm(len(b.x[0]))

	bestFeature, bestThreshold := leaf, 0.0
	bestImpurity := 0.0
	found := false
	visited, nonConstant := 0, 0

	for _, f := range features {
		if visited >= b.maxFeatures && nonConstant > 0 {
			break
		}
		visited++

		samples := b.collect(indices, f)
		if samples[len(samples)-1].value <= samples[0].value+featureThreshold {
			continue
		}
		nonConstant++

		var leftTotal, leftPositive float64
		for i := 0; i < len(samples)-1; i++ {
			leftTotal += samples[i].weight
			if samples[i].label == 1 {
				leftPositive += samples[i].weight
			}

			if samples[i+1].value <= samples[i].value+featureThreshold {
				continue
			}

			impurity := weightedGini(leftTotal, leftPositive) +
				weightedGini(total-leftTotal, positive-leftPositive)

			if !found || impurity < bestImpurity {
				found = true
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = samples[i].value/2 + samples[i+1].value/2
				if bestThreshold == samples[i+1].value {
					bestThreshold = samples[i].value
				}
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func (b *builder) collect(indices []int, feature int) []sample {
	b.buf = b.buf[:0]
	for _, i := range indices {
		b.buf = append(b.buf, sample{value: b.x[i][feature], label: b.y[i], weight: b.weights[i]})
	}
	sort.Slice(b.buf, func(i, j int) bool { return b.buf[i].value < b.buf[j].value })

	return b.buf
}

// weightedGini returns the gini impurity of a child scaled by its weight.
func weightedGini(total, positive float64) float64 {
	if total <= 0 {
		return 0
	}

	p := positive / total
	return total * 2 * p * (1 - p)
}

// Predict returns the positive-class fraction of the leaf that x falls into.
func (t *Tree) Predict(x []float64) float64 {
	id := 0
	for {
		node := t.Nodes[id]
		if node.Feature == leaf {
			return node.Positive
		}

		if x[node.Feature] <= node.Threshold {
			id = node.Left
		} else {
			id = node.Right
		}
	}
}

// Depth returns the number of edges on the longest root to leaf path.
func (t *Tree) Depth() int {
	return t.depth(0)
}

func (t *Tree) depth(id int) int {
	node := t.Nodes[id]
	if node.Feature == leaf {
		return 0
	}

	return 1 + max(t.depth(node.Left), t.depth(node.Right))
}

// Leaves returns the number of leaf nodes.
func (t *Tree) Leaves() int {
	count := 0
	for _, node := range t.Nodes {
		if node.Feature == leaf {
			count++
		}
	}

	return count
}
