package risk

import "riskPlanner/internal/domain"

// PositionedNode is a tree node with 2-D coordinates assigned for rendering.
type PositionedNode struct {
	Node *domain.TreeNode `json:"node"`
	X    float64          `json:"x"`
	Y    float64          `json:"y"`
}

// LayoutOptions controls the spacing of the computed geometry. Zero values fall
// back to the defaults.
type LayoutOptions struct {
	LeafSpacing float64
	LevelHeight float64
}

const (
	defaultLeafSpacing = 120
	defaultLevelHeight = 90
)

// LayoutTree assigns coordinates to every node of the tree: leaves are spaced
// evenly along the X axis in leaf order, internal nodes sit at the midpoint of
// their children (computed bottom-up), and Y grows with depth. The returned
// slice lists children before their parent; the root is last. Drawing and
// styling are the renderer's concern.
func LayoutTree(tree *domain.Tree, opts LayoutOptions) []PositionedNode {
	if tree == nil || tree.Root == nil {
		return nil
	}
	if opts.LeafSpacing <= 0 {
		opts.LeafSpacing = defaultLeafSpacing
	}
	if opts.LevelHeight <= 0 {
		opts.LevelHeight = defaultLevelHeight
	}

	out := make([]PositionedNode, 0, 2*len(tree.Leaves))
	layoutNode(tree.Root, opts, &out)
	return out
}

func layoutNode(n *domain.TreeNode, opts LayoutOptions, out *[]PositionedNode) float64 {
	y := float64(n.Depth) * opts.LevelHeight
	if n.IsLeaf() {
		x := float64(n.LeafIndex) * opts.LeafSpacing
		*out = append(*out, PositionedNode{Node: n, X: x, Y: y})
		return x
	}
	lossX := layoutNode(n.Loss, opts, out)
	gainX := layoutNode(n.Gain, opts, out)
	x := (lossX + gainX) / 2
	*out = append(*out, PositionedNode{Node: n, X: x, Y: y})
	return x
}
