package domain

// NodeKind discriminates the three variants of a decision-tree node.
type NodeKind string

const (
	NodeRoot     NodeKind = "root"
	NodeDecision NodeKind = "decision"
	NodeLeaf     NodeKind = "leaf"
)

// LeafStatus is the terminal classification of a tree path.
type LeafStatus string

const (
	// LeafStop: a loss limit was hit or the recovery sequence was exhausted.
	LeafStop LeafStatus = "stop"
	// LeafTarget: the daily profit target was reached.
	LeafTarget LeafStatus = "target"
	// LeafExit: the recovery sequence was won and the day ends by policy choice.
	LeafExit LeafStatus = "exit"
	// LeafContinues: the path was truncated at the recursion depth cap; the
	// probability mass under it is real but unresolved.
	LeafContinues LeafStatus = "continues"
)

// TreeNode is one node of the outcome tree. Kind discriminates the variant:
// root and decision nodes always carry exactly two children (Loss, Gain), leaf
// nodes carry neither and fill in the terminal fields instead.
type TreeNode struct {
	Kind        NodeKind `json:"kind"`
	TradeNumber int      `json:"trade_number,omitempty"`
	RiskCents   int64    `json:"risk_cents,omitempty"`
	Probability float64  `json:"probability"`
	Depth       int      `json:"depth"`

	Loss *TreeNode `json:"loss,omitempty"`
	Gain *TreeNode `json:"gain,omitempty"`

	// Leaf-only fields.
	TotalPnlCents int64      `json:"total_pnl_cents"`
	PathPattern   string     `json:"path_pattern,omitempty"`
	Wins          int        `json:"wins"`
	Losses        int        `json:"losses"`
	Status        LeafStatus `json:"status,omitempty"`
	LeafIndex     int        `json:"leaf_index"`
}

// IsLeaf reports whether the node is terminal.
func (n *TreeNode) IsLeaf() bool {
	return n.Kind == NodeLeaf
}

// Tree is the complete binary outcome tree for one trading day under a policy.
// Leaves are listed in left-to-right construction order (loss branch before gain
// branch); LeafIndex matches the position in Leaves.
type Tree struct {
	Root     *TreeNode   `json:"root"`
	Leaves   []*TreeNode `json:"leaves"`
	MaxDepth int         `json:"max_depth"`
}
