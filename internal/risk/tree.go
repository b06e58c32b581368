package risk

import (
	"math"
	"strings"

	"riskPlanner/internal/domain"
)

const (
	// DefaultRewardRatio is the engine-wide reward-to-risk ratio: a winning
	// trade gains rewardRatio times its risk.
	DefaultRewardRatio = 2.0

	// winProbability is the fixed, independent per-branch win probability used
	// for leaf probabilities. It is not calibrated from trade history.
	winProbability = 0.5

	// maxCompoundingDepth caps the gain-side compounding chain. Paths that
	// reach the cap without hitting the daily target are truncated into a
	// "continues" leaf rather than recursed further.
	maxCompoundingDepth = 4
)

// BuildTree constructs the complete binary outcome tree for one trading day.
// The loss subtree walks the recovery sequence, the gain subtree follows the
// policy's gain mode. It returns nil only when situations is empty, which
// indicates a caller-side invariant violation (BuildSituations never returns an
// empty sequence). All numeric degeneracies resolve to a classified leaf; the
// builder never panics.
func BuildTree(
	situations []domain.TradeSituation,
	rewardRatio float64,
	recovery domain.LossRecovery,
	gainMode domain.GainMode,
	baseRiskCents int64,
	stopAfterSequence bool,
) *domain.Tree {
	if len(situations) == 0 {
		return nil
	}

	b := &treeBuilder{
		situations:        situations,
		rewardRatio:       rewardRatio,
		executeAll:        recovery.ExecuteAllRegardless,
		stopAfterSequence: stopAfterSequence,
		gainMode:          gainMode,
		baseRisk:          baseRiskCents,
	}

	rootRisk := situations[0].RiskCents
	root := &domain.TreeNode{
		Kind:        domain.NodeRoot,
		TradeNumber: situations[0].TradeNumber,
		RiskCents:   rootRisk,
		Probability: 1,
	}
	// Loss child is built before the gain child everywhere so that leaf indexes
	// come out in left-to-right traversal order.
	root.Loss = b.lossSubtree(0, -rootRisk, []string{"L"}, 0, 1, 1)
	root.Gain = b.gainSubtree(domain.ScaleCents(rootRisk, rewardRatio), []string{"G"}, 1, 0, 1)

	return &domain.Tree{Root: root, Leaves: b.leaves, MaxDepth: b.maxDepth}
}

// treeBuilder threads the construction accumulators (leaf list, leaf index,
// max depth) explicitly through the recursion.
type treeBuilder struct {
	situations        []domain.TradeSituation
	rewardRatio       float64
	executeAll        bool
	stopAfterSequence bool
	gainMode          domain.GainMode
	baseRisk          int64

	leaves   []*domain.TreeNode
	maxDepth int
}

// lossSubtree builds the recovery chain starting at the given recovery-step
// index, carrying the cumulative P&L and path so far.
func (b *treeBuilder) lossSubtree(stepIndex int, pnlCents int64, path []string, wins, losses, depth int) *domain.TreeNode {
	situationIdx := stepIndex + 1
	if situationIdx >= len(b.situations) {
		// Recovery sequence exhausted (possibly zero configured steps).
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafStop)
	}

	situation := b.situations[situationIdx]
	lastStep := situationIdx == len(b.situations)-1
	node := &domain.TreeNode{
		Kind:        domain.NodeDecision,
		TradeNumber: situation.TradeNumber,
		RiskCents:   situation.RiskCents,
		Probability: pathProbability(wins, losses),
		Depth:       depth,
	}

	lossPnl := pnlCents - situation.RiskCents
	if lastStep {
		node.Loss = b.leaf(lossPnl, extend(path, "L"), wins, losses+1, depth+1, domain.LeafStop)
	} else {
		node.Loss = b.lossSubtree(stepIndex+1, lossPnl, extend(path, "L"), wins, losses+1, depth+1)
	}

	gainPnl := pnlCents + domain.ScaleCents(situation.RiskCents, b.rewardRatio)
	if !b.executeAll || lastStep {
		// A recovery win ends the day; the policy decides whether that counts
		// as a stop or a voluntary exit.
		status := domain.LeafExit
		if b.stopAfterSequence {
			status = domain.LeafStop
		}
		node.Gain = b.leaf(gainPnl, extend(path, "G"), wins+1, losses, depth+1, status)
	} else {
		// Execute-all-regardless: the win does not end the day, trading
		// continues through the remaining configured steps.
		node.Gain = b.lossSubtree(stepIndex+1, gainPnl, extend(path, "G"), wins+1, losses, depth+1)
	}
	return node
}

// gainSubtree is entered once, after the root's first win, with the win already
// booked into pnlCents.
func (b *treeBuilder) gainSubtree(pnlCents int64, path []string, wins, losses, depth int) *domain.TreeNode {
	switch b.gainMode.Kind {
	case domain.GainSingleTarget:
		return b.singleTargetSubtree(pnlCents, path, wins, losses, depth)
	case domain.GainCompounding:
		return b.compoundingSubtree(pnlCents, 0, path, wins, losses, depth)
	default:
		// Unrecognized gain mode: the day's outcome past this point cannot be
		// sized, so the path is left unresolved.
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafContinues)
	}
}

func (b *treeBuilder) singleTargetSubtree(pnlCents int64, path []string, wins, losses, depth int) *domain.TreeNode {
	var targetCents int64
	if b.gainMode.SingleTarget != nil {
		targetCents = b.gainMode.SingleTarget.DailyTargetCents
	}
	gainPerTrade := domain.ScaleCents(b.baseRisk, b.rewardRatio)
	if gainPerTrade <= 0 {
		// Base risk collapsed to zero; no further trade can be sized.
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafContinues)
	}
	tradesToTarget := ceilDiv(targetCents, gainPerTrade)
	if tradesToTarget <= 1 {
		// The root's win alone already reaches the target.
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafTarget)
	}
	return b.singleTargetChain(pnlCents, 1, tradesToTarget, gainPerTrade, path, wins, losses, depth)
}

// singleTargetChain builds one constant-size decision per remaining trade: a
// loss on the gain side ends the day, gains accumulate until the target count.
func (b *treeBuilder) singleTargetChain(pnlCents int64, gainsSoFar, tradesToTarget, gainPerTrade int64, path []string, wins, losses, depth int) *domain.TreeNode {
	node := &domain.TreeNode{
		Kind:        domain.NodeDecision,
		TradeNumber: wins + losses + 1,
		RiskCents:   b.baseRisk,
		Probability: pathProbability(wins, losses),
		Depth:       depth,
	}

	node.Loss = b.leaf(pnlCents-b.baseRisk, extend(path, "L"), wins, losses+1, depth+1, domain.LeafStop)

	gainPnl := pnlCents + gainPerTrade
	if gainsSoFar+1 >= tradesToTarget {
		node.Gain = b.leaf(gainPnl, extend(path, "G"), wins+1, losses, depth+1, domain.LeafTarget)
	} else {
		node.Gain = b.singleTargetChain(gainPnl, gainsSoFar+1, tradesToTarget, gainPerTrade, extend(path, "G"), wins+1, losses, depth+1)
	}
	return node
}

// compoundingSubtree reinvests a percentage of accumulated gains at each level,
// bounded by maxCompoundingDepth.
func (b *treeBuilder) compoundingSubtree(pnlCents int64, compoundDepth int, path []string, wins, losses, depth int) *domain.TreeNode {
	var reinvestPct float64
	var targetCents *int64
	if b.gainMode.Compounding != nil {
		reinvestPct = b.gainMode.Compounding.ReinvestmentPercent
		targetCents = b.gainMode.Compounding.DailyTargetCents
	}

	if targetCents != nil && pnlCents >= *targetCents {
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafTarget)
	}
	if compoundDepth >= maxCompoundingDepth {
		// Truncated, not terminated: the probability mass under this path is
		// real but unresolved.
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafContinues)
	}

	riskCents := domain.PercentOf(pnlCents, reinvestPct)
	if riskCents <= 0 {
		// Reinvestment base collapsed to zero; cannot size a next trade.
		return b.leaf(pnlCents, path, wins, losses, depth, domain.LeafContinues)
	}

	node := &domain.TreeNode{
		Kind:        domain.NodeDecision,
		TradeNumber: wins + losses + 1,
		RiskCents:   riskCents,
		Probability: pathProbability(wins, losses),
		Depth:       depth,
	}
	node.Loss = b.leaf(pnlCents-riskCents, extend(path, "L"), wins, losses+1, depth+1, domain.LeafStop)
	node.Gain = b.compoundingSubtree(pnlCents+domain.ScaleCents(riskCents, b.rewardRatio), compoundDepth+1, extend(path, "G"), wins+1, losses, depth+1)
	return node
}

func (b *treeBuilder) leaf(pnlCents int64, path []string, wins, losses, depth int, status domain.LeafStatus) *domain.TreeNode {
	n := &domain.TreeNode{
		Kind:          domain.NodeLeaf,
		Probability:   pathProbability(wins, losses),
		Depth:         depth,
		TotalPnlCents: pnlCents,
		PathPattern:   strings.Join(path, "-"),
		Wins:          wins,
		Losses:        losses,
		Status:        status,
		LeafIndex:     len(b.leaves),
	}
	b.leaves = append(b.leaves, n)
	if depth > b.maxDepth {
		b.maxDepth = depth
	}
	return n
}

func pathProbability(wins, losses int) float64 {
	return math.Pow(winProbability, float64(wins)) * math.Pow(1-winProbability, float64(losses))
}

// extend copies the path before appending so sibling branches never share a
// backing array.
func extend(path []string, token string) []string {
	next := make([]string, len(path), len(path)+1)
	copy(next, path)
	return append(next, token)
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
