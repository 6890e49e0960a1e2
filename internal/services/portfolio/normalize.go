package portfolio

import (
	"strings"

	"github.com/bobmcallan/iris/internal/models"
)

// Primary-group classification. Precedence: an explicit isPrimary flag from
// the gateway wins; else the broker-name sentinel; else a display-name
// substring match. At most one group is classified primary.
const (
	primaryBrokerSentinel = "alpaca"
	primaryDisplaySubstr  = "IRIS Core"
)

// isPrimaryGroup reports whether a group matches one classification rule.
func isPrimaryGroup(g *models.BrokerGroup, rule int) bool {
	switch rule {
	case 0:
		return g.IsPrimary
	case 1:
		return strings.EqualFold(g.BrokerName, primaryBrokerSentinel)
	default:
		return strings.Contains(g.DisplayName, primaryDisplaySubstr)
	}
}

// findPrimary locates the primary group index, or -1. Rules are applied in
// precedence order across the whole slice: a later group with an explicit
// flag beats an earlier sentinel match.
func findPrimary(groups []models.BrokerGroup) int {
	for rule := 0; rule < 3; rule++ {
		for i := range groups {
			if isPrimaryGroup(&groups[i], rule) {
				return i
			}
		}
	}
	return -1
}

// Normalize reshapes a raw gateway snapshot into the UI-ready view-model.
// It performs no monetary recomputation; upstream totals are trusted. The
// returned view owns fresh slices and never aliases the input.
func Normalize(snapshot *models.Portfolio) *models.PortfolioView {
	view := &models.PortfolioView{
		External: []models.BrokerGroup{},
	}
	if snapshot == nil {
		view.Snapshot = models.Portfolio{}
		return view
	}
	view.Snapshot = cloneSnapshot(snapshot)

	groups := view.Snapshot.BrokerGroups
	primaryIdx := findPrimary(groups)

	for i := range groups {
		if i == primaryIdx {
			g := groups[i]
			view.Primary = &g
			view.HasPrimary = true
			view.PrimaryValue = g.TotalValue
			view.PrimaryGain = g.GainLoss
			view.PrimaryGainPct = g.GainLossPercent
		} else {
			view.External = append(view.External, groups[i])
			view.ExternalValue += groups[i].TotalValue
		}
		view.FlatHoldings = append(view.FlatHoldings, groups[i].Holdings...)
	}

	// Legacy payloads carry a flat holdings list with no broker groups.
	if len(groups) == 0 && len(view.Snapshot.Holdings) > 0 {
		view.FlatHoldings = append(view.FlatHoldings, view.Snapshot.Holdings...)
	}

	view.HasHoldings = len(view.FlatHoldings) > 0
	return view
}

// cloneSnapshot deep-copies the payload so the cached raw snapshot is never
// mutated through the view.
func cloneSnapshot(p *models.Portfolio) models.Portfolio {
	out := *p

	out.BrokerGroups = make([]models.BrokerGroup, len(p.BrokerGroups))
	for i, g := range p.BrokerGroups {
		out.BrokerGroups[i] = g
		out.BrokerGroups[i].Holdings = append([]models.Holding(nil), g.Holdings...)
	}

	out.Holdings = append([]models.Holding(nil), p.Holdings...)
	out.Allocation = append([]models.AllocationData(nil), p.Allocation...)
	out.Performance = append([]models.PerformanceData(nil), p.Performance...)
	return out
}
