package portfolio

import (
	"fmt"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/models"
)

// SummaryCards builds the formatted dashboard cards from a normalized view.
// All display strings are pre-formatted here so render layers stay dumb.
func (s *Service) SummaryCards(view *models.PortfolioView) []models.SummaryCard {
	if view == nil {
		return nil
	}
	snap := &view.Snapshot

	cards := []models.SummaryCard{
		{
			Label:    "Total Portfolio Value",
			Value:    common.FormatMoney(snap.TotalValue),
			Delta:    common.FormatSignedMoney(snap.TotalGainLoss),
			DeltaPct: common.FormatSignedPct(snap.TotalGainLossPercent),
		},
		{
			Label:    "Today's P/L",
			Value:    pickFormatted(snap.TodayPL, snap.TodayPLValue, snap.TodayPLPercent),
			DeltaPct: common.FormatSignedPct(snap.TodayPLPercent),
		},
		{
			Label:    "YTD P/L",
			Value:    pickFormatted(snap.YtdPL, snap.YtdPLValue, snap.YtdPLPercent),
			DeltaPct: common.FormatSignedPct(snap.YtdPLPercent),
		},
		{
			Label: "Cash Balance",
			Value: common.FormatMoney(snap.CashBalance),
		},
	}

	if view.HasPrimary {
		cards = append(cards, models.SummaryCard{
			Label:    "IRIS Core Portfolio",
			Value:    common.FormatMoney(view.PrimaryValue),
			Delta:    common.FormatSignedMoney(view.PrimaryGain),
			DeltaPct: common.FormatSignedPct(view.PrimaryGainPct),
		})
	}
	if len(view.External) > 0 {
		cards = append(cards, models.SummaryCard{
			Label: fmt.Sprintf("External Accounts (%d)", len(view.External)),
			Value: common.FormatMoney(view.ExternalValue),
		})
	}

	return cards
}

// pickFormatted prefers the gateway's pre-formatted P/L string and falls back
// to formatting the raw values locally.
func pickFormatted(formatted string, value, percent float64) string {
	if formatted != "" {
		return formatted
	}
	return common.FormatPL(value, percent)
}

// HoldingRows builds the grouped holdings table. The primary group's rows
// come first, then each external group in payload order.
func (s *Service) HoldingRows(view *models.PortfolioView) []models.HoldingRow {
	if view == nil || !view.HasHoldings {
		return nil
	}

	total := view.Snapshot.TotalValue

	var rows []models.HoldingRow
	appendGroup := func(label string, holdings []models.Holding) {
		for _, h := range holdings {
			rows = append(rows, models.HoldingRow{
				Group:           label,
				Symbol:          h.Symbol,
				Name:            h.Name,
				Shares:          fmt.Sprintf("%.4f", h.Shares),
				Price:           common.FormatMoney(h.Price),
				Value:           common.FormatMoney(h.Value),
				Weight:          common.FormatPct(h.Value / total * 100),
				CostBasis:       common.FormatMoney(h.CostBasis),
				DayChange:       common.FormatSignedMoney(h.Change),
				DayChangePct:    common.FormatSignedPct(h.ChangePercent),
				GainLoss:        common.FormatSignedMoney(h.GainLoss),
				GainLossPercent: common.FormatSignedPct(h.GainLossPercent),
			})
		}
	}

	if view.Primary != nil {
		appendGroup(view.Primary.DisplayName, view.Primary.Holdings)
	}
	for _, g := range view.External {
		appendGroup(g.DisplayName, g.Holdings)
	}
	if view.Primary == nil && len(view.External) == 0 {
		// Legacy flat payload with no broker groups
		appendGroup("", view.FlatHoldings)
	}

	return rows
}
