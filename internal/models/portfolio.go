package models

// Holding is one position inside a broker group. All monetary fields arrive
// pre-computed from the gateway; this layer never recalculates them.
type Holding struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Shares            float64 `json:"shares"`
	Price             float64 `json:"price"`
	CostBasisPerShare float64 `json:"costBasisPerShare"`
	Value             float64 `json:"value"`
	CostBasis         float64 `json:"costBasis"`
	Change            float64 `json:"change"`
	ChangePercent     float64 `json:"changePercent"`
	GainLoss          float64 `json:"gainLoss"`
	GainLossPercent   float64 `json:"gainLossPercent"`
}

// BrokerGroup is one account-level grouping of holdings: either the primary
// managed IRIS account or a linked external brokerage.
type BrokerGroup struct {
	BrokerID          int       `json:"brokerId"`
	BrokerName        string    `json:"brokerName"`
	DisplayName       string    `json:"displayName"`
	AccountNumber     string    `json:"accountNumber"`
	IrisAccountNumber string    `json:"irisAccountNumber,omitempty"`
	IrisAccountID     string    `json:"irisAccountId,omitempty"`
	PortfolioID       int       `json:"portfolioId"`
	PortfolioName     string    `json:"portfolioName"`
	IsPrimary         bool      `json:"isPrimary,omitempty"`
	TotalValue        float64   `json:"totalValue"`
	TotalCost         float64   `json:"totalCost"`
	GainLoss          float64   `json:"gainLoss"`
	GainLossPercent   float64   `json:"gainLossPercent"`
	CashBalance       float64   `json:"cashBalance"`
	BuyingPower       float64   `json:"buyingPower"`
	Holdings          []Holding `json:"holdings"`
}

// Portfolio is the raw aggregated snapshot returned by the gateway.
// Top-level totals mirror the sum across broker groups; that invariant is a
// contract with the gateway, not something this layer enforces.
type Portfolio struct {
	TotalValue           float64 `json:"totalValue"`
	CashBalance          float64 `json:"cashBalance"`
	TotalCost            float64 `json:"totalCost"`
	TotalGainLoss        float64 `json:"totalGainLoss"`
	TotalGainLossPercent float64 `json:"totalGainLossPercent"`

	// Pre-formatted P/L strings, e.g. "+$1,234.56 (5.67%)"
	TodayPL   string `json:"todayPL"`
	YtdPL     string `json:"ytdPL"`
	OverallPL string `json:"overallPL"`

	// Raw counterparts of the formatted strings
	TodayPLValue   float64 `json:"todayPLValue"`
	TodayPLPercent float64 `json:"todayPLPercent"`
	YtdPLValue     float64 `json:"ytdPLValue"`
	YtdPLPercent   float64 `json:"ytdPLPercent"`

	BrokerGroups []BrokerGroup `json:"brokerGroups"`

	// Legacy flat holdings list kept for older consumers
	Holdings    []Holding         `json:"holdings"`
	Allocation  []AllocationData  `json:"allocation"`
	Performance []PerformanceData `json:"performance"`
}

// AllocationData is one slice of the allocation chart. Percentages are
// expected to sum to ~100 across the set; not enforced here.
type AllocationData struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// PerformanceData is one (date, value) point of the trend chart, ascending by date.
type PerformanceData struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// PortfolioView is the normalized, UI-ready shape derived from a raw
// Portfolio snapshot. It is built fresh per fetch and never aliases the
// cached raw payload's slices.
type PortfolioView struct {
	Snapshot Portfolio `json:"snapshot"`

	// Primary/external partition
	Primary        *BrokerGroup  `json:"primary,omitempty"`
	External       []BrokerGroup `json:"external"`
	HasPrimary     bool          `json:"hasPrimary"`
	PrimaryValue   float64       `json:"primaryValue"`
	PrimaryGain    float64       `json:"primaryGain"`
	PrimaryGainPct float64       `json:"primaryGainPct"`
	ExternalValue  float64       `json:"externalValue"`

	// Flattened holdings across all groups, in group order
	FlatHoldings []Holding `json:"flatHoldings"`
	HasHoldings  bool      `json:"hasHoldings"`
}

// SummaryCard is one formatted dashboard card.
type SummaryCard struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Delta    string `json:"delta,omitempty"`
	DeltaPct string `json:"deltaPct,omitempty"`
}

// HoldingRow is one formatted row of the grouped holdings table.
type HoldingRow struct {
	Group           string `json:"group"`
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Shares          string `json:"shares"`
	Price           string `json:"price"`
	Value           string `json:"value"`
	Weight          string `json:"weight"`
	CostBasis       string `json:"costBasis"`
	DayChange       string `json:"dayChange"`
	DayChangePct    string `json:"dayChangePct"`
	GainLoss        string `json:"gainLoss"`
	GainLossPercent string `json:"gainLossPercent"`
}
