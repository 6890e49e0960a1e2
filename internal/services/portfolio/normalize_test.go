package portfolio

import (
	"testing"

	"github.com/bobmcallan/iris/internal/models"
)

func groupNamed(broker, display string, value float64) models.BrokerGroup {
	return models.BrokerGroup{
		BrokerName:  broker,
		DisplayName: display,
		TotalValue:  value,
	}
}

func TestNormalize_NilSnapshot(t *testing.T) {
	view := Normalize(nil)
	if view == nil {
		t.Fatal("expected non-nil view")
	}
	if view.HasPrimary || view.Primary != nil {
		t.Error("nil snapshot should have no primary group")
	}
	if len(view.External) != 0 {
		t.Errorf("expected no external groups, got %d", len(view.External))
	}
	if view.HasHoldings {
		t.Error("nil snapshot should have no holdings")
	}
}

func TestNormalize_EmptyGroups(t *testing.T) {
	view := Normalize(&models.Portfolio{})
	if view.HasPrimary {
		t.Error("expected no primary group")
	}
	if view.ExternalValue != 0 || view.PrimaryValue != 0 {
		t.Error("expected zeroed values for empty snapshot")
	}
	if view.HasHoldings {
		t.Error("expected no holdings")
	}
}

func TestNormalize_SentinelBrokerIsPrimary(t *testing.T) {
	snap := &models.Portfolio{
		BrokerGroups: []models.BrokerGroup{
			groupNamed("schwab", "Charles Schwab", 5000),
			groupNamed("Alpaca", "IRIS Core Account", 12000),
		},
	}

	view := Normalize(snap)
	if !view.HasPrimary {
		t.Fatal("expected a primary group")
	}
	if view.Primary.BrokerName != "Alpaca" {
		t.Errorf("expected Alpaca primary, got %s", view.Primary.BrokerName)
	}
	if view.PrimaryValue != 12000 {
		t.Errorf("expected primary value 12000, got %v", view.PrimaryValue)
	}
	if len(view.External) != 1 || view.External[0].BrokerName != "schwab" {
		t.Errorf("unexpected external partition: %+v", view.External)
	}
	if view.ExternalValue != 5000 {
		t.Errorf("expected external value 5000, got %v", view.ExternalValue)
	}
}

func TestNormalize_ExplicitFlagBeatsSentinel(t *testing.T) {
	snap := &models.Portfolio{
		BrokerGroups: []models.BrokerGroup{
			groupNamed("alpaca", "Old Account", 100),
			{BrokerName: "fidelity", DisplayName: "Managed", IsPrimary: true, TotalValue: 900},
		},
	}

	view := Normalize(snap)
	if view.Primary == nil || view.Primary.BrokerName != "fidelity" {
		t.Fatalf("expected flagged group to win, got %+v", view.Primary)
	}
}

func TestNormalize_DisplayNameFallback(t *testing.T) {
	snap := &models.Portfolio{
		BrokerGroups: []models.BrokerGroup{
			groupNamed("schwab", "Charles Schwab", 100),
			groupNamed("internal", "IRIS Core Managed", 200),
		},
	}

	view := Normalize(snap)
	if view.Primary == nil || view.Primary.BrokerName != "internal" {
		t.Fatalf("expected display-name match, got %+v", view.Primary)
	}
}

func TestNormalize_NoPrimaryAllExternal(t *testing.T) {
	snap := &models.Portfolio{
		BrokerGroups: []models.BrokerGroup{
			groupNamed("schwab", "Charles Schwab", 100),
			groupNamed("fidelity", "Fidelity", 200),
		},
	}

	view := Normalize(snap)
	if view.HasPrimary {
		t.Error("expected no primary group")
	}
	if len(view.External) != 2 {
		t.Errorf("expected 2 external groups, got %d", len(view.External))
	}
	if view.ExternalValue != 300 {
		t.Errorf("expected external value 300, got %v", view.ExternalValue)
	}
}

func TestNormalize_PartitionPreservesTotals(t *testing.T) {
	snap := &models.Portfolio{
		TotalValue: 17300,
		BrokerGroups: []models.BrokerGroup{
			groupNamed("alpaca", "IRIS Core", 12000),
			groupNamed("schwab", "Schwab", 5000),
			groupNamed("fidelity", "Fidelity", 300),
		},
	}

	view := Normalize(snap)
	if got := view.PrimaryValue + view.ExternalValue; got != snap.TotalValue {
		t.Errorf("partition sum %v != snapshot total %v", got, snap.TotalValue)
	}
}

func TestNormalize_FlattensHoldingsInGroupOrder(t *testing.T) {
	snap := &models.Portfolio{
		BrokerGroups: []models.BrokerGroup{
			{
				BrokerName: "alpaca",
				Holdings:   []models.Holding{{Symbol: "AAPL"}, {Symbol: "MSFT"}},
			},
			{
				BrokerName: "schwab",
				Holdings:   []models.Holding{{Symbol: "VOO"}},
			},
		},
	}

	view := Normalize(snap)
	if !view.HasHoldings {
		t.Fatal("expected holdings")
	}
	want := []string{"AAPL", "MSFT", "VOO"}
	if len(view.FlatHoldings) != len(want) {
		t.Fatalf("expected %d holdings, got %d", len(want), len(view.FlatHoldings))
	}
	for i, sym := range want {
		if view.FlatHoldings[i].Symbol != sym {
			t.Errorf("holding %d: expected %s, got %s", i, sym, view.FlatHoldings[i].Symbol)
		}
	}
}

func TestNormalize_LegacyFlatHoldings(t *testing.T) {
	snap := &models.Portfolio{
		Holdings: []models.Holding{{Symbol: "AAPL"}, {Symbol: "TSLA"}},
	}

	view := Normalize(snap)
	if !view.HasHoldings {
		t.Fatal("expected legacy holdings to flatten")
	}
	if len(view.FlatHoldings) != 2 {
		t.Errorf("expected 2 holdings, got %d", len(view.FlatHoldings))
	}
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	snap := &models.Portfolio{
		BrokerGroups: []models.BrokerGroup{
			{
				BrokerName: "alpaca",
				Holdings:   []models.Holding{{Symbol: "AAPL", Value: 100}},
			},
		},
	}

	view := Normalize(snap)
	view.Snapshot.BrokerGroups[0].Holdings[0].Value = 999
	view.FlatHoldings[0].Symbol = "ZZZ"

	if snap.BrokerGroups[0].Holdings[0].Value != 100 {
		t.Error("mutating the view leaked into the input snapshot")
	}
	if snap.BrokerGroups[0].Holdings[0].Symbol != "AAPL" {
		t.Error("mutating flat holdings leaked into the input snapshot")
	}
}
