package service

import (
	"math"
	"reflect"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func TestConsolidateMotherStockGroupsByCodeAndWidth(t *testing.T) {
	coils := []entity.MotherCoil{
		{MaterialCode: "M1", WidthMM: 1200, RemainingWeight: 5000, MaterialName: "冷轧卷"},
		{MaterialCode: "M1", WidthMM: 1200, RemainingWeight: 3000, MaterialName: "冷轧卷"},
		{MaterialCode: "M1", WidthMM: 1000, RemainingWeight: 2000, MaterialName: "冷轧卷"},
		{MaterialCode: "M2", WidthMM: 1200, RemainingWeight: 1000, MaterialName: "热轧卷"},
	}

	entries := ConsolidateMotherStock(coils, map[string]string{"M1": "冷轧板 SPCC"})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// (M1, 1200) sums two coils; catalog name wins over stored name
	var found bool
	for _, e := range entries {
		if e.MaterialCode == "M1" && e.WidthMM == 1200 {
			found = true
			if math.Abs(e.TotalWeight-8000) > 1e-9 || e.Count != 2 {
				t.Errorf("expected 8000kg/2 coils, got %.4f/%d", e.TotalWeight, e.Count)
			}
			if e.MaterialName != "冷轧板 SPCC" {
				t.Errorf("expected catalog name, got %s", e.MaterialName)
			}
		}
		if e.MaterialCode == "M2" && e.MaterialName != "热轧卷" {
			t.Errorf("expected fallback to coil name, got %s", e.MaterialName)
		}
	}
	if !found {
		t.Fatal("missing (M1, 1200) entry")
	}
}

func TestConsolidateMotherStockOrderIndependent(t *testing.T) {
	coils := []entity.MotherCoil{
		{MaterialCode: "M1", WidthMM: 1200, RemainingWeight: 5000},
		{MaterialCode: "M2", WidthMM: 1000, RemainingWeight: 3000},
		{MaterialCode: "M1", WidthMM: 1200, RemainingWeight: 2500},
	}
	reversed := []entity.MotherCoil{coils[2], coils[1], coils[0]}

	a := ConsolidateMotherStock(coils, nil)
	b := ConsolidateMotherStock(reversed, nil)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("aggregation depends on input order: %+v vs %+v", a, b)
	}

	// idempotence: same snapshot twice yields identical results
	c := ConsolidateMotherStock(coils, nil)
	if !reflect.DeepEqual(a, c) {
		t.Errorf("aggregation is not idempotent: %+v vs %+v", a, c)
	}
}

func TestConsolidateChildStockSkipsDirectConsumption(t *testing.T) {
	coils := []entity.ChildCoil{
		{B2Code: "B2-1", Weight: 800},
		{B2Code: "B2-1", Weight: 800},
		{B2Code: "B2-2", Weight: 500},
		{B2Code: "", Weight: 120, IsDirectConsumption: true},
	}

	entries := ConsolidateChildStock(coils)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].B2Code != "B2-1" || math.Abs(entries[0].TotalWeight-1600) > 1e-9 || entries[0].Count != 2 {
		t.Errorf("unexpected B2-1 entry: %+v", entries[0])
	}
}

func TestConsolidateFinishedStockNetsProductionMinusShipping(t *testing.T) {
	entries := ConsolidateFinishedStock(
		map[string]int{"X": 486},
		map[string]int{"X": 200},
		map[string]string{"X": "角钢支架"},
	)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Net != 286 {
		t.Errorf("expected net 286, got %d", entries[0].Net)
	}
	if entries[0].ProductName != "角钢支架" {
		t.Errorf("expected resolved name, got %s", entries[0].ProductName)
	}
}

func TestConsolidateFinishedStockDropsNonPositive(t *testing.T) {
	entries := ConsolidateFinishedStock(
		map[string]int{"A": 100, "B": 50, "C": 10},
		map[string]int{"A": 100, "B": 80, "C": 5},
		nil,
	)

	// A nets 0, B nets -30: both dropped from the view
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ProductCode != "C" || entries[0].Net != 5 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestSplitEqual(t *testing.T) {
	weights := SplitEqual(4000, 5)
	if len(weights) != 5 {
		t.Fatalf("expected 5 pieces, got %d", len(weights))
	}
	var total float64
	for _, w := range weights {
		if math.Abs(w-800) > 1e-9 {
			t.Errorf("expected each piece 800, got %.4f", w)
		}
		total += w
	}
	if math.Abs(total-4000) > 1e-9 {
		t.Errorf("split does not conserve weight: %.4f", total)
	}
}

func TestPackBreakdown(t *testing.T) {
	full, rest := PackBreakdown(486, 50)
	if full != 9 || rest != 36 {
		t.Errorf("expected 9 packs + 36, got %d + %d", full, rest)
	}
	full, rest = PackBreakdown(100, 0)
	if full != 0 || rest != 100 {
		t.Errorf("zero pack size: expected 0 + 100, got %d + %d", full, rest)
	}
}
