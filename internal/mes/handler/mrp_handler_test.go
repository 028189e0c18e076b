package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func TestMRPProjectEndToEnd(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	// plate, finished product consuming it, and raw material mapped to it
	testutil.SeedCatalogItem(t, db, "PL-A", "冷轧板 2.0mm", 0, "")
	testutil.SeedCatalogItem(t, db, "P1", "支架总成", 1, "PL-A")
	testutil.SeedCatalogItem(t, db, "M-RAW", "冷轧卷原料", 0, "PL-A")
	testutil.SeedMotherCoil(t, db, "MC-020", "M-RAW", 1200, 25000)

	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mrp/project", map[string]interface{}{
		"products":     []map[string]interface{}{{"code": "P1", "mix_percent": 100}},
		"total_volume": 27148,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("project failed: %d %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0].(map[string]interface{})
	if row["plate_code"] != "PL-A" {
		t.Errorf("expected plate PL-A, got %v", row["plate_code"])
	}
	if row["stock_kg"].(float64) != 25000 {
		t.Errorf("expected stock 25000, got %v", row["stock_kg"])
	}
	// 25000 − 27148 < 0 in M1 → URGENT
	if row["severity"] != "URGENT" {
		t.Errorf("expected URGENT, got %v", row["severity"])
	}
	periods := row["periods"].([]interface{})
	first := periods[0].(map[string]interface{})
	if first["balance_kg"].(float64) != -2148 {
		t.Errorf("expected M1 balance -2148, got %v", first["balance_kg"])
	}
}

func TestBOMExplodeEndToEnd(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "A", "支架A", 2, "")
	line := &entity.BOMLine{ProductCode: "A", RawCoilCode: "RC-1", PerUnitWeightKg: 4}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("seed bom line: %v", err)
	}

	w := testutil.DoRequest(r, "POST", "/api/v1/mes/bom/explode", map[string]interface{}{
		"orders": map[string]int{"A": 100},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("explode failed: %d %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})

	products := data["products"].([]interface{})
	product := products[0].(map[string]interface{})
	// no stock anywhere: qtyToBuy = full demand
	if product["qty_to_buy"].(float64) != 100 {
		t.Errorf("expected qty_to_buy 100, got %v", product["qty_to_buy"])
	}
	if product["weight_to_buy_kg"].(float64) != 200 {
		t.Errorf("expected weight_to_buy 200, got %v", product["weight_to_buy_kg"])
	}

	coils := data["coils"].([]interface{})
	coil := coils[0].(map[string]interface{})
	if coil["demand_kg"].(float64) != 400 {
		t.Errorf("expected coil demand 400, got %v", coil["demand_kg"])
	}

	// ceil(400 / 5000) = 1 with the configured average coil weight
	if data["coils_to_buy"].(float64) != 1 || data["coils_known"] != true {
		t.Errorf("unexpected coil estimate: %v / %v", data["coils_to_buy"], data["coils_known"])
	}
}

func TestUpdateBOMLineChangesExplosion(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "A", "支架A", 2, "")
	line := &entity.BOMLine{ProductCode: "A", RawCoilCode: "RC-1", PerUnitWeightKg: 4}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("seed bom line: %v", err)
	}

	w := testutil.DoRequest(r, "PUT", "/api/v1/mes/bom/lines/"+line.ID, map[string]interface{}{
		"product_code":       "A",
		"raw_coil_code":      "RC-1",
		"per_unit_weight_kg": 6,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update bom line failed: %d %s", w.Code, w.Body.String())
	}

	var updated entity.BOMLine
	if err := db.First(&updated, "id = ?", line.ID).Error; err != nil {
		t.Fatalf("reload bom line: %v", err)
	}
	if updated.PerUnitWeightKg != 6 {
		t.Errorf("expected per-unit weight 6, got %.4f", updated.PerUnitWeightKg)
	}

	// 展开按新定额计算：100件 × 6kg
	w = testutil.DoRequest(r, "POST", "/api/v1/mes/bom/explode", map[string]interface{}{
		"orders": map[string]int{"A": 100},
	}, token)
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	coil := data["coils"].([]interface{})[0].(map[string]interface{})
	if coil["demand_kg"].(float64) != 600 {
		t.Errorf("expected coil demand 600 after update, got %v", coil["demand_kg"])
	}
}
