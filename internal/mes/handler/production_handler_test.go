package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func seedChildCoil(t *testing.T, db *gorm.DB, motherID, b2Code string, weight float64) *entity.ChildCoil {
	t.Helper()
	coil := &entity.ChildCoil{
		B2Code:       b2Code,
		MaterialCode: "M-SPCC",
		Weight:       weight,
		MotherCoilID: motherID,
		Status:       entity.ChildCoilStatusInStock,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(coil).Error; err != nil {
		t.Fatalf("Failed to seed child coil: %v", err)
	}
	return coil
}

func TestProduceThenShipNetsFinishedStock(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "X", "角钢支架", 2.5, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-010", "M-SPCC", 1200, 10000)
	c1 := seedChildCoil(t, db, mother.ID, "X", 800)
	c2 := seedChildCoil(t, db, mother.ID, "X", 800)

	// production of 486 pieces
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/production", map[string]interface{}{
		"child_coil_ids": []string{c1.ID, c2.ID},
		"product_code":   "X",
		"pieces":         486,
		"pack_size":      50,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("produce failed: %d %s", w.Code, w.Body.String())
	}

	// both child coils are fully consumed
	var consumed int64
	db.Model(&entity.ChildCoil{}).
		Where("mother_coil_id = ? AND status = ?", mother.ID, entity.ChildCoilStatusConsumed).
		Count(&consumed)
	if consumed != 2 {
		t.Errorf("expected 2 consumed children, got %d", consumed)
	}

	// shipping of 200 pieces
	w = testutil.DoRequest(r, "POST", "/api/v1/mes/shipping", map[string]interface{}{
		"product_code": "X",
		"quantity":     200,
		"destination":  "华东仓",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("ship failed: %d %s", w.Code, w.Body.String())
	}

	// net finished stock: 486 − 200 = 286
	w = testutil.DoRequest(r, "GET", "/api/v1/mes/stock/finished", nil, token)
	resp := testutil.ParseResponse(w)
	entries, ok := resp["data"].([]interface{})
	if !ok || len(entries) != 1 {
		t.Fatalf("expected 1 finished stock entry, got %v", resp["data"])
	}
	entry := entries[0].(map[string]interface{})
	if entry["product_code"] != "X" {
		t.Errorf("expected product X, got %v", entry["product_code"])
	}
	if entry["net"].(float64) != 286 {
		t.Errorf("expected net 286, got %v", entry["net"])
	}
}

func TestShipBeyondStockRejected(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "Y", "槽钢托架", 3.2, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-011", "M-SPCC", 1200, 5000)
	c1 := seedChildCoil(t, db, mother.ID, "Y", 800)

	w := testutil.DoRequest(r, "POST", "/api/v1/mes/production", map[string]interface{}{
		"child_coil_ids": []string{c1.ID},
		"product_code":   "Y",
		"pieces":         100,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("produce failed: %d %s", w.Code, w.Body.String())
	}

	// only 100 in stock, 150 requested
	w = testutil.DoRequest(r, "POST", "/api/v1/mes/shipping", map[string]interface{}{
		"product_code": "Y",
		"quantity":     150,
	}, token)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected rejection, got %d %s", w.Code, w.Body.String())
	}

	// no shipping record written
	var count int64
	db.Model(&entity.ShippingRecord{}).Where("product_code = ?", "Y").Count(&count)
	if count != 0 {
		t.Errorf("expected no shipping records, got %d", count)
	}
}

func TestShipBeyondStockAllowedByPolicy(t *testing.T) {
	db, r := setupMESPolicy(t, true)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "W", "冲压托板", 2.0, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-013", "M-SPCC", 1200, 5000)
	c1 := seedChildCoil(t, db, mother.ID, "W", 800)

	w := testutil.DoRequest(r, "POST", "/api/v1/mes/production", map[string]interface{}{
		"child_coil_ids": []string{c1.ID},
		"product_code":   "W",
		"pieces":         100,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("produce failed: %d %s", w.Code, w.Body.String())
	}

	// allow_negative_stock 开启：超出净库存的发货照常入账
	w = testutil.DoRequest(r, "POST", "/api/v1/mes/shipping", map[string]interface{}{
		"product_code": "W",
		"quantity":     150,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected ship recorded under policy, got %d %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&entity.ShippingRecord{}).Where("product_code = ?", "W").Count(&count)
	if count != 1 {
		t.Errorf("expected 1 shipping record, got %d", count)
	}

	// 净库存 100 − 150 = −50，库存视图照旧隐藏非正行
	w = testutil.DoRequest(r, "GET", "/api/v1/mes/stock/finished", nil, token)
	resp := testutil.ParseResponse(w)
	if entries, ok := resp["data"].([]interface{}); ok && len(entries) != 0 {
		t.Errorf("expected negative net hidden from stock view, got %v", entries)
	}
}

func TestProduceRejectsConsumedChild(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "Z", "镀锌板件", 1.8, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-012", "M-SPCC", 1200, 5000)
	c1 := seedChildCoil(t, db, mother.ID, "Z", 800)

	w := testutil.DoRequest(r, "POST", "/api/v1/mes/production", map[string]interface{}{
		"child_coil_ids": []string{c1.ID},
		"product_code":   "Z",
		"pieces":         50,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("produce failed: %d %s", w.Code, w.Body.String())
	}

	// same coil cannot be consumed twice
	w = testutil.DoRequest(r, "POST", "/api/v1/mes/production", map[string]interface{}{
		"child_coil_ids": []string{c1.ID},
		"product_code":   "Z",
		"pieces":         50,
	}, token)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected rejection, got %d %s", w.Code, w.Body.String())
	}

	var records int64
	db.Model(&entity.ProductionRecord{}).Where("product_code = ?", "Z").Count(&records)
	if records != 1 {
		t.Errorf("expected 1 production record, got %d", records)
	}
}
