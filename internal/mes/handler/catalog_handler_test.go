package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func TestCatalogRenameRefreshesStockView(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	item := testutil.SeedCatalogItem(t, db, "M-SPCC", "冷轧卷", 0, "")
	testutil.SeedMotherCoil(t, db, "MC-030", "M-SPCC", 1200, 8000)

	w := testutil.DoRequest(r, "GET", "/api/v1/mes/stock/mothers", nil, token)
	resp := testutil.ParseResponse(w)
	entries := resp["data"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 stock entry, got %d", len(entries))
	}
	if entries[0].(map[string]interface{})["material_name"] != "冷轧卷" {
		t.Errorf("expected catalog name, got %v", entries[0])
	}

	// 目录改名后库存视图立即跟随（变更使缓存失效）
	w = testutil.DoRequest(r, "PUT", "/api/v1/mes/catalog/"+item.ID, map[string]interface{}{
		"code":        "M-SPCC",
		"description": "冷轧卷 SPCC 1.5mm",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("rename failed: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/mes/stock/mothers", nil, token)
	resp = testutil.ParseResponse(w)
	entries = resp["data"].([]interface{})
	if entries[0].(map[string]interface{})["material_name"] != "冷轧卷 SPCC 1.5mm" {
		t.Errorf("expected renamed material, got %v", entries[0])
	}
}
