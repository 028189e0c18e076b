package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupMES wires the full stack against an isolated test schema
func setupMES(t *testing.T) (*gorm.DB, *gin.Engine) {
	return setupMESPolicy(t, false)
}

func setupMESPolicy(t *testing.T, allowNegativeStock bool) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Planning.AverageCoilWeightKg = 5000
	cfg.Planning.Periods = 3
	cfg.Planning.AllowNegativeStock = allowNegativeStock

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, zap.NewNop(), cfg)
	handlers := NewHandlers(services)

	r := testutil.SetupRouter()
	v1 := testutil.AuthGroup(r, "/api/v1/mes")

	mothers := v1.Group("/mother-coils")
	mothers.POST("", handlers.Coil.CreateMother)
	mothers.GET("/:id", handlers.Coil.GetMother)
	mothers.PUT("/:id/stock", handlers.Coil.CorrectStock)
	mothers.DELETE("/:id", handlers.Coil.DeleteMother)
	mothers.POST("/:id/cut", handlers.Cutting.Cut)
	v1.GET("/child-coils", handlers.Coil.ListChildren)
	v1.POST("/production", handlers.Production.Produce)
	v1.POST("/shipping", handlers.Shipping.Ship)
	v1.GET("/stock/mothers", handlers.Stock.MotherStock)
	v1.GET("/stock/finished", handlers.Stock.FinishedStock)
	v1.GET("/stock/children", handlers.Stock.ChildStock)
	v1.POST("/mrp/project", handlers.MRP.Project)
	v1.POST("/bom/explode", handlers.BOM.Explode)
	v1.PUT("/bom/lines/:id", handlers.BOM.UpdateLine)
	v1.PUT("/catalog/:id", handlers.Catalog.Update)

	return db, r
}

func TestCutConservesWeight(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "B2-100", "分切卷 100mm", 0, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-001", "M-SPCC", 1200, 10000)

	body := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_code": "B2-100", "total_weight": 4000, "piece_count": 5},
		},
		"scrap_weight": 50,
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mother-coils/"+mother.ID+"/cut", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("cut failed: %d %s", w.Code, w.Body.String())
	}

	// 10000 − (4000 + 50) = 5950
	var updated entity.MotherCoil
	if err := db.First(&updated, "id = ?", mother.ID).Error; err != nil {
		t.Fatalf("reload mother: %v", err)
	}
	if updated.RemainingWeight != 5950 {
		t.Errorf("expected remaining 5950, got %.4f", updated.RemainingWeight)
	}
	if updated.Status != entity.MotherCoilStatusInStock {
		t.Errorf("expected IN_STOCK, got %s", updated.Status)
	}
	if updated.Version != 1 {
		t.Errorf("expected version bump to 1, got %d", updated.Version)
	}

	// 5 child coils of 800 each
	var children []entity.ChildCoil
	db.Where("mother_coil_id = ?", mother.ID).Find(&children)
	if len(children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(children))
	}
	for _, child := range children {
		if child.Weight != 800 {
			t.Errorf("expected child weight 800, got %.4f", child.Weight)
		}
		if child.B2Code != "B2-100" {
			t.Errorf("expected B2 code B2-100, got %s", child.B2Code)
		}
	}
}

func TestCutRejectsInsufficientStock(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "B2-100", "分切卷 100mm", 0, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-002", "M-SPCC", 1200, 5000)

	body := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_code": "B2-100", "total_weight": 6000, "piece_count": 3},
		},
		"scrap_weight": 0,
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mother-coils/"+mother.ID+"/cut", body, token)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected rejection, got %d %s", w.Code, w.Body.String())
	}

	// rejection is atomic: nothing changed
	var updated entity.MotherCoil
	db.First(&updated, "id = ?", mother.ID)
	if updated.RemainingWeight != 5000 {
		t.Errorf("remaining weight changed on failed cut: %.4f", updated.RemainingWeight)
	}
	var count int64
	db.Model(&entity.ChildCoil{}).Where("mother_coil_id = ?", mother.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no children after failed cut, got %d", count)
	}
}

func TestCutVersionConflict(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "B2-100", "分切卷 100mm", 0, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-003", "M-SPCC", 1200, 5000)

	body := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_code": "B2-100", "total_weight": 1000, "piece_count": 2},
		},
		"version": 999,
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mother-coils/"+mother.ID+"/cut", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40901 {
		t.Errorf("expected code 40901, got %v", resp["code"])
	}
}

func TestCutDepletesMother(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "B2-200", "分切卷 200mm", 0, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-004", "M-SPCC", 1200, 2000)

	body := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_code": "B2-200", "total_weight": 1900, "piece_count": 2},
		},
		"scrap_weight": 100,
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mother-coils/"+mother.ID+"/cut", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("cut failed: %d %s", w.Code, w.Body.String())
	}

	var updated entity.MotherCoil
	db.First(&updated, "id = ?", mother.ID)
	if updated.Status != entity.MotherCoilStatusDepleted {
		t.Errorf("expected DEPLETED, got %s", updated.Status)
	}
	if updated.RemainingWeight != 0 {
		t.Errorf("expected remaining 0, got %.4f", updated.RemainingWeight)
	}
}

func TestCutDirectConsumptionLine(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	mother := testutil.SeedMotherCoil(t, db, "MC-005", "M-SPCC", 1200, 3000)

	body := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"direct": true, "description": "边料冲压", "total_weight": 500},
		},
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mother-coils/"+mother.ID+"/cut", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("cut failed: %d %s", w.Code, w.Body.String())
	}

	var child entity.ChildCoil
	if err := db.Where("mother_coil_id = ?", mother.ID).First(&child).Error; err != nil {
		t.Fatalf("load child: %v", err)
	}
	if !child.IsDirectConsumption {
		t.Error("expected direct consumption flag")
	}
	if child.Status != entity.ChildCoilStatusConsumed {
		t.Errorf("expected CONSUMED, got %s", child.Status)
	}

	// direct consumption never shows in the child stock view
	w = testutil.DoRequest(r, "GET", "/api/v1/mes/stock/children", nil, token)
	resp := testutil.ParseResponse(w)
	if entries, ok := resp["data"].([]interface{}); ok && len(entries) != 0 {
		t.Errorf("expected empty child stock, got %v", entries)
	}
}

func TestCutSucceedsWhenActionLogUnavailable(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	testutil.SeedCatalogItem(t, db, "B2-100", "分切卷 100mm", 0, "")
	mother := testutil.SeedMotherCoil(t, db, "MC-007", "M-SPCC", 1200, 10000)

	// 操作日志写入失败只告警，不影响主流程
	if err := db.Exec("DROP TABLE mes_action_logs").Error; err != nil {
		t.Fatalf("drop action log table: %v", err)
	}

	body := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_code": "B2-100", "total_weight": 4000, "piece_count": 5},
		},
		"scrap_weight": 50,
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/mes/mother-coils/"+mother.ID+"/cut", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("cut failed without action log table: %d %s", w.Code, w.Body.String())
	}

	var updated entity.MotherCoil
	db.First(&updated, "id = ?", mother.ID)
	if updated.RemainingWeight != 5950 {
		t.Errorf("expected remaining 5950, got %.4f", updated.RemainingWeight)
	}
}

func TestDeleteMotherHidesCoil(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	mother := testutil.SeedMotherCoil(t, db, "MC-008", "M-SPCC", 1200, 6000)

	w := testutil.DoRequest(r, "DELETE", "/api/v1/mes/mother-coils/"+mother.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", w.Code, w.Body.String())
	}

	// 查询不再可见
	w = testutil.DoRequest(r, "GET", "/api/v1/mes/mother-coils/"+mother.ID, nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}

	// 行保留，deleted_at 置位
	var count int64
	db.Model(&entity.MotherCoil{}).
		Where("id = ? AND deleted_at IS NOT NULL", mother.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("expected soft-deleted row retained, got %d", count)
	}
}

func TestCorrectStockVersionConflict(t *testing.T) {
	db, r := setupMES(t)
	token := testutil.DefaultTestToken()

	mother := testutil.SeedMotherCoil(t, db, "MC-006", "M-SPCC", 1200, 8000)

	body := map[string]interface{}{
		"remaining_weight": 7000,
		"reason":           "盘点修正",
		"version":          5,
	}
	w := testutil.DoRequest(r, "PUT", "/api/v1/mes/mother-coils/"+mother.ID+"/stock", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", w.Code, w.Body.String())
	}

	var updated entity.MotherCoil
	db.First(&updated, "id = ?", mother.ID)
	if updated.RemainingWeight != 8000 {
		t.Errorf("remaining weight changed on conflict: %.4f", updated.RemainingWeight)
	}
}
