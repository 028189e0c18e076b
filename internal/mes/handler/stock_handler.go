package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	svc    *service.StockService
	export *service.ExportService
}

func NewStockHandler(svc *service.StockService, export *service.ExportService) *StockHandler {
	return &StockHandler{svc: svc, export: export}
}

func (h *StockHandler) MotherStock(c *gin.Context) {
	entries, err := h.svc.MotherStock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": entries})
}

func (h *StockHandler) ChildStock(c *gin.Context) {
	entries, err := h.svc.ChildStock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": entries})
}

func (h *StockHandler) FinishedStock(c *gin.Context) {
	entries, err := h.svc.FinishedStock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": entries})
}

// ExportStock 库存视图导出xlsx
func (h *StockHandler) ExportStock(c *gin.Context) {
	buf, err := h.export.ExportStock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	fileName := fmt.Sprintf("stock-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
