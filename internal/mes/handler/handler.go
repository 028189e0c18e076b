package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// Handlers MES HTTP处理器集合
type Handlers struct {
	Coil       *CoilHandler
	Cutting    *CuttingHandler
	Production *ProductionHandler
	Shipping   *ShippingHandler
	Stock      *StockHandler
	MRP        *MRPHandler
	BOM        *BOMHandler
	Catalog    *CatalogHandler
	Document   *DocumentHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Coil:       NewCoilHandler(services.Coil),
		Cutting:    NewCuttingHandler(services.Cutting),
		Production: NewProductionHandler(services.Production),
		Shipping:   NewShippingHandler(services.Shipping),
		Stock:      NewStockHandler(services.Stock, services.Export),
		MRP:        NewMRPHandler(services.MRP, services.Export),
		BOM:        NewBOMHandler(services.BOM),
		Catalog:    NewCatalogHandler(services.Catalog),
		Document:   NewDocumentHandler(services.Document),
	}
}

// operatorFrom 从JWT中间件注入的上下文取当前操作员
func operatorFrom(c *gin.Context) service.Operator {
	op := service.Operator{}
	if v, ok := c.Get("user_id"); ok {
		op.ID, _ = v.(string)
	}
	if v, ok := c.Get("user_name"); ok {
		op.Name, _ = v.(string)
	}
	return op
}
