package repository

import "gorm.io/gorm"

// Repositories MES 仓库集合
type Repositories struct {
	Coil       *CoilRepository
	Production *ProductionRepository
	Shipping   *ShippingRepository
	Catalog    *CatalogRepository
	ActionLog  *ActionLogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Coil:       NewCoilRepository(db),
		Production: NewProductionRepository(db),
		Shipping:   NewShippingRepository(db),
		Catalog:    NewCatalogRepository(db),
		ActionLog:  NewActionLogRepository(db),
	}
}
