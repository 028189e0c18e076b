package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 卷料
		&MotherCoil{},
		&ChildCoil{},

		// 生产/发货事件
		&ProductionRecord{},
		&ProductionItem{},
		&ShippingRecord{},

		// 目录与BOM
		&CatalogItem{},
		&BOMLine{},

		// 操作日志
		&ActionLog{},
	)
}
