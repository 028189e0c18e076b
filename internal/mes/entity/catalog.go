package entity

import "time"

// CatalogItem 物料目录（按编码查询 描述/厚度/类型）
// PlateCode 为MRP汇总用的板料标识；UnitWeightKg 为成品单件重量。
type CatalogItem struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code         string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Description  string    `json:"description" gorm:"size:200"`
	ThicknessMM  float64   `json:"thickness_mm" gorm:"type:decimal(8,3)"`
	CoilType     string    `json:"coil_type" gorm:"size:32"`
	UnitWeightKg float64   `json:"unit_weight_kg" gorm:"type:decimal(12,4);default:0"`
	PlateCode    string    `json:"plate_code" gorm:"size:64;index"`
	Status       string    `json:"status" gorm:"size:20;not null;default:active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (CatalogItem) TableName() string {
	return "mes_catalog_items"
}

// BOMLine 成品→原料卷消耗定额（每件消耗重量）
type BOMLine struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductCode     string    `json:"product_code" gorm:"size:64;not null;uniqueIndex:idx_bom_product_coil"`
	ProductName     string    `json:"product_name" gorm:"size:128"`
	RawCoilCode     string    `json:"raw_coil_code" gorm:"size:64;not null;uniqueIndex:idx_bom_product_coil"`
	RawCoilName     string    `json:"raw_coil_name" gorm:"size:128"`
	PerUnitWeightKg float64   `json:"per_unit_weight_kg" gorm:"type:decimal(12,4);not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (BOMLine) TableName() string {
	return "mes_bom_lines"
}
