package entity

import "time"

// ProductionRecord 生产记录（不可变事件）
// 记录一次子卷消耗→成品产出；件数由操作员申报，不从投入重量推算。
type ProductionRecord struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RecordCode     string    `json:"record_code" gorm:"size:50;not null;uniqueIndex"`
	ProductionDate time.Time `json:"production_date" gorm:"not null;index"`
	ProductCode    string    `json:"product_code" gorm:"size:64;not null;index"`
	ProductName    string    `json:"product_name" gorm:"size:128"`
	Pieces         int       `json:"pieces" gorm:"not null"`
	ScrapWeight    float64   `json:"scrap_weight" gorm:"type:decimal(12,4);default:0"`
	PackSize       int       `json:"pack_size" gorm:"default:0"`
	CreatedBy      string    `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time `json:"created_at"`

	Items []ProductionItem `json:"items,omitempty" gorm:"foreignKey:ProductionRecordID"`
}

func (ProductionRecord) TableName() string {
	return "mes_production_records"
}

// ProductionItem 生产记录消耗明细行
type ProductionItem struct {
	ID                 string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductionRecordID string  `json:"production_record_id" gorm:"type:uuid;not null;index"`
	ChildCoilID        string  `json:"child_coil_id" gorm:"type:uuid;not null"`
	B2Code             string  `json:"b2_code" gorm:"size:64"`
	Weight             float64 `json:"weight" gorm:"type:decimal(12,4);not null"`
}

func (ProductionItem) TableName() string {
	return "mes_production_items"
}
