package entity

import (
	"time"
)

// 母卷状态
const (
	MotherCoilStatusInStock  = "IN_STOCK" // 在库
	MotherCoilStatusDepleted = "DEPLETED" // 已耗尽
)

// 子卷(B2)状态
const (
	ChildCoilStatusInStock  = "IN_STOCK"
	ChildCoilStatusConsumed = "CONSUMED"
)

// MotherCoil 母卷（原材料钢卷）
// 入库后只能通过分切扣减或库存修正变更剩余重量。
// Version 为乐观锁版本号，所有重量变更必须带版本比较更新。
type MotherCoil struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CoilCode        string     `json:"coil_code" gorm:"size:50;not null;uniqueIndex"`
	MaterialCode    string     `json:"material_code" gorm:"size:64;not null;index"`
	MaterialName    string     `json:"material_name" gorm:"size:128"`
	WidthMM         float64    `json:"width_mm" gorm:"type:decimal(8,2);not null"`
	ThicknessMM     float64    `json:"thickness_mm" gorm:"type:decimal(8,3)"`
	CoilType        string     `json:"coil_type" gorm:"size:32"`
	OriginalWeight  float64    `json:"original_weight" gorm:"type:decimal(12,4);not null"`
	RemainingWeight float64    `json:"remaining_weight" gorm:"type:decimal(12,4);not null"`
	Status          string     `json:"status" gorm:"size:20;not null;default:IN_STOCK"`
	SupplierDocNo   string     `json:"supplier_doc_no" gorm:"size:64"`
	SupplierDocFile string     `json:"supplier_doc_file" gorm:"size:256"` // MinIO对象key
	EntryDate       time.Time  `json:"entry_date"`
	Version         int        `json:"version" gorm:"not null;default:0"`
	CreatedBy       string     `json:"created_by" gorm:"size:64"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at" gorm:"index"`
}

func (MotherCoil) TableName() string {
	return "mes_mother_coils"
}

// ChildCoil 子卷（B2），分切母卷产出
// IsDirectConsumption 标记直接消耗行（边料/非目录消耗），不进入成品库存。
type ChildCoil struct {
	ID                  string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	B2Code              string     `json:"b2_code" gorm:"size:64;index"`
	MaterialCode        string     `json:"material_code" gorm:"size:64;index"`
	MaterialName        string     `json:"material_name" gorm:"size:128"`
	WidthMM             float64    `json:"width_mm" gorm:"type:decimal(8,2)"`
	ThicknessMM         float64    `json:"thickness_mm" gorm:"type:decimal(8,3)"`
	CoilType            string     `json:"coil_type" gorm:"size:32"`
	Weight              float64    `json:"weight" gorm:"type:decimal(12,4);not null"`
	MotherCoilID        string     `json:"mother_coil_id" gorm:"type:uuid;not null;index"`
	Status              string     `json:"status" gorm:"size:20;not null;default:IN_STOCK"`
	IsDirectConsumption bool       `json:"is_direct_consumption" gorm:"not null;default:false"`
	CreatedBy           string     `json:"created_by" gorm:"size:64"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at" gorm:"index"`
}

func (ChildCoil) TableName() string {
	return "mes_child_coils"
}
