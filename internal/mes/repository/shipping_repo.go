package repository

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type ShippingRepository struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) *ShippingRepository {
	return &ShippingRepository{db: db}
}

func (r *ShippingRepository) Create(record *entity.ShippingRecord) error {
	return r.db.Create(record).Error
}

type ShippingListParams struct {
	ProductCode string
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	Size        int
}

func (r *ShippingRepository) List(params ShippingListParams) ([]entity.ShippingRecord, int64, error) {
	query := r.db.Model(&entity.ShippingRecord{})
	if params.ProductCode != "" {
		query = query.Where("product_code = ?", params.ProductCode)
	}
	if params.DateFrom != nil {
		query = query.Where("ship_date >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("ship_date <= ?", *params.DateTo)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var records []entity.ShippingRecord
	err := query.Order("ship_date DESC, created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&records).Error
	return records, total, err
}

// SumQuantityByProduct 按成品编码汇总已发货数量
func (r *ShippingRepository) SumQuantityByProduct() (map[string]int, error) {
	var rows []struct {
		ProductCode string
		Total       int
	}
	err := r.db.Raw(`
		SELECT product_code, COALESCE(SUM(quantity), 0) as total
		FROM mes_shipping_records
		GROUP BY product_code
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.ProductCode] = row.Total
	}
	return result, nil
}
