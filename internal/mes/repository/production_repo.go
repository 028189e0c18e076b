package repository

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) Create(tx *gorm.DB, record *entity.ProductionRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(record).Error
}

func (r *ProductionRepository) GetByID(id string) (*entity.ProductionRecord, error) {
	var record entity.ProductionRecord
	err := r.db.Preload("Items").Where("id = ?", id).First(&record).Error
	return &record, err
}

type ProductionListParams struct {
	ProductCode string
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	Size        int
}

func (r *ProductionRepository) List(params ProductionListParams) ([]entity.ProductionRecord, int64, error) {
	query := r.db.Model(&entity.ProductionRecord{})
	if params.ProductCode != "" {
		query = query.Where("product_code = ?", params.ProductCode)
	}
	if params.DateFrom != nil {
		query = query.Where("production_date >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("production_date <= ?", *params.DateTo)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var records []entity.ProductionRecord
	err := query.Preload("Items").Order("production_date DESC, created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&records).Error
	return records, total, err
}

// SumPiecesByProduct 按成品编码汇总生产件数
func (r *ProductionRepository) SumPiecesByProduct() (map[string]int, error) {
	var rows []struct {
		ProductCode string
		ProductName string
		Total       int
	}
	err := r.db.Raw(`
		SELECT product_code, MAX(product_name) as product_name, COALESCE(SUM(pieces), 0) as total
		FROM mes_production_records
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

// ProductNames 成品编码→最近记录的名称（展示用）
func (r *ProductionRepository) ProductNames() (map[string]string, error) {
	var rows []struct {
		ProductCode string
		ProductName string
	}
	err := r.db.Raw(`
		SELECT DISTINCT ON (product_code) product_code, product_name
		FROM mes_production_records
		ORDER BY product_code, created_at DESC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(rows))
	for _, row := range rows {
		result[row.ProductCode] = row.ProductName
	}
	return result, nil
}
