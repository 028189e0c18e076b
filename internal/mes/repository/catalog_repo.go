package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Create(item *entity.CatalogItem) error {
	return r.db.Create(item).Error
}

func (r *CatalogRepository) Update(item *entity.CatalogItem) error {
	return r.db.Save(item).Error
}

func (r *CatalogRepository) Delete(id string) error {
	return r.db.Delete(&entity.CatalogItem{}, "id = ?", id).Error
}

func (r *CatalogRepository) GetByID(id string) (*entity.CatalogItem, error) {
	var item entity.CatalogItem
	err := r.db.Where("id = ?", id).First(&item).Error
	return &item, err
}

// GetByCode 按编码查询目录项
func (r *CatalogRepository) GetByCode(code string) (*entity.CatalogItem, error) {
	var item entity.CatalogItem
	err := r.db.Where("code = ?", code).First(&item).Error
	return &item, err
}

func (r *CatalogRepository) List(keyword string, page, size int) ([]entity.CatalogItem, int64, error) {
	query := r.db.Model(&entity.CatalogItem{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("code ILIKE ? OR description ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	var items []entity.CatalogItem
	err := query.Order("code").Offset((page - 1) * size).Limit(size).Find(&items).Error
	return items, total, err
}

// NamesByCode 全部目录编码→描述（汇总时的名称解析）
func (r *CatalogRepository) NamesByCode() (map[string]string, error) {
	var items []entity.CatalogItem
	if err := r.db.Select("code", "description").Find(&items).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.Code] = item.Description
	}
	return names, nil
}

// --- BOM ---

func (r *CatalogRepository) CreateBOMLine(line *entity.BOMLine) error {
	return r.db.Create(line).Error
}

func (r *CatalogRepository) GetBOMLineByID(id string) (*entity.BOMLine, error) {
	var line entity.BOMLine
	err := r.db.Where("id = ?", id).First(&line).Error
	return &line, err
}

func (r *CatalogRepository) UpdateBOMLine(line *entity.BOMLine) error {
	return r.db.Save(line).Error
}

func (r *CatalogRepository) DeleteBOMLine(id string) error {
	return r.db.Delete(&entity.BOMLine{}, "id = ?", id).Error
}

func (r *CatalogRepository) ListBOMByProduct(productCode string) ([]entity.BOMLine, error) {
	var lines []entity.BOMLine
	err := r.db.Where("product_code = ?", productCode).Order("raw_coil_code").Find(&lines).Error
	return lines, err
}

func (r *CatalogRepository) ListAllBOM() ([]entity.BOMLine, error) {
	var lines []entity.BOMLine
	err := r.db.Order("product_code, raw_coil_code").Find(&lines).Error
	return lines, err
}
