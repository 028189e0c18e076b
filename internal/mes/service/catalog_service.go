package service

import (
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// CatalogService 物料目录维护
// 目录描述参与库存视图的名称解析，变更后需要失效缓存视图。
type CatalogService struct {
	repos *repository.Repositories
	stock *StockService
}

func NewCatalogService(repos *repository.Repositories, stock *StockService) *CatalogService {
	return &CatalogService{repos: repos, stock: stock}
}

// CatalogItemRequest 目录项创建/更新请求
type CatalogItemRequest struct {
	Code         string  `json:"code" binding:"required"`
	Description  string  `json:"description"`
	ThicknessMM  float64 `json:"thickness_mm"`
	CoilType     string  `json:"coil_type"`
	UnitWeightKg float64 `json:"unit_weight_kg"`
	PlateCode    string  `json:"plate_code"`
}

func (s *CatalogService) Create(req *CatalogItemRequest) (*entity.CatalogItem, error) {
	item := &entity.CatalogItem{
		ID:           uuid.New().String(),
		Code:         req.Code,
		Description:  req.Description,
		ThicknessMM:  req.ThicknessMM,
		CoilType:     req.CoilType,
		UnitWeightKg: req.UnitWeightKg,
		PlateCode:    req.PlateCode,
		Status:       "active",
	}
	if err := s.repos.Catalog.Create(item); err != nil {
		return nil, fmt.Errorf("create catalog item: %w", err)
	}
	s.stock.Invalidate()
	return item, nil
}

func (s *CatalogService) Update(id string, req *CatalogItemRequest) (*entity.CatalogItem, error) {
	item, err := s.repos.Catalog.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("find catalog item: %w", err)
	}
	item.Code = req.Code
	item.Description = req.Description
	item.ThicknessMM = req.ThicknessMM
	item.CoilType = req.CoilType
	item.UnitWeightKg = req.UnitWeightKg
	item.PlateCode = req.PlateCode
	if err := s.repos.Catalog.Update(item); err != nil {
		return nil, fmt.Errorf("update catalog item: %w", err)
	}
	s.stock.Invalidate()
	return item, nil
}

func (s *CatalogService) Delete(id string) error {
	if err := s.repos.Catalog.Delete(id); err != nil {
		return err
	}
	s.stock.Invalidate()
	return nil
}

func (s *CatalogService) GetByCode(code string) (*entity.CatalogItem, error) {
	return s.repos.Catalog.GetByCode(code)
}

func (s *CatalogService) List(keyword string, page, size int) ([]entity.CatalogItem, int64, error) {
	return s.repos.Catalog.List(keyword, page, size)
}
