package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// CoilService 钢卷台账服务：母卷入库、库存修正、子卷修正与删除
type CoilService struct {
	repos *repository.Repositories
	stock *StockService
	audit *auditor
}

func NewCoilService(repos *repository.Repositories, stock *StockService, audit *auditor) *CoilService {
	return &CoilService{repos: repos, stock: stock, audit: audit}
}

// CreateMotherRequest 母卷入库请求
type CreateMotherRequest struct {
	CoilCode      string  `json:"coil_code" binding:"required"`
	MaterialCode  string  `json:"material_code" binding:"required"`
	MaterialName  string  `json:"material_name"`
	WidthMM       float64 `json:"width_mm" binding:"required,gt=0"`
	ThicknessMM   float64 `json:"thickness_mm"`
	CoilType      string  `json:"coil_type"`
	Weight        float64 `json:"weight" binding:"required,gt=0"`
	SupplierDocNo string  `json:"supplier_doc_no"`
	EntryDate     string  `json:"entry_date"`
}

// CreateMother 母卷入库，剩余重量等于原始重量
func (s *CoilService) CreateMother(req *CreateMotherRequest, op Operator) (*entity.MotherCoil, error) {
	entryDate := time.Now()
	if req.EntryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("入库日期格式错误: %s", req.EntryDate)
		}
		entryDate = parsed
	}

	// 名称缺省时取目录描述
	materialName := req.MaterialName
	if materialName == "" {
		if item, err := s.repos.Catalog.GetByCode(req.MaterialCode); err == nil {
			materialName = item.Description
		}
	}

	coil := &entity.MotherCoil{
		ID:              uuid.New().String(),
		CoilCode:        req.CoilCode,
		MaterialCode:    req.MaterialCode,
		MaterialName:    materialName,
		WidthMM:         req.WidthMM,
		ThicknessMM:     req.ThicknessMM,
		CoilType:        req.CoilType,
		OriginalWeight:  req.Weight,
		RemainingWeight: req.Weight,
		Status:          entity.MotherCoilStatusInStock,
		SupplierDocNo:   req.SupplierDocNo,
		EntryDate:       entryDate,
		CreatedBy:       op.ID,
	}
	if err := s.repos.Coil.CreateMother(coil); err != nil {
		return nil, fmt.Errorf("create mother coil: %w", err)
	}

	s.audit.record(entity.ActionCoilEntry, "mother_coil", coil.ID, coil.CoilCode, entity.JSONB{
		"material_code": coil.MaterialCode,
		"weight":        coil.OriginalWeight,
	}, op)
	s.stock.Invalidate()

	return coil, nil
}

func (s *CoilService) GetMother(id string) (*entity.MotherCoil, error) {
	return s.repos.Coil.GetMotherByID(id)
}

func (s *CoilService) ListMothers(params repository.MotherListParams) ([]entity.MotherCoil, int64, error) {
	return s.repos.Coil.ListMothers(params)
}

func (s *CoilService) ListChildren(params repository.ChildListParams) ([]entity.ChildCoil, int64, error) {
	return s.repos.Coil.ListChildren(params)
}

// CorrectStockRequest 母卷库存修正请求
type CorrectStockRequest struct {
	RemainingWeight float64 `json:"remaining_weight" binding:"gte=0"`
	Reason          string  `json:"reason" binding:"required"`
	Version         int     `json:"version"`
}

// CorrectStock 修正母卷剩余重量，走版本比较更新防止并发覆盖
func (s *CoilService) CorrectStock(id string, req *CorrectStockRequest, op Operator) (*entity.MotherCoil, error) {
	coil, err := s.repos.Coil.GetMotherByID(id)
	if err != nil {
		return nil, fmt.Errorf("find mother coil: %w", err)
	}
	if req.RemainingWeight > coil.OriginalWeight {
		return nil, fmt.Errorf("剩余重量不能超过原始重量: %.4f > %.4f", req.RemainingWeight, coil.OriginalWeight)
	}

	fromVersion := coil.Version
	if req.Version != 0 && req.Version != fromVersion {
		return nil, repository.ErrVersionConflict
	}

	before := coil.RemainingWeight
	coil.RemainingWeight = req.RemainingWeight
	if coil.RemainingWeight <= 0 {
		coil.Status = entity.MotherCoilStatusDepleted
	} else {
		coil.Status = entity.MotherCoilStatusInStock
	}
	if err := s.repos.Coil.UpdateMotherCAS(nil, coil, fromVersion); err != nil {
		return nil, err
	}

	s.audit.record(entity.ActionStockCorrect, "mother_coil", coil.ID, coil.CoilCode, entity.JSONB{
		"before": before,
		"after":  coil.RemainingWeight,
		"reason": req.Reason,
	}, op)
	s.stock.Invalidate()

	return coil, nil
}

// DeleteMother 删除母卷（不可恢复，需显式确认）
func (s *CoilService) DeleteMother(id string, op Operator) error {
	coil, err := s.repos.Coil.GetMotherByID(id)
	if err != nil {
		return fmt.Errorf("find mother coil: %w", err)
	}
	if err := s.repos.Coil.DeleteMother(id); err != nil {
		return fmt.Errorf("delete mother coil: %w", err)
	}
	s.audit.record(entity.ActionCoilDelete, "mother_coil", coil.ID, coil.CoilCode, entity.JSONB{
		"remaining_weight": coil.RemainingWeight,
	}, op)
	s.stock.Invalidate()
	return nil
}

// UpdateChildRequest 子卷修正请求（重量/宽度修正）
type UpdateChildRequest struct {
	Weight  float64 `json:"weight" binding:"gt=0"`
	WidthMM float64 `json:"width_mm"`
}

// UpdateChild 修正子卷重量/宽度，已消耗子卷不可修改
func (s *CoilService) UpdateChild(id string, req *UpdateChildRequest, op Operator) (*entity.ChildCoil, error) {
	coil, err := s.repos.Coil.GetChildByID(id)
	if err != nil {
		return nil, fmt.Errorf("find child coil: %w", err)
	}
	if coil.Status == entity.ChildCoilStatusConsumed {
		return nil, fmt.Errorf("子卷已消耗, 不能修改")
	}

	before := coil.Weight
	coil.Weight = req.Weight
	if req.WidthMM > 0 {
		coil.WidthMM = req.WidthMM
	}
	if err := s.repos.Coil.UpdateChild(coil); err != nil {
		return nil, fmt.Errorf("update child coil: %w", err)
	}

	s.audit.record(entity.ActionChildCoilEdit, "child_coil", coil.ID, coil.B2Code, entity.JSONB{
		"before": before,
		"after":  coil.Weight,
	}, op)
	s.stock.Invalidate()

	return coil, nil
}

// DeleteChild 删除子卷（不可恢复）
func (s *CoilService) DeleteChild(id string, op Operator) error {
	coil, err := s.repos.Coil.GetChildByID(id)
	if err != nil {
		return fmt.Errorf("find child coil: %w", err)
	}
	if err := s.repos.Coil.DeleteChild(id); err != nil {
		return fmt.Errorf("delete child coil: %w", err)
	}
	s.audit.record(entity.ActionCoilDelete, "child_coil", coil.ID, coil.B2Code, entity.JSONB{
		"weight": coil.Weight,
	}, op)
	s.stock.Invalidate()
	return nil
}

// ListActionLogs 查询操作日志
func (s *CoilService) ListActionLogs(actionType, entityID string, page, size int) ([]entity.ActionLog, int64, error) {
	return s.repos.ActionLog.List(actionType, entityID, page, size)
}
