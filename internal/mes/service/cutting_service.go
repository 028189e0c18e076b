package service

import (
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CuttingService 分切服务：母卷 → 子卷(B2) + 废料
type CuttingService struct {
	repos *repository.Repositories
	stock *StockService
	audit *auditor
}

func NewCuttingService(repos *repository.Repositories, stock *StockService, audit *auditor) *CuttingService {
	return &CuttingService{repos: repos, stock: stock, audit: audit}
}

// CutLine 分切行
// 目录行: ProductCode + TotalWeight + PieceCount，等重切分为 PieceCount 个子卷。
// 直接消耗行: Direct=true + Description + TotalWeight，产出一条直接消耗记录，不入子卷库存。
type CutLine struct {
	ProductCode string  `json:"product_code"`
	Description string  `json:"description"`
	TotalWeight float64 `json:"total_weight" binding:"required,gt=0"`
	PieceCount  int     `json:"piece_count"`
	Direct      bool    `json:"direct"`
}

// CutRequest 分切请求
// Version 不为0时要求与母卷当前版本一致，防止并发分切互相覆盖。
type CutRequest struct {
	MotherCoilID string    `json:"mother_coil_id"`
	Lines        []CutLine `json:"lines" binding:"required,min=1"`
	ScrapWeight  float64   `json:"scrap_weight" binding:"gte=0"`
	Version      int       `json:"version"`
}

// CutResult 分切结果
type CutResult struct {
	Mother   *entity.MotherCoil `json:"mother"`
	Children []entity.ChildCoil `json:"children"`
	Consumed float64            `json:"consumed"`
}

// SplitEqual 目录分切等重拆分：总重 W 切 n 件，每件 W/n
func SplitEqual(totalWeight float64, pieces int) []float64 {
	weights := make([]float64, pieces)
	each := totalWeight / float64(pieces)
	for i := range weights {
		weights[i] = each
	}
	return weights
}

// Cut 执行分切
// 消耗总量 = Σ子卷重量 + 废料重量；超出剩余重量时整体拒绝，不产生任何变更。
func (s *CuttingService) Cut(req *CutRequest, op Operator) (*CutResult, error) {
	mother, err := s.repos.Coil.GetMotherByID(req.MotherCoilID)
	if err != nil {
		return nil, fmt.Errorf("find mother coil: %w", err)
	}
	if mother.Status == entity.MotherCoilStatusDepleted {
		return nil, fmt.Errorf("母卷已耗尽: %s", mother.CoilCode)
	}

	fromVersion := mother.Version
	if req.Version != 0 && req.Version != fromVersion {
		return nil, repository.ErrVersionConflict
	}

	children, err := s.buildChildren(mother, req.Lines, op)
	if err != nil {
		return nil, err
	}

	var childTotal float64
	for _, child := range children {
		childTotal += child.Weight
	}
	totalConsumed := childTotal + req.ScrapWeight
	if totalConsumed > mother.RemainingWeight {
		return nil, fmt.Errorf("库存不足: 需要%.4f, 可用%.4f", totalConsumed, mother.RemainingWeight)
	}

	mother.RemainingWeight -= totalConsumed
	if mother.RemainingWeight <= 1e-9 {
		mother.RemainingWeight = 0
		mother.Status = entity.MotherCoilStatusDepleted
	}

	err = s.repos.Coil.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Coil.UpdateMotherCAS(tx, mother, fromVersion); err != nil {
			return err
		}
		return s.repos.Coil.BatchCreateChildren(tx, children)
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(entity.ActionCut, "mother_coil", mother.ID, mother.CoilCode, entity.JSONB{
		"consumed":     totalConsumed,
		"scrap_weight": req.ScrapWeight,
		"child_count":  len(children),
		"remaining":    mother.RemainingWeight,
	}, op)
	s.stock.Invalidate()

	return &CutResult{Mother: mother, Children: children, Consumed: totalConsumed}, nil
}

// buildChildren 校验分切行并生成子卷，目录行从物料目录解析规格
func (s *CuttingService) buildChildren(mother *entity.MotherCoil, lines []CutLine, op Operator) ([]entity.ChildCoil, error) {
	var children []entity.ChildCoil
	for i, line := range lines {
		if line.TotalWeight <= 0 {
			return nil, fmt.Errorf("第%d行重量必须大于0", i+1)
		}

		if line.Direct {
			if line.Description == "" {
				return nil, fmt.Errorf("第%d行直接消耗必须填写说明", i+1)
			}
			children = append(children, entity.ChildCoil{
				ID:                  uuid.New().String(),
				MaterialCode:        mother.MaterialCode,
				MaterialName:        line.Description,
				ThicknessMM:         mother.ThicknessMM,
				CoilType:            mother.CoilType,
				Weight:              line.TotalWeight,
				MotherCoilID:        mother.ID,
				Status:              entity.ChildCoilStatusConsumed,
				IsDirectConsumption: true,
				CreatedBy:           op.ID,
			})
			continue
		}

		if line.ProductCode == "" {
			return nil, fmt.Errorf("第%d行必须填写目录编码", i+1)
		}
		if line.PieceCount <= 0 {
			return nil, fmt.Errorf("第%d行件数必须大于0", i+1)
		}
		item, err := s.repos.Catalog.GetByCode(line.ProductCode)
		if err != nil {
			return nil, fmt.Errorf("目录编码不存在: %s", line.ProductCode)
		}

		for _, weight := range SplitEqual(line.TotalWeight, line.PieceCount) {
			children = append(children, entity.ChildCoil{
				ID:           uuid.New().String(),
				B2Code:       item.Code,
				MaterialCode: mother.MaterialCode,
				MaterialName: item.Description,
				WidthMM:      mother.WidthMM,
				ThicknessMM:  item.ThicknessMM,
				CoilType:     item.CoilType,
				Weight:       weight,
				MotherCoilID: mother.ID,
				Status:       entity.ChildCoilStatusInStock,
				CreatedBy:    op.ID,
			})
		}
	}
	return children, nil
}
