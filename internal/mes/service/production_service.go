package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductionService 生产服务：子卷消耗 → 成品产出
type ProductionService struct {
	repos *repository.Repositories
	stock *StockService
	audit *auditor
}

func NewProductionService(repos *repository.Repositories, stock *StockService, audit *auditor) *ProductionService {
	return &ProductionService{repos: repos, stock: stock, audit: audit}
}

// ProduceRequest 生产报工请求
// 件数由操作员申报，不从投入重量推算。
type ProduceRequest struct {
	ChildCoilIDs   []string `json:"child_coil_ids" binding:"required,min=1"`
	ProductCode    string   `json:"product_code" binding:"required"`
	ProductName    string   `json:"product_name"`
	Pieces         int      `json:"pieces" binding:"required,gt=0"`
	ScrapWeight    float64  `json:"scrap_weight" binding:"gte=0"`
	PackSize       int      `json:"pack_size"`
	ProductionDate string   `json:"production_date"`
}

// Produce 记录一次生产：整卷消耗所有指定子卷，追加不可变生产记录
func (s *ProductionService) Produce(req *ProduceRequest, op Operator) (*entity.ProductionRecord, error) {
	coils, err := s.repos.Coil.GetChildrenByIDs(req.ChildCoilIDs)
	if err != nil {
		return nil, fmt.Errorf("find child coils: %w", err)
	}
	if len(coils) != len(req.ChildCoilIDs) {
		return nil, fmt.Errorf("子卷不存在或已删除")
	}
	for _, coil := range coils {
		if coil.Status == entity.ChildCoilStatusConsumed {
			return nil, fmt.Errorf("子卷已消耗: %s", coil.B2Code)
		}
	}

	productionDate := time.Now()
	if req.ProductionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ProductionDate)
		if err != nil {
			return nil, fmt.Errorf("生产日期格式错误: %s", req.ProductionDate)
		}
		productionDate = parsed
	}

	productName := req.ProductName
	if productName == "" {
		if item, err := s.repos.Catalog.GetByCode(req.ProductCode); err == nil {
			productName = item.Description
		}
	}

	now := time.Now()
	record := &entity.ProductionRecord{
		ID:             uuid.New().String(),
		RecordCode:     fmt.Sprintf("PR-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		ProductionDate: productionDate,
		ProductCode:    req.ProductCode,
		ProductName:    productName,
		Pieces:         req.Pieces,
		ScrapWeight:    req.ScrapWeight,
		PackSize:       req.PackSize,
		CreatedBy:      op.ID,
	}
	for _, coil := range coils {
		record.Items = append(record.Items, entity.ProductionItem{
			ID:          uuid.New().String(),
			ChildCoilID: coil.ID,
			B2Code:      coil.B2Code,
			Weight:      coil.Weight,
		})
	}

	err = s.repos.Coil.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Coil.MarkChildrenConsumed(tx, req.ChildCoilIDs); err != nil {
			return fmt.Errorf("mark children consumed: %w", err)
		}
		return s.repos.Production.Create(tx, record)
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(entity.ActionProduction, "production", record.ID, record.RecordCode, entity.JSONB{
		"product_code": record.ProductCode,
		"pieces":       record.Pieces,
		"coil_count":   len(coils),
	}, op)
	s.stock.Invalidate()

	return record, nil
}

func (s *ProductionService) Get(id string) (*entity.ProductionRecord, error) {
	return s.repos.Production.GetByID(id)
}

func (s *ProductionService) List(params repository.ProductionListParams) ([]entity.ProductionRecord, int64, error) {
	return s.repos.Production.List(params)
}

// PackBreakdown 包装拆分（派生展示值，不落库）：整包数 + 尾包件数
func PackBreakdown(pieces, packSize int) (fullPacks, remainder int) {
	if packSize <= 0 {
		return 0, pieces
	}
	return pieces / packSize, pieces % packSize
}
