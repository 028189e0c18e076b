package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// ShippingService 发货台账：追加发货记录，扣减成品净库存
type ShippingService struct {
	repos              *repository.Repositories
	stock              *StockService
	audit              *auditor
	allowNegativeStock bool
}

func NewShippingService(repos *repository.Repositories, stock *StockService, audit *auditor, allowNegativeStock bool) *ShippingService {
	return &ShippingService{repos: repos, stock: stock, audit: audit, allowNegativeStock: allowNegativeStock}
}

// ShipRequest 发货请求
type ShipRequest struct {
	ProductCode string `json:"product_code" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Destination string `json:"destination"`
	ShipDate    string `json:"ship_date"`
}

// Ship 记录发货
// allow_negative_stock 关闭时，超出当前净库存的发货被拒绝。
func (s *ShippingService) Ship(req *ShipRequest, op Operator) (*entity.ShippingRecord, error) {
	if !s.allowNegativeStock {
		net, err := s.stock.FinishedNet(req.ProductCode)
		if err != nil {
			return nil, fmt.Errorf("compute finished stock: %w", err)
		}
		if req.Quantity > net {
			return nil, fmt.Errorf("成品库存不足: 需要%d, 可用%d", req.Quantity, net)
		}
	}

	shipDate := time.Now()
	if req.ShipDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ShipDate)
		if err != nil {
			return nil, fmt.Errorf("发货日期格式错误: %s", req.ShipDate)
		}
		shipDate = parsed
	}

	now := time.Now()
	record := &entity.ShippingRecord{
		ID:          uuid.New().String(),
		ShipCode:    fmt.Sprintf("SH-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		ShipDate:    shipDate,
		ProductCode: req.ProductCode,
		Quantity:    req.Quantity,
		Destination: req.Destination,
		CreatedBy:   op.ID,
	}
	if err := s.repos.Shipping.Create(record); err != nil {
		return nil, fmt.Errorf("create shipping record: %w", err)
	}

	s.audit.record(entity.ActionShipping, "shipping", record.ID, record.ShipCode, entity.JSONB{
		"product_code": record.ProductCode,
		"quantity":     record.Quantity,
		"destination":  record.Destination,
	}, op)
	s.stock.Invalidate()

	return record, nil
}

func (s *ShippingService) List(params repository.ShippingListParams) ([]entity.ShippingRecord, int64, error) {
	return s.repos.Shipping.List(params)
}
