package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// BOMService 物料清单展开：订单数量 → 原料卷需求汇总
type BOMService struct {
	repos               *repository.Repositories
	averageCoilWeightKg float64
}

func NewBOMService(repos *repository.Repositories, averageCoilWeightKg float64) *BOMService {
	return &BOMService{repos: repos, averageCoilWeightKg: averageCoilWeightKg}
}

// BOMContribution 原料卷需求的贡献方（追溯用），按贡献重量降序
type BOMContribution struct {
	ProductCode string  `json:"product_code"`
	Quantity    int     `json:"quantity"`
	DemandKg    float64 `json:"demand_kg"`
}

// BOMCoilRow 单原料卷的需求汇总行
type BOMCoilRow struct {
	RawCoilCode  string            `json:"raw_coil_code"`
	RawCoilName  string            `json:"raw_coil_name"`
	DemandKg     float64           `json:"demand_kg"`
	Contributors []BOMContribution `json:"contributors"`
}

// BOMProductRow 单成品的采购量行
// qtyToBuy = max(0, 需求 − (成品库存 + 毛坯库存))
type BOMProductRow struct {
	ProductCode   string  `json:"product_code"`
	Demand        int     `json:"demand"`
	FinishedStock int     `json:"finished_stock"`
	BlankStock    int     `json:"blank_stock"`
	QtyToBuy      int     `json:"qty_to_buy"`
	WeightToBuyKg float64 `json:"weight_to_buy_kg"`
	Shortage      bool    `json:"shortage"`
}

// ExplodeInput 展开输入
// FinishedStock/BlankStock 按成品编码计件；UnitWeights 为成品单件重量。
type ExplodeInput struct {
	Orders              map[string]int
	BOM                 []entity.BOMLine
	FinishedStock       map[string]int
	BlankStock          map[string]int
	UnitWeights         map[string]float64
	AverageCoilWeightKg float64
}

// ExplodeResult 展开结果
// CoilsKnown 为 false 表示平均卷重未配置，整卷估算不可用。
type ExplodeResult struct {
	Products      []BOMProductRow `json:"products"`
	Coils         []BOMCoilRow    `json:"coils"`
	TotalUnits    int             `json:"total_units"`
	TotalWeightKg float64         `json:"total_weight_kg"`
	CoilsToBuy    int             `json:"coils_to_buy"`
	CoilsKnown    bool            `json:"coils_known"`
}

// Explode 纯计算展开，不触库
func Explode(input ExplodeInput) *ExplodeResult {
	bomByProduct := make(map[string][]entity.BOMLine)
	for _, line := range input.BOM {
		bomByProduct[line.ProductCode] = append(bomByProduct[line.ProductCode], line)
	}

	codes := make([]string, 0, len(input.Orders))
	for code := range input.Orders {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	result := &ExplodeResult{}
	var coilOrder []string
	coils := make(map[string]*BOMCoilRow)

	for _, code := range codes {
		qty := input.Orders[code]
		if qty <= 0 {
			continue
		}
		result.TotalUnits += qty

		qtyToBuy := qty - (input.FinishedStock[code] + input.BlankStock[code])
		if qtyToBuy < 0 {
			qtyToBuy = 0
		}
		result.Products = append(result.Products, BOMProductRow{
			ProductCode:   code,
			Demand:        qty,
			FinishedStock: input.FinishedStock[code],
			BlankStock:    input.BlankStock[code],
			QtyToBuy:      qtyToBuy,
			WeightToBuyKg: float64(qtyToBuy) * input.UnitWeights[code],
			Shortage:      qtyToBuy > 0,
		})

		for _, line := range bomByProduct[code] {
			row, ok := coils[line.RawCoilCode]
			if !ok {
				row = &BOMCoilRow{RawCoilCode: line.RawCoilCode, RawCoilName: line.RawCoilName}
				coils[line.RawCoilCode] = row
				coilOrder = append(coilOrder, line.RawCoilCode)
			}
			demand := line.PerUnitWeightKg * float64(qty)
			row.DemandKg += demand
			row.Contributors = append(row.Contributors, BOMContribution{
				ProductCode: code,
				Quantity:    qty,
				DemandKg:    demand,
			})
		}
	}

	for _, code := range coilOrder {
		row := coils[code]
		sort.SliceStable(row.Contributors, func(i, j int) bool {
			return row.Contributors[i].DemandKg > row.Contributors[j].DemandKg
		})
		result.Coils = append(result.Coils, *row)
		result.TotalWeightKg += row.DemandKg
	}

	// 平均卷重未配置时整卷估算标记为未知，不报错
	if input.AverageCoilWeightKg > 0 {
		result.CoilsToBuy = int(math.Ceil(result.TotalWeightKg / input.AverageCoilWeightKg))
		result.CoilsKnown = true
	}

	return result
}

// ExplodeOrders 从台账取成品/毛坯库存与BOM定额后展开
func (s *BOMService) ExplodeOrders(orders map[string]int) (*ExplodeResult, error) {
	bom, err := s.repos.Catalog.ListAllBOM()
	if err != nil {
		return nil, fmt.Errorf("load bom: %w", err)
	}

	produced, err := s.repos.Production.SumPiecesByProduct()
	if err != nil {
		return nil, fmt.Errorf("sum production: %w", err)
	}
	shipped, err := s.repos.Shipping.SumQuantityByProduct()
	if err != nil {
		return nil, fmt.Errorf("sum shipping: %w", err)
	}
	finished := make(map[string]int, len(produced))
	for code, pieces := range produced {
		finished[code] = pieces - shipped[code]
	}

	// 毛坯 = 已分切未消耗的同编码子卷
	children, err := s.repos.Coil.ListInStockChildren()
	if err != nil {
		return nil, fmt.Errorf("list child coils: %w", err)
	}
	blanks := make(map[string]int)
	for _, child := range children {
		if !child.IsDirectConsumption {
			blanks[child.B2Code]++
		}
	}

	unitWeights := make(map[string]float64)
	for code := range orders {
		if item, err := s.repos.Catalog.GetByCode(code); err == nil {
			unitWeights[code] = item.UnitWeightKg
		}
	}

	return Explode(ExplodeInput{
		Orders:              orders,
		BOM:                 bom,
		FinishedStock:       finished,
		BlankStock:          blanks,
		UnitWeights:         unitWeights,
		AverageCoilWeightKg: s.averageCoilWeightKg,
	}), nil
}

// --- BOM定额维护 ---

// BOMLineRequest BOM行创建/更新请求
type BOMLineRequest struct {
	ProductCode     string  `json:"product_code" binding:"required"`
	RawCoilCode     string  `json:"raw_coil_code" binding:"required"`
	PerUnitWeightKg float64 `json:"per_unit_weight_kg" binding:"required,gt=0"`
}

func (s *BOMService) CreateLine(req *BOMLineRequest) (*entity.BOMLine, error) {
	line := &entity.BOMLine{
		ID:              uuid.New().String(),
		ProductCode:     req.ProductCode,
		RawCoilCode:     req.RawCoilCode,
		PerUnitWeightKg: req.PerUnitWeightKg,
	}
	if item, err := s.repos.Catalog.GetByCode(req.ProductCode); err == nil {
		line.ProductName = item.Description
	}
	if item, err := s.repos.Catalog.GetByCode(req.RawCoilCode); err == nil {
		line.RawCoilName = item.Description
	}
	if err := s.repos.Catalog.CreateBOMLine(line); err != nil {
		return nil, fmt.Errorf("create bom line: %w", err)
	}
	return line, nil
}

func (s *BOMService) UpdateLine(id string, req *BOMLineRequest) (*entity.BOMLine, error) {
	line, err := s.repos.Catalog.GetBOMLineByID(id)
	if err != nil {
		return nil, fmt.Errorf("find bom line: %w", err)
	}
	line.ProductCode = req.ProductCode
	line.RawCoilCode = req.RawCoilCode
	line.PerUnitWeightKg = req.PerUnitWeightKg
	if item, err := s.repos.Catalog.GetByCode(req.ProductCode); err == nil {
		line.ProductName = item.Description
	}
	if item, err := s.repos.Catalog.GetByCode(req.RawCoilCode); err == nil {
		line.RawCoilName = item.Description
	}
	if err := s.repos.Catalog.UpdateBOMLine(line); err != nil {
		return nil, fmt.Errorf("update bom line: %w", err)
	}
	return line, nil
}

func (s *BOMService) ListByProduct(productCode string) ([]entity.BOMLine, error) {
	return s.repos.Catalog.ListBOMByProduct(productCode)
}

func (s *BOMService) DeleteLine(id string) error {
	return s.repos.Catalog.DeleteBOMLine(id)
}
