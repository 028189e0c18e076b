package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
)

// 期别状态
const (
	PeriodStatusOK       = "OK"
	PeriodStatusCritical = "CRITICAL"
	PeriodStatusWarning  = "WARNING"
)

// 整行严重度
const (
	SeverityUrgent    = "URGENT"
	SeverityAttention = "ATTENTION"
	SeverityOK        = "OK"
)

var severityRank = map[string]int{
	SeverityUrgent:    3,
	SeverityAttention: 2,
	SeverityOK:        1,
}

// MRPService 物料需求计划：生产配比 → 板料需求 → 多期结余与缺料分级
type MRPService struct {
	repos   *repository.Repositories
	periods int
}

func NewMRPService(repos *repository.Repositories, periods int) *MRPService {
	if periods <= 0 {
		periods = 3
	}
	return &MRPService{repos: repos, periods: periods}
}

// MRPProduct 参与排产的成品
type MRPProduct struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	MixPercent   float64 `json:"mix_percent"`
	UnitWeightKg float64 `json:"unit_weight_kg"`
	PlateCode    string  `json:"plate_code"`
	PlateName    string  `json:"plate_name"`
}

// PlanRow 排产行：数量 = round(配比% × 总量)，钢料需求 = 数量 × 单件重量
type PlanRow struct {
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	MixPercent   float64 `json:"mix_percent"`
	Quantity     int     `json:"quantity"`
	DemandKg     float64 `json:"demand_kg"`
	UnitWeightKg float64 `json:"unit_weight_kg"`
	PlateCode    string  `json:"plate_code"`
}

// MRPConsumer 板料的消耗方（追溯用），按消耗量降序
type MRPConsumer struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	DemandKg    float64 `json:"demand_kg"`
}

// MRPPeriod 单期投影
type MRPPeriod struct {
	DemandKg  float64 `json:"demand_kg"`
	BalanceKg float64 `json:"balance_kg"`
	Status    string  `json:"status"`
}

// MRPRow 单板料的多期投影行
type MRPRow struct {
	PlateCode string        `json:"plate_code"`
	PlateName string        `json:"plate_name"`
	StockKg   float64       `json:"stock_kg"`
	Periods   []MRPPeriod   `json:"periods"`
	Consumers []MRPConsumer `json:"consumers"`
	Severity  string        `json:"severity"`
}

// MRPInput 投影输入
// Forecast 为各板料的分期需求预报；缺省时各期重复首期需求。
type MRPInput struct {
	Products     []MRPProduct
	TotalVolume  float64
	StockByPlate map[string]float64
	Forecast     map[string][]float64
}

// MRPResult 投影结果
type MRPResult struct {
	Plan    []PlanRow `json:"plan"`
	Rows    []MRPRow  `json:"rows"`
	Periods int       `json:"periods"`
}

// Project 纯计算投影，不触库
// 结余链: balance(1)=stock−demand(1); balance(n)=max(0,balance(n−1))−demand(n)。
// 首期缺口为 CRITICAL，后续期缺口为 WARNING；URGENT > ATTENTION > OK 降序稳定排序。
func (s *MRPService) Project(input MRPInput) *MRPResult {
	plan := make([]PlanRow, 0, len(input.Products))
	for _, p := range input.Products {
		quantity := int(math.Round(p.MixPercent / 100 * input.TotalVolume))
		plan = append(plan, PlanRow{
			ProductCode:  p.Code,
			ProductName:  p.Name,
			MixPercent:   p.MixPercent,
			Quantity:     quantity,
			DemandKg:     float64(quantity) * p.UnitWeightKg,
			UnitWeightKg: p.UnitWeightKg,
			PlateCode:    p.PlateCode,
		})
	}

	// 按板料聚合需求，保留消耗方追溯
	type plateAgg struct {
		code      string
		name      string
		demand    float64
		consumers []MRPConsumer
	}
	var order []string
	aggs := make(map[string]*plateAgg)
	for i, row := range plan {
		if row.PlateCode == "" {
			continue
		}
		agg, ok := aggs[row.PlateCode]
		if !ok {
			agg = &plateAgg{code: row.PlateCode, name: input.Products[i].PlateName}
			aggs[row.PlateCode] = agg
			order = append(order, row.PlateCode)
		}
		agg.demand += row.DemandKg
		agg.consumers = append(agg.consumers, MRPConsumer{
			ProductCode: row.ProductCode,
			ProductName: row.ProductName,
			Quantity:    row.Quantity,
			DemandKg:    row.DemandKg,
		})
	}

	rows := make([]MRPRow, 0, len(order))
	for _, code := range order {
		agg := aggs[code]
		sort.SliceStable(agg.consumers, func(i, j int) bool {
			return agg.consumers[i].DemandKg > agg.consumers[j].DemandKg
		})

		stock := input.StockByPlate[code]
		demands := make([]float64, s.periods)
		forecast := input.Forecast[code]
		for i := range demands {
			if i < len(forecast) {
				demands[i] = forecast[i]
			} else {
				demands[i] = agg.demand
			}
		}

		periods := make([]MRPPeriod, s.periods)
		carry := stock
		for i := range periods {
			balance := carry - demands[i]
			status := PeriodStatusOK
			if balance < 0 {
				if i == 0 {
					status = PeriodStatusCritical
				} else {
					status = PeriodStatusWarning
				}
			}
			periods[i] = MRPPeriod{DemandKg: demands[i], BalanceKg: balance, Status: status}
			carry = math.Max(0, balance)
		}

		severity := SeverityOK
		if periods[0].Status == PeriodStatusCritical {
			severity = SeverityUrgent
		} else {
			for _, p := range periods[1:] {
				if p.Status == PeriodStatusWarning {
					severity = SeverityAttention
					break
				}
			}
		}

		rows = append(rows, MRPRow{
			PlateCode: agg.code,
			PlateName: agg.name,
			StockKg:   stock,
			Periods:   periods,
			Consumers: agg.consumers,
			Severity:  severity,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return severityRank[rows[i].Severity] > severityRank[rows[j].Severity]
	})

	return &MRPResult{Plan: plan, Rows: rows, Periods: s.periods}
}

// ProjectRequest 投影请求
// TotalVolume 与 DailyRate×Days 二选一，总量优先。
type ProjectRequest struct {
	Products []struct {
		Code       string  `json:"code" binding:"required"`
		MixPercent float64 `json:"mix_percent" binding:"required,gt=0"`
	} `json:"products" binding:"required,min=1"`
	TotalVolume float64              `json:"total_volume"`
	DailyRate   float64              `json:"daily_rate"`
	Days        int                  `json:"days"`
	Forecast    map[string][]float64 `json:"forecast"`
}

// ProjectFromPlan 从物料目录解析成品规格、从在库母卷汇总板料库存后投影
func (s *MRPService) ProjectFromPlan(req *ProjectRequest) (*MRPResult, error) {
	totalVolume := req.TotalVolume
	if totalVolume <= 0 {
		totalVolume = req.DailyRate * float64(req.Days)
	}
	if totalVolume <= 0 {
		return nil, fmt.Errorf("排产总量必须大于0")
	}

	products := make([]MRPProduct, 0, len(req.Products))
	for _, p := range req.Products {
		item, err := s.repos.Catalog.GetByCode(p.Code)
		if err != nil {
			return nil, fmt.Errorf("目录编码不存在: %s", p.Code)
		}
		plateName := ""
		if item.PlateCode != "" {
			if plate, err := s.repos.Catalog.GetByCode(item.PlateCode); err == nil {
				plateName = plate.Description
			}
		}
		products = append(products, MRPProduct{
			Code:         item.Code,
			Name:         item.Description,
			MixPercent:   p.MixPercent,
			UnitWeightKg: item.UnitWeightKg,
			PlateCode:    item.PlateCode,
			PlateName:    plateName,
		})
	}

	stockByPlate, err := s.stockByPlate()
	if err != nil {
		return nil, err
	}

	return s.Project(MRPInput{
		Products:     products,
		TotalVolume:  totalVolume,
		StockByPlate: stockByPlate,
		Forecast:     req.Forecast,
	}), nil
}

// stockByPlate 在库母卷剩余重量按目录板料编码汇总
func (s *MRPService) stockByPlate() (map[string]float64, error) {
	coils, err := s.repos.Coil.ListInStockMothers()
	if err != nil {
		return nil, fmt.Errorf("list mother coils: %w", err)
	}

	plateByMaterial := make(map[string]string)
	stock := make(map[string]float64)
	for _, coil := range coils {
		plate, ok := plateByMaterial[coil.MaterialCode]
		if !ok {
			plate = coil.MaterialCode
			if item, err := s.repos.Catalog.GetByCode(coil.MaterialCode); err == nil && item.PlateCode != "" {
				plate = item.PlateCode
			}
			plateByMaterial[coil.MaterialCode] = plate
		}
		stock[plate] += coil.RemainingWeight
	}
	return stock, nil
}
