package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	stockCacheTTL         = 30 * time.Second
	cacheKeyMotherStock   = "mes:stock:mother"
	cacheKeyChildStock    = "mes:stock:child"
	cacheKeyFinishedStock = "mes:stock:finished"
)

// StockService 库存汇总：对台账快照做纯聚合，每次读取重算，不落库
type StockService struct {
	repos  *repository.Repositories
	rdb    *redis.Client
	logger *zap.Logger
}

func NewStockService(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *StockService {
	return &StockService{repos: repos, rdb: rdb, logger: logger}
}

// MotherStockEntry 母卷库存行，按 (物料编码, 宽度) 汇总
type MotherStockEntry struct {
	MaterialCode string  `json:"material_code"`
	WidthMM      float64 `json:"width_mm"`
	MaterialName string  `json:"material_name"`
	TotalWeight  float64 `json:"total_weight"`
	Count        int     `json:"count"`
}

// ChildStockEntry 子卷库存行，按 B2 编码汇总
type ChildStockEntry struct {
	B2Code       string  `json:"b2_code"`
	MaterialName string  `json:"material_name"`
	TotalWeight  float64 `json:"total_weight"`
	Count        int     `json:"count"`
}

// FinishedStockEntry 成品净库存行 = Σ生产件数 − Σ发货数量
type FinishedStockEntry struct {
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Net         int    `json:"net"`
}

// ConsolidateMotherStock 在库母卷按 (编码, 宽度) 分组求和
// 名称优先取目录描述，缺失时回退钢卷自带名称。结果按键排序，与输入顺序无关。
func ConsolidateMotherStock(coils []entity.MotherCoil, catalogNames map[string]string) []MotherStockEntry {
	type key struct {
		code  string
		width float64
	}
	groups := make(map[key]*MotherStockEntry)
	for _, coil := range coils {
		k := key{code: coil.MaterialCode, width: coil.WidthMM}
		e, ok := groups[k]
		if !ok {
			name := catalogNames[coil.MaterialCode]
			if name == "" {
				name = coil.MaterialName
			}
			e = &MotherStockEntry{MaterialCode: coil.MaterialCode, WidthMM: coil.WidthMM, MaterialName: name}
			groups[k] = e
		}
		e.TotalWeight += coil.RemainingWeight
		e.Count++
	}

	entries := make([]MotherStockEntry, 0, len(groups))
	for _, e := range groups {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MaterialCode != entries[j].MaterialCode {
			return entries[i].MaterialCode < entries[j].MaterialCode
		}
		return entries[i].WidthMM < entries[j].WidthMM
	})
	return entries
}

// ConsolidateChildStock 在库子卷按 B2 编码分组求和，直接消耗行不参与
func ConsolidateChildStock(coils []entity.ChildCoil) []ChildStockEntry {
	groups := make(map[string]*ChildStockEntry)
	for _, coil := range coils {
		if coil.IsDirectConsumption {
			continue
		}
		e, ok := groups[coil.B2Code]
		if !ok {
			e = &ChildStockEntry{B2Code: coil.B2Code, MaterialName: coil.MaterialName}
			groups[coil.B2Code] = e
		}
		e.TotalWeight += coil.Weight
		e.Count++
	}

	entries := make([]ChildStockEntry, 0, len(groups))
	for _, e := range groups {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].B2Code < entries[j].B2Code })
	return entries
}

// ConsolidateFinishedStock 成品净库存 = 生产 − 发货，净值≤0的行从视图剔除
func ConsolidateFinishedStock(produced, shipped map[string]int, names map[string]string) []FinishedStockEntry {
	codes := make(map[string]bool, len(produced)+len(shipped))
	for code := range produced {
		codes[code] = true
	}
	for code := range shipped {
		codes[code] = true
	}

	entries := make([]FinishedStockEntry, 0, len(codes))
	for code := range codes {
		net := produced[code] - shipped[code]
		if net <= 0 {
			continue
		}
		entries = append(entries, FinishedStockEntry{ProductCode: code, ProductName: names[code], Net: net})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductCode < entries[j].ProductCode })
	return entries
}

// MotherStock 母卷库存视图（带短时缓存）
func (s *StockService) MotherStock() ([]MotherStockEntry, error) {
	var cached []MotherStockEntry
	if s.cacheGet(cacheKeyMotherStock, &cached) {
		return cached, nil
	}

	coils, err := s.repos.Coil.ListInStockMothers()
	if err != nil {
		return nil, fmt.Errorf("list mother coils: %w", err)
	}
	names, err := s.repos.Catalog.NamesByCode()
	if err != nil {
		return nil, fmt.Errorf("load catalog names: %w", err)
	}

	entries := ConsolidateMotherStock(coils, names)
	s.cacheSet(cacheKeyMotherStock, entries)
	return entries, nil
}

// ChildStock 子卷库存视图（带短时缓存）
func (s *StockService) ChildStock() ([]ChildStockEntry, error) {
	var cached []ChildStockEntry
	if s.cacheGet(cacheKeyChildStock, &cached) {
		return cached, nil
	}

	coils, err := s.repos.Coil.ListInStockChildren()
	if err != nil {
		return nil, fmt.Errorf("list child coils: %w", err)
	}

	entries := ConsolidateChildStock(coils)
	s.cacheSet(cacheKeyChildStock, entries)
	return entries, nil
}

// FinishedStock 成品净库存视图（带短时缓存）
func (s *StockService) FinishedStock() ([]FinishedStockEntry, error) {
	var cached []FinishedStockEntry
	if s.cacheGet(cacheKeyFinishedStock, &cached) {
		return cached, nil
	}

	produced, err := s.repos.Production.SumPiecesByProduct()
	if err != nil {
		return nil, fmt.Errorf("sum production: %w", err)
	}
	shipped, err := s.repos.Shipping.SumQuantityByProduct()
	if err != nil {
		return nil, fmt.Errorf("sum shipping: %w", err)
	}
	names, err := s.repos.Production.ProductNames()
	if err != nil {
		return nil, fmt.Errorf("load product names: %w", err)
	}

	entries := ConsolidateFinishedStock(produced, shipped, names)
	s.cacheSet(cacheKeyFinishedStock, entries)
	return entries, nil
}

// FinishedNet 单个成品的净库存（不剔除负值，发货校验用）
func (s *StockService) FinishedNet(productCode string) (int, error) {
	produced, err := s.repos.Production.SumPiecesByProduct()
	if err != nil {
		return 0, err
	}
	shipped, err := s.repos.Shipping.SumQuantityByProduct()
	if err != nil {
		return 0, err
	}
	return produced[productCode] - shipped[productCode], nil
}

// Invalidate 台账变更后清除库存视图缓存
func (s *StockService) Invalidate() {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(context.Background(), cacheKeyMotherStock, cacheKeyChildStock, cacheKeyFinishedStock).Err(); err != nil {
		s.logger.Warn("invalidate stock cache failed", zap.Error(err))
	}
}

func (s *StockService) cacheGet(key string, dest interface{}) bool {
	if s.rdb == nil {
		return false
	}
	data, err := s.rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *StockService) cacheSet(key string, value interface{}) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.rdb.Set(context.Background(), key, data, stockCacheTTL).Err(); err != nil {
		s.logger.Warn("cache stock view failed", zap.String("key", key), zap.Error(err))
	}
}
