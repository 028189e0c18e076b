package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportService 库存/投影结果导出为 xlsx
type ExportService struct {
	stock *StockService
}

func NewExportService(stock *StockService) *ExportService {
	return &ExportService{stock: stock}
}

// ExportStock 导出三类库存视图，每类一个工作表
func (s *ExportService) ExportStock() (*bytes.Buffer, error) {
	mothers, err := s.stock.MotherStock()
	if err != nil {
		return nil, err
	}
	children, err := s.stock.ChildStock()
	if err != nil {
		return nil, err
	}
	finished, err := s.stock.FinishedStock()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "母卷库存"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &[]interface{}{"物料编码", "宽度(mm)", "名称", "总重量(kg)", "卷数"})
	for i, e := range mothers {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &[]interface{}{e.MaterialCode, e.WidthMM, e.MaterialName, e.TotalWeight, e.Count})
	}

	sheet = "子卷库存"
	f.NewSheet(sheet)
	f.SetSheetRow(sheet, "A1", &[]interface{}{"B2编码", "名称", "总重量(kg)", "卷数"})
	for i, e := range children {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &[]interface{}{e.B2Code, e.MaterialName, e.TotalWeight, e.Count})
	}

	sheet = "成品库存"
	f.NewSheet(sheet)
	f.SetSheetRow(sheet, "A1", &[]interface{}{"成品编码", "名称", "净库存"})
	for i, e := range finished {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &[]interface{}{e.ProductCode, e.ProductName, e.Net})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}

// ExportMRP 导出MRP投影行
func (s *ExportService) ExportMRP(result *MRPResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "MRP"
	f.SetSheetName("Sheet1", sheet)
	header := []interface{}{"板料编码", "名称", "库存(kg)"}
	for i := 0; i < result.Periods; i++ {
		header = append(header, fmt.Sprintf("M%d需求", i+1), fmt.Sprintf("M%d结余", i+1))
	}
	header = append(header, "严重度")
	f.SetSheetRow(sheet, "A1", &header)

	for i, row := range result.Rows {
		values := []interface{}{row.PlateCode, row.PlateName, row.StockKg}
		for _, p := range row.Periods {
			values = append(values, p.DemandKg, p.BalanceKg)
		}
		values = append(values, row.Severity)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &values)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}
