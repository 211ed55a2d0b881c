// Package excel exports and imports the product catalog as xlsx workbooks
// for the admin panel.
package excel

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/orientwatch/backend/internal/domain"
)

var columns = []string{
	"id", "name", "collection", "price", "image", "images", "description",
	"features", "specs", "in_stock", "stock_quantity", "sku", "movement",
	"case_material", "dial_color", "water_resistance", "seo_title",
	"seo_description",
}

const sheetName = "Products"

// Export writes all products to an xlsx workbook.
func Export(products []domain.Product) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C8102E"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, p := range products {
		values := []any{
			p.ID, p.Name, p.Collection, p.Price, p.Image, p.Images,
			p.Description, p.Features, p.Specs, p.InStock, p.StockQuantity,
			p.SKU, p.Movement, p.CaseMaterial, p.DialColor, p.WaterResistance,
			p.SEOTitle, p.SEODescription,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}

// ImportResult summarises one import run.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ProductStore is the subset of the product repository the importer needs.
type ProductStore interface {
	GetBySKU(sku string) (*domain.Product, error)
	Insert(p *domain.Product) error
	Update(p *domain.Product) error
}

// Import reads an exported workbook back and upserts products by SKU. Rows
// without a SKU, and rows that fail to parse, are skipped and reported.
func Import(r io.Reader, store ProductStore) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return &ImportResult{}, nil
	}

	// Map header names to their position so column reordering survives.
	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := idx["sku"]; !ok {
		return nil, fmt.Errorf("workbook has no sku column")
	}

	result := &ImportResult{}
	for rowNum, row := range rows[1:] {
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		sku := get("sku")
		if sku == "" {
			result.Skipped++
			continue
		}

		price, err := strconv.ParseInt(get("price"), 10, 64)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: bad price %q", rowNum+2, get("price")))
			result.Skipped++
			continue
		}

		stockQty, _ := strconv.Atoi(get("stock_quantity"))
		inStock := parseBool(get("in_stock"))

		p := domain.Product{
			Name:            get("name"),
			Collection:      get("collection"),
			Price:           price,
			Image:           get("image"),
			Images:          defaultJSON(get("images"), "[]"),
			Description:     get("description"),
			Features:        defaultJSON(get("features"), "[]"),
			Specs:           defaultJSON(get("specs"), "{}"),
			InStock:         inStock,
			StockQuantity:   stockQty,
			SKU:             sku,
			Movement:        get("movement"),
			CaseMaterial:    get("case_material"),
			DialColor:       get("dial_color"),
			WaterResistance: get("water_resistance"),
			SEOTitle:        get("seo_title"),
			SEODescription:  get("seo_description"),
		}

		existing, err := store.GetBySKU(sku)
		if err == nil {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			if err := store.Update(&p); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("row %d: update %s: %v", rowNum+2, sku, err))
				result.Skipped++
				continue
			}
			result.Updated++
			continue
		}

		if err := store.Insert(&p); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: insert %s: %v", rowNum+2, sku, err))
			result.Skipped++
			continue
		}
		result.Created++
	}

	return result, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func defaultJSON(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
