package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column layout of the import sheet; the first row is a header.
const (
	colName = iota
	colDescription
	colPrice
	colStock
	minColumns = colStock + 1
)

type importResult struct {
	Books   []model.Book
	Rows    int
	Skipped int
}

func readBooksFromXLSX(filePath string) (*importResult, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()
	return readBooks(f)
}

func readBooks(f *excelize.File) (*importResult, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	result := &importResult{Rows: len(rows) - 1}
	seen := make(map[string]bool)

	for _, row := range rows[1:] {
		book, ok := parseBookRow(row)
		if !ok {
			result.Skipped++
			continue
		}
		key := strings.ToLower(book.Name)
		if seen[key] {
			result.Skipped++
			continue
		}
		seen[key] = true
		result.Books = append(result.Books, book)
	}
	return result, nil
}

func parseBookRow(row []string) (model.Book, bool) {
	if len(row) < minColumns {
		return model.Book{}, false
	}

	name := strings.TrimSpace(row[colName])
	if name == "" || len([]rune(name)) > 100 {
		return model.Book{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row[colPrice]))
	if err != nil || price.IsNegative() {
		return model.Book{}, false
	}

	stock, err := strconv.Atoi(strings.TrimSpace(row[colStock]))
	if err != nil || stock < 0 {
		return model.Book{}, false
	}

	return model.Book{
		Name:        name,
		Description: strings.TrimSpace(row[colDescription]),
		Price:       model.NewMoney(price),
		Stock:       stock,
	}, true
}
