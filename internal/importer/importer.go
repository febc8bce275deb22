// Package importer reads cards from spreadsheets. The first row is a header
// naming the columns; recognised names are module, submodule, question,
// answer, context, difficulty and tags (case-insensitive, in any order).
// Unknown columns are ignored.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/part66/internal/domain"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
)

const (
	colModule     = "module"
	colSubModule  = "submodule"
	colQuestion   = "question"
	colAnswer     = "answer"
	colContext    = "context"
	colDifficulty = "difficulty"
	colTags       = "tags"
)

var headerAliases = map[string]string{
	"module":     colModule,
	"module_id":  colModule,
	"submodule":  colSubModule,
	"sub_module": colSubModule,
	"sub-module": colSubModule,
	"question":   colQuestion,
	"q":          colQuestion,
	"answer":     colAnswer,
	"a":          colAnswer,
	"context":    colContext,
	"difficulty": colDifficulty,
	"tags":       colTags,
}

// Supported reports whether path has a spreadsheet extension this package reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ParseFile reads cards from a .csv or .xlsx file.
func ParseFile(path string) ([]domain.Card, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseCSV(f)
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		defer f.Close()
		return parseWorkbook(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseCSV reads cards from comma-separated input.
func ParseCSV(r io.Reader) ([]domain.Card, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

// ParseXLSX reads cards from the first sheet of an xlsx workbook.
func ParseXLSX(r io.Reader) ([]domain.Card, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return parseWorkbook(f)
}

func parseWorkbook(f *excelize.File) ([]domain.Card, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]domain.Card, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		if col, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	for _, required := range []string{colQuestion, colAnswer} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var cards []domain.Card
	for n, row := range rows[1:] {
		question := cell(row, colQuestion)
		if question == "" {
			continue
		}
		difficulty, err := domain.ParseDifficulty(cell(row, colDifficulty))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		card := domain.Card{
			ModuleID:    moduleID(cell(row, colModule)),
			SubModuleID: subModuleID(cell(row, colSubModule)),
			Question:    question,
			Answer:      cell(row, colAnswer),
			Context:     cell(row, colContext),
			Difficulty:  difficulty,
			Tags:        domain.NormalizeTags(strings.Split(cell(row, colTags), ",")),
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func moduleID(v string) string {
	if n := domain.ModuleNumber(v); n != "" {
		return domain.ModuleID(n)
	}
	return ""
}

func subModuleID(v string) string {
	if v == "" {
		return ""
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "submodule-") {
		return lower
	}
	return domain.SubModuleID(v)
}
