// Package catalog imports CEFR vocabulary catalogs from spreadsheets.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sublearn/internal/domain"
	"sublearn/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Config describes where the catalog columns live
type Config struct {
	Language          string
	LemmaColumn       string
	LevelColumn       string
	TranslationColumn string
	SheetName         string // first sheet when empty
	StartRow          int    // 1-based, rows before it are headers
}

// DefaultConfig returns lemma, level and translation in columns A, B and C
func DefaultConfig(language string) Config {
	return Config{
		Language:          language,
		LemmaColumn:       "A",
		LevelColumn:       "B",
		TranslationColumn: "C",
		StartRow:          2,
	}
}

// Result holds the outcome of reading or importing a catalog
type Result struct {
	Processed  int      `json:"processed"`
	Accepted   int      `json:"accepted"`
	Duplicates int      `json:"duplicates"`
	Written    int      `json:"written"`
	Errors     []string `json:"errors,omitempty"`
}

type columns struct {
	lemma, level, translation int
}

func (c Config) columns() (columns, error) {
	var cols columns
	var err error
	if cols.lemma, err = columnIndex(c.LemmaColumn); err != nil {
		return cols, err
	}
	if cols.level, err = columnIndex(c.LevelColumn); err != nil {
		return cols, err
	}
	if c.TranslationColumn == "" {
		cols.translation = -1
		return cols, nil
	}
	cols.translation, err = columnIndex(c.TranslationColumn)
	return cols, err
}

// ReadFile parses a .xlsx or .csv catalog into concepts. Rows that cannot be
// parsed are reported in Result.Errors and skipped.
func ReadFile(path string, cfg Config) ([]domain.VocabularyConcept, *Result, error) {
	if strings.TrimSpace(cfg.Language) == "" {
		return nil, nil, errors.New("catalog language is required")
	}
	cols, err := cfg.columns()
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(path, cfg.SheetName)
	default:
		return nil, nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, nil, err
	}

	concepts, result := parseRows(rows, cfg, cols)
	return concepts, result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRows(rows [][]string, cfg Config, cols columns) ([]domain.VocabularyConcept, *Result) {
	result := &Result{Errors: make([]string, 0)}
	seen := make(map[string]struct{})
	var concepts []domain.VocabularyConcept

	startRow := cfg.StartRow
	if startRow < 1 {
		startRow = 1
	}

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < startRow || blank(row) {
			continue
		}
		result.Processed++

		lemma := strings.ToLower(cell(row, cols.lemma))
		if lemma == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: lemma is empty", rowNum))
			continue
		}
		level, err := domain.ParseCEFRLevel(cell(row, cols.level))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if _, dup := seen[lemma]; dup {
			result.Duplicates++
			continue
		}
		seen[lemma] = struct{}{}

		concepts = append(concepts, domain.VocabularyConcept{
			Lemma:        lemma,
			Language:     cfg.Language,
			Level:        level,
			Translations: cell(row, cols.translation),
		})
	}

	result.Accepted = len(concepts)
	return concepts, result
}

// Importer writes parsed catalogs into the concept store
type Importer struct {
	repo   repository.ConceptRepository
	logger *zap.Logger
}

// NewImporter creates a new catalog importer
func NewImporter(repo repository.ConceptRepository, logger *zap.Logger) *Importer {
	return &Importer{repo: repo, logger: logger}
}

// Import reads path and upserts every accepted concept in one transaction
func (i *Importer) Import(ctx context.Context, path string, cfg Config) (*Result, error) {
	concepts, result, err := ReadFile(path, cfg)
	if err != nil {
		return nil, err
	}

	written, err := i.repo.UpsertConcepts(ctx, concepts)
	if err != nil {
		i.logger.Error("Catalog import failed", zap.String("path", path), zap.Error(err))
		return result, fmt.Errorf("store concepts: %w", err)
	}
	result.Written = written

	i.logger.Info("Catalog imported",
		zap.String("path", path),
		zap.String("language", cfg.Language),
		zap.Int("processed", result.Processed),
		zap.Int("written", result.Written),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(name))
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
