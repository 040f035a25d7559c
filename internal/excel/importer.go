package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath                 string // Path to the Excel or CSV file
	WordColumn               string // Column with the German word
	WordTypeColumn           string // Column with the part of speech
	EnglishColumn            string // Column with the English gloss
	LevelColumn              string // Column with the CEFR level
	ExampleColumn            string // Column with the example sentence
	ExampleTranslationColumn string // Column with the example translation
	SheetName                string // Name of the sheet to import
	StartRow                 int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:               "A",
		WordTypeColumn:           "B",
		EnglishColumn:            "C",
		LevelColumn:              "D",
		ExampleColumn:            "E",
		ExampleTranslationColumn: "F",
		SheetName:                "Sheet1",
		StartRow:                 2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// ImportWords imports catalog words from an Excel or CSV file. Rows whose
// (word, type) key already exists are counted as skipped; row-level problems
// are collected, not fatal.
func ImportWords(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if strings.EqualFold(filepath.Ext(config.FilePath), ".csv") {
		return importFromCSV(ctx, config)
	}
	return importFromExcel(ctx, config)
}

func importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", config.SheetName, err)
	}

	columns := map[string]int{
		config.WordColumn:               -1,
		config.WordTypeColumn:           -1,
		config.EnglishColumn:            -1,
		config.LevelColumn:              -1,
		config.ExampleColumn:            -1,
		config.ExampleTranslationColumn: -1,
	}
	for name := range columns {
		index, err := excelize.ColumnNameToNumber(name)
		if err != nil {
			return nil, fmt.Errorf("invalid column name %q: %w", name, err)
		}
		columns[name] = index - 1
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNumber := i + 1
		if rowNumber < config.StartRow {
			continue
		}
		importRow(ctx, result, rowNumber, rowRecord{
			word:               cell(row, columns[config.WordColumn]),
			wordType:           cell(row, columns[config.WordTypeColumn]),
			english:            cell(row, columns[config.EnglishColumn]),
			level:              cell(row, columns[config.LevelColumn]),
			example:            cell(row, columns[config.ExampleColumn]),
			exampleTranslation: cell(row, columns[config.ExampleTranslationColumn]),
		})
	}
	return result, nil
}

func importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	result := &ImportResult{Errors: make([]string, 0)}
	rowNumber := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rowNumber++
		if rowNumber < config.StartRow {
			continue
		}
		importRow(ctx, result, rowNumber, rowRecord{
			word:               cell(row, 0),
			wordType:           cell(row, 1),
			english:            cell(row, 2),
			level:              cell(row, 3),
			example:            cell(row, 4),
			exampleTranslation: cell(row, 5),
		})
	}
	return result, nil
}

type rowRecord struct {
	word               string
	wordType           string
	english            string
	level              string
	example            string
	exampleTranslation string
}

func importRow(ctx context.Context, result *ImportResult, rowNumber int, rec rowRecord) {
	result.TotalProcessed++

	if rec.word == "" || rec.wordType == "" || rec.english == "" {
		result.Errors = append(result.Errors,
			fmt.Sprintf("row %d: word, word_type and english are required", rowNumber))
		return
	}

	wordRepo := database.NewWordRepository()
	wordType, err := wordRepo.GetOrCreateWordType(ctx, rec.wordType)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNumber, err))
		return
	}

	_, err = wordRepo.Create(ctx, database.CreateParams{
		Word:               rec.word,
		WordTypeID:         wordType.ID,
		English:            rec.english,
		Level:              models.CoerceLevel(rec.level),
		Example:            rec.example,
		ExampleTranslation: rec.exampleTranslation,
	})
	if errors.Is(err, apperr.ErrDuplicateCatalogWord) {
		result.Skipped++
		return
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNumber, err))
		return
	}
	result.Created++
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
