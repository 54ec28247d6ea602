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

	"github.com/example/wordbook/pkg/models"
)

// Book is the part of the vocabulary service used by import and export
type Book interface {
	Add(ctx context.Context, entry models.VocabularyEntry) bool
	Upsert(ctx context.Context, entry models.VocabularyEntry) bool
	Exists(ctx context.Context, word string) bool
	ListWithProgress(ctx context.Context) []models.ReviewItem
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath           string // Path to the Excel or CSV file
	WordColumn         string // Column with the word
	TranslationColumn  string // Column with the translation
	PhoneticColumn     string // Column with the phonetic transcription
	FromLanguageColumn string // Column with the source language
	ToLanguageColumn   string // Column with the target language
	NoteColumn         string // Column with a free-form note
	SheetName          string // Name of the sheet to import, first sheet when empty
	StartRow           int    // The row to start importing from (1-based index)
	Upsert             bool   // Replace fields of words that already exist
	StripHints         bool   // Drop parenthesized grammar hints from words, "go (went, gone)" -> "go"
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:         "A",
		TranslationColumn:  "B",
		PhoneticColumn:     "C",
		FromLanguageColumn: "D",
		ToLanguageColumn:   "E",
		NoteColumn:         "F",
		StartRow:           2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

var errEmptyWord = errors.New("word cannot be empty")

// ImportWords imports words from an Excel or CSV file
func ImportWords(ctx context.Context, book Book, config ImportConfig) (*ImportResult, error) {
	var rows [][]string
	var err error

	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}
		if blank(row) {
			continue
		}

		result.TotalProcessed++
		if err := processRow(ctx, book, config, row, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// readExcel returns every row of the sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns every record of the file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow turns one row into an entry and stores it
func processRow(ctx context.Context, book Book, config ImportConfig, row []string, result *ImportResult) error {
	entry := models.VocabularyEntry{
		Word:         strings.TrimSpace(cell(row, config.WordColumn)),
		Translation:  strings.TrimSpace(cell(row, config.TranslationColumn)),
		Phonetic:     strings.TrimSpace(cell(row, config.PhoneticColumn)),
		FromLanguage: strings.TrimSpace(cell(row, config.FromLanguageColumn)),
		ToLanguage:   strings.TrimSpace(cell(row, config.ToLanguageColumn)),
		Note:         strings.TrimSpace(cell(row, config.NoteColumn)),
	}
	if config.StripHints {
		entry.Word = cleanWord(entry.Word)
	}
	if entry.Word == "" {
		return errEmptyWord
	}

	exists := book.Exists(ctx, entry.Word)
	switch {
	case exists && config.Upsert:
		if !book.Upsert(ctx, entry) {
			return fmt.Errorf("failed to update %q", entry.Word)
		}
		result.Updated++
	case exists:
		result.Skipped++
	default:
		if !book.Add(ctx, entry) {
			return fmt.Errorf("failed to add %q", entry.Word)
		}
		result.Created++
	}
	return nil
}

// cell returns the value in the given column letter, or "" when the row is shorter
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cleanWord strips grammar hints in parentheses, "go (went, gone)" -> "go"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
