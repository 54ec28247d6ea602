package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the sheet name used for xlsx exports, the default of a new workbook
const ExportSheet = "Sheet1"

var exportHeader = []string{
	"Word", "Translation", "Phonetic", "From", "To", "Note",
	"Created", "Proficiency", "Reviews", "Successes", "Failures", "Next review", "Updated",
}

// ExportWords writes every word with its progress to an Excel or CSV file.
// The first six columns match DefaultImportConfig, so the file can be imported back.
func ExportWords(ctx context.Context, book Book, path string) (int, error) {
	items := book.ListWithProgress(ctx)

	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, exportHeader)
	for _, item := range items {
		e, p := item.VocabularyEntry, item.Progress
		next := ""
		if t, ok := p.NextReview(); ok {
			next = t.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			e.Word, e.Translation, e.Phonetic, e.FromLanguage, e.ToLanguage, e.Note,
			e.Created().UTC().Format(time.RFC3339),
			strconv.Itoa(p.Proficiency),
			strconv.Itoa(p.ReviewCount),
			strconv.Itoa(p.SuccessCount),
			strconv.Itoa(p.FailCount),
			next,
			e.Updated().UTC().Format(time.RFC3339),
		})
	}

	var err error
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		err = writeCSV(path, rows)
	} else {
		err = writeExcel(path, rows)
	}
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func writeExcel(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(ExportSheet, cellName, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return file.Close()
}
