package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pincode-hexmap/internal/models"

	"github.com/xuri/excelize/v2"
)

// RecordFileSource reads location records from a spreadsheet or CSV file
type RecordFileSource struct {
	path     string
	idColumn string
}

// NewRecordFileSource creates a record source for path. idColumn names the
// header of the pincode column.
func NewRecordFileSource(path, idColumn string) *RecordFileSource {
	return &RecordFileSource{path: path, idColumn: idColumn}
}

// LoadRecords reads every data row. Blank pincode cells become nil
// identifiers; rows that are entirely blank are skipped.
func (s *RecordFileSource) LoadRecords(ctx context.Context) ([]models.Record, error) {
	if s.path == "" {
		return nil, errors.New("repository: record file path is empty")
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readSpreadsheet(s.path)
	case ".csv":
		rows, err = readCSV(s.path)
	default:
		return nil, fmt.Errorf("repository: unsupported record file type %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.toRecords(rows)
}

func (s *RecordFileSource) toRecords(rows [][]string) ([]models.Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("repository: %s has no header row", s.path)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idCol := -1
	for i, name := range header {
		if strings.TrimSpace(name) == s.idColumn {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("repository: %s has no %q column", s.path, s.idColumn)
	}

	records := make([]models.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}

		attrs := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(row) {
				attrs[name] = row[j]
			} else {
				attrs[name] = ""
			}
		}

		var id any
		if idCol < len(row) && row[idCol] != "" {
			id = row[idCol]
		}

		records = append(records, models.Record{
			Row:        i + 2,
			Identifier: id,
			Attributes: attrs,
		})
	}

	return records, nil
}

func readSpreadsheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("repository: %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("repository: failed to read record: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
