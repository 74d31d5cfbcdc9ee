package annotation

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook column layout, one annotation per row after a header row:
// id | image_id | category | spanish_term | english_term | pronunciation |
// difficulty | x1 | y1 | x2 | y2 | visible
const workbookColumns = 12

// ImportWorkbook reads annotations from an XLSX workbook produced by the
// content team. Rows that fail validation abort the import so a bad
// spreadsheet never half-populates a pool.
func ImportWorkbook(path string) ([]Annotation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook %s has no data rows", path)
	}

	now := time.Now()
	annotations := make([]Annotation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header
		if isBlankRow(row) {
			continue
		}
		a, err := parseRow(row, now)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, rowNum, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, rowNum, err)
		}
		annotations = append(annotations, a)
	}

	slog.Info("workbook imported", "path", path, "annotations", len(annotations))
	return annotations, nil
}

func parseRow(row []string, now time.Time) (Annotation, error) {
	cells := make([]string, workbookColumns)
	for i := 0; i < workbookColumns && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}

	difficulty, err := strconv.Atoi(cells[6])
	if err != nil {
		return Annotation{}, fmt.Errorf("difficulty %q is not an integer", cells[6])
	}

	coords := make([]float64, 4)
	for i, cell := range cells[7:11] {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Annotation{}, fmt.Errorf("coordinate %q is not a number", cell)
		}
		coords[i] = v
	}

	visible := true
	if cells[11] != "" {
		visible = strings.EqualFold(cells[11], "true") || cells[11] == "1"
	}

	return Annotation{
		ID:            cells[0],
		ImageID:       cells[1],
		Category:      Category(cells[2]),
		SpanishTerm:   cells[3],
		EnglishTerm:   cells[4],
		Pronunciation: cells[5],
		Region: Region{
			TopLeft:     Point{X: coords[0], Y: coords[1]},
			BottomRight: Point{X: coords[2], Y: coords[3]},
		},
		DifficultyLevel: difficulty,
		Visible:         visible,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
