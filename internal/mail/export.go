package mail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes a headers+rows table to an .xlsx workbook inside dir and
// returns the full path. The file name embeds a UTC timestamp so repeated
// exports never clobber each other.
func ExportXLSX(dir, title string, headers []string, rows [][]any) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: export title is required", ErrInvalidInput)
	}
	if len(headers) == 0 {
		return "", fmt.Errorf("%w: at least one column is required", ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", err
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", err
			}
		}
	}

	name := fmt.Sprintf("%s_%s.xlsx", sanitizeName(title), time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}
