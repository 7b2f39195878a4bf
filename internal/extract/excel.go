package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel returns every non-empty row as tab-separated cells, and the sheet count.
func extractExcel(content []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", 0, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var lines []string
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", 0, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			if line := strings.TrimSpace(strings.Join(row, "\t")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), len(sheets), nil
}
