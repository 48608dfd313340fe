package parser

import (
	"bytes"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/yourorg/dataplane/internal/apperror"
)

// parseXLSX reads a modern workbook. Only the first sheet is consumed;
// subsequent sheets are ignored.
func parseXLSX(data []byte) ([]string, []map[string]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, apperror.BadRequest("failed to open xlsx workbook")
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperror.BadRequest("workbook has no sheets")
	}

	cells, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, apperror.BadRequest("failed to read worksheet")
	}

	return sheetToRows(cells)
}

// parseXLS reads a legacy workbook, first sheet only.
func parseXLS(data []byte) ([]string, []map[string]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, apperror.BadRequest("failed to open xls workbook")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil, apperror.BadRequest("workbook has no sheets")
	}

	var cells [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			cells = append(cells, nil)
			continue
		}
		var record []string
		for c := 0; c < row.LastCol(); c++ {
			record = append(record, row.Col(c))
		}
		cells = append(cells, record)
	}

	return sheetToRows(cells)
}

// sheetToRows takes the first row as headers and zips every following row to
// them by position.
func sheetToRows(cells [][]string) ([]string, []map[string]string, error) {
	if len(cells) == 0 {
		return nil, nil, apperror.BadRequest("worksheet is empty")
	}

	headers := cells[0]
	var rows []map[string]string
	for _, record := range cells[1:] {
		rows = append(rows, zipRow(headers, record))
	}

	return headers, rows, nil
}
