// Package parser normalizes heterogeneous tabular files (csv, legacy and
// modern spreadsheets) into one shape: an ordered header list plus a sequence
// of string-keyed row maps. All cell values are rendered to strings on the
// way in, regardless of their original numeric or date representation.
package parser

import (
	"strings"

	"github.com/yourorg/dataplane/internal/apperror"
)

// Parse dispatches on the declared file extension. Unrecognized extensions
// fail with a BadRequest. An empty row sequence is a valid parser result;
// rejecting it is the pipeline's job.
func Parse(data []byte, extension string) ([]string, []map[string]string, error) {
	switch strings.ToLower(extension) {
	case "csv":
		return parseCSV(data)
	case "xlsx":
		return parseXLSX(data)
	case "xls":
		return parseXLS(data)
	default:
		return nil, nil, apperror.BadRequest("unsupported file format")
	}
}

// zipRow pairs cells with headers by positional index. Values beyond the
// header count are dropped; a short row simply yields fewer populated
// columns for that record.
func zipRow(headers []string, cells []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, cell := range cells {
		if i >= len(headers) {
			break
		}
		row[headers[i]] = cell
	}
	return row
}
