package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/yourorg/dataplane/internal/apperror"
)

// sniffSample is how many leading bytes are inspected to guess the delimiter.
const sniffSample = 1000

// detectDelimiter picks semicolon when one appears in the sample, else comma.
func detectDelimiter(data []byte) rune {
	sample := data
	if len(sample) > sniffSample {
		sample = sample[:sniffSample]
	}
	if bytes.ContainsRune(sample, ';') {
		return ';'
	}
	return ','
}

func parseCSV(data []byte) ([]string, []map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1 // rows may have fewer/more fields than headers

	headerRecord, err := reader.Read()
	if err != nil {
		return nil, nil, apperror.BadRequest("invalid csv: failed to read headers")
	}

	headers := make([]string, len(headerRecord))
	for i, h := range headerRecord {
		headers[i] = strings.TrimSpace(h)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, apperror.BadRequest("invalid csv: failed to parse row")
		}
		rows = append(rows, zipRow(headers, record))
	}

	return headers, rows, nil
}
