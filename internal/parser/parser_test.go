package parser

import (
	"testing"
)

func TestParseCSVCommaDelimited(t *testing.T) {
	data := []byte("name,age,city\nalice,30,berlin\nbob,25,lyon\n")

	headers, rows, err := Parse(data, "csv")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(headers) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(headers))
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "alice" || rows[1]["city"] != "lyon" {
		t.Fatalf("unexpected row values: %v", rows)
	}
}

func TestParseCSVSemicolonDelimited(t *testing.T) {
	data := []byte("name;age\nalice;30\nbob;25\ncarol;41\n")

	headers, rows, err := Parse(data, "csv")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(headers))
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2]["age"] != "41" {
		t.Fatalf("expected age 41, got %q", rows[2]["age"])
	}
}

func TestParseCSVTrimsHeaderWhitespace(t *testing.T) {
	data := []byte(" name , age \nalice,30\n")

	headers, rows, err := Parse(data, "csv")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if headers[0] != "name" || headers[1] != "age" {
		t.Fatalf("expected trimmed headers, got %v", headers)
	}
	if rows[0]["name"] != "alice" {
		t.Fatalf("expected row keyed by trimmed header, got %v", rows[0])
	}
}

func TestParseCSVFlexibleFieldCounts(t *testing.T) {
	// Second row is short, third has an extra trailing field.
	data := []byte("a;b;c\n1;2;3\n4;5\n6;7;8;9\n")

	headers, rows, err := Parse(data, "csv")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if _, ok := rows[1]["c"]; ok {
		t.Fatalf("short row should not populate missing columns: %v", rows[1])
	}
	// Extra cell beyond the header count is dropped.
	if len(rows[2]) != len(headers) {
		t.Fatalf("long row should be capped at header count, got %v", rows[2])
	}
	if rows[2]["c"] != "8" {
		t.Fatalf("expected c=8, got %q", rows[2]["c"])
	}
}

func TestParseCSVHeadersOnly(t *testing.T) {
	headers, rows, err := Parse([]byte("a,b,c\n"), "csv")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(headers) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(headers))
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestParseCSVEmptyInput(t *testing.T) {
	if _, _, err := Parse(nil, "csv"); err == nil {
		t.Fatalf("expected header read error on empty input")
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	for _, ext := range []string{"pdf", "json", "txt", ""} {
		if _, _, err := Parse([]byte("a,b\n1,2\n"), ext); err == nil {
			t.Fatalf("expected error for extension %q", ext)
		}
	}
}

func TestParseExtensionCaseInsensitive(t *testing.T) {
	if _, _, err := Parse([]byte("a,b\n1,2\n"), "CSV"); err != nil {
		t.Fatalf("uppercase extension should dispatch: %v", err)
	}
}

func TestDetectDelimiterIgnoresLateSemicolon(t *testing.T) {
	// A semicolon past the sniff window must not flip the delimiter.
	data := make([]byte, 0, sniffSample+10)
	data = append(data, []byte("a,b\n")...)
	for len(data) < sniffSample {
		data = append(data, []byte("1,2\n")...)
	}
	data = append(data, []byte("3,4;\n")...)

	if got := detectDelimiter(data); got != ',' {
		t.Fatalf("expected comma, got %q", got)
	}
}

func TestZipRow(t *testing.T) {
	headers := []string{"a", "b"}

	row := zipRow(headers, []string{"1", "2", "3"})
	if len(row) != 2 || row["a"] != "1" || row["b"] != "2" {
		t.Fatalf("unexpected zip result: %v", row)
	}

	row = zipRow(headers, []string{"1"})
	if len(row) != 1 || row["a"] != "1" {
		t.Fatalf("unexpected short zip result: %v", row)
	}
}
