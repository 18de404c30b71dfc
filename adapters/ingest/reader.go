package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format is the file format of an upload, decided by extension alone
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var extensionFormats = map[string]Format{
	".csv":  FormatCSV,
	".xlsx": FormatXLSX,
	".xls":  FormatXLS,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SupportedExtensions lists the accepted upload extensions
func SupportedExtensions() []string {
	return []string{".csv", ".xlsx", ".xls"}
}

// DetectFormat maps a filename to its format. Content is never sniffed.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := extensionFormats[ext]
	if !ok {
		return "", apperrors.UnsupportedFormat(filename)
	}
	return format, nil
}

// IsSupported reports whether the filename has an accepted extension
func IsSupported(filename string) bool {
	_, err := DetectFormat(filename)
	return err == nil
}

// Reader turns an uploaded byte stream into a table
type Reader struct {
	filename string
	format   Format
}

// NewReader creates a reader for the given upload name, rejecting unsupported extensions
func NewReader(filename string) (*Reader, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return &Reader{filename: filename, format: format}, nil
}

// Format returns the format chosen from the filename
func (r *Reader) Format() Format {
	return r.format
}

// Load reads data as the format implied by filename
func Load(data []byte, filename string) (*table.Table, error) {
	r, err := NewReader(filename)
	if err != nil {
		return nil, err
	}
	return r.Read(data)
}

// Read parses data into a table. Any failure is an ingest error; no partial table is returned.
func (r *Reader) Read(data []byte) (*table.Table, error) {
	log.Printf("[Ingest] Reading %s upload %q (%d bytes)", r.format, r.filename, len(data))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.IngestError("file is empty", nil)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch r.format {
	case FormatCSV:
		rows, err = r.readCSVRows(data)
	case FormatXLSX:
		rows, err = r.readExcelRows(data)
	case FormatXLS:
		rows, err = r.readLegacyExcelRows(data)
	default:
		return nil, apperrors.UnsupportedFormat(r.filename)
	}
	if err != nil {
		log.Printf("[Ingest] FAILED - %s upload %q: %v", r.format, r.filename, err)
		return nil, err
	}

	if len(rows) == 0 {
		return nil, apperrors.IngestError("no columns to parse from file", nil)
	}

	t, err := table.New(r.filename, rows[0], rows[1:])
	if err != nil {
		return nil, apperrors.IngestError(fmt.Sprintf("failed to read %s file", strings.ToUpper(string(r.format))), err)
	}

	log.Printf("[Ingest] %s file processed in %.2fms (%d columns, %d rows, %d numeric)",
		strings.ToUpper(string(r.format)), float64(time.Since(start).Nanoseconds())/1e6,
		t.ColumnCount(), t.RowCount(), len(t.NumericColumns()))
	return t, nil
}

// readCSVRows reads comma-separated text. Rows wider than the header are an error.
func (r *Reader) readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, apperrors.IngestError("failed to read CSV file", errors.New("content is not valid UTF-8 text"))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.IngestError("failed to read CSV file", err)
		}
		if len(rows) > 0 && len(record) > len(rows[0]) {
			line, _ := reader.FieldPos(0)
			return nil, apperrors.IngestError("failed to read CSV file",
				fmt.Errorf("expected %d fields in line %d, saw %d", len(rows[0]), line, len(record)))
		}
		rows = append(rows, record)
	}

	return rows, nil
}

// readExcelRows reads the first worksheet of a modern workbook
func (r *Reader) readExcelRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.IngestError("failed to open Excel file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.IngestError("failed to open Excel file", errors.New("workbook has no worksheets"))
	}
	sheet := sheets[0]

	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.IngestError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.IngestError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	log.Printf("[Ingest] Sheet %q read (%d rows)", sheet, len(display))

	rows := make([][]string, len(display))
	for i, row := range display {
		merged := make([]string, len(row))
		for j, cell := range row {
			merged[j] = cell
			if i < len(raw) && j < len(raw[i]) {
				merged[j] = preferRawNumber(cell, raw[i][j])
			}
		}
		rows[i] = merged
	}

	return sheetRows(rows), nil
}

// readLegacyExcelRows reads the first worksheet of a BIFF (.xls) workbook
func (r *Reader) readLegacyExcelRows(data []byte) (rows [][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rows = nil
			err = apperrors.IngestError("failed to open Excel file", fmt.Errorf("malformed workbook: %v", rec))
		}
	}()

	wb, openErr := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if openErr != nil {
		return nil, apperrors.IngestError("failed to open Excel file", openErr)
	}
	if wb.NumSheets() == 0 {
		return nil, apperrors.IngestError("failed to open Excel file", errors.New("workbook has no worksheets"))
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, apperrors.IngestError("failed to open Excel file", errors.New("first worksheet is unreadable"))
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	log.Printf("[Ingest] Legacy sheet %q read (%d rows)", sheet.Name, len(rows))

	return sheetRows(rows), nil
}

// preferRawNumber keeps the displayed value unless it is a formatted number
// ("1,234.00", "$5", "12%") whose underlying cell value is numeric
func preferRawNumber(display, raw string) string {
	if _, err := strconv.ParseFloat(strings.TrimSpace(display), 64); err == nil {
		return display
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
		return display
	}
	if !looksLikeFormattedNumber(display) {
		return display
	}
	return raw
}

func looksLikeFormattedNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for i, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '-' && i == 0:
		case strings.ContainsRune(".,%() $€£¥", ch):
		default:
			return false
		}
	}
	return digits > 0
}

// sheetRows drops trailing empty cells and fully empty rows, then widens the header
// so cells beyond the last named column become unnamed columns
func sheetRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	width := 0
	for _, row := range rows {
		end := len(row)
		for end > 0 && strings.TrimSpace(row[end-1]) == "" {
			end--
		}
		if end == 0 {
			continue
		}
		if end > width {
			width = end
		}
		out = append(out, row[:end])
	}

	if len(out) > 0 && len(out[0]) < width {
		header := make([]string, width)
		copy(header, out[0])
		out[0] = header
	}
	return out
}
