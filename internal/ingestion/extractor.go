package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

const (
	dateLayout = "2006-01-02"

	// tradeSheet is the worksheet holding the per-instrument summary.
	tradeSheet = "TRADE_SUMMARY"
	// sectionMarker is the unit-of-measure banner right above the table header.
	sectionMarker = "Единица измерения: Метрическая тонна"

	colCountMarker  = "Количество Договоров"
	colProductID    = "Код Инструмента"
	colProductName  = "Наименование Инструмента"
	colBasisName    = "Базис поставки"
	colVolume       = "Объем Договоров в единицах измерения"
	colTotal        = "Обьем Договоров, руб." // sic: the bulletin spells it with "ь"
	trailingSummary = 2                       // totals rows closing the table
)

// Extractor turns raw bulletin bytes into trading results. It performs no I/O.
type Extractor struct {
	now func() time.Time
}

// NewExtractor returns an Extractor stamping records with the wall clock.
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// Extract parses one bulletin for tradingDate.
//
// Steps:
//   - rejects empty input (ErrEmptyFile)
//   - loads the TRADE_SUMMARY sheet without assuming a header
//   - finds the first row mentioning the unit-of-measure banner (ErrSectionNotFound)
//   - uses the next row as header and everything after it as body
//   - keeps body rows whose contract count is a positive integer, then drops
//     the two trailing summary rows
//   - maps every surviving row to a models.TradingResult
//
// Any failure returns *ExtractionError and no records.
func (e *Extractor) Extract(data []byte, tradingDate time.Time) ([]models.TradingResult, error) {
	if len(data) == 0 {
		return nil, &ExtractionError{TradingDate: tradingDate, Err: ErrEmptyFile}
	}

	grid, err := loadSheet(data, tradeSheet)
	if err != nil {
		return nil, &ExtractionError{TradingDate: tradingDate, Err: err}
	}

	records, err := e.extractGrid(grid, tradingDate)
	if err != nil {
		return nil, &ExtractionError{TradingDate: tradingDate, Err: err}
	}
	return records, nil
}

func (e *Extractor) extractGrid(grid [][]string, tradingDate time.Time) ([]models.TradingResult, error) {
	start := findMarkerRow(grid, sectionMarker)
	if start < 0 || start+1 >= len(grid) {
		return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, sectionMarker)
	}

	header := normalizeHeader(grid[start+1])
	bodyStart := start + 2

	countCol := -1
	for i, h := range header {
		if strings.Contains(h, colCountMarker) {
			countCol = i
			break
		}
	}
	if countCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, colCountMarker)
	}

	// Row indexes are kept for error messages (1-based, as shown in a spreadsheet app).
	type bodyRow struct {
		line  int
		cells []string
		count int64
	}
	var rows []bodyRow
	for i := bodyStart; i < len(grid); i++ {
		n, ok := parseContractCount(cellAt(grid[i], countCol))
		if !ok {
			continue
		}
		rows = append(rows, bodyRow{line: i + 1, cells: grid[i], count: n})
	}
	if len(rows) <= trailingSummary {
		return []models.TradingResult{}, nil
	}
	rows = rows[:len(rows)-trailingSummary]

	cols, err := resolveColumns(header, colProductID, colProductName, colBasisName, colVolume, colTotal)
	if err != nil {
		return nil, err
	}

	stamp := models.StoredTimestamp(e.now())
	date := models.TruncateToDate(tradingDate)
	out := make([]models.TradingResult, 0, len(rows))
	for _, r := range rows {
		rec, err := buildRecord(r.cells, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r.line, err)
		}
		rec.Count = r.count
		rec.Date = date
		rec.CreatedOn = stamp
		rec.UpdatedOn = stamp
		out = append(out, rec)
	}
	return out, nil
}

func buildRecord(cells []string, cols map[string]int) (models.TradingResult, error) {
	productID := strings.TrimSpace(cellAt(cells, cols[colProductID]))
	rec, err := models.NewTradingResult(productID)
	if err != nil {
		return models.TradingResult{}, fmt.Errorf("column %q: %w", colProductID, err)
	}
	rec.ExchangeProductName = strings.TrimSpace(cellAt(cells, cols[colProductName]))
	rec.DeliveryBasisName = strings.TrimSpace(cellAt(cells, cols[colBasisName]))

	rec.Volume, err = parseWholeNumber(cellAt(cells, cols[colVolume]))
	if err != nil {
		return models.TradingResult{}, fmt.Errorf("column %q: %w", colVolume, err)
	}
	if rec.Volume < 0 {
		return models.TradingResult{}, fmt.Errorf("column %q: negative volume %d", colVolume, rec.Volume)
	}

	total, err := decimal.NewFromString(strings.TrimSpace(cellAt(cells, cols[colTotal])))
	if err != nil {
		return models.TradingResult{}, fmt.Errorf("column %q: %w", colTotal, err)
	}
	rec.Total = total
	return rec, nil
}

// findMarkerRow returns the index of the first row with a cell containing marker, or -1.
func findMarkerRow(grid [][]string, marker string) int {
	for i, row := range grid {
		for _, cell := range row {
			if strings.Contains(cell, marker) {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = strings.TrimSpace(strings.ReplaceAll(h, "\n", " "))
	}
	return out
}

func resolveColumns(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	cols := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		cols[name] = i
	}
	return cols, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseContractCount accepts only plain ASCII digit strings with a value above
// zero. Padded cells such as " 3 " are rejected like any other non-digit text.
func parseContractCount(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseWholeNumber parses an integer cell. Spreadsheet readers may render
// integral numbers as "60.0", which is accepted; "60.5" is not.
func parseWholeNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("invalid integer %q: has a fractional part", s)
	}
	return d.IntPart(), nil
}
