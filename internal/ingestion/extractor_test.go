package ingestion

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

var bulletinHeader = []string{
	"№\nп/п",
	"Код\nИнструмента",
	"Наименование\nИнструмента",
	"Базис\nпоставки",
	"Объем\nДоговоров\nв единицах\nизмерения",
	"Обьем\nДоговоров,\nруб.",
	"Изменение рыночной\nцены к цене\nпредыдуего\nдня",
	"Количество\nДоговоров,\nшт.",
}

// buildXLSX renders sheets into an in-memory .xlsx payload.
func buildXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		if err != nil {
			t.Fatalf("add sheet: %v", err)
		}
		for _, data := range rows {
			row := sheet.AddRow()
			for _, v := range data {
				row.AddCell().SetString(v)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

// bulletin wraps body rows with the banner, marker and header rows of a real bulletin.
func bulletin(t *testing.T, body ...[]string) []byte {
	t.Helper()
	rows := [][]string{
		{"", "Бюллетень по итогам торгов в Секции «Нефтепродукты» АО «СПбМТСБ»"},
		{"", "Дата торгов: 15.03.2024"},
		{"", "Единица измерения: Метрическая тонна"},
		bulletinHeader,
	}
	rows = append(rows, body...)
	return buildXLSX(t, map[string][][]string{tradeSheet: rows})
}

func dataRow(n, id, name, basis, volume, total, count string) []string {
	return []string{n, id, name, basis, volume, total, "0", count}
}

func fixedExtractor(stamp time.Time) *Extractor {
	return &Extractor{now: func() time.Time { return stamp }}
}

func mustExtract(t *testing.T, e *Extractor, data []byte, date time.Time) []models.TradingResult {
	t.Helper()
	records, err := e.Extract(data, date)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return records
}

func TestExtract_HappyPath(t *testing.T) {
	stamp := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	tradingDate := time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC)
	data := bulletin(t,
		dataRow("1", "A100ANK060F", "Бензин (АИ-100-К5)", "Ангарск-группа станций", "60", "4212000", "1"),
		dataRow("2", "A592ACH005A", "Бензин (АИ-92-К5)", "Ачинский НПЗ", "1005", "67885395.25", "12"),
		dataRow("3", "DT5KBB1J015", "ДТ ЕВРО К5", "Бийск", "15", "1050000.10", "2"),
		dataRow("", "Итого:", "", "", "1080", "73147395.35", "15"),
		dataRow("", "Итого по секции:", "", "", "1080", "73147395.35", "15"),
	)

	records := mustExtract(t, fixedExtractor(stamp), data, tradingDate)
	assertBulletinRecords(t, records, stamp)
}

// assertBulletinRecords checks the three instruments shared by the xlsx and xls bulletins.
func assertBulletinRecords(t *testing.T, records []models.TradingResult, stamp time.Time) {
	t.Helper()
	if len(records) != 3 {
		t.Fatalf("want 3 records, got %d: %+v", len(records), records)
	}

	first := records[0]
	if first.ExchangeProductID != "A100ANK060F" || first.ExchangeProductName != "Бензин (АИ-100-К5)" {
		t.Fatalf("unexpected product: %+v", first)
	}
	if first.OilID != "A100" || first.DeliveryBasisID != "ANK" || first.DeliveryTypeID != "F" {
		t.Fatalf("derived ids: %q %q %q", first.OilID, first.DeliveryBasisID, first.DeliveryTypeID)
	}
	if first.DeliveryBasisName != "Ангарск-группа станций" {
		t.Fatalf("basis name: %q", first.DeliveryBasisName)
	}
	if first.Volume != 60 || first.Count != 1 {
		t.Fatalf("volume/count: %d/%d", first.Volume, first.Count)
	}
	if !first.Total.Equal(decimal.RequireFromString("4212000")) {
		t.Fatalf("total: %s", first.Total)
	}

	if records[1].Total.StringFixed(2) != "67885395.25" || records[1].Count != 12 || records[1].Volume != 1005 {
		t.Fatalf("second record: %+v", records[1])
	}
	if !records[2].Total.Equal(decimal.RequireFromString("1050000.10")) || records[2].Volume != 15 {
		t.Fatalf("third record: %+v", records[2])
	}

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		if r.Date != day {
			t.Fatalf("date: %v", r.Date)
		}
		if r.CreatedOn != stamp || r.UpdatedOn != stamp {
			t.Fatalf("timestamps: %v %v", r.CreatedOn, r.UpdatedOn)
		}
	}
}

func TestExtract_XLSBulletin(t *testing.T) {
	// trade_summary.xls is a BIFF8 workbook with the same three instruments as
	// TestExtract_HappyPath. Counts, volumes and totals are RK, MULRK and NUMBER
	// cells styled with the custom format "#,##0" (index 164). Row 2 has no
	// record at all and the last footer row has no ROW record.
	data, err := os.ReadFile(filepath.Join("testdata", "trade_summary.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	stamp := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)

	records := mustExtract(t, fixedExtractor(stamp), data, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	assertBulletinRecords(t, records, stamp)
}

func TestLoadSheet_XLSGrid(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "trade_summary.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	grid, err := loadSheet(data, tradeSheet)
	if err != nil {
		t.Fatalf("loadSheet: %v", err)
	}
	if len(grid) != 10 {
		t.Fatalf("want 10 rows, got %d", len(grid))
	}
	if grid[2] != nil {
		t.Fatalf("missing row should be nil, got %q", grid[2])
	}
	if got := strings.Join(grid[5], "|"); got != "1|A100ANK060F|Бензин (АИ-100-К5)|Ангарск-группа станций|60|4212000|0|1" {
		t.Fatalf("row 5: %s", got)
	}
	if got := grid[9]; len(got) != 8 || got[7] != "15" || got[5] != "73147395.35" {
		t.Fatalf("row without ROW record: %q", got)
	}

	if _, err := loadSheet(data, "Sheet1"); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("want ErrSheetNotFound, got %v", err)
	}
}

func TestPlainNumberFormats(t *testing.T) {
	wb := &xls.WorkBook{Formats: map[uint16]*xls.Format{164: {}}}
	wb.Xfs = append(wb.Xfs, &xls.Xf8{Format: 164}, &xls.Xf5{Format: 164})
	cell := xls.XfRk{Index: 0, Rk: xls.RK(12<<2 | 2)} // integer 12

	if got := cell.String(wb); !strings.HasPrefix(got, "1900-01-1") {
		t.Fatalf("custom format should render as a date before reset, got %q", got)
	}

	plainNumberFormats(wb)
	for i := range wb.Xfs {
		cell.Index = uint16(i)
		if got := cell.String(wb); got != "12" {
			t.Fatalf("xf %d: want 12, got %q", i, got)
		}
	}
	if n, ok := parseContractCount(cell.String(wb)); !ok || n != 12 {
		t.Fatalf("count: %d %v", n, ok)
	}
}

func TestExtract_StampIsStoredUTC(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	local := time.Date(2024, 3, 16, 12, 0, 0, 123456789, msk)
	data := bulletin(t,
		dataRow("1", "A100ANK060F", "a", "b", "60", "10", "1"),
		dataRow("", "Итого:", "", "", "60", "10", "1"),
		dataRow("", "Итого по секции:", "", "", "60", "10", "1"),
	)

	records := mustExtract(t, fixedExtractor(local), data, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	want := time.Date(2024, 3, 16, 9, 0, 0, 123456000, time.UTC)
	if len(records) != 1 || records[0].CreatedOn != want || records[0].UpdatedOn != want {
		t.Fatalf("want %v, got %+v", want, records)
	}
}

func TestExtract_RecordInvariants(t *testing.T) {
	data := bulletin(t,
		dataRow("1", "A100ANK060F", "a", "b", "60", "10", "1"),
		dataRow("2", "A592ACH005A", "a", "b", "70", "20", "3"),
		dataRow("3", "-", "a", "b", "-", "-", "-"),
		dataRow("4", "DT5KBB1J015", "a", "b", "80", "30", "0"),
		dataRow("5", "G92ZUFM065W", "a", "b", "90", "40", "7"),
		dataRow("", "Итого:", "", "", "0", "0", "11"),
		dataRow("", "Итого по секции:", "", "", "0", "0", "11"),
	)

	records := mustExtract(t, NewExtractor(), data, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if len(records) != 3 {
		t.Fatalf("want 3 records, got %d", len(records))
	}
	for _, r := range records {
		id := []rune(r.ExchangeProductID)
		if r.OilID != string(id[0:4]) || r.DeliveryBasisID != string(id[4:7]) || r.DeliveryTypeID != string(id[len(id)-1]) {
			t.Fatalf("derived ids do not match %s: %+v", r.ExchangeProductID, r)
		}
		if r.Count <= 0 {
			t.Fatalf("count must be positive: %+v", r)
		}
	}
}

func TestExtract_NonNumericCountIsDroppedBeforeFooterTrim(t *testing.T) {
	data := bulletin(t,
		dataRow("1", "A100ANK060F", "a", "b", "60", "10", "1"),
		dataRow("2", "A592ACH005A", "a", "b", "70", "20", "abc"),
		dataRow("3", "DT5KBB1J015", "a", "b", "80", "30", "2"),
		dataRow("4", "G92ZUFM065W", "a", "b", "90", "40", "3"),
		dataRow("5", "A95ZSUR060F", "a", "b", "95", "50", "4"),
	)

	records := mustExtract(t, NewExtractor(), data, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	if records[0].ExchangeProductID != "A100ANK060F" || records[1].ExchangeProductID != "DT5KBB1J015" {
		t.Fatalf("unexpected survivors: %s, %s", records[0].ExchangeProductID, records[1].ExchangeProductID)
	}
}

func TestExtract_UsesFirstMarkerRow(t *testing.T) {
	rows := [][]string{
		{"", "Единица измерения: Метрическая тонна"},
		bulletinHeader,
		dataRow("1", "A100ANK060F", "first", "b", "60", "10", "1"),
		dataRow("", "Итого:", "", "", "60", "10", "1"),
		dataRow("", "Итого по секции:", "", "", "60", "10", "1"),
		{"", "Единица измерения: Метрическая тонна"},
		bulletinHeader,
		dataRow("1", "A592ACH005A", "second", "b", "-", "-", "-"),
	}
	data := buildXLSX(t, map[string][][]string{tradeSheet: rows})

	records := mustExtract(t, NewExtractor(), data, time.Now())
	// Starting from the second banner would leave no rows at all.
	if len(records) != 1 || records[0].ExchangeProductName != "first" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestExtract_Errors(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		data    func(t *testing.T) []byte
		wantIs  error
		wantMsg string
	}{
		{
			name:   "empty file",
			data:   func(*testing.T) []byte { return nil },
			wantIs: ErrEmptyFile,
		},
		{
			name: "missing marker",
			data: func(t *testing.T) []byte {
				return buildXLSX(t, map[string][][]string{tradeSheet: {
					{"", "Единица измерения: Килограмм"},
					bulletinHeader,
					dataRow("1", "A100ANK060F", "a", "b", "60", "10", "1"),
				}})
			},
			wantIs: ErrSectionNotFound,
		},
		{
			name: "marker on last row",
			data: func(t *testing.T) []byte {
				return buildXLSX(t, map[string][][]string{tradeSheet: {
					{"", "Единица измерения: Метрическая тонна"},
				}})
			},
			wantIs: ErrSectionNotFound,
		},
		{
			name: "missing sheet",
			data: func(t *testing.T) []byte {
				return buildXLSX(t, map[string][][]string{"Sheet1": {{"x"}}})
			},
			wantIs: ErrSheetNotFound,
		},
		{
			name: "missing count column",
			data: func(t *testing.T) []byte {
				return buildXLSX(t, map[string][][]string{tradeSheet: {
					{"Единица измерения: Метрическая тонна"},
					{"Код\nИнструмента", "Наименование\nИнструмента"},
					{"A100ANK060F", "a"},
				}})
			},
			wantIs: ErrColumnNotFound,
		},
		{
			name: "missing volume column with surviving rows",
			data: func(t *testing.T) []byte {
				return buildXLSX(t, map[string][][]string{tradeSheet: {
					{"Единица измерения: Метрическая тонна"},
					{"Код\nИнструмента", "Наименование\nИнструмента", "Базис\nпоставки", "Обьем\nДоговоров,\nруб.", "Количество\nДоговоров,\nшт."},
					{"A100ANK060F", "a", "b", "10", "1"},
					{"Итого:", "", "", "10", "1"},
					{"Итого:", "", "", "10", "1"},
				}})
			},
			wantIs: ErrColumnNotFound,
		},
		{
			name: "malformed product id",
			data: func(t *testing.T) []byte {
				return bulletin(t,
					dataRow("1", "A100", "a", "b", "60", "10", "1"),
					dataRow("", "Итого:", "", "", "60", "10", "1"),
					dataRow("", "Итого по секции:", "", "", "60", "10", "1"),
				)
			},
			wantMsg: "Код Инструмента",
		},
		{
			name: "non-numeric volume fails whole document",
			data: func(t *testing.T) []byte {
				return bulletin(t,
					dataRow("1", "A100ANK060F", "a", "b", "60", "10", "1"),
					dataRow("2", "A592ACH005A", "a", "b", "n/a", "10", "1"),
					dataRow("", "Итого:", "", "", "60", "10", "2"),
					dataRow("", "Итого по секции:", "", "", "60", "10", "2"),
				)
			},
			wantMsg: "row 6",
		},
		{
			name: "non-numeric total",
			data: func(t *testing.T) []byte {
				return bulletin(t,
					dataRow("1", "A100ANK060F", "a", "b", "60", "4 212 000", "1"),
					dataRow("", "Итого:", "", "", "60", "10", "1"),
					dataRow("", "Итого по секции:", "", "", "60", "10", "1"),
				)
			},
			wantMsg: "Обьем Договоров, руб.",
		},
		{
			name:    "not a workbook",
			data:    func(*testing.T) []byte { return []byte("<html>not found</html>") },
			wantMsg: "extract bulletin 2024-03-15",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := NewExtractor().Extract(tc.data(t), date)
			if err == nil {
				t.Fatalf("expected error, got %d records", len(records))
			}
			if records != nil {
				t.Fatalf("records must be nil on error, got %+v", records)
			}

			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("want *ExtractionError, got %T", err)
			}
			if !extractErr.TradingDate.Equal(date) {
				t.Fatalf("trading date: %v", extractErr.TradingDate)
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Fatalf("want errors.Is %v, got %v", tc.wantIs, err)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("want message containing %q, got %q", tc.wantMsg, err.Error())
			}
		})
	}
}

func TestExtract_FewerRowsThanFooterYieldsNothing(t *testing.T) {
	data := bulletin(t,
		dataRow("", "Итого:", "", "", "60", "10", "1"),
		dataRow("", "Итого по секции:", "", "", "60", "10", "1"),
	)
	records := mustExtract(t, NewExtractor(), data, time.Now())
	if len(records) != 0 {
		t.Fatalf("want no records, got %+v", records)
	}
}

func TestParseContractCount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12", 12, true},
		{" 3 ", 0, false},
		{"0", 0, false},
		{"-1", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseContractCount(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("parseContractCount(%q) = (%d, %v), want (%d, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseWholeNumber(t *testing.T) {
	for in, want := range map[string]int64{"60": 60, "60.0": 60, " 15 ": 15} {
		n, err := parseWholeNumber(in)
		if err != nil || n != want {
			t.Fatalf("parseWholeNumber(%q) = (%d, %v), want %d", in, n, err, want)
		}
	}
	for _, in := range []string{"60.5", "sixty"} {
		if _, err := parseWholeNumber(in); err == nil {
			t.Fatalf("parseWholeNumber(%q): expected error", in)
		}
	}
}
