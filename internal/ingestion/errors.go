package ingestion

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrEmptyFile is returned when a downloaded bulletin has no bytes.
	ErrEmptyFile = errors.New("empty file")
	// ErrSectionNotFound is returned when the unit-of-measure banner row is missing.
	ErrSectionNotFound = errors.New("section not found")
	// ErrSheetNotFound is returned when the workbook has no TRADE_SUMMARY sheet.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrColumnNotFound is returned when an expected header is missing.
	ErrColumnNotFound = errors.New("column not found")
)

// FetchError describes a failed HTTP GET. StatusCode is zero when the request
// never produced a response (DNS, connection reset, timeout...).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError wraps any failure turning a bulletin into records.
// Extraction is all-or-nothing: one bad row fails the document.
type ExtractionError struct {
	TradingDate time.Time
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract bulletin %s: %v", e.TradingDate.Format(dateLayout), e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
