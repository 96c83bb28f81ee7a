package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// TradingResult represents one traded instrument on one trading date,
// as published in the SPIMEX "TRADE_SUMMARY" bulletin.
//
// The exchange product id has the fixed shape "AAAABBB...C":
//   - OilID:           first 4 characters (product).
//   - DeliveryBasisID: next 3 characters (delivery basis).
//   - DeliveryTypeID:  last character (delivery type).
//
// The three derived ids are never set independently; use SplitProductID
// or NewTradingResult so they always match ExchangeProductID.
//
// swagger:model TradingResult
type TradingResult struct {
	ID                  int64           `json:"id" example:"1"`
	ExchangeProductID   string          `json:"exchange_product_id" example:"A100ANK060F"`
	ExchangeProductName string          `json:"exchange_product_name" example:"Бензин (АИ-100-К5), ст. Ангарск-группа станций (ст. отправления)"`
	OilID               string          `json:"oil_id" example:"A100"`
	DeliveryBasisID     string          `json:"delivery_basis_id" example:"ANK"`
	DeliveryBasisName   string          `json:"delivery_basis_name" example:"Ангарск-группа станций"`
	DeliveryTypeID      string          `json:"delivery_type_id" example:"F"`
	Volume              int64           `json:"volume" example:"60"`
	Total               decimal.Decimal `json:"total" swaggertype:"string" example:"4212000.00"`
	Count               int64           `json:"count" example:"1"`
	Date                time.Time       `json:"date" example:"2024-03-15T00:00:00Z"`
	CreatedOn           time.Time       `json:"created_on"`
	UpdatedOn           time.Time       `json:"updated_on"`
}

// ProductCodes holds the sub-identifiers encoded in an exchange product id.
type ProductCodes struct {
	OilID           string
	DeliveryBasisID string
	DeliveryTypeID  string
}

// minProductIDLen is the shortest id where the basis and type slices do not overlap.
const minProductIDLen = 8

// SplitProductID slices an exchange product id into its fixed-offset parts.
func SplitProductID(id string) (ProductCodes, error) {
	if !utf8.ValidString(id) {
		return ProductCodes{}, fmt.Errorf("product id %q is not valid utf-8", id)
	}
	r := []rune(id)
	if len(r) < minProductIDLen {
		return ProductCodes{}, fmt.Errorf("product id %q too short: need at least %d characters", id, minProductIDLen)
	}
	return ProductCodes{
		OilID:           string(r[0:4]),
		DeliveryBasisID: string(r[4:7]),
		DeliveryTypeID:  string(r[len(r)-1]),
	}, nil
}

// NewTradingResult builds a record with the derived ids filled from productID.
func NewTradingResult(productID string) (TradingResult, error) {
	codes, err := SplitProductID(productID)
	if err != nil {
		return TradingResult{}, err
	}
	return TradingResult{
		ExchangeProductID: productID,
		OilID:             codes.OilID,
		DeliveryBasisID:   codes.DeliveryBasisID,
		DeliveryTypeID:    codes.DeliveryTypeID,
	}, nil
}

// DocumentLink is a bulletin download link discovered on a listing page.
type DocumentLink struct {
	URL         string
	TradingDate time.Time
}

// StoredTimestamp returns t as a PostgreSQL TIMESTAMP column keeps it:
// UTC wall clock with microsecond precision.
func StoredTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// TruncateToDate drops the clock part, keeping the calendar day in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
