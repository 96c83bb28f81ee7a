package dto

import (
	"time"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

const dateLayout = "2006-01-02"

// LastTradingDatesResponse is returned by GET /api/v1/trading/last_trading_dates.
type LastTradingDatesResponse struct {
	Dates []string `json:"dates" example:"2024-03-15,2024-03-14"`
}

// TradingResponse is one element of /dynamics and /trading_results.
//
// Fields mirror models.TradingResult minus bookkeeping timestamps; the
// date is rendered as YYYY-MM-DD and total as a fixed 2-digit decimal string.
type TradingResponse struct {
	ID                  int64  `json:"id" example:"1"`
	ExchangeProductID   string `json:"exchange_product_id" example:"A100ANK060F"`
	ExchangeProductName string `json:"exchange_product_name" example:"Бензин (АИ-100-К5)"`
	OilID               string `json:"oil_id" example:"A100"`
	DeliveryBasisID     string `json:"delivery_basis_id" example:"ANK"`
	DeliveryBasisName   string `json:"delivery_basis_name" example:"Ангарск-группа станций"`
	DeliveryTypeID      string `json:"delivery_type_id" example:"F"`
	Volume              int64  `json:"volume" example:"60"`
	Total               string `json:"total" example:"4212000.00"`
	Count               int64  `json:"count" example:"1"`
	Date                string `json:"date" example:"2024-03-15"`
}

// NewLastTradingDatesResponse formats dates as YYYY-MM-DD.
func NewLastTradingDatesResponse(dates []time.Time) LastTradingDatesResponse {
	out := LastTradingDatesResponse{Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		out.Dates = append(out.Dates, d.Format(dateLayout))
	}
	return out
}

// NewTradingResponses maps domain records to their API shape.
func NewTradingResponses(records []models.TradingResult) []TradingResponse {
	out := make([]TradingResponse, 0, len(records))
	for _, r := range records {
		out = append(out, TradingResponse{
			ID:                  r.ID,
			ExchangeProductID:   r.ExchangeProductID,
			ExchangeProductName: r.ExchangeProductName,
			OilID:               r.OilID,
			DeliveryBasisID:     r.DeliveryBasisID,
			DeliveryBasisName:   r.DeliveryBasisName,
			DeliveryTypeID:      r.DeliveryTypeID,
			Volume:              r.Volume,
			Total:               r.Total.StringFixed(2),
			Count:               r.Count,
			Date:                r.Date.Format(dateLayout),
		})
	}
	return out
}
