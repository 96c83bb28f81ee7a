package models

import "time"

// TradingFilter selects trading results. Nil/empty fields add no constraint;
// all present fields are AND-combined.
type TradingFilter struct {
	OilID           string
	DeliveryTypeID  string
	DeliveryBasisID string
	StartDate       *time.Time // inclusive
	EndDate         *time.Time // inclusive
	Offset          int
	Limit           int
}
