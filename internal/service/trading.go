package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/storage"
)

const (
	// DefaultLimit is the page size used when the caller sends none.
	DefaultLimit = 10
	// MaxLimit caps a single page.
	MaxLimit = 100

	oilIDLen           = 4
	deliveryBasisIDLen = 3
	deliveryTypeIDLen  = 1
)

// ErrInvalidFilter is returned for pagination or filter values the query
// layer refuses. Handlers map it to 400.
var ErrInvalidFilter = errors.New("invalid filter")

// TradingService exposes read queries over stored trading results.
type TradingService interface {
	LastTradingDates(ctx context.Context, offset, limit int) ([]time.Time, error)
	Dynamics(ctx context.Context, filter models.TradingFilter) ([]models.TradingResult, error)
	TradingResults(ctx context.Context, filter models.TradingFilter) ([]models.TradingResult, error)
}

type tradingService struct {
	repo storage.TradingRepository
}

func NewTradingService(repo storage.TradingRepository) TradingService {
	return &tradingService{repo: repo}
}

// LastTradingDates returns the most recent distinct trading dates.
func (s *tradingService) LastTradingDates(ctx context.Context, offset, limit int) ([]time.Time, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}
	return s.repo.LastTradingDates(ctx, offset, limit)
}

// Dynamics returns results for the given ids within [StartDate, EndDate].
func (s *tradingService) Dynamics(ctx context.Context, filter models.TradingFilter) ([]models.TradingResult, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidFilter,
			filter.StartDate.Format("2006-01-02"), filter.EndDate.Format("2006-01-02"))
	}
	return s.repo.FilterTradingResults(ctx, filter)
}

// TradingResults returns the latest results for the given ids; dates are ignored.
func (s *tradingService) TradingResults(ctx context.Context, filter models.TradingFilter) ([]models.TradingResult, error) {
	filter.StartDate, filter.EndDate = nil, nil
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.FilterTradingResults(ctx, filter)
}

func validatePage(offset, limit int) error {
	if offset < 0 {
		return fmt.Errorf("%w: offset must be >= 0, got %d", ErrInvalidFilter, offset)
	}
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidFilter, MaxLimit, limit)
	}
	return nil
}

func validateFilter(f models.TradingFilter) error {
	if err := validatePage(f.Offset, f.Limit); err != nil {
		return err
	}
	checks := []struct {
		name  string
		value string
		size  int
	}{
		{"oil_id", f.OilID, oilIDLen},
		{"delivery_basis_id", f.DeliveryBasisID, deliveryBasisIDLen},
		{"delivery_type_id", f.DeliveryTypeID, deliveryTypeIDLen},
	}
	for _, c := range checks {
		if c.value != "" && utf8.RuneCountInString(c.value) != c.size {
			return fmt.Errorf("%w: %s must be %d characters, got %q", ErrInvalidFilter, c.name, c.size, c.value)
		}
	}
	return nil
}
