package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/domain/dto"
	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/middleware"
	"github.com/guttosm/spimexpulse/internal/service"
)

const queryDateLayout = "2006-01-02"

// Handler provides HTTP handlers for the trading query endpoints.
//
// Responsibilities:
//   - Parse and type-check query parameters
//   - Delegate validation and lookup to service.TradingService
//   - Translate results into response DTOs
type Handler struct {
	svc service.TradingService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.TradingService) *Handler {
	return &Handler{svc: svc}
}

// GetLastTradingDates godoc
// @Summary      Last trading dates
// @Description  Returns distinct trading dates with stored results, newest first
// @Tags         trading
// @Produce      json
// @Param        offset  query     int  false  "Rows to skip"       default(0)
// @Param        limit   query     int  false  "Page size (1-100)"  default(10)
// @Success      200     {object}  dto.LastTradingDatesResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      500     {object}  dto.ErrorResponse
// @Router       /api/v1/trading/last_trading_dates [get]
func (h *Handler) GetLastTradingDates(c *gin.Context) {
	offset, limit, err := parsePage(c)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	dates, err := h.svc.LastTradingDates(c.Request.Context(), offset, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLastTradingDatesResponse(dates))
}

// GetDynamics godoc
// @Summary      Trading dynamics
// @Description  Returns trading results for a period, optionally narrowed by product, basis and delivery type
// @Tags         trading
// @Produce      json
// @Param        oil_id             query     string  false  "Product code (4 chars)"        example(A592)
// @Param        delivery_type_id   query     string  false  "Delivery type (1 char)"        example(F)
// @Param        delivery_basis_id  query     string  false  "Delivery basis (3 chars)"      example(ANK)
// @Param        start_date         query     string  false  "Inclusive start, YYYY-MM-DD"   example(2024-03-01)
// @Param        end_date           query     string  false  "Inclusive end, YYYY-MM-DD"     example(2024-03-31)
// @Param        offset             query     int     false  "Rows to skip"                  default(0)
// @Param        limit              query     int     false  "Page size (1-100)"             default(10)
// @Success      200                {array}   dto.TradingResponse
// @Failure      400                {object}  dto.ErrorResponse
// @Failure      500                {object}  dto.ErrorResponse
// @Router       /api/v1/trading/dynamics [get]
func (h *Handler) GetDynamics(c *gin.Context) {
	filter, err := parseFilter(c, true)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	results, err := h.svc.Dynamics(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTradingResponses(results))
}

// GetTradingResults godoc
// @Summary      Latest trading results
// @Description  Returns the most recent trading results, optionally narrowed by product, basis and delivery type
// @Tags         trading
// @Produce      json
// @Param        oil_id             query     string  false  "Product code (4 chars)"    example(A592)
// @Param        delivery_type_id   query     string  false  "Delivery type (1 char)"    example(F)
// @Param        delivery_basis_id  query     string  false  "Delivery basis (3 chars)"  example(ANK)
// @Param        offset             query     int     false  "Rows to skip"              default(0)
// @Param        limit              query     int     false  "Page size (1-100)"         default(10)
// @Success      200                {array}   dto.TradingResponse
// @Failure      400                {object}  dto.ErrorResponse
// @Failure      500                {object}  dto.ErrorResponse
// @Router       /api/v1/trading/trading_results [get]
func (h *Handler) GetTradingResults(c *gin.Context) {
	filter, err := parseFilter(c, false)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	results, err := h.svc.TradingResults(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTradingResponses(results))
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidFilter) {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid filter", err)
		return
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, "failed to query trading results", err)
}

func parsePage(c *gin.Context) (offset, limit int, err error) {
	offset, err = intQuery(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err = intQuery(c, "limit", service.DefaultLimit)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func parseFilter(c *gin.Context, withDates bool) (models.TradingFilter, error) {
	offset, limit, err := parsePage(c)
	if err != nil {
		return models.TradingFilter{}, err
	}
	f := models.TradingFilter{
		OilID:           strings.TrimSpace(c.Query("oil_id")),
		DeliveryTypeID:  strings.TrimSpace(c.Query("delivery_type_id")),
		DeliveryBasisID: strings.TrimSpace(c.Query("delivery_basis_id")),
		Offset:          offset,
		Limit:           limit,
	}
	if !withDates {
		return f, nil
	}
	if f.StartDate, err = dateQuery(c, "start_date"); err != nil {
		return models.TradingFilter{}, err
	}
	if f.EndDate, err = dateQuery(c, "end_date"); err != nil {
		return models.TradingFilter{}, err
	}
	return f, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, raw)
	}
	return &d, nil
}
