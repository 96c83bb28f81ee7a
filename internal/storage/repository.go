package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

const (
	tradingTable = "spimex_trading_results"

	// maxBindParams is the PostgreSQL limit of bind parameters per statement.
	maxBindParams = 65535
	defaultLimit  = 10
)

// insertColumns lists the columns written by InsertTradingResults, in bind order.
var insertColumns = []string{
	"exchange_product_id",
	"exchange_product_name",
	"oil_id",
	"delivery_basis_id",
	"delivery_basis_name",
	"delivery_type_id",
	"volume",
	"total",
	"count",
	"date",
	"created_on",
	"updated_on",
}

const selectColumns = "id, exchange_product_id, exchange_product_name, oil_id, delivery_basis_id, " +
	"delivery_basis_name, delivery_type_id, volume, total, count, date, created_on, updated_on"

// TradingRepository defines the contract for trading result persistence.
type TradingRepository interface {
	InsertTradingResults(ctx context.Context, records []models.TradingResult) error
	LastTradingDates(ctx context.Context, offset, limit int) ([]time.Time, error)
	FilterTradingResults(ctx context.Context, filter models.TradingFilter) ([]models.TradingResult, error)
}

type tradingRepository struct {
	db *sql.DB
}

// NewTradingRepository returns a TradingRepository backed by PostgreSQL.
func NewTradingRepository(db *sql.DB) TradingRepository {
	return &tradingRepository{db: db}
}

// InsertTradingResults writes all records in one transaction. Records are
// appended as-is (no dedup). Large batches are split so that no statement
// exceeds the bind parameter limit; all chunks commit or roll back together.
func (r *tradingRepository) InsertTradingResults(ctx context.Context, records []models.TradingResult) error {
	if len(records) == 0 {
		return nil
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, chunk := range splitBatches(records, maxBindParams/len(insertColumns)) {
			query, args := buildInsert(chunk, now)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return newStorageError("insert trading results", err)
	}
	return nil
}

// LastTradingDates returns distinct trading dates, newest first.
func (r *tradingRepository) LastTradingDates(ctx context.Context, offset, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT date FROM "+tradingTable+" ORDER BY date DESC OFFSET $1 LIMIT $2",
		offset, limit,
	)
	if err != nil {
		return nil, newStorageError("last trading dates", err)
	}
	defer func() { _ = rows.Close() }()

	dates := make([]time.Time, 0, limit)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, newStorageError("last trading dates", err)
		}
		dates = append(dates, models.TruncateToDate(d))
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("last trading dates", err)
	}
	return dates, nil
}

// FilterTradingResults returns records matching every present filter field,
// newest date first.
func (r *tradingRepository) FilterTradingResults(ctx context.Context, filter models.TradingFilter) ([]models.TradingResult, error) {
	query, args := buildFilterQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newStorageError("filter trading results", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.TradingResult, 0)
	for rows.Next() {
		var (
			rec       models.TradingResult
			basisName sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ExchangeProductID,
			&rec.ExchangeProductName,
			&rec.OilID,
			&rec.DeliveryBasisID,
			&basisName,
			&rec.DeliveryTypeID,
			&rec.Volume,
			&rec.Total,
			&rec.Count,
			&rec.Date,
			&rec.CreatedOn,
			&rec.UpdatedOn,
		); err != nil {
			return nil, newStorageError("filter trading results", err)
		}
		rec.DeliveryBasisName = basisName.String
		// lib/pq returns zone-less columns in an unnamed +00:00 zone.
		rec.Date = models.TruncateToDate(rec.Date)
		rec.CreatedOn = rec.CreatedOn.UTC()
		rec.UpdatedOn = rec.UpdatedOn.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("filter trading results", err)
	}
	return out, nil
}

// buildFilterQuery AND-combines the present filter fields.
// Placeholders are numbered in the order conditions are appended.
func buildFilterQuery(filter models.TradingFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(expr string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf("%s $%d", expr, len(args)))
	}

	if filter.OilID != "" {
		add("oil_id =", filter.OilID)
	}
	if filter.DeliveryTypeID != "" {
		add("delivery_type_id =", filter.DeliveryTypeID)
	}
	if filter.DeliveryBasisID != "" {
		add("delivery_basis_id =", filter.DeliveryBasisID)
	}
	if filter.StartDate != nil {
		add("date >=", models.TruncateToDate(*filter.StartDate))
	}
	if filter.EndDate != nil {
		add("date <=", models.TruncateToDate(*filter.EndDate))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + selectColumns + " FROM " + tradingTable)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	args = append(args, filter.Offset, limit)
	fmt.Fprintf(&sb, " ORDER BY date DESC, id OFFSET $%d LIMIT $%d", len(args)-1, len(args))
	return sb.String(), args
}

// buildInsert renders one multi-row INSERT for records.
// Zero timestamps are replaced with now; all timestamps are sent in UTC
// so the TIMESTAMP columns hold the same instant on any host zone.
func buildInsert(records []models.TradingResult, now time.Time) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + tradingTable + " (")
	sb.WriteString(strings.Join(insertColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(records)*len(insertColumns))
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range insertColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*len(insertColumns)+j+1)
		}
		sb.WriteByte(')')

		created, updated := rec.CreatedOn, rec.UpdatedOn
		if created.IsZero() {
			created = now
		}
		if updated.IsZero() {
			updated = created
		}
		args = append(args,
			rec.ExchangeProductID,
			rec.ExchangeProductName,
			rec.OilID,
			rec.DeliveryBasisID,
			rec.DeliveryBasisName,
			rec.DeliveryTypeID,
			rec.Volume,
			rec.Total,
			rec.Count,
			models.TruncateToDate(rec.Date),
			models.StoredTimestamp(created),
			models.StoredTimestamp(updated),
		)
	}
	return sb.String(), args
}

func splitBatches(records []models.TradingResult, size int) [][]models.TradingResult {
	if size <= 0 {
		size = 1
	}
	var out [][]models.TradingResult
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}
