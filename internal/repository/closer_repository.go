package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// CloserRepository encapsulates per-closer rollup persistence. ApplySale
// is a single atomic read-modify-write so concurrent sales from the same
// closer never lose updates.
type CloserRepository interface {
	Get(ctx context.Context, closerID string) (*domain.CloserRollup, error)
	ApplySale(ctx context.Context, closerID, displayName string, usdAmount decimal.Decimal, saleAt time.Time) (*domain.CloserRollup, error)
	List(ctx context.Context, limit int) ([]domain.CloserRollup, error)
}

type closerRepository struct {
	pool *pgxpool.Pool
}

// NewCloserRepository instantiates repository.
func NewCloserRepository(pool *pgxpool.Pool) CloserRepository {
	return &closerRepository{pool: pool}
}

const closerColumns = `id, closer_id, display_name, total_sales, total_amount_usd, last_sale_at, created_at`

func (r *closerRepository) Get(ctx context.Context, closerID string) (*domain.CloserRollup, error) {
	query := `SELECT ` + closerColumns + ` FROM closers WHERE closer_id=$1`
	var rollup domain.CloserRollup
	err := r.pool.QueryRow(ctx, query, closerID).Scan(closerScanTargets(&rollup)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rollup, nil
}

func (r *closerRepository) ApplySale(ctx context.Context, closerID, displayName string, usdAmount decimal.Decimal, saleAt time.Time) (*domain.CloserRollup, error) {
	const query = `
        INSERT INTO closers (closer_id, display_name, total_sales, total_amount_usd, last_sale_at)
        VALUES ($1,$2,1,$3,$4)
        ON CONFLICT (closer_id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            total_sales = closers.total_sales + 1,
            total_amount_usd = closers.total_amount_usd + EXCLUDED.total_amount_usd,
            last_sale_at = GREATEST(closers.last_sale_at, EXCLUDED.last_sale_at)
        RETURNING ` + closerColumns
	var rollup domain.CloserRollup
	if err := r.pool.QueryRow(ctx, query, closerID, displayName, usdAmount, saleAt).
		Scan(closerScanTargets(&rollup)...); err != nil {
		return nil, err
	}
	return &rollup, nil
}

func (r *closerRepository) List(ctx context.Context, limit int) ([]domain.CloserRollup, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + closerColumns + ` FROM closers ORDER BY total_amount_usd DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CloserRollup
	for rows.Next() {
		var rollup domain.CloserRollup
		if err := rows.Scan(closerScanTargets(&rollup)...); err != nil {
			return nil, err
		}
		result = append(result, rollup)
	}
	return result, rows.Err()
}

func closerScanTargets(rollup *domain.CloserRollup) []any {
	return []any{
		&rollup.ID,
		&rollup.CloserID,
		&rollup.DisplayName,
		&rollup.TotalSaleCount,
		&rollup.TotalAmountUSD,
		&rollup.LastSaleAt,
		&rollup.CreatedAt,
	}
}
