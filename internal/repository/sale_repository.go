package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// SaleFilter captures dashboard listing parameters.
type SaleFilter struct {
	CloserID    *string
	Statuses    []domain.SaleStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// SaleRepository encapsulates sale persistence.
type SaleRepository interface {
	Insert(ctx context.Context, sale *domain.Sale) error
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
	GetBySourceMessageID(ctx context.Context, messageID string) (*domain.Sale, error)
	ListWithFilter(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	UpdateVerification(ctx context.Context, sale *domain.Sale) error
}

type saleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository instantiates repository.
func NewSaleRepository(pool *pgxpool.Pool) SaleRepository {
	return &saleRepository{pool: pool}
}

const saleColumns = `id, external_key, closer_id, closer_name, client_name, client_email, client_phone,
       amount, currency, product, funnel, payment_method, payment_type, extras,
       proof_url, proof_type, proof_message_id, raw_text, group_id, source_message_id,
       status, verified, verified_at, verified_by, created_at, updated_at`

func (r *saleRepository) Insert(ctx context.Context, sale *domain.Sale) error {
	const query = `
        INSERT INTO sales (external_key, closer_id, closer_name, client_name, client_email, client_phone,
            amount, currency, product, funnel, payment_method, payment_type, extras,
            proof_url, proof_type, proof_message_id, raw_text, group_id, source_message_id,
            status, verified, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		sale.ExternalKey,
		sale.CloserID,
		sale.CloserName,
		sale.ClientName,
		sale.ClientEmail,
		sale.ClientPhone,
		sale.Amount,
		sale.Currency,
		sale.Product,
		sale.Funnel,
		sale.PaymentMethod,
		sale.PaymentType,
		sale.Extras,
		sale.ProofURL,
		sale.ProofType,
		sale.ProofMessageID,
		sale.RawText,
		sale.GroupID,
		sale.SourceMessageID,
		sale.Status,
		sale.Verified,
		sale.CreatedAt,
	).Scan(&sale.ID, &sale.UpdatedAt)
}

func (r *saleRepository) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *saleRepository) GetBySourceMessageID(ctx context.Context, messageID string) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE source_message_id=$1`
	return r.fetchSingle(ctx, query, messageID)
}

func (r *saleRepository) ListWithFilter(ctx context.Context, filter SaleFilter) ([]domain.Sale, error) {
	base := `SELECT ` + saleColumns + ` FROM sales`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CloserID != nil {
		args = append(args, *filter.CloserID)
		clauses = append(clauses, fmt.Sprintf("closer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSales(rows)
}

func (r *saleRepository) UpdateVerification(ctx context.Context, sale *domain.Sale) error {
	const query = `
        UPDATE sales SET status=$1, verified=$2, verified_at=$3, verified_by=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		sale.Status,
		sale.Verified,
		sale.VerifiedAt,
		sale.VerifiedBy,
		sale.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *saleRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Sale, error) {
	var sale domain.Sale
	if err := r.pool.QueryRow(ctx, query, arg).Scan(saleScanTargets(&sale)...); err != nil {
		return nil, err
	}
	return &sale, nil
}

func scanSales(rows pgx.Rows) ([]domain.Sale, error) {
	var result []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(saleScanTargets(&sale)...); err != nil {
			return nil, err
		}
		result = append(result, sale)
	}
	return result, rows.Err()
}

func saleScanTargets(sale *domain.Sale) []any {
	return []any{
		&sale.ID,
		&sale.ExternalKey,
		&sale.CloserID,
		&sale.CloserName,
		&sale.ClientName,
		&sale.ClientEmail,
		&sale.ClientPhone,
		&sale.Amount,
		&sale.Currency,
		&sale.Product,
		&sale.Funnel,
		&sale.PaymentMethod,
		&sale.PaymentType,
		&sale.Extras,
		&sale.ProofURL,
		&sale.ProofType,
		&sale.ProofMessageID,
		&sale.RawText,
		&sale.GroupID,
		&sale.SourceMessageID,
		&sale.Status,
		&sale.Verified,
		&sale.VerifiedAt,
		&sale.VerifiedBy,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	}
}
