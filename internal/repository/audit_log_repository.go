package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// AuditLogRepository records manual verification actions.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository instantiates repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Insert(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (action, entity_type, entity_id, previous_status, new_status, performed_by, details)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.PerformedBy,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, action, entity_type, entity_id, previous_status, new_status, performed_by, details, created_at
        FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]domain.AuditLog, error) {
	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.PerformedBy,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
