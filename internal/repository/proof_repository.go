package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// ProofRepository encapsulates payment-proof persistence. Claim is the
// compare-and-swap that makes linking at-most-once under concurrent
// webhook deliveries.
type ProofRepository interface {
	Insert(ctx context.Context, proof *domain.Proof) error
	FindUnlinkedBySourceID(ctx context.Context, sourceMessageID string) (*domain.Proof, error)
	FindUnlinkedBySenderInWindow(ctx context.Context, senderID string, start, end time.Time) ([]domain.Proof, error)
	Claim(ctx context.Context, id string) (bool, error)
	ListUnlinked(ctx context.Context, limit int) ([]domain.Proof, error)
}

type proofRepository struct {
	pool *pgxpool.Pool
}

// NewProofRepository instantiates repository.
func NewProofRepository(pool *pgxpool.Pool) ProofRepository {
	return &proofRepository{pool: pool}
}

const proofColumns = `id, source_message_id, media_url, media_kind, mime_type, caption,
       sender_id, sender_name, group_id, received_at, linked, created_at`

func (r *proofRepository) Insert(ctx context.Context, proof *domain.Proof) error {
	const query = `
        INSERT INTO proofs (source_message_id, media_url, media_kind, mime_type, caption, sender_id, sender_name, group_id, received_at, linked)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		proof.SourceMessageID,
		proof.MediaURL,
		proof.MediaKind,
		proof.MimeType,
		proof.Caption,
		proof.SenderID,
		proof.SenderName,
		proof.GroupID,
		proof.ReceivedAt,
	).Scan(&proof.ID, &proof.CreatedAt)
}

func (r *proofRepository) FindUnlinkedBySourceID(ctx context.Context, sourceMessageID string) (*domain.Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs WHERE source_message_id=$1 AND linked=FALSE LIMIT 1`
	proof, err := r.fetchSingle(ctx, query, sourceMessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return proof, err
}

func (r *proofRepository) FindUnlinkedBySenderInWindow(ctx context.Context, senderID string, start, end time.Time) ([]domain.Proof, error) {
	query := `SELECT ` + proofColumns + `
        FROM proofs
        WHERE sender_id=$1 AND linked=FALSE AND received_at >= $2 AND received_at <= $3
        ORDER BY received_at DESC`
	rows, err := r.pool.Query(ctx, query, senderID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProofs(rows)
}

// Claim flips linked to true iff it is still false; the row count tells
// the caller whether it won the race.
func (r *proofRepository) Claim(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE proofs SET linked=TRUE WHERE id=$1 AND linked=FALSE`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *proofRepository) ListUnlinked(ctx context.Context, limit int) ([]domain.Proof, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + proofColumns + ` FROM proofs WHERE linked=FALSE ORDER BY received_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProofs(rows)
}

func (r *proofRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Proof, error) {
	var proof domain.Proof
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&proof.ID,
		&proof.SourceMessageID,
		&proof.MediaURL,
		&proof.MediaKind,
		&proof.MimeType,
		&proof.Caption,
		&proof.SenderID,
		&proof.SenderName,
		&proof.GroupID,
		&proof.ReceivedAt,
		&proof.Linked,
		&proof.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &proof, nil
}

func scanProofs(rows pgx.Rows) ([]domain.Proof, error) {
	var result []domain.Proof
	for rows.Next() {
		var proof domain.Proof
		if err := rows.Scan(
			&proof.ID,
			&proof.SourceMessageID,
			&proof.MediaURL,
			&proof.MediaKind,
			&proof.MimeType,
			&proof.Caption,
			&proof.SenderID,
			&proof.SenderName,
			&proof.GroupID,
			&proof.ReceivedAt,
			&proof.Linked,
			&proof.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, proof)
	}
	return result, rows.Err()
}
