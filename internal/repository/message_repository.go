package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// MessageRepository persists the full chat history with classification
// outcomes. Reprocessing reads unclassified text entries back out of it.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	ListRecent(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	ListRecentUnclassifiedText(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	MarkSale(ctx context.Context, id, saleID string) error
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

const messageColumns = `id, message_id, sender_id, sender_name, group_id, kind, content,
       media_url, mime_type, quoted_message_id, is_sale, is_proof, sale_id, proof_id,
       sent_at, processed_at`

func (r *messageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	const query = `
        INSERT INTO messages (message_id, sender_id, sender_name, group_id, kind, content,
            media_url, mime_type, quoted_message_id, is_sale, is_proof, sale_id, proof_id, sent_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, processed_at`
	return r.pool.QueryRow(ctx, query,
		msg.MessageID,
		msg.SenderID,
		msg.SenderName,
		msg.GroupID,
		msg.Kind,
		msg.Content,
		msg.MediaURL,
		msg.MimeType,
		msg.QuotedMessageID,
		msg.IsSale,
		msg.IsProof,
		msg.SaleID,
		msg.ProofID,
		msg.SentAt,
	).Scan(&msg.ID, &msg.ProcessedAt)
}

func (r *messageRepository) ListRecent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + messageColumns + ` FROM messages ORDER BY sent_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *messageRepository) ListRecentUnclassifiedText(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT ` + messageColumns + `
        FROM messages WHERE kind=$1 AND is_sale=FALSE
        ORDER BY sent_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, domain.MessageKindText, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *messageRepository) MarkSale(ctx context.Context, id, saleID string) error {
	const query = `UPDATE messages SET is_sale=TRUE, sale_id=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, saleID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMessages(rows pgx.Rows) ([]domain.ChatMessage, error) {
	var result []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.MessageID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.GroupID,
			&msg.Kind,
			&msg.Content,
			&msg.MediaURL,
			&msg.MimeType,
			&msg.QuotedMessageID,
			&msg.IsSale,
			&msg.IsProof,
			&msg.SaleID,
			&msg.ProofID,
			&msg.SentAt,
			&msg.ProcessedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
