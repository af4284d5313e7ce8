package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// SaleReportEvent is the evidence a sale report carries for proof
// resolution: the quoted message (if the closer replied to the receipt),
// who sent the report, and when it was sent.
type SaleReportEvent struct {
	QuotedMessageID string
	SenderID        string
	GroupID         string
	SentAt          time.Time
}

// ProofLinker resolves which previously-seen payment proof belongs to a
// sale report. Resolution is two-stage, first success wins:
//
//  1. explicit reference: an unlinked proof whose source message id equals
//     the report's quoted message id;
//  2. temporal proximity: the latest unlinked proof from the same sender
//     received within the window ending at the report's send time
//     (inclusive on both ends; a proof sent after the report never counts).
//
// Claiming goes through the repository's compare-and-swap, so two reports
// racing for the same proof resolve it at most once; the loser simply moves
// on to the next candidate or ends up with no proof.
type ProofLinker struct {
	proofs repository.ProofRepository
	window time.Duration
	logger *zap.Logger
}

// NewProofLinker constructs the linker.
func NewProofLinker(proofs repository.ProofRepository, window time.Duration, logger *zap.Logger) *ProofLinker {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &ProofLinker{proofs: proofs, window: window, logger: logger}
}

// Resolve returns the claimed proof for the event, or nil when no eligible
// proof exists. A nil result is a valid terminal state, not an error.
func (l *ProofLinker) Resolve(ctx context.Context, event SaleReportEvent) (*domain.Proof, error) {
	if event.QuotedMessageID != "" {
		proof, err := l.proofs.FindUnlinkedBySourceID(ctx, event.QuotedMessageID)
		if err != nil {
			return nil, err
		}
		if proof != nil {
			claimed, err := l.proofs.Claim(ctx, proof.ID)
			if err != nil {
				return nil, err
			}
			if claimed {
				proof.Linked = true
				l.logger.Info("proof linked by quoted reference",
					zap.String("proof_id", proof.ID),
					zap.String("quoted_message_id", event.QuotedMessageID))
				return proof, nil
			}
			// lost the claim race; the window fallback may still find
			// another proof from the same sender
		}
	}

	start := event.SentAt.Add(-l.window)
	candidates, err := l.proofs.FindUnlinkedBySenderInWindow(ctx, event.SenderID, start, event.SentAt)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		proof := candidates[i]
		claimed, err := l.proofs.Claim(ctx, proof.ID)
		if err != nil {
			return nil, err
		}
		if claimed {
			proof.Linked = true
			l.logger.Info("proof linked by time window",
				zap.String("proof_id", proof.ID),
				zap.String("sender_id", event.SenderID),
				zap.Time("received_at", proof.ReceivedAt))
			return &proof, nil
		}
	}
	return nil, nil
}
