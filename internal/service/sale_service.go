package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/events"
	"github.com/spec-kit/sales-tracker/internal/parser"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// SaleService handles the dashboard-facing sale workflows: listing,
// manual verification, and reprocessing history for missed reports.
type SaleService struct {
	sales    repository.SaleRepository
	audits   repository.AuditLogRepository
	messages repository.MessageRepository

	parser     *parser.Parser
	linker     *ProofLinker
	stats      *CloserStats
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SaleDependencies bundles collaborators for the sale service.
type SaleDependencies struct {
	SaleRepo    repository.SaleRepository
	AuditRepo   repository.AuditLogRepository
	MessageRepo repository.MessageRepository
	Parser      *parser.Parser
	Linker      *ProofLinker
	Stats       *CloserStats
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewSaleService constructs the service.
func NewSaleService(deps SaleDependencies) *SaleService {
	return &SaleService{
		sales:      deps.SaleRepo,
		audits:     deps.AuditRepo,
		messages:   deps.MessageRepo,
		parser:     deps.Parser,
		linker:     deps.Linker,
		stats:      deps.Stats,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// List returns sales matching the filter.
func (s *SaleService) List(ctx context.Context, filter repository.SaleFilter) ([]domain.Sale, error) {
	return s.sales.ListWithFilter(ctx, filter)
}

// Get fetches one sale.
func (s *SaleService) Get(ctx context.Context, id string) (*domain.Sale, error) {
	return s.sales.GetByID(ctx, id)
}

// SetVerification applies a manual verify/reject decision: status and
// verified flags flip together (VERIFIED always implies verified=true),
// an audit entry is stamped, and verified sales emit an event.
func (s *SaleService) SetVerification(ctx context.Context, saleID string, verified bool, verifiedBy string) (*domain.Sale, error) {
	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if verifiedBy == "" {
		verifiedBy = "admin"
	}

	previousStatus := sale.Status
	now := time.Now()
	sale.Verified = verified
	sale.VerifiedAt = &now
	sale.VerifiedBy = &verifiedBy
	if verified {
		sale.Status = domain.SaleStatusVerified
	} else {
		sale.Status = domain.SaleStatusRejected
	}
	if err := s.sales.UpdateVerification(ctx, sale); err != nil {
		return nil, err
	}

	action := domain.AuditActionReject
	if verified {
		action = domain.AuditActionVerify
	}
	entry := &domain.AuditLog{
		Action:         action,
		EntityType:     "sale",
		EntityID:       sale.ID,
		PreviousStatus: previousStatus,
		NewStatus:      sale.Status,
		PerformedBy:    verifiedBy,
		Details: map[string]any{
			"client_name": sale.ClientName,
			"amount":      sale.Amount.String(),
			"currency":    sale.Currency,
			"closer_name": sale.CloserName,
		},
	}
	if err := s.audits.Insert(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("sale verification updated",
		zap.String("sale_id", sale.ID),
		zap.Bool("verified", verified),
		zap.String("performed_by", verifiedBy))
	if verified {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventSaleVerified,
			EntityID: sale.ID,
			Payload: events.SaleVerifiedPayload{
				SaleID:     sale.ID,
				Client:     sale.ClientName,
				Amount:     sale.Amount,
				Currency:   sale.Currency,
				Closer:     sale.CloserName,
				CloserID:   sale.CloserID,
				ProofURL:   sale.ProofURL,
				Verified:   true,
				Status:     sale.Status,
				VerifiedAt: now,
				VerifiedBy: verifiedBy,
			},
		})
	}
	return sale, nil
}

// BulkVerificationResult reports per-sale outcomes of a bulk decision.
type BulkVerificationResult struct {
	Updated int
	Failed  map[string]string
}

// SetVerificationBulk applies one decision to many sales, continuing past
// individual failures.
func (s *SaleService) SetVerificationBulk(ctx context.Context, saleIDs []string, verified bool, verifiedBy string) (*BulkVerificationResult, error) {
	result := &BulkVerificationResult{Failed: map[string]string{}}
	for _, id := range saleIDs {
		if _, err := s.SetVerification(ctx, id, verified, verifiedBy); err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		result.Updated++
	}
	return result, nil
}

// ReprocessResult summarizes a reprocessing sweep.
type ReprocessResult struct {
	Processed     int      `json:"processed"`
	NewSalesFound int      `json:"new_sales_found"`
	SaleIDs       []string `json:"sale_ids"`
	Errors        []string `json:"errors"`
}

// Reprocess re-runs classification over recent text history entries that
// were not recognized as sales, catching reports an earlier parser
// revision missed. Proof linking uses each message's original send time,
// so old reports can still find their receipts.
func (s *SaleService) Reprocess(ctx context.Context, batchSize int) (*ReprocessResult, error) {
	candidates, err := s.messages.ListRecentUnclassifiedText(ctx, batchSize)
	if err != nil {
		return nil, err
	}

	result := &ReprocessResult{}
	for i := range candidates {
		msg := candidates[i]
		result.Processed++
		if !s.parser.IsSaleReport(msg.Content) {
			continue
		}
		parsed, err := s.parser.Parse(msg.Content)
		if err != nil {
			result.Errors = append(result.Errors, "could not parse message "+msg.ID)
			continue
		}

		quoted := ""
		if msg.QuotedMessageID != nil {
			quoted = *msg.QuotedMessageID
		}
		proof, err := s.linker.Resolve(ctx, SaleReportEvent{
			QuotedMessageID: quoted,
			SenderID:        msg.SenderID,
			GroupID:         msg.GroupID,
			SentAt:          msg.SentAt,
		})
		if err != nil {
			s.logger.Warn("proof resolution failed during reprocess",
				zap.String("message_id", msg.MessageID), zap.Error(err))
			proof = nil
		}

		sale := &domain.Sale{
			ExternalKey:     generateSaleKey(),
			CloserID:        msg.SenderID,
			CloserName:      msg.SenderName,
			ClientName:      parsed.ClientName,
			ClientEmail:     parsed.ClientEmail,
			ClientPhone:     parsed.ClientPhone,
			Amount:          parsed.Amount,
			Currency:        parsed.Currency,
			Product:         parsed.Product,
			Funnel:          parsed.Funnel,
			PaymentMethod:   parsed.PaymentMethod,
			PaymentType:     parsed.PaymentType,
			Extras:          parsed.Extras,
			ProofType:       domain.ProofTypeImage,
			ProofMessageID:  quoted,
			RawText:         msg.Content,
			GroupID:         msg.GroupID,
			SourceMessageID: msg.MessageID,
			Status:          domain.SaleStatusPending,
			CreatedAt:       msg.SentAt,
		}
		if proof != nil {
			sale.ProofURL = proof.MediaURL
			sale.ProofType = proof.MediaKind.ProofType()
			sale.ProofMessageID = proof.SourceMessageID
		}
		if err := s.sales.Insert(ctx, sale); err != nil {
			result.Errors = append(result.Errors, "could not store sale for message "+msg.ID)
			continue
		}
		if err := s.messages.MarkSale(ctx, msg.ID, sale.ID); err != nil {
			result.Errors = append(result.Errors, "could not reclassify message "+msg.ID)
		}
		if _, err := s.stats.ApplySale(ctx, sale.CloserID, sale.CloserName, sale.Amount, sale.Currency); err != nil {
			result.Errors = append(result.Errors, "could not update rollup for sale "+sale.ID)
		}

		result.NewSalesFound++
		result.SaleIDs = append(result.SaleIDs, sale.ID)
	}

	s.logger.Info("reprocess finished",
		zap.Int("processed", result.Processed),
		zap.Int("new_sales", result.NewSalesFound),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *SaleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
