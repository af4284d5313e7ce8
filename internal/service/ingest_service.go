package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/events"
	"github.com/spec-kit/sales-tracker/internal/parser"
	"github.com/spec-kit/sales-tracker/internal/persistence"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// IngestOutcome summarizes what the pipeline did with a message.
type IngestOutcome string

const (
	OutcomeSaleRecorded  IngestOutcome = "sale_recorded"
	OutcomeProofRecorded IngestOutcome = "proof_recorded"
	OutcomeHistoryOnly   IngestOutcome = "history_only"
	OutcomeDuplicate     IngestOutcome = "duplicate"
)

// IngestResult reports the pipeline outcome for one message.
type IngestResult struct {
	Outcome IngestOutcome
	Sale    *domain.Sale
	Proof   *domain.Proof
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	Parser      *parser.Parser
	Linker      *ProofLinker
	Stats       *CloserStats
	ProofRepo   repository.ProofRepository
	SaleRepo    repository.SaleRepository
	MessageRepo repository.MessageRepository
	Dispatcher  events.Dispatcher
	Redis       *persistence.Redis
	DedupTTL    time.Duration
	Logger      *zap.Logger
}

// IngestService runs the classification and proof-linking pipeline over
// normalized gateway messages: media becomes an unlinked proof, text that
// classifies as a sale report becomes a sale with rollup and proof
// linkage, everything else is recorded as plain chat history.
type IngestService struct {
	parser   *parser.Parser
	linker   *ProofLinker
	stats    *CloserStats
	proofs   repository.ProofRepository
	sales    repository.SaleRepository
	messages repository.MessageRepository

	dispatcher events.Dispatcher
	redis      *persistence.Redis
	dedupTTL   time.Duration
	logger     *zap.Logger
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	dedupTTL := deps.DedupTTL
	if dedupTTL <= 0 {
		dedupTTL = time.Hour
	}
	return &IngestService{
		parser:     deps.Parser,
		linker:     deps.Linker,
		stats:      deps.Stats,
		proofs:     deps.ProofRepo,
		sales:      deps.SaleRepo,
		messages:   deps.MessageRepo,
		dispatcher: deps.Dispatcher,
		redis:      deps.Redis,
		dedupTTL:   dedupTTL,
		logger:     deps.Logger,
	}
}

// ProcessMessage ingests one normalized message. Gateways redeliver, so a
// Redis guard on the message id makes processing idempotent; a Redis
// outage degrades to best-effort instead of blocking ingestion.
func (s *IngestService) ProcessMessage(ctx context.Context, msg domain.RawMessage) (*IngestResult, error) {
	if dup := s.seenBefore(ctx, msg.ID); dup {
		s.logger.Debug("duplicate delivery ignored", zap.String("message_id", msg.ID))
		return &IngestResult{Outcome: OutcomeDuplicate}, nil
	}

	if msg.Kind.IsMedia() && msg.MediaURL != "" {
		return s.recordProof(ctx, msg)
	}
	if msg.Kind == domain.MessageKindText && msg.TextBody != "" {
		return s.processText(ctx, msg)
	}
	if err := s.recordHistory(ctx, msg, nil, nil); err != nil {
		return nil, err
	}
	return &IngestResult{Outcome: OutcomeHistoryOnly}, nil
}

func (s *IngestService) recordProof(ctx context.Context, msg domain.RawMessage) (*IngestResult, error) {
	mediaKind := domain.MediaKindDocument
	if msg.Kind == domain.MessageKindImage || strings.HasPrefix(msg.MimeType, "image/") {
		mediaKind = domain.MediaKindImage
	}

	proof := &domain.Proof{
		SourceMessageID: msg.ID,
		MediaURL:        msg.MediaURL,
		MediaKind:       mediaKind,
		MimeType:        msg.MimeType,
		Caption:         msg.Caption,
		SenderID:        msg.SenderID,
		SenderName:      msg.SenderDisplayName,
		GroupID:         msg.GroupID,
		ReceivedAt:      msg.SentAt,
	}
	if err := s.proofs.Insert(ctx, proof); err != nil {
		return nil, err
	}
	if err := s.recordHistory(ctx, msg, nil, proof); err != nil {
		return nil, err
	}

	s.logger.Info("proof recorded",
		zap.String("proof_id", proof.ID),
		zap.String("message_id", msg.ID),
		zap.String("sender_id", msg.SenderID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventProofRecorded,
		EntityID: proof.ID,
		Payload: events.ProofRecordedPayload{
			ProofID:         proof.ID,
			SourceMessageID: proof.SourceMessageID,
			MediaKind:       proof.MediaKind,
			SenderID:        proof.SenderID,
		},
	})
	return &IngestResult{Outcome: OutcomeProofRecorded, Proof: proof}, nil
}

func (s *IngestService) processText(ctx context.Context, msg domain.RawMessage) (*IngestResult, error) {
	if !s.parser.IsSaleReport(msg.TextBody) {
		if err := s.recordHistory(ctx, msg, nil, nil); err != nil {
			return nil, err
		}
		return &IngestResult{Outcome: OutcomeHistoryOnly}, nil
	}

	parsed, err := s.parser.Parse(msg.TextBody)
	if err != nil {
		// noise that happened to trip the pre-filter; plain history
		if err := s.recordHistory(ctx, msg, nil, nil); err != nil {
			return nil, err
		}
		return &IngestResult{Outcome: OutcomeHistoryOnly}, nil
	}

	sale, err := s.assembleSale(ctx, msg, parsed)
	if err != nil {
		return nil, err
	}
	if err := s.sales.Insert(ctx, sale); err != nil {
		return nil, err
	}
	if err := s.recordHistory(ctx, msg, sale, nil); err != nil {
		return nil, err
	}

	if _, err := s.stats.ApplySale(ctx, sale.CloserID, sale.CloserName, sale.Amount, sale.Currency); err != nil {
		return nil, err
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("closer_id", sale.CloserID),
		zap.String("client", sale.ClientName),
		zap.String("amount", sale.Amount.String()),
		zap.String("currency", string(sale.Currency)),
		zap.Bool("has_proof", sale.ProofURL != ""))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSaleRecorded,
		EntityID: sale.ID,
		Payload: events.SaleRecordedPayload{
			SaleID:      sale.ID,
			Client:      sale.ClientName,
			ClientEmail: sale.ClientEmail,
			ClientPhone: sale.ClientPhone,
			Amount:      sale.Amount,
			Currency:    sale.Currency,
			Product:     sale.Product,
			Closer:      sale.CloserName,
			CloserID:    sale.CloserID,
			ProofURL:    sale.ProofURL,
			CreatedAt:   sale.CreatedAt,
		},
	})
	return &IngestResult{Outcome: OutcomeSaleRecorded, Sale: sale}, nil
}

// assembleSale builds the sale record, resolving the proof linkage first.
// A proof lookup failure is logged and the sale proceeds proofless; the
// quoted-message id stays on the record either way so operators can
// reconcile manually later.
func (s *IngestService) assembleSale(ctx context.Context, msg domain.RawMessage, parsed *parser.ParsedSale) (*domain.Sale, error) {
	proof, err := s.linker.Resolve(ctx, SaleReportEvent{
		QuotedMessageID: msg.QuotedMessageID,
		SenderID:        msg.SenderID,
		GroupID:         msg.GroupID,
		SentAt:          msg.SentAt,
	})
	if err != nil {
		s.logger.Warn("proof resolution failed; sale continues without proof",
			zap.String("message_id", msg.ID), zap.Error(err))
		proof = nil
	}

	sale := &domain.Sale{
		ExternalKey:     generateSaleKey(),
		CloserID:        msg.SenderID,
		CloserName:      msg.SenderDisplayName,
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
		ProofMessageID:  msg.QuotedMessageID,
		RawText:         msg.TextBody,
		GroupID:         msg.GroupID,
		SourceMessageID: msg.ID,
		Status:          domain.SaleStatusPending,
		Verified:        false,
		CreatedAt:       msg.SentAt,
	}
	if proof != nil {
		sale.ProofURL = proof.MediaURL
		sale.ProofType = proof.MediaKind.ProofType()
		sale.ProofMessageID = proof.SourceMessageID
	}
	return sale, nil
}

func (s *IngestService) recordHistory(ctx context.Context, msg domain.RawMessage, sale *domain.Sale, proof *domain.Proof) error {
	content := msg.TextBody
	if content == "" {
		content = msg.Caption
	}
	entry := &domain.ChatMessage{
		MessageID:       msg.ID,
		SenderID:        msg.SenderID,
		SenderName:      msg.SenderDisplayName,
		GroupID:         msg.GroupID,
		Kind:            msg.Kind,
		Content:         content,
		MediaURL:        optional(msg.MediaURL),
		MimeType:        optional(msg.MimeType),
		QuotedMessageID: optional(msg.QuotedMessageID),
		IsSale:          sale != nil,
		IsProof:         proof != nil,
		SentAt:          msg.SentAt,
	}
	if sale != nil {
		entry.SaleID = &sale.ID
	}
	if proof != nil {
		entry.ProofID = &proof.ID
	}
	return s.messages.Insert(ctx, entry)
}

func (s *IngestService) seenBefore(ctx context.Context, messageID string) bool {
	if s.redis == nil || s.redis.Client == nil || messageID == "" {
		return false
	}
	acquired, err := s.redis.AcquireOnce(ctx, "ingest:msg:"+messageID, s.dedupTTL)
	if err != nil {
		s.logger.Warn("dedup guard unavailable", zap.Error(err))
		return false
	}
	return !acquired
}

func (s *IngestService) publishEvent(ctx context.Context, event events.Event) {
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

func generateSaleKey() string {
	return "SALE-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func optional(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}
