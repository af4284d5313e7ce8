package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/events"
	"github.com/spec-kit/sales-tracker/internal/parser"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

type ingestFixture struct {
	service  *IngestService
	proofs   *memProofRepo
	sales    *memSaleRepo
	messages *memMessageRepo
	closers  *memCloserRepo
	events   *[]events.Event
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	proofs := newMemProofRepo()
	sales := newMemSaleRepo()
	messages := newMemMessageRepo()
	closers := newMemCloserRepo()

	dispatcher := events.NewInMemoryDispatcher()
	captured := &[]events.Event{}
	record := func(_ context.Context, e events.Event) error {
		*captured = append(*captured, e)
		return nil
	}
	dispatcher.Subscribe(events.EventSaleRecorded, record)
	dispatcher.Subscribe(events.EventProofRecorded, record)

	svc := NewIngestService(IngestDependencies{
		Parser:      parser.New(),
		Linker:      NewProofLinker(proofs, 10*time.Minute, zap.NewNop()),
		Stats:       NewCloserStats(closers, testRates(t)),
		ProofRepo:   proofs,
		SaleRepo:    sales,
		MessageRepo: messages,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return &ingestFixture{
		service:  svc,
		proofs:   proofs,
		sales:    sales,
		messages: messages,
		closers:  closers,
		events:   captured,
	}
}

func imageMessage(id, sender string, sentAt time.Time) domain.RawMessage {
	return domain.RawMessage{
		ID:                id,
		SenderID:          sender,
		SenderDisplayName: "Caro",
		GroupID:           "sales@g.us",
		SentAt:            sentAt,
		Kind:              domain.MessageKindImage,
		MediaURL:          "https://cdn.example.com/" + id + ".jpg",
		MimeType:          "image/jpeg",
	}
}

func textMessage(id, sender, body string, sentAt time.Time) domain.RawMessage {
	return domain.RawMessage{
		ID:                id,
		SenderID:          sender,
		SenderDisplayName: "Caro",
		GroupID:           "sales@g.us",
		SentAt:            sentAt,
		Kind:              domain.MessageKindText,
		TextBody:          body,
	}
}

func TestProcessMessageRecordsProof(t *testing.T) {
	fx := newIngestFixture(t)
	sentAt := time.Now().UTC()

	result, err := fx.service.ProcessMessage(context.Background(), imageMessage("IMG1", "555", sentAt))
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if result.Outcome != OutcomeProofRecorded {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeProofRecorded)
	}
	if result.Proof == nil || result.Proof.Linked {
		t.Fatalf("expected unlinked stored proof, got %+v", result.Proof)
	}
	if result.Proof.ReceivedAt != sentAt {
		t.Fatalf("ReceivedAt = %v, want message send time", result.Proof.ReceivedAt)
	}

	history, err := fx.messages.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(history) != 1 || !history[0].IsProof || history[0].IsSale {
		t.Fatalf("history entry wrong: %+v", history)
	}
	if len(*fx.events) != 1 || (*fx.events)[0].Type != events.EventProofRecorded {
		t.Fatalf("events = %+v", *fx.events)
	}
}

func TestProcessMessageRecordsSaleWithWindowProof(t *testing.T) {
	fx := newIngestFixture(t)
	ctx := context.Background()
	proofAt := time.Now().UTC()

	if _, err := fx.service.ProcessMessage(ctx, imageMessage("IMG1", "555", proofAt)); err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}

	reportAt := proofAt.Add(3 * time.Minute)
	report := textMessage("TXT1", "555", "Nombre: Juan\nMonto: 5000 pesos\nProducto: Silver", reportAt)
	result, err := fx.service.ProcessMessage(ctx, report)
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if result.Outcome != OutcomeSaleRecorded {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeSaleRecorded)
	}

	sale := result.Sale
	if sale.ProofURL != "https://cdn.example.com/IMG1.jpg" {
		t.Fatalf("ProofURL = %q", sale.ProofURL)
	}
	if sale.ProofMessageID != "IMG1" {
		t.Fatalf("ProofMessageID = %q, want linked proof source", sale.ProofMessageID)
	}
	if sale.ProofType != domain.ProofTypeImage {
		t.Fatalf("ProofType = %s", sale.ProofType)
	}
	if sale.Currency != domain.CurrencyARS {
		t.Fatalf("Currency = %s", sale.Currency)
	}
	if !sale.CreatedAt.Equal(reportAt) {
		t.Fatalf("CreatedAt = %v, want report send time %v", sale.CreatedAt, reportAt)
	}
	if sale.Status != domain.SaleStatusPending || sale.Verified {
		t.Fatalf("new sale must be pending and unverified: %+v", sale)
	}

	rollup, err := fx.closers.Get(ctx, "555")
	if err != nil {
		t.Fatalf("Get rollup: %v", err)
	}
	if rollup == nil || rollup.TotalSaleCount != 1 {
		t.Fatalf("rollup not applied: %+v", rollup)
	}
	// 5000 ARS at 1000 per USD
	if rollup.TotalAmountUSD.String() != "5" {
		t.Fatalf("TotalAmountUSD = %s, want 5", rollup.TotalAmountUSD)
	}

	unlinked, err := fx.proofs.ListUnlinked(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnlinked returned error: %v", err)
	}
	if len(unlinked) != 0 {
		t.Fatalf("proof should be claimed, still unlinked: %+v", unlinked)
	}

	sawSaleEvent := false
	for _, e := range *fx.events {
		if e.Type == events.EventSaleRecorded && e.EntityID == sale.ID {
			sawSaleEvent = true
		}
	}
	if !sawSaleEvent {
		t.Fatal("sale_recorded event not published")
	}
}

func TestProcessMessageKeepsQuotedBreadcrumbWithoutProof(t *testing.T) {
	fx := newIngestFixture(t)

	report := textMessage("TXT1", "555", "Nombre: Juan\nMonto: 100", time.Now().UTC())
	report.QuotedMessageID = "MISSING_PROOF"

	result, err := fx.service.ProcessMessage(context.Background(), report)
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if result.Outcome != OutcomeSaleRecorded {
		t.Fatalf("Outcome = %s", result.Outcome)
	}
	if result.Sale.ProofURL != "" {
		t.Fatalf("ProofURL = %q, want empty", result.Sale.ProofURL)
	}
	if result.Sale.ProofMessageID != "MISSING_PROOF" {
		t.Fatalf("ProofMessageID = %q, want quoted id kept", result.Sale.ProofMessageID)
	}
}

func TestProcessMessagePlainChatIsHistoryOnly(t *testing.T) {
	fx := newIngestFixture(t)
	ctx := context.Background()

	result, err := fx.service.ProcessMessage(ctx, textMessage("TXT1", "555", "buen dia equipo", time.Now()))
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if result.Outcome != OutcomeHistoryOnly {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeHistoryOnly)
	}

	sales, err := fx.sales.ListWithFilter(ctx, repository.SaleFilter{})
	if err != nil {
		t.Fatalf("ListWithFilter returned error: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("no sale expected, got %+v", sales)
	}
	history, err := fx.messages.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(history) != 1 || history[0].IsSale || history[0].IsProof {
		t.Fatalf("history entry wrong: %+v", history)
	}
}

func TestProcessMessageNonProofMediaKinds(t *testing.T) {
	fx := newIngestFixture(t)

	msg := domain.RawMessage{
		ID:       "REACT1",
		SenderID: "555",
		GroupID:  "sales@g.us",
		SentAt:   time.Now(),
		Kind:     domain.MessageKindReaction,
		TextBody: "👍",
	}
	result, err := fx.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if result.Outcome != OutcomeHistoryOnly {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeHistoryOnly)
	}
	unlinked, err := fx.proofs.ListUnlinked(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUnlinked returned error: %v", err)
	}
	if len(unlinked) != 0 {
		t.Fatalf("reaction must not become a proof: %+v", unlinked)
	}
}

func TestProcessMessageDocumentBecomesPdfProof(t *testing.T) {
	fx := newIngestFixture(t)
	ctx := context.Background()
	proofAt := time.Now().UTC()

	doc := domain.RawMessage{
		ID:                "DOC1",
		SenderID:          "555",
		SenderDisplayName: "Caro",
		GroupID:           "sales@g.us",
		SentAt:            proofAt,
		Kind:              domain.MessageKindDocument,
		MediaURL:          "https://cdn.example.com/receipt.pdf",
		MimeType:          "application/pdf",
	}
	if _, err := fx.service.ProcessMessage(ctx, doc); err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}

	report := textMessage("TXT1", "555", "Nombre: Juan\nMonto: 100", proofAt.Add(time.Minute))
	result, err := fx.service.ProcessMessage(ctx, report)
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if result.Sale.ProofType != domain.ProofTypePdf {
		t.Fatalf("ProofType = %s, want %s", result.Sale.ProofType, domain.ProofTypePdf)
	}
}
