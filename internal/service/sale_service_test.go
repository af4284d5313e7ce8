package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/events"
	"github.com/spec-kit/sales-tracker/internal/parser"
)

type saleFixture struct {
	service  *SaleService
	sales    *memSaleRepo
	audits   *memAuditRepo
	messages *memMessageRepo
	proofs   *memProofRepo
	closers  *memCloserRepo
	events   *[]events.Event
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	sales := newMemSaleRepo()
	audits := newMemAuditRepo()
	messages := newMemMessageRepo()
	proofs := newMemProofRepo()
	closers := newMemCloserRepo()

	dispatcher := events.NewInMemoryDispatcher()
	captured := &[]events.Event{}
	dispatcher.Subscribe(events.EventSaleVerified, func(_ context.Context, e events.Event) error {
		*captured = append(*captured, e)
		return nil
	})

	svc := NewSaleService(SaleDependencies{
		SaleRepo:    sales,
		AuditRepo:   audits,
		MessageRepo: messages,
		Parser:      parser.New(),
		Linker:      NewProofLinker(proofs, 10*time.Minute, zap.NewNop()),
		Stats:       NewCloserStats(closers, testRates(t)),
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return &saleFixture{
		service:  svc,
		sales:    sales,
		audits:   audits,
		messages: messages,
		proofs:   proofs,
		closers:  closers,
		events:   captured,
	}
}

func (fx *saleFixture) seedSale(t *testing.T) *domain.Sale {
	t.Helper()
	sale := &domain.Sale{
		ExternalKey: "SALE-TEST0001",
		CloserID:    "555",
		CloserName:  "Caro",
		ClientName:  "Juan",
		Currency:    domain.CurrencyUSD,
		Status:      domain.SaleStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := fx.sales.Insert(context.Background(), sale); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

func TestSetVerificationVerify(t *testing.T) {
	fx := newSaleFixture(t)
	seeded := fx.seedSale(t)

	sale, err := fx.service.SetVerification(context.Background(), seeded.ID, true, "ops@example.com")
	if err != nil {
		t.Fatalf("SetVerification returned error: %v", err)
	}
	if sale.Status != domain.SaleStatusVerified || !sale.Verified {
		t.Fatalf("sale not verified: %+v", sale)
	}
	if sale.VerifiedAt == nil || sale.VerifiedBy == nil || *sale.VerifiedBy != "ops@example.com" {
		t.Fatalf("verification stamp missing: %+v", sale)
	}

	logs, err := fx.audits.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(audit logs) = %d, want 1", len(logs))
	}
	entry := logs[0]
	if entry.Action != domain.AuditActionVerify || entry.EntityID != sale.ID {
		t.Fatalf("audit entry wrong: %+v", entry)
	}
	if entry.PreviousStatus != domain.SaleStatusPending || entry.NewStatus != domain.SaleStatusVerified {
		t.Fatalf("audit status transition wrong: %+v", entry)
	}

	if len(*fx.events) != 1 || (*fx.events)[0].Type != events.EventSaleVerified {
		t.Fatalf("events = %+v", *fx.events)
	}
}

func TestSetVerificationReject(t *testing.T) {
	fx := newSaleFixture(t)
	seeded := fx.seedSale(t)

	sale, err := fx.service.SetVerification(context.Background(), seeded.ID, false, "")
	if err != nil {
		t.Fatalf("SetVerification returned error: %v", err)
	}
	if sale.Status != domain.SaleStatusRejected || sale.Verified {
		t.Fatalf("sale not rejected: %+v", sale)
	}
	if sale.VerifiedBy == nil || *sale.VerifiedBy != "admin" {
		t.Fatalf("empty performer should default to admin: %+v", sale.VerifiedBy)
	}

	logs, err := fx.audits.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != domain.AuditActionReject {
		t.Fatalf("audit entry wrong: %+v", logs)
	}
	// rejections are not broadcast
	if len(*fx.events) != 0 {
		t.Fatalf("events = %+v", *fx.events)
	}
}

func TestSetVerificationBulkContinuesPastFailures(t *testing.T) {
	fx := newSaleFixture(t)
	first := fx.seedSale(t)
	second := fx.seedSale(t)

	result, err := fx.service.SetVerificationBulk(context.Background(),
		[]string{first.ID, "no-such-sale", second.ID}, true, "ops")
	if err != nil {
		t.Fatalf("SetVerificationBulk returned error: %v", err)
	}
	if result.Updated != 2 {
		t.Fatalf("Updated = %d, want 2", result.Updated)
	}
	if len(result.Failed) != 1 {
		t.Fatalf("Failed = %+v, want one entry", result.Failed)
	}
	if _, ok := result.Failed["no-such-sale"]; !ok {
		t.Fatalf("missing failure for unknown id: %+v", result.Failed)
	}
}

func TestReprocessFindsMissedSale(t *testing.T) {
	fx := newSaleFixture(t)
	ctx := context.Background()
	sentAt := time.Now().Add(-2 * time.Hour).UTC()

	// receipt seen shortly before the missed report
	insertProof(t, fx.proofs, "IMG1", "555", sentAt.Add(-4*time.Minute))

	entries := []*domain.ChatMessage{
		{
			MessageID:  "MISSED1",
			SenderID:   "555",
			SenderName: "Caro",
			GroupID:    "sales@g.us",
			Kind:       domain.MessageKindText,
			Content:    "Nombre: Juan\nMonto: 5000 pesos",
			SentAt:     sentAt,
		},
		{
			MessageID: "CHAT1",
			SenderID:  "555",
			GroupID:   "sales@g.us",
			Kind:      domain.MessageKindText,
			Content:   "buenas tardes",
			SentAt:    sentAt.Add(time.Minute),
		},
	}
	for _, e := range entries {
		if err := fx.messages.Insert(ctx, e); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	result, err := fx.service.Reprocess(ctx, 100)
	if err != nil {
		t.Fatalf("Reprocess returned error: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("Processed = %d, want 2", result.Processed)
	}
	if result.NewSalesFound != 1 || len(result.SaleIDs) != 1 {
		t.Fatalf("NewSalesFound = %d, SaleIDs = %v", result.NewSalesFound, result.SaleIDs)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v", result.Errors)
	}

	sale, err := fx.sales.GetByID(ctx, result.SaleIDs[0])
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !sale.CreatedAt.Equal(sentAt) {
		t.Fatalf("CreatedAt = %v, want original send time %v", sale.CreatedAt, sentAt)
	}
	if sale.ProofMessageID != "IMG1" {
		t.Fatalf("ProofMessageID = %q, want proof linked by original send time", sale.ProofMessageID)
	}

	history, err := fx.messages.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	var reclassified *domain.ChatMessage
	for i := range history {
		if history[i].MessageID == "MISSED1" {
			reclassified = &history[i]
		}
	}
	if reclassified == nil || !reclassified.IsSale || reclassified.SaleID == nil {
		t.Fatalf("missed report not reclassified: %+v", reclassified)
	}

	rollup, err := fx.closers.Get(ctx, "555")
	if err != nil {
		t.Fatalf("Get rollup: %v", err)
	}
	if rollup == nil || rollup.TotalSaleCount != 1 {
		t.Fatalf("rollup not applied: %+v", rollup)
	}

	// a second sweep must not double-book the same report
	again, err := fx.service.Reprocess(ctx, 100)
	if err != nil {
		t.Fatalf("Reprocess returned error: %v", err)
	}
	if again.NewSalesFound != 0 {
		t.Fatalf("second sweep found %d sales, want 0", again.NewSalesFound)
	}
}
