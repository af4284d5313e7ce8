package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// In-memory repository doubles. They mirror the SQL semantics the real
// implementations rely on, notably the compare-and-swap claim on proofs
// and the atomic rollup upsert.

type memProofRepo struct {
	mu     sync.Mutex
	nextID int
	proofs []*domain.Proof
}

func newMemProofRepo() *memProofRepo {
	return &memProofRepo{}
}

func (r *memProofRepo) Insert(_ context.Context, proof *domain.Proof) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	proof.ID = fmt.Sprintf("proof-%d", r.nextID)
	proof.CreatedAt = time.Now()
	stored := *proof
	r.proofs = append(r.proofs, &stored)
	return nil
}

func (r *memProofRepo) FindUnlinkedBySourceID(_ context.Context, sourceMessageID string) (*domain.Proof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.proofs {
		if !p.Linked && p.SourceMessageID == sourceMessageID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memProofRepo) FindUnlinkedBySenderInWindow(_ context.Context, senderID string, start, end time.Time) ([]domain.Proof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Proof
	for _, p := range r.proofs {
		if p.Linked || p.SenderID != senderID {
			continue
		}
		if p.ReceivedAt.Before(start) || p.ReceivedAt.After(end) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func (r *memProofRepo) Claim(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.proofs {
		if p.ID == id && !p.Linked {
			p.Linked = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memProofRepo) ListUnlinked(_ context.Context, limit int) ([]domain.Proof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Proof
	for _, p := range r.proofs {
		if !p.Linked {
			out = append(out, *p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memSaleRepo struct {
	mu     sync.Mutex
	nextID int
	sales  []*domain.Sale
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{}
}

func (r *memSaleRepo) Insert(_ context.Context, sale *domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sale.ID = fmt.Sprintf("sale-%d", r.nextID)
	sale.UpdatedAt = time.Now()
	stored := *sale
	r.sales = append(r.sales, &stored)
	return nil
}

func (r *memSaleRepo) GetByID(_ context.Context, id string) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("sale %s not found", id)
}

func (r *memSaleRepo) GetBySourceMessageID(_ context.Context, messageID string) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.SourceMessageID == messageID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memSaleRepo) ListWithFilter(_ context.Context, _ repository.SaleFilter) ([]domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSaleRepo) UpdateVerification(_ context.Context, sale *domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.ID == sale.ID {
			s.Status = sale.Status
			s.Verified = sale.Verified
			s.VerifiedAt = sale.VerifiedAt
			s.VerifiedBy = sale.VerifiedBy
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("sale %s not found", sale.ID)
}

type memMessageRepo struct {
	mu      sync.Mutex
	nextID  int
	entries []*domain.ChatMessage
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (r *memMessageRepo) Insert(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	msg.ID = fmt.Sprintf("msg-%d", r.nextID)
	msg.ProcessedAt = time.Now()
	stored := *msg
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *memMessageRepo) ListRecent(_ context.Context, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChatMessage, 0, len(r.entries))
	for _, m := range r.entries {
		out = append(out, *m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memMessageRepo) ListRecentUnclassifiedText(_ context.Context, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.entries {
		if m.Kind == domain.MessageKindText && !m.IsSale {
			out = append(out, *m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memMessageRepo) MarkSale(_ context.Context, id, saleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.entries {
		if m.ID == id {
			m.IsSale = true
			m.SaleID = &saleID
			return nil
		}
	}
	return fmt.Errorf("message %s not found", id)
}

type memCloserRepo struct {
	mu      sync.Mutex
	rollups map[string]*domain.CloserRollup
}

func newMemCloserRepo() *memCloserRepo {
	return &memCloserRepo{rollups: map[string]*domain.CloserRollup{}}
}

func (r *memCloserRepo) Get(_ context.Context, closerID string) (*domain.CloserRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rollup, ok := r.rollups[closerID]
	if !ok {
		return nil, nil
	}
	copied := *rollup
	return &copied, nil
}

func (r *memCloserRepo) ApplySale(_ context.Context, closerID, displayName string, usdAmount decimal.Decimal, saleAt time.Time) (*domain.CloserRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rollup, ok := r.rollups[closerID]
	if !ok {
		rollup = &domain.CloserRollup{
			ID:        fmt.Sprintf("closer-%d", len(r.rollups)+1),
			CloserID:  closerID,
			CreatedAt: time.Now(),
		}
		r.rollups[closerID] = rollup
	}
	rollup.DisplayName = displayName
	rollup.TotalSaleCount++
	rollup.TotalAmountUSD = rollup.TotalAmountUSD.Add(usdAmount)
	if saleAt.After(rollup.LastSaleAt) {
		rollup.LastSaleAt = saleAt
	}
	copied := *rollup
	return &copied, nil
}

func (r *memCloserRepo) List(_ context.Context, limit int) ([]domain.CloserRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CloserRollup, 0, len(r.rollups))
	for _, rollup := range r.rollups {
		out = append(out, *rollup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalAmountUSD.GreaterThan(out[j].TotalAmountUSD) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (r *memAuditRepo) Insert(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("audit-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) ListRecent(_ context.Context, limit int) ([]domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]domain.AuditLog{}, r.entries...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
