//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/adapter"
	"photoframe-saas/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with a nil tx unless a test installs
// its own WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// ---- In-memory PaymentRepository ----

type memPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PaymentRecord // by ID

	SaveFunc          func(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error
	FindByOrderIDFunc func(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentRecord, error)
	UpdateStatusFunc  func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string, completedAt *time.Time) error
	SetInvoiceFunc    func(ctx context.Context, tx repository.Tx, id, number string, date time.Time, fallback bool) error
}

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.PaymentRecord)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.store {
		if e.OrderID == p.OrderID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentRecord, error) {
	if m.FindByOrderIDFunc != nil {
		return m.FindByOrderIDFunc(ctx, tx, orderID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string, completedAt *time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, gatewayPaymentID, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = gatewayPaymentID
	}
	if completedAt != nil {
		p.CompletedAt = completedAt
	}
	return nil
}

func (m *memPaymentRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refundAmount int64, refundNote string, refundedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusSuccess {
		return domain.ErrAlreadyRefunded
	}
	p.Status = status
	p.RefundAmount = &refundAmount
	p.RefundNote = refundNote
	p.RefundedAt = &refundedAt
	return nil
}

func (m *memPaymentRepo) SetInvoice(ctx context.Context, tx repository.Tx, id string, number string, date time.Time, fallback bool) error {
	if m.SetInvoiceFunc != nil {
		return m.SetInvoiceFunc(ctx, tx, id, number, date, fallback)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.InvoiceNumber != "" {
		return domain.ErrAlreadyExists
	}
	p.InvoiceNumber = number
	p.InvoiceDate = &date
	p.InvoiceFallback = fallback
	return nil
}

// get returns the live stored record, for assertions.
func (m *memPaymentRepo) get(id string) *model.PaymentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[id]
}

// ---- In-memory CampaignRepository ----

type memCampaignRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Campaign

	ActivateFunc   func(ctx context.Context, tx repository.Tx, id string, upd repository.ActivationUpdate) error
	DeactivateFunc func(ctx context.Context, tx repository.Tx, id string, status model.CampaignStatus) error

	ActivateCalls int
}

var _ repository.CampaignRepository = (*memCampaignRepo)(nil)

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{store: make(map[string]*model.Campaign)}
}

func (m *memCampaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCampaignRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaignRepo) Activate(ctx context.Context, tx repository.Tx, id string, upd repository.ActivationUpdate) error {
	m.mu.Lock()
	m.ActivateCalls++
	m.mu.Unlock()
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, tx, id, upd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = true
	c.Status = model.CampaignStatusActive
	c.PlanType = upd.PlanType
	c.AmountPaid = upd.AmountPaid
	c.PaymentID = upd.PaymentID
	c.ExpiresAt = upd.ExpiresAt
	la := upd.LastPaymentAt
	c.LastPaymentAt = &la
	c.IsFreeCampaign = upd.IsFree
	return nil
}

func (m *memCampaignRepo) Deactivate(ctx context.Context, tx repository.Tx, id string, status model.CampaignStatus) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	c.Status = status
	return nil
}

func (m *memCampaignRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Campaign
	for _, c := range m.store {
		if c.Expired(now) {
			cp := *c
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memCampaignRepo) get(id string) *model.Campaign {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[id]
}

// ---- In-memory UserRepository ----

type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- In-memory CouponRepository ----

type memCouponRepo struct {
	mu          sync.RWMutex
	coupons     map[string]*model.Coupon
	redemptions map[string]*model.Redemption // key: code|userID
}

var _ repository.CouponRepository = (*memCouponRepo)(nil)

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{
		coupons:     make(map[string]*model.Coupon),
		redemptions: make(map[string]*model.Redemption),
	}
}

func (m *memCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.coupons[c.Code] = &cp
	return nil
}

func (m *memCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCouponRepo) FindRedemption(ctx context.Context, tx repository.Tx, code, userID string) (*model.Redemption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.redemptions[code+"|"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memCouponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok {
		return domain.ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return domain.ErrCouponExhausted
	}
	c.UsedCount++
	key := code + "|" + userID
	if r, ok := m.redemptions[key]; ok {
		r.Count++
	} else {
		m.redemptions[key] = &model.Redemption{CouponCode: code, UserID: userID, Count: 1}
	}
	return nil
}

// ---- Counter / audit / expiry-log mocks ----

type memCounterRepo struct {
	mu   sync.Mutex
	last int64
	err  error
}

var _ repository.InvoiceCounterRepository = (*memCounterRepo)(nil)

func (m *memCounterRepo) NextNumber(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.last++
	return m.last, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*model.AuditLog
}

var _ repository.AuditLogRepository = (*memAuditRepo)(nil)

func (m *memAuditRepo) Save(ctx context.Context, tx repository.Tx, entry *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditRepo) ListByActor(ctx context.Context, tx repository.Tx, actorID string, limit int) ([]*model.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AuditLog
	for _, e := range m.entries {
		if e.ActorID == actorID {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memExpiryLogRepo struct {
	mu        sync.Mutex
	entries   []*model.ExpiryLog
	summaries []*model.SweepSummary
}

var _ repository.ExpiryLogRepository = (*memExpiryLogRepo)(nil)

func (m *memExpiryLogRepo) SaveEntries(ctx context.Context, tx repository.Tx, entries []*model.ExpiryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memExpiryLogRepo) SaveSummary(ctx context.Context, tx repository.Tx, s *model.SweepSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.summaries = append(m.summaries, &cp)
	return nil
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu sync.Mutex

	CreateOrderFunc func(ctx context.Context, orderID string, amount int64, customerID, note string) (adapter.OrderResult, error)
	RefundFunc      func(ctx context.Context, orderID string, amount int64, note string) (adapter.RefundResult, error)

	CreateOrderCalls int
	RefundCalls      int
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateOrder(ctx context.Context, orderID string, amount int64, customerID string, note string) (adapter.OrderResult, error) {
	g.mu.Lock()
	g.CreateOrderCalls++
	g.mu.Unlock()
	if g.CreateOrderFunc != nil {
		return g.CreateOrderFunc(ctx, orderID, amount, customerID, note)
	}
	return adapter.OrderResult{GatewayOrderID: orderID, SessionID: "session-" + orderID, Status: "ACTIVE"}, nil
}

func (g *MockGateway) Refund(ctx context.Context, orderID string, amount int64, note string) (adapter.RefundResult, error) {
	g.mu.Lock()
	g.RefundCalls++
	g.mu.Unlock()
	if g.RefundFunc != nil {
		return g.RefundFunc(ctx, orderID, amount, note)
	}
	return adapter.RefundResult{RefundID: "refund-" + orderID, Status: "SUCCESS", RefundAmount: amount, RefundTime: time.Now()}, nil
}
