//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/adapter"
	"creator-ledger/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TipRepository ----

type MockTipRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Tip

	SaveFunc                  func(ctx context.Context, tx repository.Tx, t *model.Tip) error
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.TipStatus) (bool, error)
}

var _ repository.TipRepository = (*MockTipRepo)(nil)

func NewMockTipRepo() *MockTipRepo { return &MockTipRepo{byID: map[string]*model.Tip{}} }

func (r *MockTipRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tip) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.byID[t.ID] = &cp
	return nil
}

func (r *MockTipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockTipRepo) FindByExternalTransactionID(ctx context.Context, tx repository.Tx, externalID string) (*model.Tip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.ExternalTransactionID == externalID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockTipRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TipStatus) (bool, error) {
	if r.UpdateStatusIfPendingFunc != nil {
		return r.UpdateStatusIfPendingFunc(ctx, tx, id, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.Status != model.TipStatusPending {
		return false, nil
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockTipRepo) list(match func(*model.Tip) bool, offset, limit int) []*model.Tip {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Tip
	for _, t := range r.byID {
		if match(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *MockTipRepo) ListSent(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Tip, error) {
	return r.list(func(t *model.Tip) bool { return t.FromUserID == userID }, offset, limit), nil
}

func (r *MockTipRepo) ListReceived(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Tip, error) {
	return r.list(func(t *model.Tip) bool { return t.ToUserID == userID }, offset, limit), nil
}

func (r *MockTipRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Tip, error) {
	return r.list(func(t *model.Tip) bool {
		return t.Status == model.TipStatusPending && t.CreatedAt.Before(olderThan)
	}, 0, limit), nil
}

func (r *MockTipRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// ---- Mock EarningRepository ----

type MockEarningRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Earning

	SaveFunc func(ctx context.Context, tx repository.Tx, e *model.Earning) error
}

var _ repository.EarningRepository = (*MockEarningRepo)(nil)

func NewMockEarningRepo() *MockEarningRepo { return &MockEarningRepo{byID: map[string]*model.Earning{}} }

func (r *MockEarningRepo) Save(ctx context.Context, tx repository.Tx, e *model.Earning) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.byID[e.ID] = &cp
	return nil
}

func (r *MockEarningRepo) FindBySource(ctx context.Context, tx repository.Tx, sourceType model.SourceType, sourceID string) (*model.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byID {
		if e.SourceType == sourceType && e.SourceID == sourceID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockEarningRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, from, to model.EarningStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (r *MockEarningRepo) DeleteBySourceIfPending(ctx context.Context, tx repository.Tx, sourceType model.SourceType, sourceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.byID {
		if e.SourceType == sourceType && e.SourceID == sourceID && e.Status == model.EarningStatusPending {
			delete(r.byID, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *MockEarningRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Earning
	for _, e := range r.byID {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockEarningRepo) StatsByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) ([]*model.EarningStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCur := map[string]*model.EarningStats{}
	for _, e := range r.byID {
		if e.UserID != userID {
			continue
		}
		s, ok := byCur[e.Currency]
		if !ok {
			s = &model.EarningStats{Currency: e.Currency}
			byCur[e.Currency] = s
		}
		s.Count++
		switch e.Status {
		case model.EarningStatusReversed:
			s.Reversed += e.NetAmount
			continue
		case model.EarningStatusPending:
			s.Pending += e.NetAmount
		case model.EarningStatusAvailable:
			s.Available += e.NetAmount
			if e.Withdrawable(now) {
				s.Withdrawable += e.NetAmount
			}
		}
		s.GrossAmount += e.Amount
		s.PlatformFees += e.PlatformFee
		s.NetAmount += e.NetAmount
	}
	out := make([]*model.EarningStats, 0, len(byCur))
	for _, s := range byCur {
		out = append(out, s)
	}
	return out, nil
}

func (r *MockEarningRepo) All() []*model.Earning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Earning, 0, len(r.byID))
	for _, e := range r.byID {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// ---- Mock VideoRepository / UserRepository ----

type MockVideoRepo struct {
	Owners map[string]string

	FindOwnerIDFunc func(ctx context.Context, tx repository.Tx, videoID string) (string, error)
}

var _ repository.VideoRepository = (*MockVideoRepo)(nil)

func (r *MockVideoRepo) FindOwnerID(ctx context.Context, tx repository.Tx, videoID string) (string, error) {
	if r.FindOwnerIDFunc != nil {
		return r.FindOwnerIDFunc(ctx, tx, videoID)
	}
	if owner, ok := r.Owners[videoID]; ok {
		return owner, nil
	}
	return "", domain.ErrNotFound
}

type MockUserRepo struct {
	Users map[string]*model.User
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if u, ok := r.Users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// ---- Mock SubscriptionPlanRepository ----

type MockPlanRepo struct {
	mu   sync.Mutex
	byID map[string]*model.SubscriptionPlan
}

var _ repository.SubscriptionPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo(plans ...*model.SubscriptionPlan) *MockPlanRepo {
	r := &MockPlanRepo{byID: map[string]*model.SubscriptionPlan{}}
	for _, p := range plans {
		r.byID[p.ID] = p
	}
	return r
}

func (r *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SubscriptionPlan
	for _, p := range r.byID {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	byID map[string]*model.UserSubscription

	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{byID: map[string]*model.UserSubscription{}}
}

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, o := range r.byID {
		if id == s.ID {
			continue
		}
		if s.ExternalSubscriptionID != "" && o.ExternalSubscriptionID == s.ExternalSubscriptionID {
			return domain.ErrAlreadyExists
		}
		// uq_user_subscriptions_current: one active or past_due row per user.
		if s.IsCurrent() && o.IsCurrent() && o.UserID == s.UserID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.ExternalSubscriptionID == externalID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	subs, _ := r.ListActiveByUser(ctx, tx, userID)
	if len(subs) == 0 {
		return nil, domain.ErrNotFound
	}
	return subs[0], nil
}

func (r *MockSubscriptionRepo) ListActiveByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserSubscription
	for _, s := range r.byID {
		if s.UserID == userID && s.IsCurrent() {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MockSubscriptionRepo) ListDueForCancellation(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserSubscription
	for _, s := range r.byID {
		if s.IsCurrent() && s.CancelAtPeriodEnd && !s.CurrentPeriodEnd.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.SubscriptionStatus]int{}
	for _, s := range r.byID {
		out[s.Status]++
	}
	return out, nil
}

func (r *MockSubscriptionRepo) ByUser(userID string) []*model.UserSubscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserSubscription
	for _, s := range r.byID {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out
}

// ---- Mock PaymentHistoryRepository ----

type MockPaymentHistoryRepo struct {
	mu   sync.Mutex
	rows []*model.PaymentHistory
}

var _ repository.PaymentHistoryRepository = (*MockPaymentHistoryRepo)(nil)

func (r *MockPaymentHistoryRepo) Append(ctx context.Context, tx repository.Tx, p *model.PaymentHistory) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if p.ExternalEventID != "" && row.ExternalEventID == p.ExternalEventID {
			return false, nil
		}
	}
	cp := *p
	r.rows = append(r.rows, &cp)
	return true, nil
}

func (r *MockPaymentHistoryRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.PaymentHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentHistory
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			cp := *r.rows[i]
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---- Mock WebhookEventRepository ----

type MockWebhookEventRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

var _ repository.WebhookEventRepository = (*MockWebhookEventRepo)(nil)

func NewMockWebhookEventRepo() *MockWebhookEventRepo {
	return &MockWebhookEventRepo{seen: map[string]bool{}}
}

func (r *MockWebhookEventRepo) Exists(ctx context.Context, tx repository.Tx, provider, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[provider+"/"+eventID], nil
}

func (r *MockWebhookEventRepo) Save(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ev.Provider + "/" + ev.EventID
	if r.seen[key] {
		return domain.ErrAlreadyExists
	}
	r.seen[key] = true
	return nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu              sync.Mutex
	intents         map[string]*adapter.PaymentIntent
	Subscriptions   map[string]*adapter.SubscriptionSnapshot
	CanceledIntents []string
	CanceledSubs    []string

	CreatePaymentIntentFunc   func(ctx context.Context, amount int64, currency string, meta map[string]string) (*adapter.PaymentIntent, error)
	CancelPaymentIntentFunc   func(ctx context.Context, id string) error
	CreateCheckoutSessionFunc func(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error)
	CancelSubscriptionFunc    func(ctx context.Context, externalID string, immediately bool) error
	ConstructWebhookEventFunc func(payload []byte, signature string) (adapter.Event, error)
	GetSubscriptionFunc       func(ctx context.Context, externalID string) (*adapter.SubscriptionSnapshot, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{
		intents:       map[string]*adapter.PaymentIntent{},
		Subscriptions: map[string]*adapter.SubscriptionSnapshot{},
	}
}

func (m *MockPaymentGateway) Name() string { return "stripe" }

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, meta map[string]string) (*adapter.PaymentIntent, error) {
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, amount, currency, meta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pi := &adapter.PaymentIntent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "secret",
		Amount:       amount,
		Currency:     currency,
		Status:       adapter.IntentRequiresPayment,
		Metadata:     meta,
	}
	m.intents[pi.ID] = pi
	return pi, nil
}

func (m *MockPaymentGateway) SetIntentStatus(id string, status adapter.PaymentIntentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pi, ok := m.intents[id]; ok {
		pi.Status = status
	}
}

func (m *MockPaymentGateway) GetPaymentIntent(ctx context.Context, id string) (*adapter.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such payment intent %s", domain.ErrPaymentGateway, id)
	}
	cp := *pi
	return &cp, nil
}

func (m *MockPaymentGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	if m.CancelPaymentIntentFunc != nil {
		return m.CancelPaymentIntentFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CanceledIntents = append(m.CanceledIntents, id)
	if pi, ok := m.intents[id]; ok {
		pi.Status = adapter.IntentCanceled
	}
	return nil
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, p)
	}
	id := "cs_" + uuid.NewString()
	return &adapter.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (m *MockPaymentGateway) CancelSubscription(ctx context.Context, externalID string, immediately bool) error {
	if m.CancelSubscriptionFunc != nil {
		return m.CancelSubscriptionFunc(ctx, externalID, immediately)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CanceledSubs = append(m.CanceledSubs, externalID)
	return nil
}

func (m *MockPaymentGateway) GetSubscription(ctx context.Context, externalID string) (*adapter.SubscriptionSnapshot, error) {
	if m.GetSubscriptionFunc != nil {
		return m.GetSubscriptionFunc(ctx, externalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.Subscriptions[externalID]; ok {
		cp := *s
		return &cp, nil
	}
	now := time.Now()
	return &adapter.SubscriptionSnapshot{
		ID:                 externalID,
		CustomerID:         "cus_1",
		Status:             "active",
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}, nil
}

func (m *MockPaymentGateway) ConstructWebhookEvent(payload []byte, signature string) (adapter.Event, error) {
	if m.ConstructWebhookEventFunc != nil {
		return m.ConstructWebhookEventFunc(payload, signature)
	}
	return nil, domain.ErrInvalidSignature
}

// ---- Mock Locker / RateLimiter ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
	Err  error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker { return &MockLocker{held: map[string]string{}} }

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.Err != nil {
		return "", l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockBusy
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type MockRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Err    error
}

var _ adapter.RateLimiter = (*MockRateLimiter)(nil)

func (r *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.Err != nil {
		return false, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[key]++
	return r.counts[key] <= limit, nil
}
