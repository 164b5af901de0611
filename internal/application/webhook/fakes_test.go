package webhook

import (
	"context"
	"sync"
	"time"

	"techhive/internal/application/subscription/usecases"
	"techhive/internal/domain/payment"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
)

// In-memory doubles for the reconciler's collaborators. The payment
// processor is the real one, wired over these.

type memEventRepo struct {
	mu     sync.Mutex
	events map[string]*payment.WebhookEvent
	nextID uint
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]*payment.WebhookEvent), nextID: 1}
}

func (r *memEventRepo) Create(ctx context.Context, event *payment.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = event.SetID(r.nextID)
	r.nextID++
	r.events[event.EventKey()] = event
	return nil
}

func (r *memEventRepo) Update(ctx context.Context, event *payment.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.EventKey()] = event
	return nil
}

func (r *memEventRepo) GetByEventKey(ctx context.Context, key string) (*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[key], nil
}

func (r *memEventRepo) ListFailed(ctx context.Context, limit int) ([]*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.WebhookEvent
	for _, e := range r.events {
		if e.Status() == payment.EventStatusFailed {
			out = append(out, e)
		}
	}
	return out, nil
}

type memPlanRepo struct {
	mu     sync.Mutex
	plans  map[uint]*subscription.Plan
	nextID uint
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[uint]*subscription.Plan), nextID: 1}
}

func (r *memPlanRepo) Create(ctx context.Context, plan *subscription.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = plan.SetID(r.nextID)
	r.nextID++
	r.plans[plan.ID()] = plan
	return nil
}

func (r *memPlanRepo) Update(ctx context.Context, plan *subscription.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID()] = plan
	return nil
}

func (r *memPlanRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, id)
	return nil
}

func (r *memPlanRepo) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[id], nil
}

func (r *memPlanRepo) GetBySID(ctx context.Context, sid string) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.SID() == sid {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPlanRepo) GetByPaystackPlanCode(ctx context.Context, code string) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.PaystackPlanCode() == code {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPlanRepo) List(ctx context.Context, activeOnly bool) ([]*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Plan
	for _, p := range r.plans {
		if activeOnly && !p.IsActive() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type memSubRepo struct {
	mu     sync.Mutex
	subs   map[uint]*subscription.Subscription
	nextID uint
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{subs: make(map[uint]*subscription.Subscription), nextID: 1}
}

func (r *memSubRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = sub.SetID(r.nextID)
	r.nextID++
	r.subs[sub.ID()] = sub
	return nil
}

func (r *memSubRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID()] = sub
	return nil
}

func (r *memSubRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
	return nil
}

func (r *memSubRepo) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[id], nil
}

func (r *memSubRepo) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.SID() == sid {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSubRepo) GetByReference(ctx context.Context, reference string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.Reference() == reference {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSubRepo) GetByPaystackSubscriptionCode(ctx context.Context, code string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.PaystackSubscriptionCode() == code {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSubRepo) GetCurrentByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *subscription.Subscription
	for _, s := range r.subs {
		if s.UserID() != userID || s.Status() == vo.StatusExpired {
			continue
		}
		if latest == nil || s.ID() > latest.ID() {
			latest = s
		}
	}
	return latest, nil
}

func (r *memSubRepo) GetCurrentByEmail(ctx context.Context, email string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *subscription.Subscription
	for _, s := range r.subs {
		if s.UserEmail() != email || s.Status() == vo.StatusExpired {
			continue
		}
		if latest == nil || s.ID() > latest.ID() {
			latest = s
		}
	}
	return latest, nil
}

func (r *memSubRepo) GetLatestUnlinkedByEmail(ctx context.Context, email string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *subscription.Subscription
	for _, s := range r.subs {
		if s.UserEmail() != email || s.PaystackSubscriptionCode() != "" {
			continue
		}
		if latest == nil || s.ID() > latest.ID() {
			latest = s
		}
	}
	return latest, nil
}

func (r *memSubRepo) HasEverSubscribed(ctx context.Context, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.UserID() == userID && s.Status() != vo.StatusPendingActivation {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSubRepo) ListDueForRetry(ctx context.Context, maxRetries int, retryBefore time.Time) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *memSubRepo) ListTrialsEnding(ctx context.Context, from, to time.Time) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *memSubRepo) ListLapsed(ctx context.Context, now time.Time, grace time.Duration) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *memSubRepo) CountByPlanID(ctx context.Context, planID uint) (int64, error) {
	return 0, nil
}

func (r *memSubRepo) ListByUserID(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range r.subs {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memTxnRepo struct {
	mu     sync.Mutex
	txns   map[uint]*payment.PaymentTransaction
	nextID uint
}

func newMemTxnRepo() *memTxnRepo {
	return &memTxnRepo{txns: make(map[uint]*payment.PaymentTransaction), nextID: 1}
}

func (r *memTxnRepo) Create(ctx context.Context, txn *payment.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = txn.SetID(r.nextID)
	r.nextID++
	r.txns[txn.ID()] = txn
	return nil
}

func (r *memTxnRepo) Update(ctx context.Context, txn *payment.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns[txn.ID()] = txn
	return nil
}

func (r *memTxnRepo) GetByID(ctx context.Context, id uint) (*payment.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txns[id], nil
}

func (r *memTxnRepo) GetByReference(ctx context.Context, reference string) (*payment.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.Reference() == reference {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memTxnRepo) ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.PaymentTransaction
	for _, t := range r.txns {
		if t.SubscriptionID() == subscriptionID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memTxnRepo) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.PaymentTransaction
	for _, t := range r.txns {
		if t.UserID() == userID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memTxnRepo) ListByStatus(ctx context.Context, status paymentvo.TransactionStatus, limit int) ([]*payment.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.PaymentTransaction
	for _, t := range r.txns {
		if t.Status() == status {
			out = append(out, t)
		}
	}
	return out, nil
}

type inlineRunner struct{}

func (inlineRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type openLocker struct{}

func (openLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

type stubNotifier struct {
	mu            sync.Mutex
	paymentOK     []usecases.PaymentNotification
	paymentFailed []usecases.PaymentFailedNotification
	cardsExpiring []usecases.CardExpiringNotification
	upcoming      []usecases.UpcomingChargeNotification
}

func (n *stubNotifier) TrialStarted(ctx context.Context, v usecases.TrialStartedNotification) {}

func (n *stubNotifier) TrialEndingSoon(ctx context.Context, v usecases.TrialEndingNotification) {}

func (n *stubNotifier) PaymentSucceeded(ctx context.Context, v usecases.PaymentNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentOK = append(n.paymentOK, v)
}

func (n *stubNotifier) PaymentFailed(ctx context.Context, v usecases.PaymentFailedNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentFailed = append(n.paymentFailed, v)
}

func (n *stubNotifier) SubscriptionCancelled(ctx context.Context, v usecases.CancellationNotification) {
}

func (n *stubNotifier) SubscriptionReactivated(ctx context.Context, v usecases.ReactivationNotification) {
}

func (n *stubNotifier) SubscriptionExpired(ctx context.Context, v usecases.ExpiryNotification) {}

func (n *stubNotifier) UpcomingCharge(ctx context.Context, v usecases.UpcomingChargeNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.upcoming = append(n.upcoming, v)
}

func (n *stubNotifier) CardExpiring(ctx context.Context, v usecases.CardExpiringNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cardsExpiring = append(n.cardsExpiring, v)
}
