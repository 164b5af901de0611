package usecases

import (
	"context"
	"sort"
	"sync"
	"time"

	"techhive/internal/domain/payment"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
)

// --- in-memory repositories ---

type fakePlanRepo struct {
	mu     sync.Mutex
	plans  map[uint]*subscription.Plan
	nextID uint
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uint]*subscription.Plan), nextID: 1}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *subscription.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = plan.SetID(r.nextID)
	r.nextID++
	r.plans[plan.ID()] = plan
	return nil
}

func (r *fakePlanRepo) Update(ctx context.Context, plan *subscription.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID()] = plan
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[id], nil
}

func (r *fakePlanRepo) GetBySID(ctx context.Context, sid string) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.SID() == sid {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) GetByPaystackPlanCode(ctx context.Context, code string) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.PaystackPlanCode() == code {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) List(ctx context.Context, activeOnly bool) ([]*subscription.Plan, error) {
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

type fakeSubscriptionRepo struct {
	mu     sync.Mutex
	subs   map[uint]*subscription.Subscription
	nextID uint
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[uint]*subscription.Subscription), nextID: 1}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = sub.SetID(r.nextID)
	r.nextID++
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubscriptionRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[id], nil
}

func (r *fakeSubscriptionRepo) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.SID() == sid {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetByReference(ctx context.Context, reference string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.Reference() == reference {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetByPaystackSubscriptionCode(ctx context.Context, code string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.PaystackSubscriptionCode() == code {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetCurrentByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
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

func (r *fakeSubscriptionRepo) GetCurrentByEmail(ctx context.Context, email string) (*subscription.Subscription, error) {
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

func (r *fakeSubscriptionRepo) GetLatestUnlinkedByEmail(ctx context.Context, email string) (*subscription.Subscription, error) {
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

func (r *fakeSubscriptionRepo) HasEverSubscribed(ctx context.Context, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.UserID() == userID && s.Status() != vo.StatusPendingActivation {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubscriptionRepo) ListDueForRetry(ctx context.Context, maxRetries int, retryBefore time.Time) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range r.subs {
		if s.Status() != vo.StatusPastDue || !s.HasSavedAuthorization() || s.RetryCount() >= maxRetries {
			continue
		}
		if s.LastRetryAt() != nil && s.LastRetryAt().After(retryBefore) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListTrialsEnding(ctx context.Context, from, to time.Time) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range r.subs {
		if s.Status() != vo.StatusTrialing || s.TrialEnd() == nil {
			continue
		}
		if s.TrialEnd().After(from) && !s.TrialEnd().After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListLapsed(ctx context.Context, now time.Time, grace time.Duration) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range r.subs {
		switch s.Status() {
		case vo.StatusTrialing:
			if s.TrialEnd() != nil && now.After(*s.TrialEnd()) {
				out = append(out, s)
			}
		case vo.StatusPastDue:
			if s.PaymentFailedAt() != nil && now.After(s.PaymentFailedAt().Add(grace)) {
				out = append(out, s)
			}
		case vo.StatusCancelled:
			if s.CurrentPeriodEnd() != nil && now.After(*s.CurrentPeriodEnd()) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) CountByPlanID(ctx context.Context, planID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.subs {
		if s.PlanID() == planID {
			count++
		}
	}
	return count, nil
}

func (r *fakeSubscriptionRepo) ListByUserID(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
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

type fakeTransactionRepo struct {
	mu     sync.Mutex
	txns   map[uint]*payment.PaymentTransaction
	nextID uint
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txns: make(map[uint]*payment.PaymentTransaction), nextID: 1}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, txn *payment.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = txn.SetID(r.nextID)
	r.nextID++
	r.txns[txn.ID()] = txn
	return nil
}

func (r *fakeTransactionRepo) Update(ctx context.Context, txn *payment.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns[txn.ID()] = txn
	return nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, id uint) (*payment.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txns[id], nil
}

func (r *fakeTransactionRepo) GetByReference(ctx context.Context, reference string) (*payment.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.Reference() == reference {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.PaymentTransaction
	for _, t := range r.txns {
		if t.SubscriptionID() == subscriptionID {
			out = append(out, t)
		}
	}
	// Newest first, matching the gorm repository's ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].ID() > out[j].ID() })
	return out, int64(len(out)), nil
}

func (r *fakeTransactionRepo) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
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

func (r *fakeTransactionRepo) ListByStatus(ctx context.Context, status paymentvo.TransactionStatus, limit int) ([]*payment.PaymentTransaction, error) {
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

// --- collaborators ---

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	// deny simulates a lock already held elsewhere.
	deny bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deny || l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, true, nil
}

type directRunner struct{}

func (directRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingNotifier struct {
	mu             sync.Mutex
	trialStarted   []TrialStartedNotification
	trialEnding    []TrialEndingNotification
	paymentOK      []PaymentNotification
	paymentFailed  []PaymentFailedNotification
	cancelled      []CancellationNotification
	reactivated    []ReactivationNotification
	expired        []ExpiryNotification
	upcoming       []UpcomingChargeNotification
	cardsExpiring  []CardExpiringNotification
}

func (n *recordingNotifier) TrialStarted(ctx context.Context, v TrialStartedNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trialStarted = append(n.trialStarted, v)
}

func (n *recordingNotifier) TrialEndingSoon(ctx context.Context, v TrialEndingNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trialEnding = append(n.trialEnding, v)
}

func (n *recordingNotifier) PaymentSucceeded(ctx context.Context, v PaymentNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentOK = append(n.paymentOK, v)
}

func (n *recordingNotifier) PaymentFailed(ctx context.Context, v PaymentFailedNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentFailed = append(n.paymentFailed, v)
}

func (n *recordingNotifier) SubscriptionCancelled(ctx context.Context, v CancellationNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, v)
}

func (n *recordingNotifier) SubscriptionReactivated(ctx context.Context, v ReactivationNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reactivated = append(n.reactivated, v)
}

func (n *recordingNotifier) UpcomingCharge(ctx context.Context, v UpcomingChargeNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.upcoming = append(n.upcoming, v)
}

func (n *recordingNotifier) SubscriptionExpired(ctx context.Context, v ExpiryNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, v)
}

func (n *recordingNotifier) CardExpiring(ctx context.Context, v CardExpiringNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cardsExpiring = append(n.cardsExpiring, v)
}
