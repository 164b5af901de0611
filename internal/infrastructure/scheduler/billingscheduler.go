package scheduler

import (
	"context"
	"sync"
	"time"

	"techhive/internal/application/subscription/usecases"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

const (
	defaultInterval = 30 * time.Minute

	// sweepLockKey guards the sweep across worker replicas; only one runner
	// executes a sweep per interval.
	sweepLockKey = "billing:scheduler:sweep"
)

// BillingScheduler drives the periodic billing sweeps: automatic payment
// retries, expiry of lapsed subscriptions and trial ending reminders. Each
// sweep runs on the same interval; the use cases themselves are idempotent,
// so an overlapping run after a slow sweep is harmless.
type BillingScheduler struct {
	retryDue *usecases.RetryDuePaymentsUseCase
	expire   *usecases.ExpireSubscriptionsUseCase
	remind   *usecases.RemindTrialsUseCase
	locker   usecases.SubscriptionLocker
	logger   logger.Interface
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewBillingScheduler(
	retryDue *usecases.RetryDuePaymentsUseCase,
	expire *usecases.ExpireSubscriptionsUseCase,
	remind *usecases.RemindTrialsUseCase,
	locker usecases.SubscriptionLocker,
	billing config.BillingConfig,
	log logger.Interface,
) *BillingScheduler {
	interval := time.Duration(billing.SchedulerIntervalMin) * time.Minute
	if interval <= 0 {
		interval = defaultInterval
	}
	return &BillingScheduler{
		retryDue: retryDue,
		expire:   expire,
		remind:   remind,
		locker:   locker,
		logger:   log.Named("billing-scheduler"),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop and returns immediately.
func (s *BillingScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting billing scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop shuts the scheduler down and waits for an in-flight sweep to finish.
// Safe to call more than once.
func (s *BillingScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping billing scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("billing scheduler stopped")
	})
}

func (s *BillingScheduler) run(ctx context.Context) {
	// Sweep once on startup so a restart does not delay overdue work by a
	// full interval.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("billing scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *BillingScheduler) sweep(ctx context.Context) {
	release, acquired, err := s.locker.TryLock(ctx, sweepLockKey, s.interval)
	if err != nil {
		s.logger.Errorw("failed to acquire sweep lease", "error", err)
		return
	}
	if !acquired {
		s.logger.Debugw("sweep lease held by another worker, skipping")
		return
	}
	defer release()

	start := time.Now()

	attempted, recovered, err := s.retryDue.Execute(ctx)
	if err != nil {
		s.logger.Errorw("payment retry sweep failed", "error", err)
	} else if attempted > 0 {
		s.logger.Infow("payment retry sweep finished", "attempted", attempted, "recovered", recovered)
	}

	expired, err := s.expire.Execute(ctx)
	if err != nil {
		s.logger.Errorw("expiry sweep failed", "error", err)
	} else if expired > 0 {
		s.logger.Infow("expiry sweep finished", "expired", expired)
	}

	reminded, err := s.remind.Execute(ctx, s.interval)
	if err != nil {
		s.logger.Errorw("trial reminder sweep failed", "error", err)
	} else if reminded > 0 {
		s.logger.Infow("trial reminder sweep finished", "reminded", reminded)
	}

	s.logger.Debugw("billing sweep complete", "duration", time.Since(start))
}
