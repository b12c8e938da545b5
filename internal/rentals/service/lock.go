package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	rentalserrors "carrental/internal/rentals/errors"
	"carrental/internal/rentals/repository"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

const defaultLockTTL = 10 * time.Second

// CarLocker serialises decisions about one car: always in process and,
// when a lock store is configured, across instances too. Bookings and car
// id changes share one CarLocker.
type CarLocker struct {
	local    *keyedMutex
	lockRepo repository.RentalLockRepository
	ttl      time.Duration
	log      *logger.Logger
}

// NewCarLocker builds a locker. lockRepo may be nil.
func NewCarLocker(lockRepo repository.RentalLockRepository, ttl time.Duration, log *logger.Logger) *CarLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &CarLocker{
		local:    newKeyedMutex(),
		lockRepo: lockRepo,
		ttl:      ttl,
		log:      log,
	}
}

func lockKey(carID string) string {
	return "rental_lock_" + carID
}

// Lock blocks until the car is free in this process, then takes the
// advisory lock without waiting. The returned func releases both.
func (l *CarLocker) Lock(ctx context.Context, carID string) (func(), error) {
	key := lockKey(carID)

	unlock, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, apperrors.Timeout("Timed out waiting for the car to become available for booking")
	}
	if l.lockRepo == nil {
		return unlock, nil
	}

	owner := uuid.NewString()
	lock := &model.RentalLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: time.Now().UTC().Add(l.ttl),
	}
	if _, err := l.lockRepo.Create(ctx, lock); err != nil {
		unlock()
		if errors.Is(err, rentalserrors.ErrLockHeld) {
			return nil, apperrors.Conflict("This car is currently being booked by another request. Please try again.")
		}
		return nil, apperrors.Internal("Failed to acquire rental lock", err)
	}

	return func() {
		// release even when the request context is already cancelled
		if err := l.lockRepo.Delete(context.WithoutCancel(ctx), key, owner); err != nil {
			l.log.Warn("Failed to release rental lock", "lock_id", key, "error", err)
		}
		unlock()
	}, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (m *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			m.unref(key, kl)
		})
	}, nil
}

func (m *keyedMutex) unref(key string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(m.locks, key)
	}
}
