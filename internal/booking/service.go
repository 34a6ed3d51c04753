package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/workspace-booking/internal/model"
)

// Clock abstracts time.Now so tests can drive pending expiry
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const (
	defaultPendingTTL   = 30 * time.Minute
	defaultStoreTimeout = 5 * time.Second
)

// Options tunes a Service.  Zero values fall back to defaults; a
// negative PendingTTL disables expiry entirely.
type Options struct {
	// PendingTTL is how long a PENDING reservation may wait for
	// confirmation before it is expired (cancelled).
	PendingTTL time.Duration

	// StoreTimeout bounds every store call so a stalled database
	// surfaces as ErrStoreUnavailable instead of a hung request.
	StoreTimeout time.Duration

	Clock Clock
}

// Service is the booking lifecycle manager.  It orchestrates create,
// confirm, cancel and reschedule requests through the conflict checker
// and the store, enforcing the reservation state machine.  Writes that
// depend on a conflict check run inside the store's per-room
// serialization point, so when two requests race for the same slot
// exactly one wins and the other observes a ConflictError.
type Service struct {
	store        Store
	checker      Checker
	pendingTTL   time.Duration
	storeTimeout time.Duration
	clock        Clock
}

// NewService builds a Service on top of the given store.
func NewService(store Store, opts Options) *Service {
	if opts.PendingTTL == 0 {
		opts.PendingTTL = defaultPendingTTL
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Service{
		store:        store,
		pendingTTL:   opts.PendingTTL,
		storeTimeout: opts.StoreTimeout,
		clock:        opts.Clock,
	}
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// wrapCtxErr turns a deadline or cancellation from the operation
// timeout into ErrStoreUnavailable so callers can tell transient
// failures apart from logical ones.
func wrapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// Create books a room for the interval on behalf of requesterID.  With
// confirm=true the reservation is created directly as CONFIRMED
// (single-step booking), otherwise it starts PENDING.  The conflict
// check and the insert share one room transaction, so no record is
// created when the check fails.
func (s *Service) Create(ctx context.Context, roomID, requesterID string, iv model.Interval, confirm bool) (*model.Reservation, error) {
	if !iv.IsValid() {
		return nil, ErrInvalidInterval
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	status := model.StatusPending
	if confirm {
		status = model.StatusConfirmed
	}
	var created *model.Reservation
	err := s.store.InRoomTx(ctx, roomID, func(tx RoomTx) error {
		if err := s.checker.Check(ctx, tx, roomID, iv, ""); err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		res := &model.Reservation{
			ID:          uuid.NewString(),
			RoomID:      roomID,
			RequesterID: requesterID,
			Interval:    iv,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(ctx, res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, wrapCtxErr(err)
	}
	return created, nil
}

// Confirm moves a PENDING reservation to CONFIRMED.  A pending
// reservation that outlived the configured TTL is expired instead and
// the caller gets ErrInvalidTransition, mirroring what the background
// sweep would have done.
func (s *Service) Confirm(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if s.pendingTTL > 0 {
		res, err := s.store.GetReservation(ctx, id)
		if err != nil {
			return nil, wrapCtxErr(err)
		}
		if res.Status == model.StatusPending && s.clock.Now().UTC().Sub(res.CreatedAt) > s.pendingTTL {
			if _, err := s.store.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
				return nil, wrapCtxErr(err)
			}
			return nil, fmt.Errorf("%w: pending reservation expired", ErrInvalidTransition)
		}
	}
	res, err := s.store.UpdateStatus(ctx, id, model.StatusConfirmed)
	if err != nil {
		return nil, wrapCtxErr(err)
	}
	return res, nil
}

// Cancel moves a PENDING or CONFIRMED reservation to CANCELLED.
// Cancelling an already cancelled reservation fails with
// ErrInvalidTransition rather than succeeding silently, so double
// cancels are surfaced to the caller.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.store.UpdateStatus(ctx, id, model.StatusCancelled)
	if err != nil {
		return nil, wrapCtxErr(err)
	}
	return res, nil
}

// Reschedule re-runs the conflict check against the new interval,
// excluding the reservation itself, then atomically replaces the stored
// interval.  Rescheduling to an interval that overlaps only itself
// therefore succeeds.
func (s *Service) Reschedule(ctx context.Context, id string, iv model.Interval) (*model.Reservation, error) {
	if !iv.IsValid() {
		return nil, ErrInvalidInterval
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, wrapCtxErr(err)
	}
	var updated *model.Reservation
	err = s.store.InRoomTx(ctx, res.RoomID, func(tx RoomTx) error {
		if err := s.checker.Check(ctx, tx, res.RoomID, iv, id); err != nil {
			return err
		}
		out, err := tx.UpdateInterval(ctx, id, iv)
		if err != nil {
			return err
		}
		updated = out
		return nil
	})
	if err != nil {
		return nil, wrapCtxErr(err)
	}
	return updated, nil
}

// CheckAvailability runs an advisory conflict check outside any lock.
// The result may be stale the moment it returns; the write path always
// re-checks inside the room transaction.
func (s *Service) CheckAvailability(ctx context.Context, roomID string, iv model.Interval) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return wrapCtxErr(s.checker.Check(ctx, s.store, roomID, iv, ""))
}

// ExpirePending cancels every pending reservation older than the TTL.
// It returns the number of reservations expired.
func (s *Service) ExpirePending(ctx context.Context) (int64, error) {
	if s.pendingTTL <= 0 {
		return 0, nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	n, err := s.store.ExpirePending(ctx, s.clock.Now().UTC().Add(-s.pendingTTL))
	return n, wrapCtxErr(err)
}

// StartExpiryWorker sweeps pending reservations in the background until
// ctx is cancelled.
func (s *Service) StartExpiryWorker(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.ExpirePending(ctx); err != nil {
					log.Printf("booking: expiry sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("booking: expired %d pending reservation(s)", n)
				}
			}
		}
	}()
}
