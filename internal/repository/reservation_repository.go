package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
)

// ReservationRepo is the MySQL implementation of booking.Store.  All
// timestamps are stored in UTC (the DSN pins loc=UTC and parseTime).
//
// The per-room serialization point required by the engine is provided
// by InRoomTx: it locks the room row with SELECT ... FOR UPDATE, so a
// conflict check followed by an insert or interval update cannot be
// interleaved with a concurrent writer on the same room.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

var _ booking.Store = (*ReservationRepo)(nil)

const reservationCols = `id, room_id, requester_id, start_at, end_at, status, created_at, updated_at`

// storeErr wraps unexpected driver failures so the engine can tell
// transient trouble apart from logical errors.  Sentinels pass through.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, booking.ErrNotFound) ||
		errors.Is(err, booking.ErrRoomNotFound) ||
		errors.Is(err, booking.ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
}

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var r model.Reservation
	err := row.Scan(&r.ID, &r.RoomID, &r.RequesterID,
		&r.Interval.Start, &r.Interval.End, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func findActiveOverlapping(ctx context.Context, q queryer, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error) {
	// The range condition doubles as the coarse pre-filter the checker
	// expects; start_at and end_at are indexed per room.
	query := `SELECT ` + reservationCols + ` FROM reservations
	          WHERE room_id = ? AND status IN ('PENDING','CONFIRMED')
	            AND start_at < ? AND end_at > ?`
	args := []any{roomID, iv.End, iv.Start}
	if excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_at`
	return collectReservations(ctx, q, query, args...)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func collectReservations(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// FindActiveOverlapping implements booking.OverlapSource outside any
// transaction, for advisory availability checks.
func (r *ReservationRepo) FindActiveOverlapping(ctx context.Context, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error) {
	out, err := findActiveOverlapping(ctx, r.db, roomID, iv, excludeID)
	return out, storeErr(err)
}

// FindActiveInWindow returns active reservations intersecting the
// window, ordered by start time.
func (r *ReservationRepo) FindActiveInWindow(ctx context.Context, roomID string, window model.Interval) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
	           WHERE room_id = ? AND status IN ('PENDING','CONFIRMED')
	             AND start_at < ? AND end_at > ?
	           ORDER BY start_at`
	out, err := collectReservations(ctx, r.db, q, roomID, window.End, window.Start)
	return out, storeErr(err)
}

// GetReservation fetches a reservation by id.
func (r *ReservationRepo) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return res, nil
}

// UpdateStatus applies a status transition.  The current row is locked
// for the duration of the check-then-update so two racing transitions
// cannot both pass the state machine.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if !model.CanTransition(cur.Status, status) {
		return nil, booking.ErrInvalidTransition
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id); err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	committed = true
	cur.Status = status
	cur.UpdatedAt = now
	return cur, nil
}

// ExpirePending cancels pending reservations created before the cutoff.
func (r *ReservationRepo) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'CANCELLED', updated_at = ?
		 WHERE status = 'PENDING' AND created_at < ?`,
		time.Now().UTC(), cutoff)
	if err != nil {
		return 0, storeErr(err)
	}
	n, err := res.RowsAffected()
	return n, storeErr(err)
}

// InRoomTx runs fn inside a transaction that holds the room row lock.
// Unknown and inactive rooms fail with booking.ErrRoomNotFound before
// fn runs.
func (r *ReservationRepo) InRoomTx(ctx context.Context, roomID string, fn func(tx booking.RoomTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT is_active FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrRoomNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	// Inactive rooms are hidden from booking.
	if !active {
		return booking.ErrRoomNotFound
	}
	if err := fn(&roomTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	committed = true
	return nil
}

// ListByRequester returns every reservation made by a requester, newest
// first.  Used by the bookings listing endpoint, not by the engine.
func (r *ReservationRepo) ListByRequester(ctx context.Context, requesterID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
	           WHERE requester_id = ? ORDER BY created_at DESC`
	out, err := collectReservations(ctx, r.db, q, requesterID)
	return out, storeErr(err)
}

// roomTx is the booking.RoomTx handed to InRoomTx callbacks.  All of
// its queries run on the transaction that owns the room row lock.
type roomTx struct {
	tx *sql.Tx
}

func (t *roomTx) FindActiveOverlapping(ctx context.Context, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error) {
	out, err := findActiveOverlapping(ctx, t.tx, roomID, iv, excludeID)
	return out, storeErr(err)
}

func (t *roomTx) Create(ctx context.Context, res *model.Reservation) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO reservations (id, room_id, requester_id, start_at, end_at, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.RoomID, res.RequesterID,
		res.Interval.Start, res.Interval.End, res.Status, res.CreatedAt, res.UpdatedAt)
	return storeErr(err)
}

func (t *roomTx) UpdateInterval(ctx context.Context, id string, iv model.Interval) (*model.Reservation, error) {
	cur, err := scanReservation(t.tx.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if !cur.Active() {
		// Cancelled reservations keep their historical interval.
		return nil, booking.ErrInvalidTransition
	}
	now := time.Now().UTC()
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE reservations SET start_at = ?, end_at = ?, updated_at = ? WHERE id = ?`,
		iv.Start, iv.End, now, id); err != nil {
		return nil, storeErr(err)
	}
	cur.Interval = iv
	cur.UpdatedAt = now
	return cur, nil
}
