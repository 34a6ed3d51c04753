package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
)

// RoomRepo provides CRUD access to the rooms table.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomCols = `id, name, capacity, is_active, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	var rm model.Room
	if err := row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// Create inserts a new room.  A UUID is assigned when the caller left
// the ID empty; timestamps are populated on the passed struct.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	if rm.ID == "" {
		rm.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rm.CreatedAt = now
	rm.UpdatedAt = now
	rm.IsActive = true
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, capacity, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rm.ID, rm.Name, rm.Capacity, rm.IsActive, rm.CreatedAt, rm.UpdatedAt)
	return storeErr(err)
}

// GetRoom fetches a room by id, failing with booking.ErrRoomNotFound
// when no row exists.
func (r *RoomRepo) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx,
		`SELECT `+roomCols+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrRoomNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return rm, nil
}

// ListRooms returns all rooms ordered by name.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomCols+` FROM rooms ORDER BY name`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, *rm)
	}
	return out, storeErr(rows.Err())
}

// Update persists capacity and active-flag edits.  Name changes are
// allowed too; the identifier never changes once referenced.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	rm.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, capacity = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		rm.Name, rm.Capacity, rm.IsActive, rm.UpdatedAt, rm.ID)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return booking.ErrRoomNotFound
	}
	return nil
}

// Delete removes a room that has no active reservations.  The count
// check and the delete share a transaction holding the room row lock,
// so a concurrent booking cannot slip in between.
func (r *RoomRepo) Delete(ctx context.Context, id string) error {
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

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrRoomNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE room_id = ? AND status IN ('PENDING','CONFIRMED')`,
		id).Scan(&active); err != nil {
		return storeErr(err)
	}
	if active > 0 {
		return ErrRoomInUse
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	committed = true
	return nil
}
