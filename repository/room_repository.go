package repository

import (
	"context"
	"fmt"
	"time"

	"coincafe/database"
	"coincafe/models"

	"github.com/jackc/pgx/v5"
)

// RoomRepository implements the service.RoomRepository interface
type RoomRepository struct {
	q queryable
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{q: db.Pool}
}

// newRoomRepositoryWithTx creates a new room repository bound to a transaction
func newRoomRepositoryWithTx(tx queryable) *RoomRepository {
	return &RoomRepository{q: tx}
}

const roomColumns = `id, code, name, host_id, status, expires_at, created_at, updated_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID,
		&room.Code,
		&room.Name,
		&room.HostID,
		&room.Status,
		&room.ExpiresAt,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a new room and fills in its id
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (code, name, host_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		room.Code,
		room.Name,
		room.HostID,
		room.Status,
		room.ExpiresAt,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", room.Code, err)
	}
	return nil
}

// GetByCode retrieves a room by join code, or nil if it does not exist
func (r *RoomRepository) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE code = $1`

	room, err := scanRoom(r.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	return room, nil
}

// GetByID retrieves a room by id, or nil if it does not exist
func (r *RoomRepository) GetByID(ctx context.Context, roomID int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.q.QueryRow(ctx, query, roomID))
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", roomID, err)
	}
	return room, nil
}

// UpdateStatus transitions a room's lifecycle status
func (r *RoomRepository) UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error {
	query := `UPDATE rooms SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.Exec(ctx, query, status, roomID)
	if err != nil {
		return fmt.Errorf("failed to update status for room %d: %w", roomID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %d not found", roomID)
	}
	return nil
}

// UpdateHost reassigns the room host
func (r *RoomRepository) UpdateHost(ctx context.Context, roomID int64, hostID int64) error {
	query := `UPDATE rooms SET host_id = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.Exec(ctx, query, hostID, roomID)
	if err != nil {
		return fmt.Errorf("failed to update host for room %d: %w", roomID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %d not found", roomID)
	}
	return nil
}

// UpsertMember adds a member or reactivates a previous one. Rejoining
// resets the join time and heartbeat.
func (r *RoomRepository) UpsertMember(ctx context.Context, member *models.RoomMember) error {
	query := `
		INSERT INTO room_members (room_id, user_id, status, joined_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, user_id) DO UPDATE
		SET status = EXCLUDED.status, joined_at = EXCLUDED.joined_at, last_seen_at = EXCLUDED.last_seen_at
	`

	_, err := r.q.Exec(ctx, query,
		member.RoomID,
		member.UserID,
		member.Status,
		member.JoinedAt,
		member.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member %d in room %d: %w", member.UserID, member.RoomID, err)
	}
	return nil
}

// GetMember retrieves one membership row, or nil if absent
func (r *RoomRepository) GetMember(ctx context.Context, roomID, userID int64) (*models.RoomMember, error) {
	query := `
		SELECT room_id, user_id, status, joined_at, last_seen_at
		FROM room_members
		WHERE room_id = $1 AND user_id = $2
	`

	var member models.RoomMember
	err := r.q.QueryRow(ctx, query, roomID, userID).Scan(
		&member.RoomID,
		&member.UserID,
		&member.Status,
		&member.JoinedAt,
		&member.LastSeenAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d in room %d: %w", userID, roomID, err)
	}
	return &member, nil
}

func (r *RoomRepository) queryMembers(ctx context.Context, query string, args ...any) ([]*models.RoomMember, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.RoomMember
	for rows.Next() {
		var member models.RoomMember
		err := rows.Scan(
			&member.RoomID,
			&member.UserID,
			&member.Status,
			&member.JoinedAt,
			&member.LastSeenAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room member: %w", err)
		}
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room members: %w", err)
	}
	return members, nil
}

// GetActiveMembers returns active members ordered by join time
func (r *RoomRepository) GetActiveMembers(ctx context.Context, roomID int64) ([]*models.RoomMember, error) {
	query := `
		SELECT room_id, user_id, status, joined_at, last_seen_at
		FROM room_members
		WHERE room_id = $1 AND status = 'active'
		ORDER BY joined_at, user_id
	`

	members, err := r.queryMembers(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active members of room %d: %w", roomID, err)
	}
	return members, nil
}

// UpdateMemberStatus transitions one membership row
func (r *RoomRepository) UpdateMemberStatus(ctx context.Context, roomID, userID int64, status models.RoomMemberStatus) error {
	query := `UPDATE room_members SET status = $1 WHERE room_id = $2 AND user_id = $3`

	result, err := r.q.Exec(ctx, query, status, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member %d in room %d: %w", userID, roomID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %d not found in room %d", userID, roomID)
	}
	return nil
}

// TouchMember refreshes a member's heartbeat timestamp
func (r *RoomRepository) TouchMember(ctx context.Context, roomID, userID int64, at time.Time) error {
	query := `UPDATE room_members SET last_seen_at = $1 WHERE room_id = $2 AND user_id = $3 AND status = 'active'`

	result, err := r.q.Exec(ctx, query, at, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to touch member %d in room %d: %w", userID, roomID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("active member %d not found in room %d", userID, roomID)
	}
	return nil
}

// GetStaleActiveMembers returns active members of active rooms whose
// heartbeat is older than cutoff
func (r *RoomRepository) GetStaleActiveMembers(ctx context.Context, cutoff time.Time) ([]*models.RoomMember, error) {
	query := `
		SELECT m.room_id, m.user_id, m.status, m.joined_at, m.last_seen_at
		FROM room_members m
		JOIN rooms r ON r.id = m.room_id
		WHERE m.status = 'active' AND r.status = 'active' AND m.last_seen_at < $1
		ORDER BY m.room_id, m.user_id
	`

	members, err := r.queryMembers(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale active members: %w", err)
	}
	return members, nil
}

// GetExpiredActiveRooms returns active rooms past their expiry
func (r *RoomRepository) GetExpiredActiveRooms(ctx context.Context, now time.Time, limit int) ([]*models.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE status = 'active' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var room models.Room
		err := rows.Scan(
			&room.ID,
			&room.Code,
			&room.Name,
			&room.HostID,
			&room.Status,
			&room.ExpiresAt,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}
