package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"coincafe/events"
	"coincafe/models"

	log "github.com/sirupsen/logrus"
)

const roomCodeLength = 6

// Unambiguous alphabet for join codes shown on a shared screen
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

type roomService struct {
	uowFactory       UnitOfWorkFactory
	roomTTL          time.Duration
	heartbeatTimeout time.Duration
}

// NewRoomService creates a new room service
func NewRoomService(uowFactory UnitOfWorkFactory, roomTTL, heartbeatTimeout time.Duration) RoomService {
	return &roomService{
		uowFactory:       uowFactory,
		roomTTL:          roomTTL,
		heartbeatTimeout: heartbeatTimeout,
	}
}

func generateRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

// CreateRoom opens a new room hosted by hostID and joins the host as its
// first active member
func (s *roomService) CreateRoom(ctx context.Context, hostID int64, name string) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	host, err := uow.AccountRepository().GetByUserID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get host account %d: %w", hostID, err)
	}
	if host == nil {
		return nil, ErrAccountNotFound
	}

	now := time.Now()
	room := &models.Room{
		Code:      generateRoomCode(),
		Name:      name,
		HostID:    hostID,
		Status:    models.RoomStatusActive,
		ExpiresAt: now.Add(s.roomTTL),
	}
	if err := uow.RoomRepository().Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	member := &models.RoomMember{
		RoomID:     room.ID,
		UserID:     hostID,
		Status:     models.RoomMemberStatusActive,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	if err := uow.RoomRepository().UpsertMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add host to room: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return room, nil
}

// GetRoom retrieves a room by join code
func (s *roomService) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// JoinRoom adds userID as an active member of the room
func (s *roomService) JoinRoom(ctx context.Context, code string, userID int64) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := s.activeRoom(ctx, uow, code)
	if err != nil {
		return nil, err
	}

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	now := time.Now()
	member := &models.RoomMember{
		RoomID:     room.ID,
		UserID:     userID,
		Status:     models.RoomMemberStatusActive,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	if err := uow.RoomRepository().UpsertMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return room, nil
}

// LeaveRoom removes userID from the room. When the host leaves the role
// moves to the longest-standing active member; the room closes when the
// last member leaves.
func (s *roomService) LeaveRoom(ctx context.Context, code string, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := s.activeRoom(ctx, uow, code)
	if err != nil {
		return err
	}

	member, err := uow.RoomRepository().GetMember(ctx, room.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to get room member %d: %w", userID, err)
	}
	if member == nil || member.Status != models.RoomMemberStatusActive {
		return ErrNotRoomMember
	}

	if err := uow.RoomRepository().UpdateMemberStatus(ctx, room.ID, userID, models.RoomMemberStatusLeft); err != nil {
		return fmt.Errorf("failed to mark member left: %w", err)
	}

	if err := s.settleDeparture(ctx, uow, room, userID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// settleDeparture reassigns the host or closes the room after a member
// has been marked left
func (s *roomService) settleDeparture(ctx context.Context, uow UnitOfWork, room *models.Room, departedID int64) error {
	remaining, err := uow.RoomRepository().GetActiveMembers(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("failed to get active members: %w", err)
	}

	if len(remaining) == 0 {
		if err := uow.RoomRepository().UpdateStatus(ctx, room.ID, models.RoomStatusClosed); err != nil {
			return fmt.Errorf("failed to close empty room: %w", err)
		}
		uow.EventBus().Publish(events.RoomClosedEvent{
			RoomID: room.ID,
			Code:   room.Code,
			Reason: "last member left",
		})
		return nil
	}

	if room.HostID == departedID {
		// GetActiveMembers orders by join time, so the first entry is the
		// longest-standing member
		newHost := remaining[0].UserID
		if err := uow.RoomRepository().UpdateHost(ctx, room.ID, newHost); err != nil {
			return fmt.Errorf("failed to transfer host role: %w", err)
		}
	}
	return nil
}

// Heartbeat refreshes a member's presence timestamp
func (s *roomService) Heartbeat(ctx context.Context, code string, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := s.activeRoom(ctx, uow, code)
	if err != nil {
		return err
	}

	member, err := uow.RoomRepository().GetMember(ctx, room.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to get room member %d: %w", userID, err)
	}
	if member == nil || member.Status != models.RoomMemberStatusActive {
		return ErrNotRoomMember
	}

	if err := uow.RoomRepository().TouchMember(ctx, room.ID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetActiveMembers returns the room's active members
func (s *roomService) GetActiveMembers(ctx context.Context, code string) ([]*models.RoomMember, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	return uow.RoomRepository().GetActiveMembers(ctx, room.ID)
}

// GetTransactions returns the newest transactions tagged with the room's
// code. Closed rooms keep their history.
func (s *roomService) GetTransactions(ctx context.Context, code string, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	return uow.TransactionRepository().GetByRoomCode(ctx, code, limit)
}

// SweepStale marks members with an expired heartbeat as left, settles
// host departures, and closes rooms past their expiry
func (s *roomService) SweepStale(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cutoff := time.Now().Add(-s.heartbeatTimeout)
	stale, err := uow.RoomRepository().GetStaleActiveMembers(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to find stale members: %w", err)
	}

	roomIDs := make(map[int64]bool)
	for _, member := range stale {
		if err := uow.RoomRepository().UpdateMemberStatus(ctx, member.RoomID, member.UserID, models.RoomMemberStatusLeft); err != nil {
			return fmt.Errorf("failed to expire member %d in room %d: %w", member.UserID, member.RoomID, err)
		}
		roomIDs[member.RoomID] = true
		log.WithFields(log.Fields{
			"roomID": member.RoomID,
			"userID": member.UserID,
		}).Info("Expired stale room member")
	}

	// Settle each touched room once, after all stale members are out
	for roomID := range roomIDs {
		if err := s.settleRoom(ctx, uow, roomID); err != nil {
			return err
		}
	}

	expired, err := uow.RoomRepository().GetExpiredActiveRooms(ctx, time.Now(), 100)
	if err != nil {
		return fmt.Errorf("failed to find expired rooms: %w", err)
	}
	for _, room := range expired {
		if err := uow.RoomRepository().UpdateStatus(ctx, room.ID, models.RoomStatusClosed); err != nil {
			return fmt.Errorf("failed to close expired room %d: %w", room.ID, err)
		}
		uow.EventBus().Publish(events.RoomClosedEvent{
			RoomID: room.ID,
			Code:   room.Code,
			Reason: "expired",
		})
		log.WithFields(log.Fields{
			"roomID": room.ID,
			"code":   room.Code,
		}).Info("Closed expired room")
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// settleRoom re-checks a room's host and population after members were
// expired by the sweep
func (s *roomService) settleRoom(ctx context.Context, uow UnitOfWork, roomID int64) error {
	remaining, err := uow.RoomRepository().GetActiveMembers(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get active members of room %d: %w", roomID, err)
	}

	if len(remaining) == 0 {
		if err := uow.RoomRepository().UpdateStatus(ctx, roomID, models.RoomStatusClosed); err != nil {
			return fmt.Errorf("failed to close abandoned room %d: %w", roomID, err)
		}
		return nil
	}

	stillActive := make(map[int64]bool, len(remaining))
	for _, member := range remaining {
		stillActive[member.UserID] = true
	}

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room %d: %w", roomID, err)
	}
	if room != nil && !stillActive[room.HostID] {
		if err := uow.RoomRepository().UpdateHost(ctx, roomID, remaining[0].UserID); err != nil {
			return fmt.Errorf("failed to transfer host of room %d: %w", roomID, err)
		}
	}
	return nil
}

func (s *roomService) activeRoom(ctx context.Context, uow UnitOfWork, code string) (*models.Room, error) {
	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.Status != models.RoomStatusActive {
		return nil, ErrRoomNotActive
	}
	return room, nil
}
