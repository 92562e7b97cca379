package service

import (
	"context"
	"testing"
	"time"

	"coincafe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRoomMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockAccountRepository, *MockRoomRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccounts := new(MockAccountRepository)
	mockRooms := new(MockRoomRepository)

	mockUoW.SetRepositories(mockAccounts, nil, nil, nil, mockRooms)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return mockUoW, mockFactory, mockAccounts, mockRooms
}

func newRoomService(factory UnitOfWorkFactory) RoomService {
	return NewRoomService(factory, 4*time.Hour, 90*time.Second)
}

func activeRoomFixture() *models.Room {
	return &models.Room{
		ID:        7,
		Code:      "ABC123",
		Name:      "table one",
		HostID:    1,
		Status:    models.RoomStatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func activeMemberFixture(roomID, userID int64) *models.RoomMember {
	return &models.RoomMember{
		RoomID:     roomID,
		UserID:     userID,
		Status:     models.RoomMemberStatusActive,
		JoinedAt:   time.Now(),
		LastSeenAt: time.Now(),
	}
}

func TestRoomService_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("creates room and joins host", func(t *testing.T) {
		mockUoW, mockFactory, mockAccounts, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		host := &models.Account{UserID: 1, Username: "alice", Balance: 100}
		mockAccounts.On("GetByUserID", ctx, int64(1)).Return(host, nil)

		mockRooms.On("Create", ctx, mock.MatchedBy(func(room *models.Room) bool {
			return room.HostID == 1 &&
				room.Status == models.RoomStatusActive &&
				len(room.Code) == roomCodeLength &&
				room.ExpiresAt.After(time.Now().Add(3*time.Hour))
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Room).ID = 7
		}).Return(nil)

		mockRooms.On("UpsertMember", ctx, mock.MatchedBy(func(member *models.RoomMember) bool {
			return member.RoomID == 7 && member.UserID == 1 &&
				member.Status == models.RoomMemberStatusActive
		})).Return(nil)

		service := newRoomService(mockFactory)

		room, err := service.CreateRoom(ctx, 1, "table one")
		require.NoError(t, err)
		assert.Equal(t, int64(7), room.ID)

		mockRooms.AssertExpectations(t)
		mockUoW.AssertExpectations(t)
	})

	t.Run("host account must exist", func(t *testing.T) {
		_, mockFactory, mockAccounts, mockRooms := setupRoomMocks()

		mockAccounts.On("GetByUserID", ctx, int64(9)).Return(nil, nil)

		service := newRoomService(mockFactory)

		_, err := service.CreateRoom(ctx, 9, "ghost table")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		mockRooms.AssertNotCalled(t, "Create")
	})
}

func TestRoomService_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("joins active room", func(t *testing.T) {
		mockUoW, mockFactory, mockAccounts, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		room := activeRoomFixture()
		mockRooms.On("GetByCode", ctx, "ABC123").Return(room, nil)
		mockAccounts.On("GetByUserID", ctx, int64(2)).
			Return(&models.Account{UserID: 2, Username: "bob"}, nil)
		mockRooms.On("UpsertMember", ctx, mock.MatchedBy(func(member *models.RoomMember) bool {
			return member.RoomID == 7 && member.UserID == 2
		})).Return(nil)

		service := newRoomService(mockFactory)

		got, err := service.JoinRoom(ctx, "ABC123", 2)
		require.NoError(t, err)
		assert.Equal(t, room, got)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, mockFactory, _, mockRooms := setupRoomMocks()
		mockRooms.On("GetByCode", ctx, "NOPE").Return(nil, nil)

		service := newRoomService(mockFactory)

		_, err := service.JoinRoom(ctx, "NOPE", 2)
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("closed room", func(t *testing.T) {
		_, mockFactory, _, mockRooms := setupRoomMocks()
		closed := activeRoomFixture()
		closed.Status = models.RoomStatusClosed
		mockRooms.On("GetByCode", ctx, "ABC123").Return(closed, nil)

		service := newRoomService(mockFactory)

		_, err := service.JoinRoom(ctx, "ABC123", 2)
		assert.ErrorIs(t, err, ErrRoomNotActive)
	})

	t.Run("account must exist", func(t *testing.T) {
		_, mockFactory, mockAccounts, mockRooms := setupRoomMocks()
		mockRooms.On("GetByCode", ctx, "ABC123").Return(activeRoomFixture(), nil)
		mockAccounts.On("GetByUserID", ctx, int64(9)).Return(nil, nil)

		service := newRoomService(mockFactory)

		_, err := service.JoinRoom(ctx, "ABC123", 9)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestRoomService_LeaveRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("regular member leaves", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		room := activeRoomFixture()
		mockRooms.On("GetByCode", ctx, "ABC123").Return(room, nil)
		mockRooms.On("GetMember", ctx, int64(7), int64(2)).Return(activeMemberFixture(7, 2), nil)
		mockRooms.On("UpdateMemberStatus", ctx, int64(7), int64(2), models.RoomMemberStatusLeft).Return(nil)
		mockRooms.On("GetActiveMembers", ctx, int64(7)).
			Return([]*models.RoomMember{activeMemberFixture(7, 1)}, nil)

		service := newRoomService(mockFactory)

		err := service.LeaveRoom(ctx, "ABC123", 2)
		require.NoError(t, err)

		// Host stays, room stays open
		mockRooms.AssertNotCalled(t, "UpdateHost")
		mockRooms.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("host departure transfers to longest-standing member", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		room := activeRoomFixture()
		mockRooms.On("GetByCode", ctx, "ABC123").Return(room, nil)
		mockRooms.On("GetMember", ctx, int64(7), int64(1)).Return(activeMemberFixture(7, 1), nil)
		mockRooms.On("UpdateMemberStatus", ctx, int64(7), int64(1), models.RoomMemberStatusLeft).Return(nil)
		mockRooms.On("GetActiveMembers", ctx, int64(7)).
			Return([]*models.RoomMember{activeMemberFixture(7, 3), activeMemberFixture(7, 2)}, nil)
		mockRooms.On("UpdateHost", ctx, int64(7), int64(3)).Return(nil)

		service := newRoomService(mockFactory)

		err := service.LeaveRoom(ctx, "ABC123", 1)
		require.NoError(t, err)

		mockRooms.AssertExpectations(t)
	})

	t.Run("last member closes the room", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		room := activeRoomFixture()
		mockRooms.On("GetByCode", ctx, "ABC123").Return(room, nil)
		mockRooms.On("GetMember", ctx, int64(7), int64(1)).Return(activeMemberFixture(7, 1), nil)
		mockRooms.On("UpdateMemberStatus", ctx, int64(7), int64(1), models.RoomMemberStatusLeft).Return(nil)
		mockRooms.On("GetActiveMembers", ctx, int64(7)).Return([]*models.RoomMember{}, nil)
		mockRooms.On("UpdateStatus", ctx, int64(7), models.RoomStatusClosed).Return(nil)

		service := newRoomService(mockFactory)

		err := service.LeaveRoom(ctx, "ABC123", 1)
		require.NoError(t, err)

		mockRooms.AssertExpectations(t)
	})

	t.Run("non-member cannot leave", func(t *testing.T) {
		_, mockFactory, _, mockRooms := setupRoomMocks()

		mockRooms.On("GetByCode", ctx, "ABC123").Return(activeRoomFixture(), nil)
		mockRooms.On("GetMember", ctx, int64(7), int64(9)).Return(nil, nil)

		service := newRoomService(mockFactory)

		err := service.LeaveRoom(ctx, "ABC123", 9)
		assert.ErrorIs(t, err, ErrNotRoomMember)
	})
}

func TestRoomService_Heartbeat(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes presence", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		mockRooms.On("GetByCode", ctx, "ABC123").Return(activeRoomFixture(), nil)
		mockRooms.On("GetMember", ctx, int64(7), int64(2)).Return(activeMemberFixture(7, 2), nil)
		mockRooms.On("TouchMember", ctx, int64(7), int64(2), mock.AnythingOfType("time.Time")).Return(nil)

		service := newRoomService(mockFactory)

		err := service.Heartbeat(ctx, "ABC123", 2)
		require.NoError(t, err)
	})

	t.Run("departed member rejected", func(t *testing.T) {
		_, mockFactory, _, mockRooms := setupRoomMocks()

		left := activeMemberFixture(7, 2)
		left.Status = models.RoomMemberStatusLeft
		mockRooms.On("GetByCode", ctx, "ABC123").Return(activeRoomFixture(), nil)
		mockRooms.On("GetMember", ctx, int64(7), int64(2)).Return(left, nil)

		service := newRoomService(mockFactory)

		err := service.Heartbeat(ctx, "ABC123", 2)
		assert.ErrorIs(t, err, ErrNotRoomMember)
		mockRooms.AssertNotCalled(t, "TouchMember")
	})
}

func TestRoomService_SweepStale(t *testing.T) {
	ctx := context.Background()

	t.Run("expires stale members and transfers host", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		// Host (user 1) went stale in room 7
		staleHost := activeMemberFixture(7, 1)
		staleHost.LastSeenAt = time.Now().Add(-time.Hour)
		mockRooms.On("GetStaleActiveMembers", ctx, mock.AnythingOfType("time.Time")).
			Return([]*models.RoomMember{staleHost}, nil)
		mockRooms.On("UpdateMemberStatus", ctx, int64(7), int64(1), models.RoomMemberStatusLeft).Return(nil)

		mockRooms.On("GetActiveMembers", ctx, int64(7)).
			Return([]*models.RoomMember{activeMemberFixture(7, 2)}, nil)
		mockRooms.On("GetByID", ctx, int64(7)).Return(activeRoomFixture(), nil)
		mockRooms.On("UpdateHost", ctx, int64(7), int64(2)).Return(nil)

		mockRooms.On("GetExpiredActiveRooms", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*models.Room{}, nil)

		service := newRoomService(mockFactory)

		err := service.SweepStale(ctx)
		require.NoError(t, err)

		mockRooms.AssertExpectations(t)
	})

	t.Run("closes emptied and expired rooms", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		stale := activeMemberFixture(7, 1)
		mockRooms.On("GetStaleActiveMembers", ctx, mock.AnythingOfType("time.Time")).
			Return([]*models.RoomMember{stale}, nil)
		mockRooms.On("UpdateMemberStatus", ctx, int64(7), int64(1), models.RoomMemberStatusLeft).Return(nil)
		mockRooms.On("GetActiveMembers", ctx, int64(7)).Return([]*models.RoomMember{}, nil)
		mockRooms.On("UpdateStatus", ctx, int64(7), models.RoomStatusClosed).Return(nil)

		expiredRoom := &models.Room{ID: 8, Code: "XYZ789", Status: models.RoomStatusActive}
		mockRooms.On("GetExpiredActiveRooms", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*models.Room{expiredRoom}, nil)
		mockRooms.On("UpdateStatus", ctx, int64(8), models.RoomStatusClosed).Return(nil)

		service := newRoomService(mockFactory)

		err := service.SweepStale(ctx)
		require.NoError(t, err)

		mockRooms.AssertExpectations(t)
	})

	t.Run("nothing to sweep", func(t *testing.T) {
		mockUoW, mockFactory, _, mockRooms := setupRoomMocks()
		mockUoW.On("Commit").Return(nil)

		mockRooms.On("GetStaleActiveMembers", ctx, mock.AnythingOfType("time.Time")).
			Return([]*models.RoomMember{}, nil)
		mockRooms.On("GetExpiredActiveRooms", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*models.Room{}, nil)

		service := newRoomService(mockFactory)

		err := service.SweepStale(ctx)
		require.NoError(t, err)

		mockRooms.AssertNotCalled(t, "UpdateMemberStatus")
		mockRooms.AssertNotCalled(t, "UpdateStatus")
	})
}

func TestGenerateRoomCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := generateRoomCode()
		assert.Len(t, code, roomCodeLength)
		for _, c := range code {
			assert.Contains(t, roomCodeAlphabet, string(c))
		}
	}
}
