package service

import (
	"context"
	"testing"

	"coincafe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRankingMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockAccountRepository, *MockRankingRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccounts := new(MockAccountRepository)
	mockRankings := new(MockRankingRepository)

	mockUoW.SetRepositories(mockAccounts, nil, nil, mockRankings, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return mockUoW, mockFactory, mockAccounts, mockRankings
}

func TestRankingService_RefreshUser(t *testing.T) {
	ctx := context.Background()

	t.Run("reorders the whole board", func(t *testing.T) {
		mockUoW, mockFactory, mockAccounts, mockRankings := setupRankingMocks()
		mockUoW.On("Commit").Return(nil)

		account := &models.Account{UserID: 2, Username: "bob", Balance: 700}
		mockAccounts.On("GetByUserID", ctx, int64(2)).Return(account, nil)

		mockRankings.On("Upsert", ctx, mock.MatchedBy(func(entry *models.RankingEntry) bool {
			return entry.UserID == 2 && entry.Username == "bob" && entry.Balance == 700
		})).Return(nil)

		// Board already ordered by balance desc, user id asc
		board := []*models.RankingEntry{
			{UserID: 3, Balance: 900},
			{UserID: 2, Balance: 700},
			{UserID: 1, Balance: 700},
		}
		mockRankings.On("GetAllOrdered", ctx).Return(board, nil)
		mockRankings.On("UpdateRanks", ctx, mock.MatchedBy(func(entries []*models.RankingEntry) bool {
			return len(entries) == 3 &&
				entries[0].Rank == 1 && entries[1].Rank == 2 && entries[2].Rank == 3
		})).Return(nil)

		service := NewRankingService(mockFactory)

		err := service.RefreshUser(ctx, 2)
		require.NoError(t, err)

		mockRankings.AssertExpectations(t)
		mockUoW.AssertExpectations(t)
	})

	t.Run("missing account is a no-op", func(t *testing.T) {
		mockUoW, mockFactory, mockAccounts, mockRankings := setupRankingMocks()

		mockAccounts.On("GetByUserID", ctx, int64(9)).Return(nil, nil)

		service := NewRankingService(mockFactory)

		err := service.RefreshUser(ctx, 9)
		require.NoError(t, err)

		mockRankings.AssertNotCalled(t, "Upsert")
		mockUoW.AssertNotCalled(t, "Commit")
	})
}

func TestRankingService_GetRankings(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, mockRankings := setupRankingMocks()

	board := []*models.RankingEntry{
		{UserID: 1, Balance: 500, Rank: 1},
		{UserID: 2, Balance: 300, Rank: 2},
	}
	mockRankings.On("GetAllOrdered", ctx).Return(board, nil)

	service := NewRankingService(mockFactory)

	entries, err := service.GetRankings(ctx)
	require.NoError(t, err)
	assert.Equal(t, board, entries)
}

func TestRankingService_GetUserRanking(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		_, mockFactory, _, mockRankings := setupRankingMocks()

		entry := &models.RankingEntry{UserID: 1, Balance: 500, Rank: 1}
		mockRankings.On("GetByUserID", ctx, int64(1)).Return(entry, nil)

		service := NewRankingService(mockFactory)

		got, err := service.GetUserRanking(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("never projected returns nil", func(t *testing.T) {
		_, mockFactory, _, mockRankings := setupRankingMocks()

		mockRankings.On("GetByUserID", ctx, int64(9)).Return(nil, nil)

		service := NewRankingService(mockFactory)

		got, err := service.GetUserRanking(ctx, 9)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
