package repository

import (
	"context"
	"testing"
	"time"

	"coincafe/models"
	"coincafe/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTransactionAccounts(t *testing.T, accounts *AccountRepository, ids ...int64) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		_, err := accounts.Create(ctx, id, "user", 10000)
		require.NoError(t, err)
	}
}

func TestTransactionRepository_Append(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	setupTransactionAccounts(t, accounts, 1, 2)

	t.Run("transfer record", func(t *testing.T) {
		record := testutil.CreateTestTransfer(1, 2, 100)
		err := repo.Append(ctx, record)
		require.NoError(t, err)

		assert.NotZero(t, record.ID)
		assert.False(t, record.CreatedAt.IsZero())
	})

	t.Run("earn record without sender", func(t *testing.T) {
		receiver := int64(1)
		record := &models.Transaction{
			ReceiverID:  &receiver,
			Amount:      50,
			Kind:        models.TransactionKindEarn,
			Description: "welcome grant",
		}
		err := repo.Append(ctx, record)
		require.NoError(t, err)
		assert.NotZero(t, record.ID)
	})

	t.Run("ids are monotonically increasing", func(t *testing.T) {
		first := testutil.CreateTestTransfer(1, 2, 10)
		require.NoError(t, repo.Append(ctx, first))
		second := testutil.CreateTestTransfer(2, 1, 10)
		require.NoError(t, repo.Append(ctx, second))

		assert.Greater(t, second.ID, first.ID)
	})
}

func TestTransactionRepository_GetRecentTransfersInvolving(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	setupTransactionAccounts(t, accounts, 10, 20, 30)

	// A->B, A->B, A->C, B->A
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(10, 20, 1)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(10, 20, 2)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(10, 30, 3)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(20, 10, 4)))

	t.Run("newest first, includes third-party transfers", func(t *testing.T) {
		records, err := repo.GetRecentTransfersInvolving(ctx, 10, 20, 20, time.Time{})
		require.NoError(t, err)
		require.Len(t, records, 4)

		// Newest first: the A->C transfer sits between the pair transfers
		assert.Equal(t, int64(4), records[0].Amount)
		assert.Equal(t, int64(3), records[1].Amount)
		assert.Equal(t, int64(2), records[2].Amount)
		assert.Equal(t, int64(1), records[3].Amount)
	})

	t.Run("limit caps the window", func(t *testing.T) {
		records, err := repo.GetRecentTransfersInvolving(ctx, 10, 20, 2, time.Time{})
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, int64(4), records[0].Amount)
	})

	t.Run("since bound excludes older records", func(t *testing.T) {
		records, err := repo.GetRecentTransfersInvolving(ctx, 10, 20, 20, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("non-transfer kinds excluded", func(t *testing.T) {
		receiver := int64(10)
		earn := &models.Transaction{
			ReceiverID:  &receiver,
			Amount:      99,
			Kind:        models.TransactionKindEarn,
			Description: "bonus",
		}
		require.NoError(t, repo.Append(ctx, earn))

		records, err := repo.GetRecentTransfersInvolving(ctx, 10, 20, 20, time.Time{})
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})
}

func TestTransactionRepository_GetRecentTransfersBySenderAndReceiver(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	setupTransactionAccounts(t, accounts, 100, 200, 300)

	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(100, 200, 1)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(100, 300, 2)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(200, 300, 3)))

	t.Run("by sender", func(t *testing.T) {
		records, err := repo.GetRecentTransfersBySender(ctx, 100, 20, time.Time{})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(2), records[0].Amount)
		assert.Equal(t, int64(1), records[1].Amount)
	})

	t.Run("by receiver", func(t *testing.T) {
		records, err := repo.GetRecentTransfersByReceiver(ctx, 300, 20, time.Time{})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(3), records[0].Amount)
		assert.Equal(t, int64(2), records[1].Amount)
	})

	t.Run("no matches", func(t *testing.T) {
		records, err := repo.GetRecentTransfersBySender(ctx, 300, 20, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestTransactionRepository_GetByRoomCode(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	setupTransactionAccounts(t, accounts, 500, 600)

	require.NoError(t, repo.Append(ctx, testutil.CreateTestRoomTransfer(500, 600, 5, "ROOM01")))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestRoomTransfer(600, 500, 6, "ROOM01")))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestTransfer(500, 600, 7)))

	records, err := repo.GetByRoomCode(ctx, "ROOM01", 20)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(6), records[0].Amount)
	assert.Equal(t, int64(5), records[1].Amount)
}
