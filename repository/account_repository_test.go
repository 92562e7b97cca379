package repository

import (
	"context"
	"testing"

	"coincafe/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		account, err := repo.Create(ctx, 1001, "alice", 500)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, int64(1001), account.UserID)
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, int64(500), account.Balance)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("zero initial balance", func(t *testing.T) {
		account, err := repo.Create(ctx, 1002, "bob", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), account.Balance)
	})

	t.Run("duplicate user id", func(t *testing.T) {
		_, err := repo.Create(ctx, 1001, "alice-again", 0)
		assert.Error(t, err)
	})
}

func TestAccountRepository_GetByUserID(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found returns nil", func(t *testing.T) {
		account, err := repo.GetByUserID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("found", func(t *testing.T) {
		created, err := repo.Create(ctx, 2001, "carol", 300)
		require.NoError(t, err)

		account, err := repo.GetByUserID(ctx, 2001)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, created.Username, account.Username)
		assert.Equal(t, created.Balance, account.Balance)
	})
}

func TestAccountRepository_BalanceMutations(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 3001, "dave", 100)
	require.NoError(t, err)

	t.Run("add balance", func(t *testing.T) {
		err := repo.AddBalance(ctx, 3001, 50)
		require.NoError(t, err)

		account, err := repo.GetByUserID(ctx, 3001)
		require.NoError(t, err)
		assert.Equal(t, int64(150), account.Balance)
	})

	t.Run("deduct balance", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 3001, 100)
		require.NoError(t, err)

		account, err := repo.GetByUserID(ctx, 3001)
		require.NoError(t, err)
		assert.Equal(t, int64(50), account.Balance)
	})

	t.Run("deduct below zero fails", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 3001, 51)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")

		// Balance unchanged after the failed deduction
		account, err := repo.GetByUserID(ctx, 3001)
		require.NoError(t, err)
		assert.Equal(t, int64(50), account.Balance)
	})

	t.Run("deduct exact balance reaches zero", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 3001, 50)
		require.NoError(t, err)

		account, err := repo.GetByUserID(ctx, 3001)
		require.NoError(t, err)
		assert.Equal(t, int64(0), account.Balance)
	})

	t.Run("add balance for missing account fails", func(t *testing.T) {
		err := repo.AddBalance(ctx, 9999, 10)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		assert.Error(t, repo.AddBalance(ctx, 3001, 0))
		assert.Error(t, repo.DeductBalance(ctx, 3001, -5))
	})
}

func TestAccountRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		accounts, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("returns all accounts", func(t *testing.T) {
		_, err := repo.Create(ctx, 4001, "erin", 10)
		require.NoError(t, err)
		_, err = repo.Create(ctx, 4002, "frank", 20)
		require.NoError(t, err)

		accounts, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}
