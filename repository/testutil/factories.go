package testutil

import (
	"time"

	"coincafe/models"
)

// CreateTestAccount creates a test account with default values
func CreateTestAccount(userID int64, username string) *models.Account {
	now := time.Now()
	return &models.Account{
		UserID:    userID,
		Username:  username,
		Balance:   1000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestAccountWithBalance creates a test account with a specific balance
func CreateTestAccountWithBalance(userID int64, username string, balance int64) *models.Account {
	account := CreateTestAccount(userID, username)
	account.Balance = balance
	return account
}

// CreateTestTransfer creates a test transfer record between two accounts
func CreateTestTransfer(senderID, receiverID int64, amount int64) *models.Transaction {
	sender := senderID
	receiver := receiverID
	return &models.Transaction{
		SenderID:    &sender,
		ReceiverID:  &receiver,
		Amount:      amount,
		Kind:        models.TransactionKindTransfer,
		Description: "test transfer",
		CreatedAt:   time.Now(),
	}
}

// CreateTestRoomTransfer creates a test transfer record tagged with a room code
func CreateTestRoomTransfer(senderID, receiverID int64, amount int64, roomCode string) *models.Transaction {
	record := CreateTestTransfer(senderID, receiverID, amount)
	record.RoomCode = &roomCode
	return record
}

// CreateTestLimitRule creates a test global consecutive-pair rule
func CreateTestLimitRule(maxCount int) *models.LimitRule {
	return &models.LimitRule{
		Scope:       models.LimitScopeGlobal,
		LimitType:   models.LimitTypeConsecutivePair,
		MaxCount:    maxCount,
		Active:      true,
		Description: "test rule",
	}
}

// CreateTestRoom creates a test room hosted by hostID
func CreateTestRoom(code string, hostID int64) *models.Room {
	return &models.Room{
		Code:      code,
		Name:      "test room",
		HostID:    hostID,
		Status:    models.RoomStatusActive,
		ExpiresAt: time.Now().Add(4 * time.Hour),
	}
}

// CreateTestRoomMember creates an active test membership row
func CreateTestRoomMember(roomID, userID int64) *models.RoomMember {
	now := time.Now()
	return &models.RoomMember{
		RoomID:     roomID,
		UserID:     userID,
		Status:     models.RoomMemberStatusActive,
		JoinedAt:   now,
		LastSeenAt: now,
	}
}
