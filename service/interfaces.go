package service

import (
	"context"
	"time"

	"coincafe/events"
	"coincafe/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByUserID retrieves an account, or nil if it does not exist
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)

	// GetByUserIDForUpdate retrieves an account and locks its row for the
	// duration of the surrounding transaction
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, userID int64, username string, initialBalance int64) (*models.Account, error)

	// AddBalance adds to an account's balance atomically
	AddBalance(ctx context.Context, userID int64, amount int64) error

	// DeductBalance deducts from an account's balance atomically, failing
	// if the balance would go negative
	DeductBalance(ctx context.Context, userID int64, amount int64) error

	// GetAll returns all accounts
	GetAll(ctx context.Context) ([]*models.Account, error)
}

// TransactionRepository defines the interface for the append-only
// transaction log
type TransactionRepository interface {
	// Append writes one record and fills in its id and creation time
	Append(ctx context.Context, record *models.Transaction) error

	// GetRecentTransfersInvolving returns the newest transfer records that
	// have userA or userB as sender or receiver, newest first. A zero
	// since means unbounded.
	GetRecentTransfersInvolving(ctx context.Context, userA, userB int64, limit int, since time.Time) ([]*models.Transaction, error)

	// GetRecentTransfersBySender returns the newest transfer records sent
	// by senderID, newest first
	GetRecentTransfersBySender(ctx context.Context, senderID int64, limit int, since time.Time) ([]*models.Transaction, error)

	// GetRecentTransfersByReceiver returns the newest transfer records
	// received by receiverID, newest first
	GetRecentTransfersByReceiver(ctx context.Context, receiverID int64, limit int, since time.Time) ([]*models.Transaction, error)

	// GetByUser returns the newest records involving a user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)

	// GetByRoomCode returns the newest records tagged with a room code
	GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]*models.Transaction, error)
}

// LimitRuleRepository defines the interface for limit rule storage
type LimitRuleRepository interface {
	// FindActiveRules returns the active rules for a scope, optionally
	// narrowed to a scope id, in rule id order
	FindActiveRules(ctx context.Context, scope models.LimitScope, scopeID *string) ([]*models.LimitRule, error)

	// GetAll returns every rule regardless of active flag
	GetAll(ctx context.Context) ([]*models.LimitRule, error)

	// GetByID retrieves a rule, or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.LimitRule, error)

	// Create inserts a new rule and fills in its id
	Create(ctx context.Context, rule *models.LimitRule) error

	// Update persists changes to an existing rule
	Update(ctx context.Context, rule *models.LimitRule) error
}

// RankingRepository defines the interface for the derived leaderboard
// projection
type RankingRepository interface {
	// Upsert creates or refreshes the entry for one user
	Upsert(ctx context.Context, entry *models.RankingEntry) error

	// GetAllOrdered returns all entries sorted by balance descending with
	// user id as the deterministic tie-break
	GetAllOrdered(ctx context.Context) ([]*models.RankingEntry, error)

	// UpdateRanks persists the rank positions of the given entries
	UpdateRanks(ctx context.Context, entries []*models.RankingEntry) error

	// GetByUserID retrieves one entry, or nil if it does not exist
	GetByUserID(ctx context.Context, userID int64) (*models.RankingEntry, error)
}

// RoomRepository defines the interface for room and membership data access
type RoomRepository interface {
	// Create inserts a new room and fills in its id
	Create(ctx context.Context, room *models.Room) error

	// GetByCode retrieves a room by join code, or nil if it does not exist
	GetByCode(ctx context.Context, code string) (*models.Room, error)

	// GetByID retrieves a room by id, or nil if it does not exist
	GetByID(ctx context.Context, roomID int64) (*models.Room, error)

	// UpdateStatus transitions a room's lifecycle status
	UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error

	// UpdateHost reassigns the room host
	UpdateHost(ctx context.Context, roomID int64, hostID int64) error

	// UpsertMember adds a member or reactivates a previous one
	UpsertMember(ctx context.Context, member *models.RoomMember) error

	// GetMember retrieves one membership row, or nil if absent
	GetMember(ctx context.Context, roomID, userID int64) (*models.RoomMember, error)

	// GetActiveMembers returns active members ordered by join time
	GetActiveMembers(ctx context.Context, roomID int64) ([]*models.RoomMember, error)

	// UpdateMemberStatus transitions one membership row
	UpdateMemberStatus(ctx context.Context, roomID, userID int64, status models.RoomMemberStatus) error

	// TouchMember refreshes a member's heartbeat timestamp
	TouchMember(ctx context.Context, roomID, userID int64, at time.Time) error

	// GetStaleActiveMembers returns active members whose heartbeat is
	// older than cutoff
	GetStaleActiveMembers(ctx context.Context, cutoff time.Time) ([]*models.RoomMember, error)

	// GetExpiredActiveRooms returns active rooms past their expiry
	GetExpiredActiveRooms(ctx context.Context, now time.Time, limit int) ([]*models.Room, error)
}

// AccountService defines the interface for account operations
type AccountService interface {
	// GetOrCreateAccount retrieves an existing account or registers a new
	// one with the configured initial balance
	GetOrCreateAccount(ctx context.Context, userID int64, username string) (*models.Account, error)

	// GetAccount retrieves an account, failing if it does not exist
	GetAccount(ctx context.Context, userID int64) (*models.Account, error)

	// GetTransactions returns the newest transactions involving a user
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)
}

// TransferService defines the interface for balance mutations. All
// account balance changes in the system flow through it.
type TransferService interface {
	// TransferGlobal moves amount from sender to receiver
	TransferGlobal(ctx context.Context, senderID, receiverID int64, amount int64, description string) (*models.TransferResult, error)

	// TransferInRoom moves amount between two active members of a room,
	// tagging the record with the room code
	TransferInRoom(ctx context.Context, senderID, receiverID int64, amount int64, description, roomCode string) (*models.TransferResult, error)

	// Earn applies a signed system adjustment to one account's balance
	Earn(ctx context.Context, userID int64, amount int64, description string) (*models.Transaction, error)
}

// LimitService defines the interface for transfer limit evaluation
type LimitService interface {
	// CheckTransactionLimit evaluates the active rules for a prospective
	// transfer. Read-only; repeated calls without an intervening transfer
	// return the same decision.
	CheckTransactionLimit(ctx context.Context, senderID, receiverID int64, scope models.LimitScope) (*models.LimitDecision, error)

	// EnsureDefaultRules idempotently seeds the default global rule.
	// Called once during startup.
	EnsureDefaultRules(ctx context.Context) error

	// GetRules returns every configured rule
	GetRules(ctx context.Context) ([]*models.LimitRule, error)

	// CreateRule inserts a new rule
	CreateRule(ctx context.Context, rule *models.LimitRule) error

	// UpdateRule applies partial changes to an existing rule
	UpdateRule(ctx context.Context, id int64, update LimitRuleUpdate) (*models.LimitRule, error)
}

// LimitRuleUpdate carries the optional fields of a partial rule update
type LimitRuleUpdate struct {
	MaxCount          *int
	TimeWindowMinutes *int
	Active            *bool
	Description       *string
}

// RankingService defines the interface for the leaderboard projection
type RankingService interface {
	// RefreshUser upserts the user's entry and reorders the whole
	// leaderboard. A missing account is a no-op.
	RefreshUser(ctx context.Context, userID int64) error

	// GetRankings returns the leaderboard in rank order
	GetRankings(ctx context.Context) ([]*models.RankingEntry, error)

	// GetUserRanking returns one user's entry, or nil if absent
	GetUserRanking(ctx context.Context, userID int64) (*models.RankingEntry, error)
}

// RankingProjector is the part of RankingService the transfer engine
// needs after a committed mutation
type RankingProjector interface {
	RefreshUser(ctx context.Context, userID int64) error
}

// RoomService defines the interface for room lifecycle operations
type RoomService interface {
	// CreateRoom opens a new room hosted by hostID and joins the host
	CreateRoom(ctx context.Context, hostID int64, name string) (*models.Room, error)

	// GetRoom retrieves a room by join code
	GetRoom(ctx context.Context, code string) (*models.Room, error)

	// JoinRoom adds userID as an active member
	JoinRoom(ctx context.Context, code string, userID int64) (*models.Room, error)

	// LeaveRoom removes userID, transferring the host role or closing the
	// room when needed
	LeaveRoom(ctx context.Context, code string, userID int64) error

	// Heartbeat refreshes a member's presence
	Heartbeat(ctx context.Context, code string, userID int64) error

	// GetActiveMembers returns the room's active members
	GetActiveMembers(ctx context.Context, code string) ([]*models.RoomMember, error)

	// GetTransactions returns the newest transactions tagged with the
	// room's code
	GetTransactions(ctx context.Context, code string, limit int) ([]*models.Transaction, error)

	// SweepStale expires stale members and closes finished rooms. Invoked
	// periodically by the room sweeper job.
	SweepStale(ctx context.Context) error
}

// PairLock serializes transfers for one unordered pair of accounts
type PairLock interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// PairLockFactory creates locks keyed by an unordered account pair
type PairLockFactory interface {
	ForPair(a, b int64) PairLock
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	LimitRuleRepository() LimitRuleRepository
	RankingRepository() RankingRepository
	RoomRepository() RoomRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
