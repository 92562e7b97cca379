package service

import (
	"context"
	"time"

	"coincafe/events"
	"coincafe/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, userID int64, username string, initialBalance int64) (*models.Account, error) {
	args := m.Called(ctx, userID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Append(ctx context.Context, record *models.Transaction) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetRecentTransfersInvolving(ctx context.Context, userA, userB int64, limit int, since time.Time) ([]*models.Transaction, error) {
	args := m.Called(ctx, userA, userB, limit, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetRecentTransfersBySender(ctx context.Context, senderID int64, limit int, since time.Time) ([]*models.Transaction, error) {
	args := m.Called(ctx, senderID, limit, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetRecentTransfersByReceiver(ctx context.Context, receiverID int64, limit int, since time.Time) ([]*models.Transaction, error) {
	args := m.Called(ctx, receiverID, limit, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, roomCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// MockLimitRuleRepository is a mock implementation of LimitRuleRepository
type MockLimitRuleRepository struct {
	mock.Mock
}

func (m *MockLimitRuleRepository) FindActiveRules(ctx context.Context, scope models.LimitScope, scopeID *string) ([]*models.LimitRule, error) {
	args := m.Called(ctx, scope, scopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LimitRule), args.Error(1)
}

func (m *MockLimitRuleRepository) GetAll(ctx context.Context) ([]*models.LimitRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LimitRule), args.Error(1)
}

func (m *MockLimitRuleRepository) GetByID(ctx context.Context, id int64) (*models.LimitRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LimitRule), args.Error(1)
}

func (m *MockLimitRuleRepository) Create(ctx context.Context, rule *models.LimitRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockLimitRuleRepository) Update(ctx context.Context, rule *models.LimitRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// MockRankingRepository is a mock implementation of RankingRepository
type MockRankingRepository struct {
	mock.Mock
}

func (m *MockRankingRepository) Upsert(ctx context.Context, entry *models.RankingEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRankingRepository) GetAllOrdered(ctx context.Context) ([]*models.RankingEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RankingEntry), args.Error(1)
}

func (m *MockRankingRepository) UpdateRanks(ctx context.Context, entries []*models.RankingEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockRankingRepository) GetByUserID(ctx context.Context, userID int64) (*models.RankingEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RankingEntry), args.Error(1)
}

// MockRoomRepository is a mock implementation of RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomRepository) GetByID(ctx context.Context, roomID int64) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomRepository) UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error {
	args := m.Called(ctx, roomID, status)
	return args.Error(0)
}

func (m *MockRoomRepository) UpdateHost(ctx context.Context, roomID int64, hostID int64) error {
	args := m.Called(ctx, roomID, hostID)
	return args.Error(0)
}

func (m *MockRoomRepository) UpsertMember(ctx context.Context, member *models.RoomMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockRoomRepository) GetMember(ctx context.Context, roomID, userID int64) (*models.RoomMember, error) {
	args := m.Called(ctx, roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoomMember), args.Error(1)
}

func (m *MockRoomRepository) GetActiveMembers(ctx context.Context, roomID int64) ([]*models.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomMember), args.Error(1)
}

func (m *MockRoomRepository) UpdateMemberStatus(ctx context.Context, roomID, userID int64, status models.RoomMemberStatus) error {
	args := m.Called(ctx, roomID, userID, status)
	return args.Error(0)
}

func (m *MockRoomRepository) TouchMember(ctx context.Context, roomID, userID int64, at time.Time) error {
	args := m.Called(ctx, roomID, userID, at)
	return args.Error(0)
}

func (m *MockRoomRepository) GetStaleActiveMembers(ctx context.Context, cutoff time.Time) ([]*models.RoomMember, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomMember), args.Error(1)
}

func (m *MockRoomRepository) GetExpiredActiveRooms(ctx context.Context, now time.Time, limit int) ([]*models.Room, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopPublisher discards events; the default bus for mocked units of work
type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// MockRankingProjector is a mock implementation of RankingProjector
type MockRankingProjector struct {
	mock.Mock
}

func (m *MockRankingProjector) RefreshUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockPairLock is a mock implementation of PairLock
type MockPairLock struct {
	mock.Mock
}

func (m *MockPairLock) Lock(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPairLock) Unlock(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPairLockFactory is a mock implementation of PairLockFactory
type MockPairLockFactory struct {
	mock.Mock
}

func (m *MockPairLockFactory) ForPair(a, b int64) PairLock {
	args := m.Called(a, b)
	return args.Get(0).(PairLock)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository
// getters return the mocks injected with SetRepositories rather than
// going through expectations.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	limitRuleRepo   LimitRuleRepository
	rankingRepo     RankingRepository
	roomRepo        RoomRepository
	eventBus        EventPublisher
}

// SetRepositories configures the repositories returned by the getters.
// Nil entries are allowed for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(
	accounts AccountRepository,
	transactions TransactionRepository,
	limitRules LimitRuleRepository,
	rankings RankingRepository,
	rooms RoomRepository,
) {
	m.accountRepo = accounts
	m.transactionRepo = transactions
	m.limitRuleRepo = limitRules
	m.rankingRepo = rankings
	m.roomRepo = rooms
}

// SetEventBus configures the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) LimitRuleRepository() LimitRuleRepository {
	return m.limitRuleRepo
}

func (m *MockUnitOfWork) RankingRepository() RankingRepository {
	return m.rankingRepo
}

func (m *MockUnitOfWork) RoomRepository() RoomRepository {
	return m.roomRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return noopPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
