package usecase

import (
	"context"
	"time"

	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockUserRepository) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *MockUserRepository) GetUserByPassID(ctx context.Context, passID primitive.ObjectID) (*entity.User, error) {
	args := m.Called(ctx, passID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *MockUserRepository) ListUsersWithPasses(ctx context.Context) ([]*entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}
func (m *MockUserRepository) MarkPassVerified(ctx context.Context, passID primitive.ObjectID, stamp repository.VerificationStamp) error {
	args := m.Called(ctx, passID, stamp)
	return args.Error(0)
}
func (m *MockUserRepository) MarkPassRejected(ctx context.Context, passID primitive.ObjectID, reason, adminName, adminEmail string, at time.Time) error {
	args := m.Called(ctx, passID, reason, adminName, adminEmail, at)
	return args.Error(0)
}
func (m *MockUserRepository) CompleteGate(ctx context.Context, passID primitive.ObjectID, stamp repository.GateStamp) error {
	args := m.Called(ctx, passID, stamp)
	return args.Error(0)
}
func (m *MockUserRepository) UpdatePassTransaction(ctx context.Context, passID primitive.ObjectID, transactionNumber string) error {
	args := m.Called(ctx, passID, transactionNumber)
	return args.Error(0)
}
func (m *MockUserRepository) TransactionExists(ctx context.Context, rawTransactionNumber string) (bool, error) {
	args := m.Called(ctx, rawTransactionNumber)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserRepository) UnmappedCollegeGroups(ctx context.Context) ([]entity.UnmappedGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UnmappedGroup), args.Error(1)
}
func (m *MockUserRepository) BulkAssignCollegeByKeys(ctx context.Context, collegeID primitive.ObjectID, collegeName string, normalizedKeys []string) (int64, error) {
	args := m.Called(ctx, collegeID, collegeName, normalizedKeys)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockUserRepository) BulkAssignCollegeByIDs(ctx context.Context, collegeID primitive.ObjectID, collegeName string, userIDs []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, collegeID, collegeName, userIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockCollegeRepository struct{ mock.Mock }

func (m *MockCollegeRepository) Create(ctx context.Context, college *entity.College) (primitive.ObjectID, error) {
	args := m.Called(ctx, college)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockCollegeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.College, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.College), args.Error(1)
}
func (m *MockCollegeRepository) FindByNameInsensitive(ctx context.Context, name string) (*entity.College, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.College), args.Error(1)
}
func (m *MockCollegeRepository) List(ctx context.Context) ([]*entity.College, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.College), args.Error(1)
}

type MockAuditRepository struct{ mock.Mock }

func (m *MockAuditRepository) AppendMergeLog(ctx context.Context, log *entity.CollegeMergeLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}
func (m *MockAuditRepository) ListMergeLogs(ctx context.Context, limit int64) ([]*entity.CollegeMergeLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.CollegeMergeLog), args.Error(1)
}
func (m *MockAuditRepository) AppendVerificationSession(ctx context.Context, session *entity.VerificationSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// stubTxRunner runs fn directly, mirroring the standalone-deployment path.
type stubTxRunner struct{}

func (stubTxRunner) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendPaymentVerified(toEmail, toName string, passType int) error {
	args := m.Called(toEmail, toName, passType)
	return args.Error(0)
}
func (m *MockMailer) SendPaymentRejected(toEmail, toName, reason string) error {
	args := m.Called(toEmail, toName, reason)
	return args.Error(0)
}
func (m *MockMailer) SendOnspotConfirmation(toEmail, toName, userID string) error {
	args := m.Called(toEmail, toName, userID)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishCollegeMerged(ctx context.Context, log *entity.CollegeMergeLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishPassVerified(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error {
	args := m.Called(ctx, user, pass, actor)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishPassRejected(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error {
	args := m.Called(ctx, user, pass, actor)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishPassGateAllowed(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error {
	args := m.Called(ctx, user, pass, actor)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishOnspotRegistered(ctx context.Context, user *entity.User, actor string) error {
	args := m.Called(ctx, user, actor)
	return args.Error(0)
}

type MockAdminRepository struct{ mock.Mock }

func (m *MockAdminRepository) CreateAdmin(ctx context.Context, admin *entity.Admin) (primitive.ObjectID, error) {
	args := m.Called(ctx, admin)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockAdminRepository) GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}
func (m *MockAdminRepository) GetAdminByID(ctx context.Context, id primitive.ObjectID) (*entity.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}
func (m *MockAdminRepository) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAdminRepository) CacheToken(ctx context.Context, adminID, token string, expiration time.Duration) error {
	args := m.Called(ctx, adminID, token, expiration)
	return args.Error(0)
}
func (m *MockAdminRepository) GetToken(ctx context.Context, adminID string) (string, error) {
	args := m.Called(ctx, adminID)
	return args.String(0), args.Error(1)
}
func (m *MockAdminRepository) InvalidateToken(ctx context.Context, adminID string) error {
	args := m.Called(ctx, adminID)
	return args.Error(0)
}
