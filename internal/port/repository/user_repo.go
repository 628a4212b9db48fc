package repository

import (
	"context"
	"errors"
	"time"

	"github.com/festivalhq/admin-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPassNotFound   = errors.New("pass not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// VerificationStamp carries the identity and values applied when a pass is
// marked verified.
type VerificationStamp struct {
	AdminName         string
	AdminEmail        string
	PaymentIDType     string
	TransactionNumber string // empty means keep the current value
	At                time.Time
}

// GateStamp carries the identity applied when gate admission is completed.
type GateStamp struct {
	AdminID string
	PanelID string
	At      time.Time
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error)
	GetUserByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error)
	GetUserByPassID(ctx context.Context, passID primitive.ObjectID) (*entity.User, error)
	ListUsersWithPasses(ctx context.Context) ([]*entity.User, error)

	MarkPassVerified(ctx context.Context, passID primitive.ObjectID, stamp VerificationStamp) error
	MarkPassRejected(ctx context.Context, passID primitive.ObjectID, reason, adminName, adminEmail string, at time.Time) error
	CompleteGate(ctx context.Context, passID primitive.ObjectID, stamp GateStamp) error
	UpdatePassTransaction(ctx context.Context, passID primitive.ObjectID, transactionNumber string) error
	TransactionExists(ctx context.Context, rawTransactionNumber string) (bool, error)

	UnmappedCollegeGroups(ctx context.Context) ([]entity.UnmappedGroup, error)
	BulkAssignCollegeByKeys(ctx context.Context, collegeID primitive.ObjectID, collegeName string, normalizedKeys []string) (int64, error)
	BulkAssignCollegeByIDs(ctx context.Context, collegeID primitive.ObjectID, collegeName string, userIDs []primitive.ObjectID) (int64, error)
}
