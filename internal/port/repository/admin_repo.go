package repository

import (
	"context"
	"errors"
	"time"

	"github.com/festivalhq/admin-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *entity.Admin) (primitive.ObjectID, error)
	GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error)
	GetAdminByID(ctx context.Context, id primitive.ObjectID) (*entity.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)

	CacheToken(ctx context.Context, adminID, token string, expiration time.Duration) error
	GetToken(ctx context.Context, adminID string) (string, error)
	InvalidateToken(ctx context.Context, adminID string) error
}
