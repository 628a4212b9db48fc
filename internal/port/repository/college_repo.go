package repository

import (
	"context"
	"errors"

	"github.com/festivalhq/admin-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrCollegeNotFound = errors.New("college not found")

type CollegeRepository interface {
	Create(ctx context.Context, college *entity.College) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.College, error)
	// FindByNameInsensitive matches the trimmed name case-insensitively.
	// Returns ErrCollegeNotFound when no record matches.
	FindByNameInsensitive(ctx context.Context, name string) (*entity.College, error)
	List(ctx context.Context) ([]*entity.College, error)
}
