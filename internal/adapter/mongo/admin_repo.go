package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mongoAdmin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	IsActive  bool               `bson:"is_active"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m *mongoAdmin) toEntity() *entity.Admin {
	return &entity.Admin{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Password:  m.Password,
		Role:      m.Role,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// AdminRepository stores admin accounts in mongo and session tokens in redis.
type AdminRepository struct {
	db     *mongo.Database
	redis  *redis.Client
	logger *zap.Logger
}

func NewAdminRepository(db *mongo.Database, rds *redis.Client, logger *zap.Logger) *AdminRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := db.Collection("admins").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Warn("Failed to create indexes for admins collection (may already exist)", zap.Error(err))
	}

	return &AdminRepository{
		db:     db,
		redis:  rds,
		logger: logger.Named("AdminRepository"),
	}
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, admin *entity.Admin) (primitive.ObjectID, error) {
	r.logger.Info("Attempting to create admin in repository", zap.String("email", admin.Email))
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		r.logger.Error("Failed to hash password during admin creation", zap.String("email", admin.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}

	now := time.Now()
	dbAdmin := &mongoAdmin{
		ID:        primitive.NewObjectID(),
		Name:      admin.Name,
		Email:     strings.ToLower(admin.Email),
		Password:  string(hashedPassword),
		Role:      admin.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.Collection("admins").InsertOne(ctx, dbAdmin)
	if err != nil {
		r.logger.Error("Database error during admin creation", zap.String("email", admin.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}
	r.logger.Info("Admin created successfully in repository", zap.String("adminID", dbAdmin.ID.Hex()))
	return dbAdmin.ID, nil
}

func (r *AdminRepository) GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	r.logger.Debug("Attempting to get admin by email from repository", zap.String("email", email))
	var dbAdmin mongoAdmin
	err := r.db.Collection("admins").FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&dbAdmin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrAdminNotFound
		}
		r.logger.Error("Database error fetching admin by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return dbAdmin.toEntity(), nil
}

func (r *AdminRepository) GetAdminByID(ctx context.Context, id primitive.ObjectID) (*entity.Admin, error) {
	var dbAdmin mongoAdmin
	err := r.db.Collection("admins").FindOne(ctx, bson.M{"_id": id}).Decode(&dbAdmin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrAdminNotFound
		}
		r.logger.Error("Database error fetching admin by ID", zap.String("adminID", id.Hex()), zap.Error(err))
		return nil, err
	}
	return dbAdmin.toEntity(), nil
}

func (r *AdminRepository) CountAdmins(ctx context.Context) (int64, error) {
	count, err := r.db.Collection("admins").CountDocuments(ctx, bson.M{})
	if err != nil {
		r.logger.Error("DB error counting admins", zap.Error(err))
		return 0, err
	}
	return count, nil
}

// CacheToken stores a session token in Redis.
func (r *AdminRepository) CacheToken(ctx context.Context, adminID, token string, expiration time.Duration) error {
	return r.redis.Set(ctx, "token:"+adminID, token, expiration).Err()
}

// GetToken retrieves a session token from Redis.
func (r *AdminRepository) GetToken(ctx context.Context, adminID string) (string, error) {
	token, err := r.redis.Get(ctx, "token:"+adminID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // Token not found is not an application error here
	}
	return token, err
}

// InvalidateToken removes a session token from Redis.
func (r *AdminRepository) InvalidateToken(ctx context.Context, adminID string) error {
	return r.redis.Del(ctx, "token:"+adminID).Err()
}
