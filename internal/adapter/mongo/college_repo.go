package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoCollege struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	City      string             `bson:"city,omitempty"`
	State     string             `bson:"state,omitempty"`
	Approved  bool               `bson:"approved"`
	CreatedBy string             `bson:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m *mongoCollege) toEntity() *entity.College {
	return &entity.College{
		ID:        m.ID,
		Name:      m.Name,
		City:      m.City,
		State:     m.State,
		Approved:  m.Approved,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type CollegeRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewCollegeRepository(db *mongo.Database, logger *zap.Logger) *CollegeRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Name uniqueness is checked case-insensitively at write time, not by a
	// hard constraint; the index only serves the lookup.
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	_, err := db.Collection("colleges").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Warn("Failed to create indexes for colleges collection (may already exist)", zap.Error(err))
	}

	return &CollegeRepository{
		db:     db,
		logger: logger.Named("CollegeRepository"),
	}
}

func (r *CollegeRepository) Create(ctx context.Context, college *entity.College) (primitive.ObjectID, error) {
	r.logger.Info("Creating college", zap.String("name", college.Name))

	now := time.Now()
	dbCollege := &mongoCollege{
		ID:        primitive.NewObjectID(),
		Name:      college.Name,
		City:      college.City,
		State:     college.State,
		Approved:  college.Approved,
		CreatedBy: college.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.Collection("colleges").InsertOne(ctx, dbCollege)
	if err != nil {
		r.logger.Error("DB error creating college", zap.String("name", college.Name), zap.Error(err))
		return primitive.NilObjectID, err
	}
	r.logger.Info("College created successfully", zap.String("collegeID", dbCollege.ID.Hex()))
	return dbCollege.ID, nil
}

func (r *CollegeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.College, error) {
	r.logger.Debug("Fetching college by ID", zap.String("collegeID", id.Hex()))
	var dbCollege mongoCollege
	err := r.db.Collection("colleges").FindOne(ctx, bson.M{"_id": id}).Decode(&dbCollege)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("College not found by ID", zap.String("collegeID", id.Hex()))
			return nil, repository.ErrCollegeNotFound
		}
		r.logger.Error("DB error fetching college by ID", zap.String("collegeID", id.Hex()), zap.Error(err))
		return nil, err
	}
	return dbCollege.toEntity(), nil
}

func (r *CollegeRepository) FindByNameInsensitive(ctx context.Context, name string) (*entity.College, error) {
	trimmed := strings.TrimSpace(name)
	pattern := fmt.Sprintf("^%s$", regexp.QuoteMeta(trimmed))
	filter := bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}}

	var dbCollege mongoCollege
	err := r.db.Collection("colleges").FindOne(ctx, filter).Decode(&dbCollege)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCollegeNotFound
		}
		r.logger.Error("DB error during case-insensitive college lookup", zap.String("name", trimmed), zap.Error(err))
		return nil, err
	}
	return dbCollege.toEntity(), nil
}

func (r *CollegeRepository) List(ctx context.Context) ([]*entity.College, error) {
	r.logger.Debug("Listing colleges")
	findOptions := options.Find().SetSort(bson.M{"name": 1})

	cursor, err := r.db.Collection("colleges").Find(ctx, bson.M{}, findOptions)
	if err != nil {
		r.logger.Error("DB error listing colleges", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var dbColleges []*mongoCollege
	if err = cursor.All(ctx, &dbColleges); err != nil {
		r.logger.Error("Error decoding listed colleges", zap.Error(err))
		return nil, err
	}

	var colleges []*entity.College
	for _, dbCollege := range dbColleges {
		colleges = append(colleges, dbCollege.toEntity())
	}
	return colleges, nil
}
