package mongo

import (
	"context"
	"errors"
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

type mongoPass struct {
	ID                   primitive.ObjectID `bson:"_id"`
	PassType             int                `bson:"pass_type"`
	Status               string             `bson:"status"`
	GateStatus           string             `bson:"gate_status"`
	TransactionNumber    string             `bson:"transaction_number"`
	PaymentIDType        string             `bson:"payment_id_type,omitempty"`
	VerificationSource   string             `bson:"verification_source,omitempty"`
	VerifiedBy           string             `bson:"verified_by,omitempty"`
	VerifiedByEmail      string             `bson:"verified_by_email,omitempty"`
	VerifiedDate         *time.Time         `bson:"verified_date,omitempty"`
	RejectionReason      string             `bson:"rejection_reason,omitempty"`
	GateCheckedAt        *time.Time         `bson:"gate_checked_at,omitempty"`
	GateCheckedByAdminID string             `bson:"gate_checked_by_admin_id,omitempty"`
	GateCheckedByPanelID string             `bson:"gate_checked_by_panel_id,omitempty"`
	CreatedAt            time.Time          `bson:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at"`
}

type mongoUser struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty"`
	Name                string              `bson:"name"`
	Email               string              `bson:"email"`
	PhoneNo             string              `bson:"phone_no,omitempty"`
	Year                int                 `bson:"year,omitempty"`
	Department          string              `bson:"department,omitempty"`
	College             string              `bson:"college,omitempty"`
	CollegeID           *primitive.ObjectID `bson:"college_id,omitempty"`
	IsEmailVerified     bool                `bson:"is_email_verified"`
	OnboardingCompleted bool                `bson:"onboarding_completed"`
	HasVerifiedPass     bool                `bson:"has_verified_pass"`
	Passes              []mongoPass         `bson:"passes,omitempty"`
	CreatedAt           time.Time           `bson:"created_at"`
	UpdatedAt           time.Time           `bson:"updated_at"`
}

func (m *mongoUser) toEntity() *entity.User {
	u := &entity.User{
		ID:                  m.ID,
		Name:                m.Name,
		Email:               m.Email,
		PhoneNo:             m.PhoneNo,
		Year:                m.Year,
		Department:          m.Department,
		College:             m.College,
		CollegeID:           m.CollegeID,
		IsEmailVerified:     m.IsEmailVerified,
		OnboardingCompleted: m.OnboardingCompleted,
		HasVerifiedPass:     m.HasVerifiedPass,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	for _, p := range m.Passes {
		u.Passes = append(u.Passes, entity.Pass(p))
	}
	return u
}

func fromEntity(e *entity.User) *mongoUser {
	m := &mongoUser{
		ID:                  e.ID,
		Name:                e.Name,
		Email:               e.Email,
		PhoneNo:             e.PhoneNo,
		Year:                e.Year,
		Department:          e.Department,
		College:             e.College,
		CollegeID:           e.CollegeID,
		IsEmailVerified:     e.IsEmailVerified,
		OnboardingCompleted: e.OnboardingCompleted,
		HasVerifiedPass:     e.HasVerifiedPass,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
	for _, p := range e.Passes {
		m.Passes = append(m.Passes, mongoPass(p))
	}
	return m
}

type UserRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewUserRepository(db *mongo.Database, logger *zap.Logger) *UserRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure indexes (idempotent operation). Email uniqueness is
	// case-insensitive via collation strength 2.
	userCollection := db.Collection("users")
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
		{Keys: bson.D{{Key: "passes._id", Value: 1}}},
		{Keys: bson.D{{Key: "college_id", Value: 1}}},
	}
	_, err := userCollection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Warn("Failed to create indexes for users collection (may already exist)", zap.Error(err))
	} else {
		logger.Info("Successfully ensured indexes for users collection")
	}

	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error) {
	r.logger.Info("Attempting to create user in repository", zap.String("email", user.Email))

	dbUser := fromEntity(user)
	if dbUser.ID.IsZero() {
		dbUser.ID = primitive.NewObjectID()
	}
	now := time.Now()
	dbUser.CreatedAt = now
	dbUser.UpdatedAt = now
	for i := range dbUser.Passes {
		if dbUser.Passes[i].ID.IsZero() {
			dbUser.Passes[i].ID = primitive.NewObjectID()
		}
		dbUser.Passes[i].CreatedAt = now
		dbUser.Passes[i].UpdatedAt = now
		// Callers return the created passes, so the generated ids and
		// timestamps flow back onto the entity.
		user.Passes[i].ID = dbUser.Passes[i].ID
		user.Passes[i].CreatedAt = now
		user.Passes[i].UpdatedAt = now
	}

	_, err := r.db.Collection("users").InsertOne(ctx, dbUser)
	if err != nil {
		var writeException mongo.WriteException
		if errors.As(err, &writeException) {
			for _, writeError := range writeException.WriteErrors {
				if writeError.Code == 11000 && strings.Contains(writeError.Message, "email_1") {
					r.logger.Warn("Duplicate email during user creation", zap.String("email", user.Email), zap.Error(writeError))
					return primitive.NilObjectID, repository.ErrDuplicateEmail
				}
			}
		}
		r.logger.Error("Database error during user creation", zap.String("email", user.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}
	r.logger.Info("User created successfully in repository", zap.String("userID", dbUser.ID.Hex()))
	return dbUser.ID, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error) {
	r.logger.Debug("Attempting to get user by ID from repository", zap.String("userID", userID.Hex()))
	var dbUser mongoUser
	err := r.db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by ID in repository", zap.String("userID", userID.Hex()))
			return nil, repository.ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by ID", zap.String("userID", userID.Hex()), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

// GetUserByPassID finds the user owning the given pass. The pass is the
// addressable entity from the caller's perspective, so a miss is reported
// as pass-not-found.
func (r *UserRepository) GetUserByPassID(ctx context.Context, passID primitive.ObjectID) (*entity.User, error) {
	r.logger.Debug("Attempting to get user by pass ID from repository", zap.String("passID", passID.Hex()))
	var dbUser mongoUser
	err := r.db.Collection("users").FindOne(ctx, bson.M{"passes._id": passID}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("Pass not found in repository", zap.String("passID", passID.Hex()))
			return nil, repository.ErrPassNotFound
		}
		r.logger.Error("Database error fetching user by pass ID", zap.String("passID", passID.Hex()), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

func (r *UserRepository) ListUsersWithPasses(ctx context.Context) ([]*entity.User, error) {
	r.logger.Debug("Listing users with passes")
	findOptions := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := r.db.Collection("users").Find(ctx, bson.M{"passes.0": bson.M{"$exists": true}}, findOptions)
	if err != nil {
		r.logger.Error("DB error listing users with passes", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var dbUsers []*mongoUser
	if err = cursor.All(ctx, &dbUsers); err != nil {
		r.logger.Error("Error decoding listed users", zap.Error(err))
		return nil, err
	}

	var users []*entity.User
	for _, dbUser := range dbUsers {
		users = append(users, dbUser.toEntity())
	}
	r.logger.Debug("Users with passes listed successfully", zap.Int("count", len(users)))
	return users, nil
}

func (r *UserRepository) MarkPassVerified(ctx context.Context, passID primitive.ObjectID, stamp repository.VerificationStamp) error {
	r.logger.Info("Marking pass as verified", zap.String("passID", passID.Hex()), zap.String("verifiedBy", stamp.AdminEmail))

	set := bson.M{
		"passes.$.status":            entity.PassStatusVerified,
		"passes.$.verified_by":       stamp.AdminName,
		"passes.$.verified_by_email": stamp.AdminEmail,
		"passes.$.verified_date":     stamp.At,
		"passes.$.payment_id_type":   stamp.PaymentIDType,
		"passes.$.updated_at":        stamp.At,
		"updated_at":                 stamp.At,
	}
	if stamp.TransactionNumber != "" {
		set["passes.$.transaction_number"] = stamp.TransactionNumber
	}

	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"passes._id": passID}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("DB error marking pass as verified", zap.String("passID", passID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Pass not found for verification", zap.String("passID", passID.Hex()))
		return repository.ErrPassNotFound
	}
	r.logger.Info("Pass marked as verified", zap.String("passID", passID.Hex()))
	return nil
}

func (r *UserRepository) MarkPassRejected(ctx context.Context, passID primitive.ObjectID, reason, adminName, adminEmail string, at time.Time) error {
	r.logger.Info("Marking pass as rejected", zap.String("passID", passID.Hex()), zap.String("rejectedBy", adminEmail))

	update := bson.M{
		"$set": bson.M{
			"passes.$.status":            entity.PassStatusRejected,
			"passes.$.rejection_reason":  reason,
			"passes.$.verified_by":       adminName,
			"passes.$.verified_by_email": adminEmail,
			"passes.$.verified_date":     at,
			"passes.$.updated_at":        at,
			"updated_at":                 at,
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"passes._id": passID}, update)
	if err != nil {
		r.logger.Error("DB error marking pass as rejected", zap.String("passID", passID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Pass not found for rejection", zap.String("passID", passID.Hex()))
		return repository.ErrPassNotFound
	}
	r.logger.Info("Pass marked as rejected", zap.String("passID", passID.Hex()))
	return nil
}

func (r *UserRepository) CompleteGate(ctx context.Context, passID primitive.ObjectID, stamp repository.GateStamp) error {
	r.logger.Info("Completing gate check for pass", zap.String("passID", passID.Hex()), zap.String("adminID", stamp.AdminID))

	update := bson.M{
		"$set": bson.M{
			"passes.$.gate_status":              entity.GateStatusAllowed,
			"passes.$.gate_checked_at":          stamp.At,
			"passes.$.gate_checked_by_admin_id": stamp.AdminID,
			"passes.$.gate_checked_by_panel_id": stamp.PanelID,
			"passes.$.updated_at":               stamp.At,
			"has_verified_pass":                 true,
			"updated_at":                        stamp.At,
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"passes._id": passID}, update)
	if err != nil {
		r.logger.Error("DB error completing gate check", zap.String("passID", passID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Pass not found for gate completion", zap.String("passID", passID.Hex()))
		return repository.ErrPassNotFound
	}
	r.logger.Info("Gate check completed", zap.String("passID", passID.Hex()))
	return nil
}

func (r *UserRepository) UpdatePassTransaction(ctx context.Context, passID primitive.ObjectID, transactionNumber string) error {
	r.logger.Info("Updating pass transaction number", zap.String("passID", passID.Hex()))

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"passes.$.transaction_number": transactionNumber,
			"passes.$.updated_at":         now,
			"updated_at":                  now,
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"passes._id": passID}, update)
	if err != nil {
		r.logger.Error("DB error updating pass transaction number", zap.String("passID", passID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Pass not found for transaction update", zap.String("passID", passID.Hex()))
		return repository.ErrPassNotFound
	}
	return nil
}

// TransactionExists is an exact-match check across every pass of every user,
// independent of the normalized duplicate heuristic used by the listing.
func (r *UserRepository) TransactionExists(ctx context.Context, rawTransactionNumber string) (bool, error) {
	count, err := r.db.Collection("users").CountDocuments(ctx, bson.M{"passes.transaction_number": rawTransactionNumber})
	if err != nil {
		r.logger.Error("DB error checking transaction existence", zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

// UnmappedCollegeGroups groups users that have no canonical college by the
// trimmed+lowercased free-text name. Ordering is deterministic by key.
func (r *UserRepository) UnmappedCollegeGroups(ctx context.Context) ([]entity.UnmappedGroup, error) {
	r.logger.Debug("Aggregating unmapped college groups")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"college_id": nil,
			"college":    bson.M{"$nin": bson.A{nil, ""}},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"normalized_college": bson.M{"$toLower": bson.M{"$trim": bson.M{"input": "$college"}}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$normalized_college",
			"display_name": bson.M{"$first": "$college"},
			"total_users":  bson.M{"$sum": 1},
			"user_ids":     bson.M{"$push": "$_id"},
			"variants":     bson.M{"$addToSet": "$college"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.db.Collection("users").Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("DB error aggregating unmapped college groups", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		NormalizedKey string               `bson:"_id"`
		DisplayName   string               `bson:"display_name"`
		TotalUsers    int64                `bson:"total_users"`
		UserIDs       []primitive.ObjectID `bson:"user_ids"`
		Variants      []string             `bson:"variants"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		r.logger.Error("Error decoding unmapped college groups", zap.Error(err))
		return nil, err
	}

	groups := make([]entity.UnmappedGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, entity.UnmappedGroup{
			NormalizedKey: row.NormalizedKey,
			DisplayName:   row.DisplayName,
			TotalUsers:    row.TotalUsers,
			UserIDs:       row.UserIDs,
			Variants:      row.Variants,
		})
	}
	r.logger.Debug("Unmapped college groups aggregated", zap.Int("groups", len(groups)))
	return groups, nil
}

// BulkAssignCollegeByKeys reassigns every still-unmapped user whose
// normalized college name is in normalizedKeys to the target college, in a
// single multi-document update. The match predicate is keyed off the current
// value of college/college_id, so concurrent merges over disjoint key sets
// cannot interfere.
func (r *UserRepository) BulkAssignCollegeByKeys(ctx context.Context, collegeID primitive.ObjectID, collegeName string, normalizedKeys []string) (int64, error) {
	r.logger.Info("Bulk assigning college by normalized keys",
		zap.String("collegeID", collegeID.Hex()),
		zap.Int("keys", len(normalizedKeys)))

	keys := bson.A{}
	for _, k := range normalizedKeys {
		keys = append(keys, k)
	}
	filter := bson.M{
		"college_id": nil,
		"college":    bson.M{"$nin": bson.A{nil, ""}},
		"$expr": bson.M{
			"$in": bson.A{
				bson.M{"$toLower": bson.M{"$trim": bson.M{"input": "$college"}}},
				keys,
			},
		},
	}
	update := bson.M{"$set": bson.M{
		"college_id": collegeID,
		"college":    collegeName,
		"updated_at": time.Now(),
	}}

	result, err := r.db.Collection("users").UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("DB error during bulk college assignment by keys", zap.String("collegeID", collegeID.Hex()), zap.Error(err))
		return 0, err
	}
	r.logger.Info("Bulk college assignment by keys completed",
		zap.String("collegeID", collegeID.Hex()),
		zap.Int64("modified", result.ModifiedCount))
	return result.ModifiedCount, nil
}

// BulkAssignCollegeByIDs is the legacy explicit-id path. Only users still
// lacking a canonical college are touched.
func (r *UserRepository) BulkAssignCollegeByIDs(ctx context.Context, collegeID primitive.ObjectID, collegeName string, userIDs []primitive.ObjectID) (int64, error) {
	r.logger.Info("Bulk assigning college by user ids",
		zap.String("collegeID", collegeID.Hex()),
		zap.Int("users", len(userIDs)))

	filter := bson.M{
		"_id":        bson.M{"$in": userIDs},
		"college_id": nil,
	}
	update := bson.M{"$set": bson.M{
		"college_id": collegeID,
		"college":    collegeName,
		"updated_at": time.Now(),
	}}

	result, err := r.db.Collection("users").UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("DB error during bulk college assignment by ids", zap.String("collegeID", collegeID.Hex()), zap.Error(err))
		return 0, err
	}
	r.logger.Info("Bulk college assignment by ids completed",
		zap.String("collegeID", collegeID.Hex()),
		zap.Int64("modified", result.ModifiedCount))
	return result.ModifiedCount, nil
}
