package mongo

import (
	"context"
	"time"

	"github.com/festivalhq/admin-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoMergeLog struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	CollegeID      primitive.ObjectID   `bson:"college_id"`
	CollegeName    string               `bson:"college_name"`
	NormalizedKeys []string             `bson:"normalized_keys,omitempty"`
	UserIDs        []primitive.ObjectID `bson:"user_ids,omitempty"`
	ModifiedCount  int64                `bson:"modified_count"`
	MergedBy       string               `bson:"merged_by"`
	CreatedAt      time.Time            `bson:"created_at"`
}

type mongoVerificationSession struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	PassID            primitive.ObjectID `bson:"pass_id"`
	UserID            primitive.ObjectID `bson:"user_id"`
	UserName          string             `bson:"user_name"`
	UserEmail         string             `bson:"user_email"`
	UserPhoneNo       string             `bson:"user_phone_no,omitempty"`
	Year              int                `bson:"year,omitempty"`
	Department        string             `bson:"department,omitempty"`
	CollegeName       string             `bson:"college_name,omitempty"`
	PassType          int                `bson:"pass_type"`
	TransactionNumber string             `bson:"transaction_number,omitempty"`
	AdminID           string             `bson:"admin_id"`
	AdminEmail        string             `bson:"admin_email,omitempty"`
	PanelID           string             `bson:"panel_id,omitempty"`
	IDChecked         bool               `bson:"id_checked"`
	PaymentChecked    bool               `bson:"payment_checked"`
	WristbandIssued   bool               `bson:"wristband_issued"`
	CreatedAt         time.Time          `bson:"created_at"`
}

// AuditRepository persists the two append-only audit collections:
// college_merge_logs and verification_sessions.
type AuditRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewAuditRepository(db *mongo.Database, logger *zap.Logger) *AuditRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Collection("verification_sessions").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pass_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		logger.Warn("Failed to create indexes for verification_sessions (may already exist)", zap.Error(err))
	}

	return &AuditRepository{
		db:     db,
		logger: logger.Named("AuditRepository"),
	}
}

func (r *AuditRepository) AppendMergeLog(ctx context.Context, log *entity.CollegeMergeLog) error {
	r.logger.Info("Appending college merge log",
		zap.String("collegeID", log.CollegeID.Hex()),
		zap.Int64("modifiedCount", log.ModifiedCount))

	dbLog := &mongoMergeLog{
		ID:             primitive.NewObjectID(),
		CollegeID:      log.CollegeID,
		CollegeName:    log.CollegeName,
		NormalizedKeys: log.NormalizedKeys,
		UserIDs:        log.UserIDs,
		ModifiedCount:  log.ModifiedCount,
		MergedBy:       log.MergedBy,
		CreatedAt:      time.Now(),
	}
	_, err := r.db.Collection("college_merge_logs").InsertOne(ctx, dbLog)
	if err != nil {
		r.logger.Error("DB error appending merge log", zap.String("collegeID", log.CollegeID.Hex()), zap.Error(err))
		return err
	}
	log.ID = dbLog.ID
	log.CreatedAt = dbLog.CreatedAt
	return nil
}

func (r *AuditRepository) ListMergeLogs(ctx context.Context, limit int64) ([]*entity.CollegeMergeLog, error) {
	r.logger.Debug("Listing merge logs", zap.Int64("limit", limit))
	findOptions := options.Find().SetSort(bson.M{"created_at": -1})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.db.Collection("college_merge_logs").Find(ctx, bson.M{}, findOptions)
	if err != nil {
		r.logger.Error("DB error listing merge logs", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var dbLogs []*mongoMergeLog
	if err = cursor.All(ctx, &dbLogs); err != nil {
		r.logger.Error("Error decoding merge logs", zap.Error(err))
		return nil, err
	}

	var logs []*entity.CollegeMergeLog
	for _, dbLog := range dbLogs {
		logs = append(logs, &entity.CollegeMergeLog{
			ID:             dbLog.ID,
			CollegeID:      dbLog.CollegeID,
			CollegeName:    dbLog.CollegeName,
			NormalizedKeys: dbLog.NormalizedKeys,
			UserIDs:        dbLog.UserIDs,
			ModifiedCount:  dbLog.ModifiedCount,
			MergedBy:       dbLog.MergedBy,
			CreatedAt:      dbLog.CreatedAt,
		})
	}
	return logs, nil
}

func (r *AuditRepository) AppendVerificationSession(ctx context.Context, session *entity.VerificationSession) error {
	r.logger.Info("Appending verification session",
		zap.String("passID", session.PassID.Hex()),
		zap.String("adminID", session.AdminID))

	dbSession := &mongoVerificationSession{
		ID:                primitive.NewObjectID(),
		PassID:            session.PassID,
		UserID:            session.UserID,
		UserName:          session.UserName,
		UserEmail:         session.UserEmail,
		UserPhoneNo:       session.UserPhoneNo,
		Year:              session.Year,
		Department:        session.Department,
		CollegeName:       session.CollegeName,
		PassType:          session.PassType,
		TransactionNumber: session.TransactionNumber,
		AdminID:           session.AdminID,
		AdminEmail:        session.AdminEmail,
		PanelID:           session.PanelID,
		IDChecked:         session.Checklist.IDChecked,
		PaymentChecked:    session.Checklist.PaymentChecked,
		WristbandIssued:   session.Checklist.WristbandIssued,
		CreatedAt:         time.Now(),
	}
	_, err := r.db.Collection("verification_sessions").InsertOne(ctx, dbSession)
	if err != nil {
		r.logger.Error("DB error appending verification session", zap.String("passID", session.PassID.Hex()), zap.Error(err))
		return err
	}
	session.ID = dbSession.ID
	session.CreatedAt = dbSession.CreatedAt
	return nil
}
