package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/festivalhq/admin-service/internal/auth"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/mailer"
	"github.com/festivalhq/admin-service/internal/platform/metrics"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrEmailRequired   = errors.New("email is required")
	ErrInvalidYear     = errors.New("year must be between 1 and 5")
	ErrInvalidPassType = errors.New("pass type must be between 1 and 4")
)

// OnspotEventPublisher publishes on-spot registration events. Best-effort.
type OnspotEventPublisher interface {
	PublishOnspotRegistered(ctx context.Context, user *entity.User, actor string) error
}

// OnspotUseCase registers walk-in attendees: a new user plus a single
// pre-verified pass in one step, bypassing the payment-submission flow.
type OnspotUseCase struct {
	userRepo    repository.UserRepository
	collegeRepo repository.CollegeRepository
	reconcile   *ReconciliationUseCase
	mail        mailer.Mailer
	publisher   OnspotEventPublisher
	metrics     *metrics.MetricsManager
	logger      *zap.Logger
}

func NewOnspotUseCase(
	userRepo repository.UserRepository,
	collegeRepo repository.CollegeRepository,
	reconcile *ReconciliationUseCase,
	mail mailer.Mailer,
	publisher OnspotEventPublisher,
	mm *metrics.MetricsManager,
	logger *zap.Logger,
) *OnspotUseCase {
	return &OnspotUseCase{
		userRepo:    userRepo,
		collegeRepo: collegeRepo,
		reconcile:   reconcile,
		mail:        mail,
		publisher:   publisher,
		metrics:     mm,
		logger:      logger,
	}
}

type OnspotInput struct {
	Name       string
	Email      string
	PhoneNo    string
	Year       int
	Department string
	PassType   int
	// CollegeID, when supplied, is authoritative. Otherwise CollegeName is
	// resolved case-insensitively, creating an auto-approved college when
	// no match exists.
	CollegeID    string
	CollegeName  string
	CollegeCity  string
	CollegeState string
}

type OnspotResult struct {
	User     *entity.User
	Warnings []string
}

// Register creates the user with its verified pass and fires the
// confirmation email asynchronously; a failed send is swallowed after
// logging, never failing the registration.
func (uc *OnspotUseCase) Register(ctx context.Context, actor entity.Actor, input OnspotInput) (*OnspotResult, error) {
	if !auth.Allowed(auth.OpOnspotRegister, actor.Role) {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if input.Year < entity.MinYear || input.Year > entity.MaxYear {
		return nil, ErrInvalidYear
	}
	if input.PassType < entity.MinPassType || input.PassType > entity.MaxPassType {
		return nil, ErrInvalidPassType
	}

	var warnings []string
	college, err := uc.resolveCollege(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pass := entity.Pass{
		PassType:           input.PassType,
		Status:             entity.PassStatusVerified,
		GateStatus:         entity.GateStatusNotChecked,
		TransactionNumber:  synthesizeTransactionNumber(now),
		PaymentIDType:      "cash",
		VerificationSource: entity.VerificationSourceOnspot,
		VerifiedBy:         actor.Name,
		VerifiedByEmail:    actor.Email,
		VerifiedDate:       &now,
	}

	user := &entity.User{
		Name:                name,
		Email:               email,
		PhoneNo:             strings.TrimSpace(input.PhoneNo),
		Year:                input.Year,
		Department:          strings.TrimSpace(input.Department),
		OnboardingCompleted: true,
		Passes:              []entity.Pass{pass},
	}
	if college != nil {
		user.College = college.Name
		user.CollegeID = &college.ID
	}

	userID, err := uc.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = userID

	if uc.metrics != nil {
		uc.metrics.OnspotRegistrations.Inc()
	}

	if uc.mail != nil {
		go func(toEmail, toName, id string) {
			if mailErr := uc.mail.SendOnspotConfirmation(toEmail, toName, id); mailErr != nil {
				uc.logger.Warn("On-spot confirmation email failed",
					zap.String("userID", id), zap.Error(mailErr))
			}
		}(user.Email, user.Name, user.ID.Hex())
	}

	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishOnspotRegistered(ctx, user, actor.Email); pubErr != nil {
			uc.logger.Warn("On-spot registration committed but event publish failed",
				zap.String("userID", user.ID.Hex()), zap.Error(pubErr))
			warnings = append(warnings, "registration committed, but event publish failed")
		}
	}

	uc.logger.Info("On-spot registration completed",
		zap.String("userID", user.ID.Hex()),
		zap.String("registeredBy", actor.Email))
	return &OnspotResult{User: user, Warnings: warnings}, nil
}

func (uc *OnspotUseCase) resolveCollege(ctx context.Context, actor entity.Actor, input OnspotInput) (*entity.College, error) {
	if input.CollegeID != "" {
		id, err := primitive.ObjectIDFromHex(input.CollegeID)
		if err != nil {
			return nil, repository.ErrCollegeNotFound
		}
		return uc.collegeRepo.GetByID(ctx, id)
	}

	name := strings.TrimSpace(input.CollegeName)
	if name == "" {
		return nil, nil
	}

	existing, err := uc.collegeRepo.FindByNameInsensitive(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrCollegeNotFound) {
		return nil, err
	}

	// A human admin is physically present, so the new college is
	// auto-approved. The duplicate check above still applies.
	college := &entity.College{
		Name:      name,
		City:      strings.TrimSpace(input.CollegeCity),
		State:     strings.TrimSpace(input.CollegeState),
		Approved:  true,
		CreatedBy: actor.Email,
	}
	id, err := uc.collegeRepo.Create(ctx, college)
	if err != nil {
		return nil, err
	}
	college.ID = id
	uc.reconcile.invalidateCollegeListCache(ctx)
	return college, nil
}

func synthesizeTransactionNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("ONSPOT-%d-%s", now.Unix(), suffix)
}
