package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/festivalhq/admin-service/internal/auth"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/mailer"
	"github.com/festivalhq/admin-service/internal/normalize"
	"github.com/festivalhq/admin-service/internal/platform/metrics"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrPassNotPending          = errors.New("pass is not pending")
	ErrPaymentNotVerified      = errors.New("payment must be verified first")
	ErrProfileIncomplete       = errors.New("user profile is incomplete")
	ErrGateAlreadyChecked      = errors.New("gate already checked for this pass")
	ErrPaymentIDTypeRequired   = errors.New("a valid payment id type is required")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrTransactionRequired     = errors.New("transaction number is required")
)

// PassEventPublisher publishes verification events. Best-effort.
type PassEventPublisher interface {
	PublishPassVerified(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error
	PublishPassRejected(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error
	PublishPassGateAllowed(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error
}

// VerificationUseCase drives each pass through its two independent state
// axes: pending→verified/rejected on the payment side, and
// not-checked→allowed on the gate side.
type VerificationUseCase struct {
	userRepo    repository.UserRepository
	collegeRepo repository.CollegeRepository
	auditRepo   repository.AuditRepository
	tx          repository.TxRunner
	mail        mailer.Mailer
	publisher   PassEventPublisher
	metrics     *metrics.MetricsManager
	logger      *zap.Logger
}

func NewVerificationUseCase(
	userRepo repository.UserRepository,
	collegeRepo repository.CollegeRepository,
	auditRepo repository.AuditRepository,
	tx repository.TxRunner,
	mail mailer.Mailer,
	publisher PassEventPublisher,
	mm *metrics.MetricsManager,
	logger *zap.Logger,
) *VerificationUseCase {
	return &VerificationUseCase{
		userRepo:    userRepo,
		collegeRepo: collegeRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		mail:        mail,
		publisher:   publisher,
		metrics:     mm,
		logger:      logger,
	}
}

// PassListItem is one row of the all-passes listing. IsDuplicate is a
// derived property computed per request, never stored.
type PassListItem struct {
	UserID               string
	UserName             string
	UserEmail            string
	College              string
	Pass                 entity.Pass
	IsDuplicate          bool
	HasSpecialCharacters bool
}

// ListPasses returns every pass across every user, flagging passes whose
// normalized transaction number occurs more than once.
func (uc *VerificationUseCase) ListPasses(ctx context.Context, actor entity.Actor) ([]PassListItem, error) {
	if !auth.Allowed(auth.OpPassList, actor.Role) {
		return nil, ErrForbidden
	}

	users, err := uc.userRepo.ListUsersWithPasses(ctx)
	if err != nil {
		return nil, err
	}

	keyCounts := make(map[string]int)
	for _, user := range users {
		for i := range user.Passes {
			key := normalize.TransactionKey(user.Passes[i].TransactionNumber)
			if key == "" {
				continue
			}
			keyCounts[key]++
		}
	}

	var items []PassListItem
	for _, user := range users {
		for i := range user.Passes {
			pass := user.Passes[i]
			key := normalize.TransactionKey(pass.TransactionNumber)
			items = append(items, PassListItem{
				UserID:               user.ID.Hex(),
				UserName:             user.Name,
				UserEmail:            user.Email,
				College:              user.College,
				Pass:                 pass,
				IsDuplicate:          key != "" && keyCounts[key] > 1,
				HasSpecialCharacters: normalize.HasSpecialCharacters(pass.TransactionNumber),
			})
		}
	}
	uc.logger.Debug("Pass listing computed", zap.Int("passes", len(items)))
	return items, nil
}

type VerifyPassInput struct {
	PaymentIDType     string
	TransactionNumber string
}

type VerifyPassResult struct {
	Pass     *entity.Pass
	Warnings []string
}

// VerifyPass is the quick flow that moves a pending pass to verified. It
// never touches the gate axis.
func (uc *VerificationUseCase) VerifyPass(ctx context.Context, actor entity.Actor, passID string, input VerifyPassInput) (*VerifyPassResult, error) {
	if !auth.Allowed(auth.OpPassVerify, actor.Role) {
		return nil, ErrForbidden
	}

	id, err := primitive.ObjectIDFromHex(passID)
	if err != nil {
		return nil, repository.ErrPassNotFound
	}

	user, err := uc.userRepo.GetUserByPassID(ctx, id)
	if err != nil {
		return nil, err
	}
	pass := user.PassByID(id)
	if pass == nil {
		return nil, repository.ErrPassNotFound
	}
	if pass.Status != entity.PassStatusPending {
		uc.logger.Warn("Verify attempted on non-pending pass",
			zap.String("passID", passID),
			zap.String("status", pass.Status))
		return nil, ErrPassNotPending
	}

	paymentIDType := strings.TrimSpace(input.PaymentIDType)
	if paymentIDType == "" {
		paymentIDType = pass.PaymentIDType
	}
	if !entity.ValidPaymentIDTypes[paymentIDType] {
		return nil, ErrPaymentIDTypeRequired
	}

	now := time.Now()
	stamp := repository.VerificationStamp{
		AdminName:         actor.Name,
		AdminEmail:        actor.Email,
		PaymentIDType:     paymentIDType,
		TransactionNumber: strings.TrimSpace(input.TransactionNumber),
		At:                now,
	}
	if err := uc.userRepo.MarkPassVerified(ctx, id, stamp); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PassesVerifiedTotal.Inc()
	}

	pass.Status = entity.PassStatusVerified
	pass.PaymentIDType = paymentIDType
	pass.VerifiedBy = actor.Name
	pass.VerifiedByEmail = actor.Email
	pass.VerifiedDate = &now
	if stamp.TransactionNumber != "" {
		pass.TransactionNumber = stamp.TransactionNumber
	}

	result := &VerifyPassResult{Pass: pass}
	if uc.mail != nil {
		if mailErr := uc.mail.SendPaymentVerified(user.Email, user.Name, pass.PassType); mailErr != nil {
			uc.logger.Warn("Verification committed but email failed", zap.String("passID", passID), zap.Error(mailErr))
			result.Warnings = append(result.Warnings, "payment verified, but email failed to send")
		}
	}
	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishPassVerified(ctx, user, pass, actor.Email); pubErr != nil {
			uc.logger.Warn("Verification committed but event publish failed", zap.String("passID", passID), zap.Error(pubErr))
			result.Warnings = append(result.Warnings, "payment verified, but event publish failed")
		}
	}
	return result, nil
}

type RejectPassResult struct {
	Pass     *entity.Pass
	Warnings []string
}

// RejectPass moves a pending pass to the terminal rejected state. A
// non-empty reason is required and is sent to the registrant.
func (uc *VerificationUseCase) RejectPass(ctx context.Context, actor entity.Actor, passID, reason string) (*RejectPassResult, error) {
	if !auth.Allowed(auth.OpPassReject, actor.Role) {
		return nil, ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}

	id, err := primitive.ObjectIDFromHex(passID)
	if err != nil {
		return nil, repository.ErrPassNotFound
	}

	user, err := uc.userRepo.GetUserByPassID(ctx, id)
	if err != nil {
		return nil, err
	}
	pass := user.PassByID(id)
	if pass == nil {
		return nil, repository.ErrPassNotFound
	}
	if pass.Status != entity.PassStatusPending {
		return nil, ErrPassNotPending
	}

	now := time.Now()
	if err := uc.userRepo.MarkPassRejected(ctx, id, reason, actor.Name, actor.Email, now); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PassesRejectedTotal.Inc()
	}

	pass.Status = entity.PassStatusRejected
	pass.RejectionReason = reason

	result := &RejectPassResult{Pass: pass}
	if uc.mail != nil {
		if mailErr := uc.mail.SendPaymentRejected(user.Email, user.Name, reason); mailErr != nil {
			uc.logger.Warn("Rejection committed but email failed", zap.String("passID", passID), zap.Error(mailErr))
			result.Warnings = append(result.Warnings, "pass rejected, but email failed to send")
		}
	}
	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishPassRejected(ctx, user, pass, actor.Email); pubErr != nil {
			uc.logger.Warn("Rejection committed but event publish failed", zap.String("passID", passID), zap.Error(pubErr))
			result.Warnings = append(result.Warnings, "pass rejected, but event publish failed")
		}
	}
	return result, nil
}

type GateCompleteInput struct {
	PanelID   string
	Checklist entity.VerificationChecklist
}

type GateCompleteResult struct {
	Session  *entity.VerificationSession
	Warnings []string
}

// CompleteGate performs the at-most-once gate admission. Preconditions are
// checked in a fixed order and the first failure wins: pass exists, payment
// verified, profile complete, gate not already checked.
func (uc *VerificationUseCase) CompleteGate(ctx context.Context, actor entity.Actor, passID string, input GateCompleteInput) (*GateCompleteResult, error) {
	if !auth.Allowed(auth.OpPassGateComplete, actor.Role) {
		return nil, ErrForbidden
	}

	id, err := primitive.ObjectIDFromHex(passID)
	if err != nil {
		return nil, repository.ErrPassNotFound
	}

	user, err := uc.userRepo.GetUserByPassID(ctx, id)
	if err != nil {
		return nil, err
	}
	pass := user.PassByID(id)
	if pass == nil {
		return nil, repository.ErrPassNotFound
	}
	if pass.Status != entity.PassStatusVerified {
		return nil, ErrPaymentNotVerified
	}
	if !user.ProfileComplete() {
		uc.logger.Warn("Gate completion blocked by incomplete profile",
			zap.String("passID", passID),
			zap.Strings("missing", user.MissingFields()))
		return nil, ErrProfileIncomplete
	}
	if pass.GateStatus != entity.GateStatusNotChecked {
		return nil, ErrGateAlreadyChecked
	}

	var warnings []string
	collegeName := user.College
	if collegeName == "" && user.CollegeID != nil {
		college, lookupErr := uc.collegeRepo.GetByID(ctx, *user.CollegeID)
		if lookupErr != nil {
			uc.logger.Warn("Failed to resolve college name for verification session snapshot",
				zap.String("userID", user.ID.Hex()), zap.Error(lookupErr))
			warnings = append(warnings, "college name could not be resolved for the session snapshot")
		} else {
			collegeName = college.Name
		}
	}

	now := time.Now()
	session := &entity.VerificationSession{
		PassID:            pass.ID,
		UserID:            user.ID,
		UserName:          user.Name,
		UserEmail:         user.Email,
		UserPhoneNo:       user.PhoneNo,
		Year:              user.Year,
		Department:        user.Department,
		CollegeName:       collegeName,
		PassType:          pass.PassType,
		TransactionNumber: pass.TransactionNumber,
		AdminID:           actor.ID,
		AdminEmail:        actor.Email,
		PanelID:           input.PanelID,
		Checklist:         input.Checklist,
	}

	stamp := repository.GateStamp{AdminID: actor.ID, PanelID: input.PanelID, At: now}
	err = uc.tx.RunTransaction(ctx, func(txCtx context.Context) error {
		if gateErr := uc.userRepo.CompleteGate(txCtx, id, stamp); gateErr != nil {
			return gateErr
		}
		return uc.auditRepo.AppendVerificationSession(txCtx, session)
	})
	if err != nil {
		uc.logger.Error("Gate completion failed", zap.String("passID", passID), zap.Error(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.GateCompletionsTotal.Inc()
	}

	pass.GateStatus = entity.GateStatusAllowed
	pass.GateCheckedAt = &now
	pass.GateCheckedByAdminID = actor.ID
	pass.GateCheckedByPanelID = input.PanelID

	result := &GateCompleteResult{Session: session, Warnings: warnings}
	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishPassGateAllowed(ctx, user, pass, actor.Email); pubErr != nil {
			uc.logger.Warn("Gate completion committed but event publish failed", zap.String("passID", passID), zap.Error(pubErr))
			result.Warnings = append(result.Warnings, "gate completed, but event publish failed")
		}
	}
	return result, nil
}

// UpdatePassTransaction administratively corrects the transaction id of a
// verified pass without changing its state.
func (uc *VerificationUseCase) UpdatePassTransaction(ctx context.Context, actor entity.Actor, passID, transactionNumber string) error {
	if !auth.Allowed(auth.OpPassEditTxn, actor.Role) {
		return ErrForbidden
	}

	transactionNumber = strings.TrimSpace(transactionNumber)
	if transactionNumber == "" {
		return ErrTransactionRequired
	}

	id, err := primitive.ObjectIDFromHex(passID)
	if err != nil {
		return repository.ErrPassNotFound
	}

	user, err := uc.userRepo.GetUserByPassID(ctx, id)
	if err != nil {
		return err
	}
	pass := user.PassByID(id)
	if pass == nil {
		return repository.ErrPassNotFound
	}
	if pass.Status != entity.PassStatusVerified {
		return ErrPaymentNotVerified
	}

	return uc.userRepo.UpdatePassTransaction(ctx, id, transactionNumber)
}

// TransactionExists is the exact-match pre-submission check: does any pass,
// of any user in any state, already hold this raw transaction id.
func (uc *VerificationUseCase) TransactionExists(ctx context.Context, actor entity.Actor, raw string) (bool, error) {
	if !auth.Allowed(auth.OpTransactionExists, actor.Role) {
		return false, ErrForbidden
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, ErrTransactionRequired
	}
	return uc.userRepo.TransactionExists(ctx, raw)
}
