package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/festivalhq/admin-service/internal/auth"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type verificationFixture struct {
	userRepo    *MockUserRepository
	collegeRepo *MockCollegeRepository
	auditRepo   *MockAuditRepository
	mail        *MockMailer
	publisher   *MockEventPublisher
	uc          *VerificationUseCase
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	f := &verificationFixture{
		userRepo:    new(MockUserRepository),
		collegeRepo: new(MockCollegeRepository),
		auditRepo:   new(MockAuditRepository),
		mail:        new(MockMailer),
		publisher:   new(MockEventPublisher),
	}
	f.uc = NewVerificationUseCase(f.userRepo, f.collegeRepo, f.auditRepo, stubTxRunner{}, f.mail, f.publisher, nil, logger)
	return f
}

func completeUser(pass entity.Pass) *entity.User {
	return &entity.User{
		ID:         primitive.NewObjectID(),
		Name:       "Asha",
		Email:      "asha@example.com",
		PhoneNo:    "9876543210",
		Year:       3,
		Department: "CSE",
		College:    "MIT",
		Passes:     []entity.Pass{pass},
	}
}

func pendingPass() entity.Pass {
	return entity.Pass{
		ID:         primitive.NewObjectID(),
		PassType:   2,
		Status:     entity.PassStatusPending,
		GateStatus: entity.GateStatusNotChecked,
	}
}

func TestVerificationUseCase_ListPasses_DuplicateDetection(t *testing.T) {
	f := newVerificationFixture(t)

	// "ABC-123" and "abc123" collapse to the same normalized key; "xyz"
	// stands alone; empty transaction numbers never count as duplicates.
	users := []*entity.User{
		completeUser(entity.Pass{ID: primitive.NewObjectID(), TransactionNumber: "ABC-123", Status: entity.PassStatusPending}),
		completeUser(entity.Pass{ID: primitive.NewObjectID(), TransactionNumber: "abc123", Status: entity.PassStatusPending}),
		completeUser(entity.Pass{ID: primitive.NewObjectID(), TransactionNumber: "xyz", Status: entity.PassStatusPending}),
		completeUser(entity.Pass{ID: primitive.NewObjectID(), TransactionNumber: "", Status: entity.PassStatusPending}),
		completeUser(entity.Pass{ID: primitive.NewObjectID(), TransactionNumber: "", Status: entity.PassStatusPending}),
	}
	f.userRepo.On("ListUsersWithPasses", mock.Anything).Return(users, nil)

	items, err := f.uc.ListPasses(context.Background(), superAdminActor())

	assert.NoError(t, err)
	assert.Len(t, items, 5)
	assert.True(t, items[0].IsDuplicate)
	assert.True(t, items[1].IsDuplicate)
	assert.False(t, items[2].IsDuplicate)
	assert.False(t, items[3].IsDuplicate)
	assert.False(t, items[4].IsDuplicate)
	assert.True(t, items[0].HasSpecialCharacters)
	assert.False(t, items[1].HasSpecialCharacters)
}

func TestVerificationUseCase_VerifyPass_Success(t *testing.T) {
	f := newVerificationFixture(t)
	actor := superAdminActor()
	pass := pendingPass()
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)
	f.userRepo.On("MarkPassVerified", mock.Anything, pass.ID, mock.MatchedBy(func(stamp repository.VerificationStamp) bool {
		return stamp.PaymentIDType == "upi" && stamp.AdminEmail == actor.Email && stamp.TransactionNumber == "TXN42"
	})).Return(nil)
	f.mail.On("SendPaymentVerified", user.Email, user.Name, pass.PassType).Return(nil)
	f.publisher.On("PublishPassVerified", mock.Anything, user, mock.Anything, actor.Email).Return(nil)

	result, err := f.uc.VerifyPass(context.Background(), actor, pass.ID.Hex(), VerifyPassInput{
		PaymentIDType:     "upi",
		TransactionNumber: " TXN42 ",
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.PassStatusVerified, result.Pass.Status)
	assert.Equal(t, "TXN42", result.Pass.TransactionNumber)
	assert.Equal(t, entity.GateStatusNotChecked, result.Pass.GateStatus)
	assert.Empty(t, result.Warnings)
	f.userRepo.AssertExpectations(t)
}

func TestVerificationUseCase_VerifyPass_NotPending(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	pass.Status = entity.PassStatusVerified
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	_, err := f.uc.VerifyPass(context.Background(), superAdminActor(), pass.ID.Hex(), VerifyPassInput{PaymentIDType: "upi"})

	assert.ErrorIs(t, err, ErrPassNotPending)
	f.userRepo.AssertNotCalled(t, "MarkPassVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerificationUseCase_VerifyPass_PaymentIDTypeRequired(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	_, err := f.uc.VerifyPass(context.Background(), superAdminActor(), pass.ID.Hex(), VerifyPassInput{})

	assert.ErrorIs(t, err, ErrPaymentIDTypeRequired)
}

func TestVerificationUseCase_VerifyPass_EmailFailureIsWarning(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)
	f.userRepo.On("MarkPassVerified", mock.Anything, pass.ID, mock.Anything).Return(nil)
	f.mail.On("SendPaymentVerified", user.Email, user.Name, pass.PassType).Return(errors.New("smtp down"))
	f.publisher.On("PublishPassVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.VerifyPass(context.Background(), superAdminActor(), pass.ID.Hex(), VerifyPassInput{PaymentIDType: "neft"})

	assert.NoError(t, err)
	assert.Equal(t, entity.PassStatusVerified, result.Pass.Status)
	assert.Len(t, result.Warnings, 1)
}

func TestVerificationUseCase_VerifyPass_MalformedID(t *testing.T) {
	f := newVerificationFixture(t)

	_, err := f.uc.VerifyPass(context.Background(), superAdminActor(), "nope", VerifyPassInput{PaymentIDType: "upi"})

	assert.ErrorIs(t, err, repository.ErrPassNotFound)
}

func TestVerificationUseCase_RejectPass_ReasonRequired(t *testing.T) {
	f := newVerificationFixture(t)

	_, err := f.uc.RejectPass(context.Background(), superAdminActor(), primitive.NewObjectID().Hex(), "   ")

	assert.ErrorIs(t, err, ErrRejectionReasonRequired)
	f.userRepo.AssertNotCalled(t, "GetUserByPassID", mock.Anything, mock.Anything)
}

func TestVerificationUseCase_RejectPass_Success(t *testing.T) {
	f := newVerificationFixture(t)
	actor := superAdminActor()
	pass := pendingPass()
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)
	f.userRepo.On("MarkPassRejected", mock.Anything, pass.ID, "amount mismatch", actor.Name, actor.Email, mock.Anything).Return(nil)
	f.mail.On("SendPaymentRejected", user.Email, user.Name, "amount mismatch").Return(nil)
	f.publisher.On("PublishPassRejected", mock.Anything, user, mock.Anything, actor.Email).Return(nil)

	result, err := f.uc.RejectPass(context.Background(), actor, pass.ID.Hex(), "amount mismatch")

	assert.NoError(t, err)
	assert.Equal(t, entity.PassStatusRejected, result.Pass.Status)
	assert.Equal(t, "amount mismatch", result.Pass.RejectionReason)
	f.userRepo.AssertExpectations(t)
}

func TestVerificationUseCase_RejectPass_NotPending(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	pass.Status = entity.PassStatusRejected
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	_, err := f.uc.RejectPass(context.Background(), superAdminActor(), pass.ID.Hex(), "whatever")

	assert.ErrorIs(t, err, ErrPassNotPending)
}

func TestVerificationUseCase_CompleteGate_Success(t *testing.T) {
	f := newVerificationFixture(t)
	actor := superAdminActor()
	pass := pendingPass()
	pass.Status = entity.PassStatusVerified
	pass.TransactionNumber = "TXN1"
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)
	f.userRepo.On("CompleteGate", mock.Anything, pass.ID, mock.MatchedBy(func(stamp repository.GateStamp) bool {
		return stamp.AdminID == actor.ID && stamp.PanelID == "panel-3"
	})).Return(nil)
	f.auditRepo.On("AppendVerificationSession", mock.Anything, mock.MatchedBy(func(s *entity.VerificationSession) bool {
		return s.PassID == pass.ID && s.UserName == user.Name && s.CollegeName == "MIT" && s.Checklist.WristbandIssued
	})).Return(nil)
	f.publisher.On("PublishPassGateAllowed", mock.Anything, user, mock.Anything, actor.Email).Return(nil)

	result, err := f.uc.CompleteGate(context.Background(), actor, pass.ID.Hex(), GateCompleteInput{
		PanelID: "panel-3",
		Checklist: entity.VerificationChecklist{
			IDChecked:       true,
			PaymentChecked:  true,
			WristbandIssued: true,
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, "TXN1", result.Session.TransactionNumber)
	assert.Equal(t, actor.ID, result.Session.AdminID)
	f.userRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
}

func TestVerificationUseCase_CompleteGate_PaymentNotVerified(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	_, err := f.uc.CompleteGate(context.Background(), superAdminActor(), pass.ID.Hex(), GateCompleteInput{})

	assert.ErrorIs(t, err, ErrPaymentNotVerified)
	f.userRepo.AssertNotCalled(t, "CompleteGate", mock.Anything, mock.Anything, mock.Anything)
	f.auditRepo.AssertNotCalled(t, "AppendVerificationSession", mock.Anything, mock.Anything)
}

func TestVerificationUseCase_CompleteGate_ProfileIncomplete(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	pass.Status = entity.PassStatusVerified
	user := completeUser(pass)
	user.PhoneNo = ""
	user.OnboardingCompleted = false

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	_, err := f.uc.CompleteGate(context.Background(), superAdminActor(), pass.ID.Hex(), GateCompleteInput{})

	assert.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestVerificationUseCase_CompleteGate_AlreadyChecked(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	pass.Status = entity.PassStatusVerified
	pass.GateStatus = entity.GateStatusAllowed
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	_, err := f.uc.CompleteGate(context.Background(), superAdminActor(), pass.ID.Hex(), GateCompleteInput{})

	assert.ErrorIs(t, err, ErrGateAlreadyChecked)
	f.auditRepo.AssertNotCalled(t, "AppendVerificationSession", mock.Anything, mock.Anything)
}

func TestVerificationUseCase_CompleteGate_ForbiddenRole(t *testing.T) {
	f := newVerificationFixture(t)
	actor := entity.Actor{Role: auth.RoleViewOnly}

	_, err := f.uc.CompleteGate(context.Background(), actor, primitive.NewObjectID().Hex(), GateCompleteInput{})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestVerificationUseCase_UpdatePassTransaction_RequiresVerified(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)

	err := f.uc.UpdatePassTransaction(context.Background(), superAdminActor(), pass.ID.Hex(), "TXN9")

	assert.ErrorIs(t, err, ErrPaymentNotVerified)
	f.userRepo.AssertNotCalled(t, "UpdatePassTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerificationUseCase_UpdatePassTransaction_Success(t *testing.T) {
	f := newVerificationFixture(t)
	pass := pendingPass()
	pass.Status = entity.PassStatusVerified
	user := completeUser(pass)

	f.userRepo.On("GetUserByPassID", mock.Anything, pass.ID).Return(user, nil)
	f.userRepo.On("UpdatePassTransaction", mock.Anything, pass.ID, "TXN9").Return(nil)

	err := f.uc.UpdatePassTransaction(context.Background(), superAdminActor(), pass.ID.Hex(), " TXN9 ")

	assert.NoError(t, err)
	f.userRepo.AssertExpectations(t)
}

func TestVerificationUseCase_TransactionExists(t *testing.T) {
	f := newVerificationFixture(t)

	f.userRepo.On("TransactionExists", mock.Anything, "TXN42").Return(true, nil)

	exists, err := f.uc.TransactionExists(context.Background(), superAdminActor(), " TXN42 ")

	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestVerificationUseCase_TransactionExists_EmptyRejected(t *testing.T) {
	f := newVerificationFixture(t)

	_, err := f.uc.TransactionExists(context.Background(), superAdminActor(), "   ")

	assert.ErrorIs(t, err, ErrTransactionRequired)
}
