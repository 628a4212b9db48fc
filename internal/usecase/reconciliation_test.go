package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/festivalhq/admin-service/internal/auth"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/port/cache"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func superAdminActor() entity.Actor {
	return entity.Actor{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Root Admin",
		Email: "root@festival.example",
		Role:  auth.RoleSuperAdmin,
	}
}

type reconciliationFixture struct {
	userRepo    *MockUserRepository
	collegeRepo *MockCollegeRepository
	auditRepo   *MockAuditRepository
	cache       *MockCacheRepository
	publisher   *MockEventPublisher
	uc          *ReconciliationUseCase
}

func newReconciliationFixture(t *testing.T) *reconciliationFixture {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	f := &reconciliationFixture{
		userRepo:    new(MockUserRepository),
		collegeRepo: new(MockCollegeRepository),
		auditRepo:   new(MockAuditRepository),
		cache:       new(MockCacheRepository),
		publisher:   new(MockEventPublisher),
	}
	f.uc = NewReconciliationUseCase(f.userRepo, f.collegeRepo, f.auditRepo, stubTxRunner{}, f.cache, f.publisher, nil, logger)
	return f
}

func TestReconciliationUseCase_CreateCollege_TrimsAndCreates(t *testing.T) {
	f := newReconciliationFixture(t)
	actor := superAdminActor()
	newID := primitive.NewObjectID()

	f.collegeRepo.On("FindByNameInsensitive", mock.Anything, "MIT College").Return(nil, repository.ErrCollegeNotFound)
	f.collegeRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.College")).Return(newID, nil)
	f.cache.On("Delete", mock.Anything, collegeListCacheKey).Return(nil)

	college, err := f.uc.CreateCollege(context.Background(), actor, CreateCollegeInput{
		Name:  "  MIT College  ",
		City:  " Pune ",
		State: "Maharashtra",
	})

	assert.NoError(t, err)
	assert.Equal(t, newID, college.ID)
	assert.Equal(t, "MIT College", college.Name)
	assert.Equal(t, "Pune", college.City)
	assert.Equal(t, actor.Email, college.CreatedBy)
	f.collegeRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestReconciliationUseCase_CreateCollege_DuplicateName(t *testing.T) {
	f := newReconciliationFixture(t)
	existing := &entity.College{ID: primitive.NewObjectID(), Name: "MIT"}

	// " mit " and "MIT" collide case-insensitively after trimming.
	f.collegeRepo.On("FindByNameInsensitive", mock.Anything, "mit").Return(existing, nil)

	_, err := f.uc.CreateCollege(context.Background(), superAdminActor(), CreateCollegeInput{Name: " mit "})

	assert.ErrorIs(t, err, ErrDuplicateCollege)
	f.collegeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReconciliationUseCase_CreateCollege_EmptyName(t *testing.T) {
	f := newReconciliationFixture(t)

	_, err := f.uc.CreateCollege(context.Background(), superAdminActor(), CreateCollegeInput{Name: "   "})

	assert.ErrorIs(t, err, ErrCollegeNameRequired)
}

func TestReconciliationUseCase_CreateCollege_Forbidden(t *testing.T) {
	f := newReconciliationFixture(t)
	actor := entity.Actor{Role: auth.RoleViewOnly}

	_, err := f.uc.CreateCollege(context.Background(), actor, CreateCollegeInput{Name: "MIT"})

	assert.ErrorIs(t, err, ErrForbidden)
	f.collegeRepo.AssertNotCalled(t, "FindByNameInsensitive", mock.Anything, mock.Anything)
}

func TestReconciliationUseCase_ListUnmapped_Forbidden(t *testing.T) {
	f := newReconciliationFixture(t)
	actor := entity.Actor{Role: auth.RoleEventsAdmin}

	_, err := f.uc.ListUnmappedGroups(context.Background(), actor)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReconciliationUseCase_Merge_ByNormalizedKeys(t *testing.T) {
	f := newReconciliationFixture(t)
	actor := superAdminActor()
	college := &entity.College{ID: primitive.NewObjectID(), Name: "ABC Engineering College"}

	// Raw variants are re-normalized and deduplicated before matching.
	f.collegeRepo.On("GetByID", mock.Anything, college.ID).Return(college, nil)
	f.userRepo.On("BulkAssignCollegeByKeys", mock.Anything, college.ID, college.Name,
		[]string{"abc engineering college"}).Return(int64(17), nil)
	f.auditRepo.On("AppendMergeLog", mock.Anything, mock.AnythingOfType("*entity.CollegeMergeLog")).Return(nil)
	f.publisher.On("PublishCollegeMerged", mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.Merge(context.Background(), actor, MergeInput{
		CollegeID:      college.ID.Hex(),
		NormalizedKeys: []string{"  ABC Engineering College ", "abc engineering college", ""},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(17), result.Log.ModifiedCount)
	assert.Equal(t, actor.Email, result.Log.MergedBy)
	assert.Empty(t, result.Warnings)
	f.userRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
}

func TestReconciliationUseCase_Merge_ZeroModifiedStillLogged(t *testing.T) {
	f := newReconciliationFixture(t)
	college := &entity.College{ID: primitive.NewObjectID(), Name: "MIT"}

	f.collegeRepo.On("GetByID", mock.Anything, college.ID).Return(college, nil)
	f.userRepo.On("BulkAssignCollegeByKeys", mock.Anything, college.ID, college.Name,
		[]string{"mit"}).Return(int64(0), nil)
	f.auditRepo.On("AppendMergeLog", mock.Anything, mock.MatchedBy(func(log *entity.CollegeMergeLog) bool {
		return log.ModifiedCount == 0
	})).Return(nil)
	f.publisher.On("PublishCollegeMerged", mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.Merge(context.Background(), superAdminActor(), MergeInput{
		CollegeID:      college.ID.Hex(),
		NormalizedKeys: []string{"mit"},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), result.Log.ModifiedCount)
	f.auditRepo.AssertExpectations(t)
}

func TestReconciliationUseCase_Merge_EmptySelection(t *testing.T) {
	f := newReconciliationFixture(t)

	_, err := f.uc.Merge(context.Background(), superAdminActor(), MergeInput{
		CollegeID:      primitive.NewObjectID().Hex(),
		NormalizedKeys: []string{"", "   "},
	})

	assert.ErrorIs(t, err, ErrEmptyMergeSelection)
	f.collegeRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestReconciliationUseCase_Merge_MalformedCollegeID(t *testing.T) {
	f := newReconciliationFixture(t)

	_, err := f.uc.Merge(context.Background(), superAdminActor(), MergeInput{
		CollegeID:      "not-a-hex-id",
		NormalizedKeys: []string{"mit"},
	})

	assert.ErrorIs(t, err, repository.ErrCollegeNotFound)
}

func TestReconciliationUseCase_Merge_InvalidUserID(t *testing.T) {
	f := newReconciliationFixture(t)

	_, err := f.uc.Merge(context.Background(), superAdminActor(), MergeInput{
		CollegeID: primitive.NewObjectID().Hex(),
		UserIDs:   []string{"garbage"},
	})

	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestReconciliationUseCase_Merge_PublishFailureIsWarning(t *testing.T) {
	f := newReconciliationFixture(t)
	college := &entity.College{ID: primitive.NewObjectID(), Name: "MIT"}

	f.collegeRepo.On("GetByID", mock.Anything, college.ID).Return(college, nil)
	f.userRepo.On("BulkAssignCollegeByKeys", mock.Anything, college.ID, college.Name,
		[]string{"mit"}).Return(int64(3), nil)
	f.auditRepo.On("AppendMergeLog", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishCollegeMerged", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	result, err := f.uc.Merge(context.Background(), superAdminActor(), MergeInput{
		CollegeID:      college.ID.Hex(),
		NormalizedKeys: []string{"mit"},
	})

	assert.NoError(t, err)
	assert.Len(t, result.Warnings, 1)
}

func TestReconciliationUseCase_Merge_AuditFailureFailsMerge(t *testing.T) {
	f := newReconciliationFixture(t)
	college := &entity.College{ID: primitive.NewObjectID(), Name: "MIT"}

	f.collegeRepo.On("GetByID", mock.Anything, college.ID).Return(college, nil)
	f.userRepo.On("BulkAssignCollegeByKeys", mock.Anything, college.ID, college.Name,
		[]string{"mit"}).Return(int64(3), nil)
	f.auditRepo.On("AppendMergeLog", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	_, err := f.uc.Merge(context.Background(), superAdminActor(), MergeInput{
		CollegeID:      college.ID.Hex(),
		NormalizedKeys: []string{"mit"},
	})

	assert.Error(t, err)
	f.publisher.AssertNotCalled(t, "PublishCollegeMerged", mock.Anything, mock.Anything)
}

func TestReconciliationUseCase_ListColleges_CacheHit(t *testing.T) {
	f := newReconciliationFixture(t)
	cached := []*entity.College{{ID: primitive.NewObjectID(), Name: "MIT"}}
	bytes, _ := json.Marshal(cached)

	f.cache.On("Get", mock.Anything, collegeListCacheKey).Return(bytes, nil)

	colleges, err := f.uc.ListColleges(context.Background(), superAdminActor())

	assert.NoError(t, err)
	assert.Len(t, colleges, 1)
	assert.Equal(t, "MIT", colleges[0].Name)
	f.collegeRepo.AssertNotCalled(t, "List", mock.Anything)
}

func TestReconciliationUseCase_ListColleges_CacheMiss(t *testing.T) {
	f := newReconciliationFixture(t)
	colleges := []*entity.College{{ID: primitive.NewObjectID(), Name: "MIT"}}

	f.cache.On("Get", mock.Anything, collegeListCacheKey).Return(nil, cache.ErrNotFound)
	f.collegeRepo.On("List", mock.Anything).Return(colleges, nil)
	f.cache.On("Set", mock.Anything, collegeListCacheKey, mock.Anything, 5*time.Minute).Return(nil)

	got, err := f.uc.ListColleges(context.Background(), superAdminActor())

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	f.cache.AssertExpectations(t)
}

func TestReconciliationUseCase_ListMergeLogs(t *testing.T) {
	f := newReconciliationFixture(t)
	logs := []*entity.CollegeMergeLog{{ID: primitive.NewObjectID(), CollegeName: "MIT"}}

	f.auditRepo.On("ListMergeLogs", mock.Anything, int64(50)).Return(logs, nil)

	got, err := f.uc.ListMergeLogs(context.Background(), superAdminActor(), 50)

	assert.NoError(t, err)
	assert.Len(t, got, 1)
}
