package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/festivalhq/admin-service/internal/auth"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/normalize"
	"github.com/festivalhq/admin-service/internal/platform/metrics"
	"github.com/festivalhq/admin-service/internal/port/cache"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrForbidden           = errors.New("operation not allowed for this role")
	ErrCollegeNameRequired = errors.New("college name is required")
	ErrDuplicateCollege    = errors.New("college with this name already exists")
	ErrEmptyMergeSelection = errors.New("no normalized keys or user ids provided")
	ErrInvalidUserID       = errors.New("invalid user id in merge selection")
)

// MergeEventPublisher publishes reconciliation events. Best-effort.
type MergeEventPublisher interface {
	PublishCollegeMerged(ctx context.Context, log *entity.CollegeMergeLog) error
}

const collegeListCacheKey = "colleges:list"
const collegeListCacheTTL = 5 * time.Minute

// ReconciliationUseCase reconciles free-text college names into canonical
// College records.
type ReconciliationUseCase struct {
	userRepo    repository.UserRepository
	collegeRepo repository.CollegeRepository
	auditRepo   repository.AuditRepository
	tx          repository.TxRunner
	cacheRepo   cache.CacheRepository
	publisher   MergeEventPublisher
	metrics     *metrics.MetricsManager
	logger      *zap.Logger
}

func NewReconciliationUseCase(
	userRepo repository.UserRepository,
	collegeRepo repository.CollegeRepository,
	auditRepo repository.AuditRepository,
	tx repository.TxRunner,
	cacheRepo cache.CacheRepository,
	publisher MergeEventPublisher,
	mm *metrics.MetricsManager,
	logger *zap.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		userRepo:    userRepo,
		collegeRepo: collegeRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		cacheRepo:   cacheRepo,
		publisher:   publisher,
		metrics:     mm,
		logger:      logger,
	}
}

// ListUnmappedGroups returns users without a canonical college, grouped by
// normalized name, ordered by normalized key.
func (uc *ReconciliationUseCase) ListUnmappedGroups(ctx context.Context, actor entity.Actor) ([]entity.UnmappedGroup, error) {
	if !auth.Allowed(auth.OpUnmappedList, actor.Role) {
		return nil, ErrForbidden
	}
	return uc.userRepo.UnmappedCollegeGroups(ctx)
}

type CreateCollegeInput struct {
	Name  string
	City  string
	State string
	// Approved is forced true only by the on-spot flow, where a human admin
	// is physically present.
	Approved bool
}

// CreateCollege creates a canonical College record. A name that matches an
// existing college case-insensitively is rejected, never silently merged.
func (uc *ReconciliationUseCase) CreateCollege(ctx context.Context, actor entity.Actor, input CreateCollegeInput) (*entity.College, error) {
	if !auth.Allowed(auth.OpCollegeCreate, actor.Role) {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCollegeNameRequired
	}

	existing, err := uc.collegeRepo.FindByNameInsensitive(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrCollegeNotFound) {
		uc.logger.Error("Failed to check for duplicate college name", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		uc.logger.Warn("Duplicate college name on create", zap.String("name", name), zap.String("existingID", existing.ID.Hex()))
		return nil, ErrDuplicateCollege
	}

	college := &entity.College{
		Name:      name,
		City:      strings.TrimSpace(input.City),
		State:     strings.TrimSpace(input.State),
		Approved:  input.Approved,
		CreatedBy: actor.Email,
	}
	id, err := uc.collegeRepo.Create(ctx, college)
	if err != nil {
		return nil, err
	}
	college.ID = id

	uc.invalidateCollegeListCache(ctx)
	return college, nil
}

// ListColleges returns every canonical college, cached for a short window.
func (uc *ReconciliationUseCase) ListColleges(ctx context.Context, actor entity.Actor) ([]*entity.College, error) {
	if !auth.Allowed(auth.OpCollegeList, actor.Role) {
		return nil, ErrForbidden
	}

	if uc.cacheRepo != nil {
		cachedBytes, err := uc.cacheRepo.Get(ctx, collegeListCacheKey)
		if err == nil {
			var colleges []*entity.College
			if unmarshalErr := json.Unmarshal(cachedBytes, &colleges); unmarshalErr == nil {
				uc.logger.Debug("College list fetched from cache")
				return colleges, nil
			}
			uc.logger.Warn("Failed to unmarshal college list from cache, refetching")
			if delErr := uc.cacheRepo.Delete(ctx, collegeListCacheKey); delErr != nil {
				uc.logger.Warn("Failed to delete corrupted college list from cache", zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Cache error fetching college list, falling back to repository", zap.Error(err))
		}
	}

	colleges, err := uc.collegeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		if bytes, marshalErr := json.Marshal(colleges); marshalErr == nil {
			if setErr := uc.cacheRepo.Set(ctx, collegeListCacheKey, bytes, collegeListCacheTTL); setErr != nil {
				uc.logger.Warn("Failed to cache college list", zap.Error(setErr))
			}
		}
	}
	return colleges, nil
}

type MergeInput struct {
	CollegeID string
	// NormalizedKeys is the preferred selection. Keys are re-normalized
	// before matching, so raw variants are accepted too.
	NormalizedKeys []string
	// UserIDs is the legacy explicit-id selection.
	UserIDs []string
}

type MergeResult struct {
	Log      *entity.CollegeMergeLog
	Warnings []string
}

// Merge bulk-assigns every still-unmapped user in the selection to the
// target college in one atomic multi-document update, then appends one
// CollegeMergeLog row. A zero modified count is valid and still logged,
// e.g. when the group was already reconciled concurrently.
func (uc *ReconciliationUseCase) Merge(ctx context.Context, actor entity.Actor, input MergeInput) (*MergeResult, error) {
	if !auth.Allowed(auth.OpCollegeMerge, actor.Role) {
		return nil, ErrForbidden
	}

	collegeID, err := primitive.ObjectIDFromHex(input.CollegeID)
	if err != nil {
		return nil, repository.ErrCollegeNotFound
	}

	keys := normalizeKeys(input.NormalizedKeys)
	userIDs, err := parseUserIDs(input.UserIDs)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 && len(userIDs) == 0 {
		return nil, ErrEmptyMergeSelection
	}

	college, err := uc.collegeRepo.GetByID(ctx, collegeID)
	if err != nil {
		return nil, err
	}

	mergeLog := &entity.CollegeMergeLog{
		CollegeID:      college.ID,
		CollegeName:    college.Name,
		NormalizedKeys: keys,
		UserIDs:        userIDs,
		MergedBy:       actor.Email,
	}

	err = uc.tx.RunTransaction(ctx, func(txCtx context.Context) error {
		var modified int64
		var assignErr error
		if len(keys) > 0 {
			modified, assignErr = uc.userRepo.BulkAssignCollegeByKeys(txCtx, college.ID, college.Name, keys)
		} else {
			modified, assignErr = uc.userRepo.BulkAssignCollegeByIDs(txCtx, college.ID, college.Name, userIDs)
		}
		if assignErr != nil {
			return assignErr
		}
		mergeLog.ModifiedCount = modified
		return uc.auditRepo.AppendMergeLog(txCtx, mergeLog)
	})
	if err != nil {
		uc.logger.Error("Bulk merge failed", zap.String("collegeID", college.ID.Hex()), zap.Error(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CollegeMergesTotal.Inc()
	}

	result := &MergeResult{Log: mergeLog}
	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishCollegeMerged(ctx, mergeLog); pubErr != nil {
			uc.logger.Warn("Failed to publish college merged event", zap.Error(pubErr))
			result.Warnings = append(result.Warnings, "merge committed, but event publish failed")
		}
	}
	return result, nil
}

// ListMergeLogs returns the most recent merge audit records.
func (uc *ReconciliationUseCase) ListMergeLogs(ctx context.Context, actor entity.Actor, limit int64) ([]*entity.CollegeMergeLog, error) {
	if !auth.Allowed(auth.OpMergeLogList, actor.Role) {
		return nil, ErrForbidden
	}
	return uc.auditRepo.ListMergeLogs(ctx, limit)
}

func (uc *ReconciliationUseCase) invalidateCollegeListCache(ctx context.Context) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.Delete(ctx, collegeListCacheKey); err != nil {
		uc.logger.Warn("Failed to invalidate college list cache", zap.Error(err))
	}
}

func normalizeKeys(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var keys []string
	for _, k := range raw {
		normalized := normalize.CollegeKey(k)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		keys = append(keys, normalized)
	}
	return keys
}

func parseUserIDs(raw []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(r))
		if err != nil {
			return nil, ErrInvalidUserID
		}
		ids = append(ids, id)
	}
	return ids, nil
}
