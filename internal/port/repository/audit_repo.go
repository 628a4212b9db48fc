package repository

import (
	"context"

	"github.com/festivalhq/admin-service/internal/entity"
)

// AuditRepository stores the append-only audit collections. Records are
// never mutated or deleted.
type AuditRepository interface {
	AppendMergeLog(ctx context.Context, log *entity.CollegeMergeLog) error
	ListMergeLogs(ctx context.Context, limit int64) ([]*entity.CollegeMergeLog, error)
	AppendVerificationSession(ctx context.Context, session *entity.VerificationSession) error
}
