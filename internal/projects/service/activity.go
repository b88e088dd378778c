package service

import (
	"context"
	"log"

	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
	"github.com/pgm-labs/pgm-backend/internal/projects/repository"
)

// ActivityRecorder appends audit entries after accepted mutations. Recording
// is best-effort: a sink failure is logged and swallowed so it can never roll
// back or fail the mutation that triggered it. The call is still synchronous;
// it completes (or fails) before the triggering operation returns.
type ActivityRecorder struct {
	store repository.Store
}

func NewActivityRecorder(store repository.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

func (r *ActivityRecorder) Record(ctx context.Context, ownerID string, entry *domain.ActivityLogEntry) {
	if err := r.store.AddActivity(ctx, ownerID, entry); err != nil {
		log.Printf("[warn] operation=record_activity action=%s project_id=%s error=%v",
			entry.Action, entry.ProjectID, err)
	}
}
