// Package stagnation implements the recurring scan that forces inactive
// projects from ACTIVE to STAGNANT. The scan is the single authorized
// producer of system-initiated STAGNANT and writes the status directly
// instead of going through the user-facing transition checks: ACTIVE ->
// STAGNANT is the only transition it ever performs, and it is data-driven.
package stagnation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
	"github.com/pgm-labs/pgm-backend/internal/projects/repository"
	"github.com/pgm-labs/pgm-backend/internal/projects/service"
)

type Scanner struct {
	store         repository.Store
	recorder      *service.ActivityRecorder
	thresholdDays int
}

func NewScanner(store repository.Store, recorder *service.ActivityRecorder, thresholdDays int) *Scanner {
	return &Scanner{store: store, recorder: recorder, thresholdDays: thresholdDays}
}

// Summary aggregates one run. Marked counts only projects actually mutated.
type Summary struct {
	Scanned int
	Marked  int
	Failed  int
}

// Run performs one scan pass. The candidate set is collected eagerly with a
// single cross-owner query; a failure there aborts the whole run. Each
// candidate is then handled independently: one bad document is counted as
// failed and the fold moves on to the next project.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	cutoff := time.Now().AddDate(0, 0, -s.thresholdDays)

	candidates, err := s.store.ListProjectsByStatus(ctx, domain.StatusActive)
	if err != nil {
		return Summary{}, fmt.Errorf("list active projects: %w", err)
	}

	summary := Summary{Scanned: len(candidates)}
	for _, c := range candidates {
		marked, err := s.process(ctx, c, cutoff)
		if err != nil {
			summary.Failed++
			log.Printf("[error] operation=stagnation_scan project_id=%s error=%v", c.Project.ID, err)
			continue
		}
		if marked {
			summary.Marked++
		}
	}
	return summary, nil
}

func (s *Scanner) process(ctx context.Context, c repository.OwnedProject, cutoff time.Time) (bool, error) {
	// A document the store could not decode counts as failed, not as a
	// run-level error.
	if c.Err != nil {
		return false, c.Err
	}

	// Never synced means never judged stagnant.
	if c.Project.LastCommitAt == nil || !c.Project.LastCommitAt.Before(cutoff) {
		return false, nil
	}

	now := time.Now()
	err := s.store.UpdateProject(ctx, c.OwnerID, c.Project.ID, map[string]any{
		"status":           domain.StatusStagnant,
		"forcedDecisionAt": now,
		"updatedAt":        now,
	})
	if err != nil {
		return false, err
	}

	s.recorder.Record(ctx, c.OwnerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectMarkedStagnant,
		ProjectID: c.Project.ID,
		Message:   fmt.Sprintf("Project marked stagnant after %d days without commits", s.thresholdDays),
	})
	return true, nil
}
