// Package service implements the project lifecycle engine: every
// state-changing operation on a single project flows through ProjectService,
// which consults the transition allow-list before user-requested status
// changes and records one audit entry per accepted mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgm-labs/pgm-backend/internal/apierr"
	"github.com/pgm-labs/pgm-backend/internal/github"
	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
	"github.com/pgm-labs/pgm-backend/internal/projects/repository"
)

const (
	maxNameLen        = 120
	maxDescriptionLen = 2000
	maxRepoURLLen     = 300
)

// CommitFetcher is the single capability consumed from the VCS provider.
type CommitFetcher interface {
	LatestCommit(ctx context.Context, repoURL string) (*github.CommitInfo, error)
}

type ProjectService struct {
	store    repository.Store
	commits  CommitFetcher
	recorder *ActivityRecorder
}

func NewProjectService(store repository.Store, commits CommitFetcher, recorder *ActivityRecorder) *ProjectService {
	return &ProjectService{store: store, commits: commits, recorder: recorder}
}

type CreateInput struct {
	Name        string
	Description string
	RepoURL     string
}

// UpdateInput carries a partial field set; nil means "not provided".
type UpdateInput struct {
	Name        *string
	Description *string
	RepoURL     *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.RepoURL == nil
}

func (s *ProjectService) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Project, error) {
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	if err := validateRepoURL(in.RepoURL); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &domain.Project{
		Name:             in.Name,
		Description:      in.Description,
		RepoURL:          in.RepoURL,
		RepoProvider:     domain.RepoProviderGitHub,
		CreatedAt:        now,
		UpdatedAt:        now,
		LastCommitAt:     nil,
		Status:           domain.StatusActive,
		ForcedDecisionAt: nil,
	}

	id, err := s.store.CreateProject(ctx, ownerID, p)
	if err != nil {
		return nil, apierr.From(err)
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectCreated,
		ProjectID: id,
		Message:   "Project created: " + p.Name,
	})

	return s.requireProject(ctx, ownerID, id)
}

func (s *ProjectService) Get(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	return s.requireProject(ctx, ownerID, projectID)
}

func (s *ProjectService) List(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	out, err := s.store.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return out, nil
}

// Update applies the provided fields. A new repository URL invalidates the
// previous provider evidence: lastCommitAt and forcedDecisionAt are nulled
// and, bypassing the transition allow-list, a STAGNANT project goes back to
// ACTIVE.
func (s *ProjectService) Update(ctx context.Context, ownerID, projectID string, in UpdateInput) (*domain.Project, error) {
	if in.empty() {
		return nil, apierr.Invalid("VALIDATION_ERROR", "At least one field must be provided")
	}

	current, err := s.requireProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"updatedAt": time.Now(),
	}

	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return nil, err
		}
		updates["name"] = *in.Name
	}

	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
		updates["description"] = *in.Description
	}

	if in.RepoURL != nil {
		if err := validateRepoURL(*in.RepoURL); err != nil {
			return nil, err
		}
		updates["repoUrl"] = *in.RepoURL
		updates["lastCommitAt"] = nil
		updates["forcedDecisionAt"] = nil
		if current.Status == domain.StatusStagnant {
			updates["status"] = domain.StatusActive
		}
	}

	if err := s.applyUpdates(ctx, ownerID, projectID, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectUpdated,
		ProjectID: projectID,
		Message:   "Project updated: " + current.Name,
	})

	return s.requireProject(ctx, ownerID, projectID)
}

func (s *ProjectService) Delete(ctx context.Context, ownerID, projectID string) error {
	current, err := s.requireProject(ctx, ownerID, projectID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, ownerID, projectID); err != nil {
		return apierr.From(err)
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectDeleted,
		ProjectID: projectID,
		Message:   "Project deleted: " + current.Name,
	})
	return nil
}

// Sync fetches the latest commit for the project's repository and stores its
// timestamp. Like Update with a new URL, a successful sync reactivates a
// STAGNANT project without consulting the allow-list. Reconciler errors are
// propagated unchanged; nothing is written before the fetch succeeds.
func (s *ProjectService) Sync(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	current, err := s.requireProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	info, err := s.commits.LatestCommit(ctx, current.RepoURL)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"lastCommitAt":     info.LastCommitAt,
		"updatedAt":        time.Now(),
		"forcedDecisionAt": nil,
	}
	if current.Status == domain.StatusStagnant {
		updates["status"] = domain.StatusActive
	}

	if err := s.applyUpdates(ctx, ownerID, projectID, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectSynced,
		ProjectID: projectID,
		Message:   fmt.Sprintf("Synced latest commit %s from GitHub", shortSHA(info.SHA)),
		Metadata: map[string]any{
			"owner":     info.Owner,
			"repo":      info.Repo,
			"sha":       info.SHA,
			"commitUrl": info.HTMLURL,
		},
	})

	return s.requireProject(ctx, ownerID, projectID)
}

func (s *ProjectService) Archive(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	current, err := s.requireProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if current.Status == domain.StatusArchived {
		return nil, apierr.Conflict("ALREADY_ARCHIVED", "Project is already archived")
	}
	if err := assertTransition(current.Status, domain.StatusArchived); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":    domain.StatusArchived,
		"updatedAt": time.Now(),
	}
	if err := s.applyUpdates(ctx, ownerID, projectID, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectArchived,
		ProjectID: projectID,
		Message:   "Project archived: " + current.Name,
	})

	return s.requireProject(ctx, ownerID, projectID)
}

func (s *ProjectService) Resume(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	current, err := s.requireProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if current.Status != domain.StatusStagnant {
		return nil, apierr.Conflict("RESUME_NON_STAGNANT", "Only stagnant projects can be resumed")
	}
	if err := assertTransition(current.Status, domain.StatusActive); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":           domain.StatusActive,
		"forcedDecisionAt": nil,
		"updatedAt":        time.Now(),
	}
	if err := s.applyUpdates(ctx, ownerID, projectID, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectResumed,
		ProjectID: projectID,
		Message:   "Project resumed: " + current.Name,
	})

	return s.requireProject(ctx, ownerID, projectID)
}

func (s *ProjectService) Ship(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	current, err := s.requireProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if err := assertTransition(current.Status, domain.StatusMVPShipped); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":           domain.StatusMVPShipped,
		"forcedDecisionAt": nil,
		"updatedAt":        time.Now(),
	}
	if err := s.applyUpdates(ctx, ownerID, projectID, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, ownerID, &domain.ActivityLogEntry{
		Action:    domain.ActionProjectShipped,
		ProjectID: projectID,
		Message:   "MVP shipped: " + current.Name,
	})

	return s.requireProject(ctx, ownerID, projectID)
}

// requireProject re-reads the persisted document so callers always observe
// store-confirmed state rather than the in-memory pre-mutation value.
func (s *ProjectService) requireProject(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, ownerID, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierr.NotFound("PROJECT_NOT_FOUND", "Project not found")
	}
	if err != nil {
		return nil, apierr.From(err)
	}
	return p, nil
}

func (s *ProjectService) applyUpdates(ctx context.Context, ownerID, projectID string, updates map[string]any) error {
	err := s.store.UpdateProject(ctx, ownerID, projectID, updates)
	if errors.Is(err, repository.ErrNotFound) {
		return apierr.NotFound("PROJECT_NOT_FOUND", "Project not found")
	}
	if err != nil {
		return apierr.From(err)
	}
	return nil
}

func assertTransition(current, target domain.Status) error {
	if !domain.TransitionAllowed(current, target) {
		return apierr.Conflict("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot transition project from %s to %s", current, target))
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return apierr.Invalid("VALIDATION_ERROR", "name is required")
	}
	if len(name) > maxNameLen {
		return apierr.Invalid("VALIDATION_ERROR", "name must not exceed 120 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return apierr.Invalid("VALIDATION_ERROR", "description must not exceed 2000 characters")
	}
	return nil
}

func validateRepoURL(repoURL string) error {
	if repoURL == "" {
		return apierr.Invalid("VALIDATION_ERROR", "repoUrl is required")
	}
	if len(repoURL) > maxRepoURLLen {
		return apierr.Invalid("VALIDATION_ERROR", "repoUrl is too long")
	}
	_, _, err := github.ParseRepoURL(repoURL)
	return err
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
