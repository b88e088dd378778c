package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgm-labs/pgm-backend/internal/apierr"
	"github.com/pgm-labs/pgm-backend/internal/github"
	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
	"github.com/pgm-labs/pgm-backend/internal/projects/repository"
)

const (
	testOwner = "user-1"
	testRepo  = "https://github.com/acme/widgets"
)

type stubCommits struct {
	info  *github.CommitInfo
	err   error
	calls int
}

func (s *stubCommits) LatestCommit(_ context.Context, _ string) (*github.CommitInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func newTestService(t *testing.T) (*ProjectService, *repository.MemStore, *stubCommits) {
	t.Helper()
	store := repository.NewMemStore()
	commits := &stubCommits{}
	svc := NewProjectService(store, commits, NewActivityRecorder(store))
	return svc, store, commits
}

func createProject(t *testing.T, svc *ProjectService) *domain.Project {
	t.Helper()
	p, err := svc.Create(context.Background(), testOwner, CreateInput{
		Name:        "Widgets",
		Description: "A widget factory",
		RepoURL:     testRepo,
	})
	require.NoError(t, err)
	return p
}

// forceStatus simulates a scanner-written state without going through the
// guarded operations.
func forceStatus(t *testing.T, store *repository.MemStore, projectID string, status domain.Status, forcedAt *time.Time) {
	t.Helper()
	updates := map[string]any{"status": status}
	if forcedAt != nil {
		updates["forcedDecisionAt"] = *forcedAt
	}
	require.NoError(t, store.UpdateProject(context.Background(), testOwner, projectID, updates))
}

func lastActivity(t *testing.T, store *repository.MemStore, owner string) *domain.ActivityLogEntry {
	t.Helper()
	entries := store.Activities(owner)
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

func TestCreate(t *testing.T) {
	svc, store, _ := newTestService(t)

	p := createProject(t, svc)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Widgets", p.Name)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, domain.RepoProviderGitHub, p.RepoProvider)
	assert.Nil(t, p.LastCommitAt)
	assert.Nil(t, p.ForcedDecisionAt)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())

	entries := store.Activities(testOwner)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionProjectCreated, entries[0].Action)
	assert.Equal(t, p.ID, entries[0].ProjectID)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Name: "", RepoURL: testRepo}},
		{"name too long", CreateInput{Name: strings.Repeat("x", 121), RepoURL: testRepo}},
		{"description too long", CreateInput{Name: "ok", Description: strings.Repeat("x", 2001), RepoURL: testRepo}},
		{"missing repo url", CreateInput{Name: "ok"}},
		{"repo url too long", CreateInput{Name: "ok", RepoURL: "https://github.com/a/" + strings.Repeat("b", 300)}},
		{"non-github repo", CreateInput{Name: "ok", RepoURL: "https://gitlab.com/acme/widgets"}},
		{"three segment path", CreateInput{Name: "ok", RepoURL: "https://github.com/a/b/c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, testOwner, tt.in)
			assert.True(t, apierr.IsKind(err, apierr.KindInvalidInput), "got %v", err)
		})
	}
}

func TestGet(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)

	got, err := svc.Get(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.Get(ctx, testOwner, "missing")
	assert.True(t, apierr.IsKind(err, apierr.KindNotFound))

	// Ownership is structural: another owner's partition does not contain it.
	_, err = svc.Get(ctx, "someone-else", p.ID)
	assert.True(t, apierr.IsKind(err, apierr.KindNotFound))
}

func TestList_OrderedByUpdatedAtDesc(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first := createProject(t, svc)
	second := createProject(t, svc)

	// Touch the first project so it becomes the most recently updated.
	require.NoError(t, store.UpdateProject(ctx, testOwner, first.ID, map[string]any{
		"updatedAt": time.Now().Add(time.Hour),
	}))

	out, err := svc.List(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, first.ID, out[0].ID)
	assert.Equal(t, second.ID, out[1].ID)
}

func TestUpdate_RequiresAField(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := createProject(t, svc)
	_, err := svc.Update(context.Background(), testOwner, p.ID, UpdateInput{})
	assert.True(t, apierr.IsKind(err, apierr.KindInvalidInput))
}

func TestUpdate_Fields(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)

	name := "Renamed"
	desc := "New description"
	updated, err := svc.Update(ctx, testOwner, p.ID, UpdateInput{Name: &name, Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "New description", updated.Description)
	assert.Equal(t, testRepo, updated.RepoURL)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt) || updated.UpdatedAt.Equal(p.UpdatedAt))

	assert.Equal(t, domain.ActionProjectUpdated, lastActivity(t, store, testOwner).Action)
}

func TestUpdate_RepoURLChangeResetsCommitEvidence(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)

	// Pretend the project was synced and then forced stagnant.
	commitAt := time.Now().AddDate(0, 0, -90)
	forcedAt := time.Now().AddDate(0, 0, -1)
	require.NoError(t, store.UpdateProject(ctx, testOwner, p.ID, map[string]any{
		"lastCommitAt":     commitAt,
		"status":           domain.StatusStagnant,
		"forcedDecisionAt": forcedAt,
	}))

	newURL := "https://github.com/acme/gadgets"
	updated, err := svc.Update(ctx, testOwner, p.ID, UpdateInput{RepoURL: &newURL})
	require.NoError(t, err)

	assert.Equal(t, newURL, updated.RepoURL)
	assert.Nil(t, updated.LastCommitAt)
	assert.Nil(t, updated.ForcedDecisionAt)
	// STAGNANT -> ACTIVE happens without a guard check here.
	assert.Equal(t, domain.StatusActive, updated.Status)
}

func TestUpdate_RepoURLChangeKeepsNonStagnantStatus(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)
	commitAt := time.Now().AddDate(0, 0, -5)
	require.NoError(t, store.UpdateProject(ctx, testOwner, p.ID, map[string]any{
		"lastCommitAt": commitAt,
	}))

	newURL := "https://github.com/acme/gadgets"
	updated, err := svc.Update(ctx, testOwner, p.ID, UpdateInput{RepoURL: &newURL})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, updated.Status)
	assert.Nil(t, updated.LastCommitAt)
}

func TestDelete(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)
	require.NoError(t, svc.Delete(ctx, testOwner, p.ID))

	_, err := svc.Get(ctx, testOwner, p.ID)
	assert.True(t, apierr.IsKind(err, apierr.KindNotFound))

	assert.True(t, apierr.IsKind(svc.Delete(ctx, testOwner, p.ID), apierr.KindNotFound))

	// Audit trail outlives the project.
	entries := store.Activities(testOwner)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionProjectDeleted, entries[1].Action)
	assert.Equal(t, p.ID, entries[1].ProjectID)
}

func TestSync_Success(t *testing.T) {
	svc, store, commits := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)

	commitAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	commits.info = &github.CommitInfo{
		Owner:        "acme",
		Repo:         "widgets",
		LastCommitAt: commitAt,
		SHA:          "abc123def456",
		HTMLURL:      "https://github.com/acme/widgets/commit/abc123def456",
	}

	synced, err := svc.Sync(ctx, testOwner, p.ID)
	require.NoError(t, err)
	require.NotNil(t, synced.LastCommitAt)
	assert.True(t, synced.LastCommitAt.Equal(commitAt))
	assert.Nil(t, synced.ForcedDecisionAt)
	assert.Equal(t, 1, commits.calls)

	entry := lastActivity(t, store, testOwner)
	assert.Equal(t, domain.ActionProjectSynced, entry.Action)
	assert.Contains(t, entry.Message, "abc123d")
	assert.Equal(t, "acme", entry.Metadata["owner"])
	assert.Equal(t, "widgets", entry.Metadata["repo"])
	assert.Equal(t, "abc123def456", entry.Metadata["sha"])
	assert.Equal(t, "https://github.com/acme/widgets/commit/abc123def456", entry.Metadata["commitUrl"])
}

func TestSync_ReactivatesStagnant(t *testing.T) {
	svc, store, commits := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)
	forcedAt := time.Now().AddDate(0, 0, -1)
	forceStatus(t, store, p.ID, domain.StatusStagnant, &forcedAt)

	commits.info = &github.CommitInfo{
		Owner: "acme", Repo: "widgets",
		LastCommitAt: time.Now(), SHA: "abc123",
	}

	synced, err := svc.Sync(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, synced.Status)
	assert.Nil(t, synced.ForcedDecisionAt)
}

func TestSync_ReconcilerErrorPropagatesUnchanged(t *testing.T) {
	svc, store, commits := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)
	want := apierr.RateLimited("GITHUB_RATE_LIMIT", "GitHub API rate limit exceeded")
	commits.err = want

	_, err := svc.Sync(ctx, testOwner, p.ID)
	require.Error(t, err)
	assert.Same(t, want, apierr.From(err))

	// Nothing was written before the fetch failed.
	got, err := svc.Get(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastCommitAt)
	assert.Equal(t, domain.StatusActive, got.Status)

	// And no sync audit entry was produced.
	for _, e := range store.Activities(testOwner) {
		assert.NotEqual(t, domain.ActionProjectSynced, e.Action)
	}
}

func TestArchive(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)

	archived, err := svc.Archive(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, archived.Status)
	assert.Equal(t, domain.ActionProjectArchived, lastActivity(t, store, testOwner).Action)

	// A second archive fails with its own code, not a generic transition error.
	_, err = svc.Archive(ctx, testOwner, p.ID)
	require.Error(t, err)
	assert.Equal(t, "ALREADY_ARCHIVED", apierr.From(err).Code)
	assert.True(t, apierr.IsKind(err, apierr.KindConflict))
}

func TestArchive_FromStagnant(t *testing.T) {
	svc, store, _ := newTestService(t)

	p := createProject(t, svc)
	forceStatus(t, store, p.ID, domain.StatusStagnant, nil)

	archived, err := svc.Archive(context.Background(), testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, archived.Status)
}

func TestArchive_FromShippedRejected(t *testing.T) {
	svc, store, _ := newTestService(t)

	p := createProject(t, svc)
	forceStatus(t, store, p.ID, domain.StatusMVPShipped, nil)

	_, err := svc.Archive(context.Background(), testOwner, p.ID)
	require.Error(t, err)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", apierr.From(err).Code)
}

func TestResume(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)
	forcedAt := time.Now().AddDate(0, 0, -2)
	forceStatus(t, store, p.ID, domain.StatusStagnant, &forcedAt)

	resumed, err := svc.Resume(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, resumed.Status)
	assert.Nil(t, resumed.ForcedDecisionAt)
	assert.Equal(t, domain.ActionProjectResumed, lastActivity(t, store, testOwner).Action)
}

func TestResume_OnlyFromStagnant(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	for _, status := range []domain.Status{domain.StatusActive, domain.StatusArchived, domain.StatusMVPShipped} {
		p := createProject(t, svc)
		if status != domain.StatusActive {
			forceStatus(t, store, p.ID, status, nil)
		}

		_, err := svc.Resume(ctx, testOwner, p.ID)
		require.Error(t, err, "status %s", status)
		assert.Equal(t, "RESUME_NON_STAGNANT", apierr.From(err).Code)
	}
}

func TestShip(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	t.Run("from active", func(t *testing.T) {
		p := createProject(t, svc)
		shipped, err := svc.Ship(ctx, testOwner, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusMVPShipped, shipped.Status)
		assert.Equal(t, domain.ActionProjectShipped, lastActivity(t, store, testOwner).Action)
	})

	t.Run("from stagnant clears forced decision", func(t *testing.T) {
		p := createProject(t, svc)
		forcedAt := time.Now()
		forceStatus(t, store, p.ID, domain.StatusStagnant, &forcedAt)

		shipped, err := svc.Ship(ctx, testOwner, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusMVPShipped, shipped.Status)
		assert.Nil(t, shipped.ForcedDecisionAt)
	})

	t.Run("from archived rejected", func(t *testing.T) {
		p := createProject(t, svc)
		forceStatus(t, store, p.ID, domain.StatusArchived, nil)

		_, err := svc.Ship(ctx, testOwner, p.ID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATUS_TRANSITION", apierr.From(err).Code)
	})
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	p := createProject(t, svc)

	store.SetActivityHook(func(string) error {
		return errors.New("audit sink down")
	})

	archived, err := svc.Archive(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, archived.Status)
	// Only the create entry made it through.
	assert.Len(t, store.Activities(testOwner), 1)
}

func TestEveryMutationRecordsExactlyOneEntry(t *testing.T) {
	svc, store, commits := newTestService(t)
	ctx := context.Background()
	commits.info = &github.CommitInfo{
		Owner: "acme", Repo: "widgets", LastCommitAt: time.Now(), SHA: "abc123",
	}

	p := createProject(t, svc)
	name := "Renamed"

	steps := []struct {
		action domain.ActivityAction
		run    func() error
	}{
		{domain.ActionProjectUpdated, func() error {
			_, err := svc.Update(ctx, testOwner, p.ID, UpdateInput{Name: &name})
			return err
		}},
		{domain.ActionProjectSynced, func() error {
			_, err := svc.Sync(ctx, testOwner, p.ID)
			return err
		}},
		{domain.ActionProjectShipped, func() error {
			_, err := svc.Ship(ctx, testOwner, p.ID)
			return err
		}},
		{domain.ActionProjectDeleted, func() error {
			return svc.Delete(ctx, testOwner, p.ID)
		}},
	}

	for i, step := range steps {
		require.NoError(t, step.run())
		entries := store.Activities(testOwner)
		require.Len(t, entries, i+2, "after %s", step.action)
		assert.Equal(t, step.action, entries[len(entries)-1].Action)
	}
}
