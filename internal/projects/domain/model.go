package domain

import "time"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusStagnant   Status = "STAGNANT"
	StatusArchived   Status = "ARCHIVED"
	StatusMVPShipped Status = "MVP_SHIPPED"
)

// RepoProviderGitHub is the only repository provider currently supported.
const RepoProviderGitHub = "github"

// Project is a user-owned software project tracked for abandonment.
// LastCommitAt is nil until the first successful sync and is reset to nil
// whenever the repository URL changes. ForcedDecisionAt is set only when the
// stagnation scanner (not the owner) moved the project to STAGNANT, and is
// cleared on every path that leaves STAGNANT.
type Project struct {
	ID               string     `json:"id" firestore:"id"`
	Name             string     `json:"name" firestore:"name"`
	Description      string     `json:"description" firestore:"description"`
	RepoURL          string     `json:"repoUrl" firestore:"repoUrl"`
	RepoProvider     string     `json:"repoProvider" firestore:"repoProvider"`
	CreatedAt        time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt" firestore:"updatedAt"`
	LastCommitAt     *time.Time `json:"lastCommitAt" firestore:"lastCommitAt"`
	Status           Status     `json:"status" firestore:"status"`
	ForcedDecisionAt *time.Time `json:"forcedDecisionAt" firestore:"forcedDecisionAt"`
}

// ActivityAction tags an audit entry with the lifecycle event that produced it.
type ActivityAction string

const (
	ActionProjectCreated        ActivityAction = "project_created"
	ActionProjectUpdated        ActivityAction = "project_updated"
	ActionProjectDeleted        ActivityAction = "project_deleted"
	ActionProjectSynced         ActivityAction = "project_synced"
	ActionProjectArchived       ActivityAction = "project_archived"
	ActionProjectResumed        ActivityAction = "project_resumed"
	ActionProjectShipped        ActivityAction = "project_shipped"
	ActionProjectMarkedStagnant ActivityAction = "project_marked_stagnant"
)

// ActivityLogEntry is an append-only audit record. Entries are never updated
// or deleted, and they outlive the project they reference.
type ActivityLogEntry struct {
	ID        string         `json:"id" firestore:"id"`
	Action    ActivityAction `json:"action" firestore:"action"`
	ProjectID string         `json:"projectId" firestore:"projectId"`
	Message   string         `json:"message" firestore:"message"`
	Metadata  map[string]any `json:"metadata,omitempty" firestore:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt" firestore:"createdAt"`
}
