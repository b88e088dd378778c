package repository

import (
	"context"
	"errors"

	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
)

// ErrNotFound is returned when an owner-scoped lookup finds no document.
var ErrNotFound = errors.New("project not found")

// OwnedProject pairs a project with its owner, for queries that cross owner
// partitions (the stagnation scan is the only such caller). Err marks a
// document that matched the query but could not be decoded; Project then
// carries only the document ID so callers can count and log the failure
// without losing the rest of the result set.
type OwnedProject struct {
	OwnerID string
	Project *domain.Project
	Err     error
}

// Store is the document-store surface this service relies on. Projects and
// activity logs are partitioned per owner; updates are atomic per document.
// No multi-document transactions are used.
type Store interface {
	// CreateProject persists p under the owner's partition, assigning and
	// returning the generated document ID (also written into p.ID).
	CreateProject(ctx context.Context, ownerID string, p *domain.Project) (string, error)

	// GetProject returns the owner's project or ErrNotFound.
	GetProject(ctx context.Context, ownerID, projectID string) (*domain.Project, error)

	// UpdateProject applies a partial field set atomically. Keys are document
	// field names; a nil value writes an explicit null. Returns ErrNotFound
	// if the document does not exist.
	UpdateProject(ctx context.Context, ownerID, projectID string, updates map[string]any) error

	// DeleteProject removes the document. Activity entries referencing it are
	// left in place; the audit trail outlives the project.
	DeleteProject(ctx context.Context, ownerID, projectID string) error

	// ListProjects returns all of the owner's projects ordered by UpdatedAt
	// descending.
	ListProjects(ctx context.Context, ownerID string) ([]*domain.Project, error)

	// ListProjectsByStatus scans all owners' projects in the given status.
	// A document that cannot be decoded is returned as an entry with Err set
	// rather than failing the whole query; only a query/stream failure
	// returns an error.
	ListProjectsByStatus(ctx context.Context, status domain.Status) ([]OwnedProject, error)

	// AddActivity appends an audit entry to the owner's activity log.
	AddActivity(ctx context.Context, ownerID string, entry *domain.ActivityLogEntry) error
}
