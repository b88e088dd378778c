package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
)

const (
	usersCollection        = "users"
	projectsCollection     = "projects"
	activityLogsCollection = "activityLogs"
)

// FirestoreStore stores projects and activity logs as per-user subcollections:
// users/{uid}/projects/{id} and users/{uid}/activityLogs/{id}. The projects
// subcollection name is shared across users so the stagnation scan can use a
// single collection-group query.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) projects(ownerID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(ownerID).Collection(projectsCollection)
}

func (s *FirestoreStore) activityLogs(ownerID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(ownerID).Collection(activityLogsCollection)
}

func (s *FirestoreStore) CreateProject(ctx context.Context, ownerID string, p *domain.Project) (string, error) {
	ref := s.projects(ownerID).NewDoc()
	p.ID = ref.ID
	if _, err := ref.Set(ctx, p); err != nil {
		return "", fmt.Errorf("create project: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) GetProject(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	snap, err := s.projects(ownerID).Doc(projectID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return decodeProject(snap)
}

func (s *FirestoreStore) UpdateProject(ctx context.Context, ownerID, projectID string, updates map[string]any) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for path, value := range updates {
		fsUpdates = append(fsUpdates, firestore.Update{Path: path, Value: value})
	}

	_, err := s.projects(ownerID).Doc(projectID).Update(ctx, fsUpdates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	if _, err := s.projects(ownerID).Doc(projectID).Delete(ctx); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListProjects(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	iter := s.projects(ownerID).OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	out := make([]*domain.Project, 0, 16)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		p, err := decodeProject(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *FirestoreStore) ListProjectsByStatus(ctx context.Context, st domain.Status) ([]OwnedProject, error) {
	iter := s.client.CollectionGroup(projectsCollection).
		Where("status", "==", string(st)).
		Documents(ctx)
	defer iter.Stop()

	out := make([]OwnedProject, 0, 64)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query projects by status: %w", err)
		}

		// users/{uid}/projects/{id} -> the grandparent document is the owner.
		userDoc := snap.Ref.Parent.Parent
		if userDoc == nil {
			continue
		}

		p, err := decodeProject(snap)
		if err != nil {
			// A corrupt document must not sink the other matches; surface it
			// so the caller can count it as a per-project failure.
			out = append(out, OwnedProject{
				OwnerID: userDoc.ID,
				Project: &domain.Project{ID: snap.Ref.ID},
				Err:     err,
			})
			continue
		}
		out = append(out, OwnedProject{OwnerID: userDoc.ID, Project: p})
	}
	return out, nil
}

func (s *FirestoreStore) AddActivity(ctx context.Context, ownerID string, entry *domain.ActivityLogEntry) error {
	ref := s.activityLogs(ownerID).NewDoc()
	entry.ID = ref.ID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := ref.Set(ctx, entry); err != nil {
		return fmt.Errorf("add activity: %w", err)
	}
	return nil
}

func decodeProject(snap *firestore.DocumentSnapshot) (*domain.Project, error) {
	var p domain.Project
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", snap.Ref.ID, err)
	}
	if p.ID == "" {
		p.ID = snap.Ref.ID
	}
	return &p, nil
}
