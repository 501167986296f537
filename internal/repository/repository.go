// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute hand-written in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/tracker/internal/model"
)

type UserRepository interface {
	// Create inserts a user. Username/email collisions come back as
	// apperror.ErrConflict with the offending field set.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user; contributions and authored objects are
	// cascade-deleted by the store.
	Delete(ctx context.Context, id int64) error
}

type ProjectRepository interface {
	// Create inserts the project and its author's AUTHOR contributor row
	// in a single transaction. A project never exists without at least
	// one contributor.
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	// ListForUser returns only projects where userID is a contributor.
	// Filtering happens in the query, not post-hoc, so the existence of
	// other projects never leaks.
	ListForUser(ctx context.Context, userID int64) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id int64) error
}

type ContributorRepository interface {
	// Add inserts a contributor row. A duplicate (user, project) pair
	// comes back as apperror.ErrConflict — the UNIQUE constraint decides
	// races, so of two concurrent adds exactly one succeeds.
	Add(ctx context.Context, c *model.Contributor) error
	// ListByProject returns the project's contributors with each User
	// record joined in.
	ListByProject(ctx context.Context, projectID int64) ([]model.Contributor, error)
	// IsContributor reports membership. Queried fresh on every request —
	// never cached — so revoking a contributor takes effect immediately.
	IsContributor(ctx context.Context, userID, projectID int64) (bool, error)
}

type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id int64) (*model.Issue, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Issue, error)
	CountByProject(ctx context.Context, projectID int64) (int, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id int64) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	ListByIssue(ctx context.Context, issueID int64) ([]model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id int64) error
}

// TokenBlacklist records revoked refresh-token ids (jtis). Entries only
// need to live until the token would have expired anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
