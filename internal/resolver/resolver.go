// Package resolver loads the resource hierarchy named by a request path.
// Every nested route resolves its full ancestry before any authorization
// decision: a comment is only reachable through the issue and project it
// actually belongs to, and a mismatched ancestor reads as not found rather
// than forbidden.
package resolver

import (
	"context"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
)

// Chain holds the resolved resources for a request, outermost first.
// Project is always set; Issue and Comment only when the path names them.
type Chain struct {
	Project *model.Project
	Issue   *model.Issue
	Comment *model.Comment
}

// AuthorID returns the author of the deepest resolved resource. Ownership
// checks apply to the object being acted on, not its ancestors.
func (c *Chain) AuthorID() int64 {
	switch {
	case c.Comment != nil:
		return c.Comment.AuthorID
	case c.Issue != nil:
		return c.Issue.AuthorID
	default:
		return c.Project.AuthorID
	}
}

type Resolver struct {
	projects repository.ProjectRepository
	issues   repository.IssueRepository
	comments repository.CommentRepository
}

func New(projects repository.ProjectRepository, issues repository.IssueRepository, comments repository.CommentRepository) *Resolver {
	return &Resolver{projects: projects, issues: issues, comments: comments}
}

// Project resolves a single-level chain.
func (r *Resolver) Project(ctx context.Context, projectID int64) (*Chain, error) {
	project, err := r.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Chain{Project: project}, nil
}

// Issue resolves a project/issue chain. An issue that exists but belongs
// to a different project is reported as a missing issue.
func (r *Resolver) Issue(ctx context.Context, projectID, issueID int64) (*Chain, error) {
	chain, err := r.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	issue, err := r.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ProjectID != projectID {
		return nil, apperror.NotFound("issue", issueID)
	}
	chain.Issue = issue
	return chain, nil
}

// Comment resolves a full project/issue/comment chain, checking each
// parent link in turn.
func (r *Resolver) Comment(ctx context.Context, projectID, issueID, commentID int64) (*Chain, error) {
	chain, err := r.Issue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}
	comment, err := r.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IssueID != issueID {
		return nil, apperror.NotFound("comment", commentID)
	}
	chain.Comment = comment
	return chain, nil
}
