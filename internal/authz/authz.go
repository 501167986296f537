// Package authz decides whether an authenticated user may act on a
// resolved resource chain. Membership is the outer wall: non-members are
// turned away before any ownership question is asked. Writes additionally
// require authorship of the deepest resource in the chain.
package authz

import (
	"context"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/resolver"
)

// Op distinguishes reads from mutating operations.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

const (
	msgNotMember = "You must be a contributor of this project to access it."
	msgNotAuthor = "Only the author may modify or delete this resource."
)

// MembershipChecker answers whether a user is a contributor of a project.
// Backed by the contributor store; queried fresh per request so revocation
// is immediate.
type MembershipChecker interface {
	IsContributor(ctx context.Context, userID, projectID int64) (bool, error)
}

type Engine struct {
	members MembershipChecker
}

func NewEngine(members MembershipChecker) *Engine {
	return &Engine{members: members}
}

// RequireMember fails with Forbidden unless userID is a contributor of
// the project.
func (e *Engine) RequireMember(ctx context.Context, userID, projectID int64) error {
	ok, err := e.members.IsContributor(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden(msgNotMember)
	}
	return nil
}

// RequireAuthor fails with Forbidden unless userID authored the deepest
// resource in the chain.
func (e *Engine) RequireAuthor(userID int64, chain *resolver.Chain) error {
	if chain.AuthorID() != userID {
		return apperror.Forbidden(msgNotAuthor)
	}
	return nil
}

// Authorize runs the standard two-step check: membership always, then
// authorship for writes. Checks run in that order so a non-member author
// still reads as a membership failure.
func (e *Engine) Authorize(ctx context.Context, userID int64, chain *resolver.Chain, op Op) error {
	if err := e.RequireMember(ctx, userID, chain.Project.ID); err != nil {
		return err
	}
	if op == OpWrite {
		return e.RequireAuthor(userID, chain)
	}
	return nil
}
