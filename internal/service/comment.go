package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/authz"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
	"github.com/sakif/tracker/internal/resolver"
)

const MaxCommentLength = 4096

// CommentService handles comments on issues. Every path names the full
// project/issue ancestry, which the resolver verifies link by link.
type CommentService struct {
	comments repository.CommentRepository
	resolver *resolver.Resolver
	authz    *authz.Engine
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	res *resolver.Resolver,
	engine *authz.Engine,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		resolver: res,
		authz:    engine,
		logger:   logger,
	}
}

// Create posts a comment on the issue. Members only. The store assigns
// the comment's opaque uuid.
func (s *CommentService) Create(ctx context.Context, userID, projectID, issueID int64, description string) (*model.Comment, error) {
	chain, err := s.resolver.Issue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.ValidationFailed("description", "This field is required.")
	}
	if len(description) > MaxCommentLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("Comment must be %d characters or less.", MaxCommentLength))
	}

	comment := &model.Comment{
		Description: description,
		AuthorID:    userID,
		IssueID:     issueID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.Int64("issue_id", issueID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.Int64("id", comment.ID),
		slog.Int64("issue_id", issueID),
		slog.Int64("author_id", userID),
	)
	return comment, nil
}

// List returns the issue's comments. Members only.
func (s *CommentService) List(ctx context.Context, userID, projectID, issueID int64) ([]model.Comment, error) {
	chain, err := s.resolver.Issue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}
	return s.comments.ListByIssue(ctx, issueID)
}

// Get returns one comment. Members only.
func (s *CommentService) Get(ctx context.Context, userID, projectID, issueID, commentID int64) (*model.Comment, error) {
	chain, err := s.resolver.Comment(ctx, projectID, issueID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}
	return chain.Comment, nil
}

// Update rewrites the comment's description. Comment author only.
func (s *CommentService) Update(ctx context.Context, userID, projectID, issueID, commentID int64, description string) (*model.Comment, error) {
	chain, err := s.resolver.Comment(ctx, projectID, issueID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpWrite); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.ValidationFailed("description", "Description must not be blank.")
	}
	if len(description) > MaxCommentLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("Comment must be %d characters or less.", MaxCommentLength))
	}

	comment := chain.Comment
	comment.Description = description
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment. Author only: membership is checked first, then
// authorship of the comment itself, so a project author cannot delete
// someone else's comment.
func (s *CommentService) Delete(ctx context.Context, userID, projectID, issueID, commentID int64) error {
	chain, err := s.resolver.Comment(ctx, projectID, issueID, commentID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireMember(ctx, userID, chain.Project.ID); err != nil {
		return err
	}
	if err := s.authz.RequireAuthor(userID, chain); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	s.logger.Info("comment deleted",
		slog.Int64("id", commentID),
		slog.Int64("user_id", userID),
	)
	return nil
}
