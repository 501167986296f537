package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/authz"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
	"github.com/sakif/tracker/internal/resolver"
)

// IssueService handles issues inside a project. Paths always name the
// parent project; the resolver rejects an issue reached through the wrong
// project before any authorization runs.
type IssueService struct {
	issues   repository.IssueRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	resolver *resolver.Resolver
	authz    *authz.Engine
	logger   *slog.Logger
}

func NewIssueService(
	issues repository.IssueRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	res *resolver.Resolver,
	engine *authz.Engine,
	logger *slog.Logger,
) *IssueService {
	return &IssueService{
		issues:   issues,
		comments: comments,
		users:    users,
		resolver: res,
		authz:    engine,
		logger:   logger,
	}
}

type IssueInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	Tag         model.Tag      `json:"tag"`
	Status      model.Status   `json:"status"`
	AssigneeID  int64          `json:"assigneeId"`
}

// IssueDetail embeds the issue's comments in the single-issue response.
type IssueDetail struct {
	model.Issue
	Comments []model.Comment `json:"comments"`
}

// Create files a new issue on the project. The assignee defaults to the
// creating principal and must reference an existing user; the status
// defaults to TODO.
func (s *IssueService) Create(ctx context.Context, userID, projectID int64, in IssueInput) (*model.Issue, error) {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "This field is required.")
	}
	if len(in.Title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less.", MaxTitleLength))
	}
	if !in.Priority.Valid() {
		return nil, apperror.ValidationFailed("priority",
			fmt.Sprintf("%q is not a valid choice.", in.Priority))
	}
	if !in.Tag.Valid() {
		return nil, apperror.ValidationFailed("tag",
			fmt.Sprintf("%q is not a valid choice.", in.Tag))
	}
	if in.Status == "" {
		in.Status = model.StatusTodo
	} else if !in.Status.Valid() {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("%q is not a valid choice.", in.Status))
	}

	assigneeID := in.AssigneeID
	if assigneeID == 0 {
		assigneeID = userID
	} else if err := s.checkAssignee(ctx, assigneeID); err != nil {
		return nil, err
	}

	issue := &model.Issue{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		ProjectID:   projectID,
		AuthorID:    userID,
		AssigneeID:  assigneeID,
		Priority:    in.Priority,
		Tag:         in.Tag,
		Status:      in.Status,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		s.logger.Error("failed to create issue",
			slog.Int64("project_id", projectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	s.logger.Info("issue created",
		slog.Int64("id", issue.ID),
		slog.Int64("project_id", projectID),
		slog.Int64("author_id", userID),
	)
	return issue, nil
}

func (s *IssueService) checkAssignee(ctx context.Context, assigneeID int64) error {
	if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("assigneeId",
				fmt.Sprintf("User %d does not exist.", assigneeID))
		}
		return fmt.Errorf("looking up assignee: %w", err)
	}
	return nil
}

// List returns the project's issues. Members only.
func (s *IssueService) List(ctx context.Context, userID, projectID int64) ([]model.Issue, error) {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}
	return s.issues.ListByProject(ctx, projectID)
}

// Get returns one issue with its comments embedded. Members only.
func (s *IssueService) Get(ctx context.Context, userID, projectID, issueID int64) (*IssueDetail, error) {
	chain, err := s.resolver.Issue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return &IssueDetail{Issue: *chain.Issue, Comments: comments}, nil
}

type IssueUpdateInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *model.Priority `json:"priority"`
	Tag         *model.Tag      `json:"tag"`
	Status      *model.Status   `json:"status"`
	AssigneeID  *int64          `json:"assigneeId"`
}

// Update applies a partial update. Issue author only.
func (s *IssueService) Update(ctx context.Context, userID, projectID, issueID int64, in IssueUpdateInput) (*model.Issue, error) {
	chain, err := s.resolver.Issue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpWrite); err != nil {
		return nil, err
	}

	issue := chain.Issue
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "Title must not be blank.")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("Title must be %d characters or less.", MaxTitleLength))
		}
		issue.Title = title
	}
	if in.Description != nil {
		issue.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperror.ValidationFailed("priority",
				fmt.Sprintf("%q is not a valid choice.", *in.Priority))
		}
		issue.Priority = *in.Priority
	}
	if in.Tag != nil {
		if !in.Tag.Valid() {
			return nil, apperror.ValidationFailed("tag",
				fmt.Sprintf("%q is not a valid choice.", *in.Tag))
		}
		issue.Tag = *in.Tag
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperror.ValidationFailed("status",
				fmt.Sprintf("%q is not a valid choice.", *in.Status))
		}
		issue.Status = *in.Status
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, *in.AssigneeID); err != nil {
			return nil, err
		}
		issue.AssigneeID = *in.AssigneeID
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, fmt.Errorf("updating issue: %w", err)
	}
	return issue, nil
}

// Delete removes an issue and its comments. Issue author only.
func (s *IssueService) Delete(ctx context.Context, userID, projectID, issueID int64) error {
	chain, err := s.resolver.Issue(ctx, projectID, issueID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpWrite); err != nil {
		return err
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		return fmt.Errorf("deleting issue: %w", err)
	}
	s.logger.Info("issue deleted",
		slog.Int64("id", issueID),
		slog.Int64("user_id", userID),
	)
	return nil
}
