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

const MaxTitleLength = 128

// ProjectService handles projects and their contributor lists. Every
// method takes the authenticated caller's userID and runs the resolve →
// authorize pipeline before touching the domain operation.
type ProjectService struct {
	projects     repository.ProjectRepository
	contributors repository.ContributorRepository
	issues       repository.IssueRepository
	users        repository.UserRepository
	resolver     *resolver.Resolver
	authz        *authz.Engine
	logger       *slog.Logger
}

func NewProjectService(
	projects repository.ProjectRepository,
	contributors repository.ContributorRepository,
	issues repository.IssueRepository,
	users repository.UserRepository,
	res *resolver.Resolver,
	engine *authz.Engine,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		projects:     projects,
		contributors: contributors,
		issues:       issues,
		users:        users,
		resolver:     res,
		authz:        engine,
		logger:       logger,
	}
}

type ProjectInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        model.ProjectType `json:"type"`
}

// ProjectDetail is the single-project response shape: the project plus
// its contributor list and issue count.
type ProjectDetail struct {
	model.Project
	Contributors []model.Contributor `json:"contributors"`
	IssueCount   int                 `json:"issueCount"`
}

// Create makes a new project authored by userID. The store inserts the
// author's AUTHOR contributor row in the same transaction.
func (s *ProjectService) Create(ctx context.Context, userID int64, in ProjectInput) (*model.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "This field is required.")
	}
	if len(in.Title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less.", MaxTitleLength))
	}
	if !in.Type.Valid() {
		return nil, apperror.ValidationFailed("type",
			fmt.Sprintf("%q is not a valid choice.", in.Type))
	}

	project := &model.Project{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		AuthorID:    userID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.Int64("author_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.Int64("id", project.ID),
		slog.Int64("author_id", userID),
	)
	return project, nil
}

// List returns the projects userID contributes to. The membership filter
// runs in the query, so no unrelated project ever reaches this layer.
func (s *ProjectService) List(ctx context.Context, userID int64) ([]model.Project, error) {
	return s.projects.ListForUser(ctx, userID)
}

// Get returns a project with contributors and issue count embedded.
// Members only.
func (s *ProjectService) Get(ctx context.Context, userID, projectID int64) (*ProjectDetail, error) {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}

	contributors, err := s.contributors.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing contributors: %w", err)
	}
	count, err := s.issues.CountByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting issues: %w", err)
	}

	return &ProjectDetail{
		Project:      *chain.Project,
		Contributors: contributors,
		IssueCount:   count,
	}, nil
}

// Update applies a partial update. Author only.
func (s *ProjectService) Update(ctx context.Context, userID, projectID int64, in ProjectUpdateInput) (*model.Project, error) {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpWrite); err != nil {
		return nil, err
	}

	project := chain.Project
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "Title must not be blank.")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("Title must be %d characters or less.", MaxTitleLength))
		}
		project.Title = title
	}
	if in.Description != nil {
		project.Description = strings.TrimSpace(*in.Description)
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperror.ValidationFailed("type",
				fmt.Sprintf("%q is not a valid choice.", *in.Type))
		}
		project.Type = *in.Type
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return project, nil
}

type ProjectUpdateInput struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Type        *model.ProjectType `json:"type"`
}

// Delete removes a project and, by cascade, its contributors, issues and
// comments. Author only.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpWrite); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project deleted",
		slog.Int64("id", projectID),
		slog.Int64("user_id", userID),
	)
	return nil
}

// ListContributors returns the project's contributor list. Members only.
func (s *ProjectService) ListContributors(ctx context.Context, userID, projectID int64) ([]model.Contributor, error) {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}
	return s.contributors.ListByProject(ctx, projectID)
}

// AddContributor adds targetUserID to the project as a CONTRIBUTOR.
// Check order matters: an unknown project is 404 before the caller's
// membership is considered, a non-member caller is 403 before the target
// is validated, a missing or unknown target is 400, and only then can a
// duplicate surface as 409.
func (s *ProjectService) AddContributor(ctx context.Context, userID, projectID, targetUserID int64) (*model.Contributor, error) {
	chain, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, userID, chain, authz.OpRead); err != nil {
		return nil, err
	}

	if targetUserID == 0 {
		return nil, apperror.ValidationFailed("user", "This field is required.")
	}
	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("user",
				fmt.Sprintf("User %d does not exist.", targetUserID))
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	c := &model.Contributor{
		UserID:    target.ID,
		ProjectID: projectID,
		Role:      model.RoleContributor,
	}
	if err := s.contributors.Add(ctx, c); err != nil {
		return nil, err
	}
	c.User = target

	s.logger.Info("contributor added",
		slog.Int64("project_id", projectID),
		slog.Int64("user_id", target.ID),
	)
	return c, nil
}
