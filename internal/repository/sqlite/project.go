package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
)

// ProjectStore implements repository.ProjectRepository.
type ProjectStore struct {
	db *DB
}

// ContributorStore implements repository.ContributorRepository.
type ContributorStore struct {
	db *DB
}

var (
	_ repository.ProjectRepository     = (*ProjectStore)(nil)
	_ repository.ContributorRepository = (*ContributorStore)(nil)
)

// Create inserts the project and its author's AUTHOR contributor row in
// one transaction. If the contributor insert fails the project insert is
// rolled back — a project must never exist without a contributor.
func (s *ProjectStore) Create(ctx context.Context, project *model.Project) (err error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning project create: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	project.CreatedAt = now

	res, err := tx.ExecContext(ctx,
		`INSERT INTO projects (title, description, type, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		project.Title,
		project.Description,
		project.Type,
		project.AuthorID,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project %q: %w", project.Title, err)
	}
	project.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading project id: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO contributors (user_id, project_id, role, created_at)
		 VALUES (?, ?, ?, ?)`,
		project.AuthorID,
		project.ID,
		model.RoleAuthor,
		now,
	); err != nil {
		return fmt.Errorf("sqlite: inserting author contributor: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing project create: %w", err)
	}
	return nil
}

const projectColumns = `id, title, description, type, author_id, created_at`

// GetByID retrieves a project by id.
// Returns apperror.ErrNotFound if no such project exists.
func (s *ProjectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Type, &p.AuthorID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %d: %w", id, err)
	}
	return &p, nil
}

// ListForUser returns the projects where userID appears in the contributor
// set. The filter lives in the JOIN: projects the user does not belong to
// are never materialized, so nothing about them can leak.
func (s *ProjectStore) ListForUser(ctx context.Context, userID int64) ([]model.Project, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT p.id, p.title, p.description, p.type, p.author_id, p.created_at
		 FROM projects p
		 JOIN contributors c ON c.project_id = p.id
		 WHERE c.user_id = ?
		 ORDER BY p.created_at, p.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects for user %d: %w", userID, err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Type, &p.AuthorID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing projects for user %d: %w", userID, err)
	}
	return projects, nil
}

func (s *ProjectStore) Update(ctx context.Context, project *model.Project) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, type = ? WHERE id = ?`,
		project.Title,
		project.Description,
		project.Type,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %d: %w", project.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating project %d: %w", project.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("project", project.ID)
	}
	return nil
}

// Delete removes a project; issues, comments, and contributor rows cascade.
func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("project", id)
	}
	return nil
}

// Add inserts a contributor row. The UNIQUE(user_id, project_id)
// constraint arbitrates racing duplicate adds: whichever insert lands
// second gets ErrConflict.
func (s *ContributorStore) Add(ctx context.Context, c *model.Contributor) error {
	c.CreatedAt = time.Now().UTC()
	if c.Role == "" {
		c.Role = model.RoleContributor
	}

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO contributors (user_id, project_id, role, created_at)
		 VALUES (?, ?, ?, ?)`,
		c.UserID,
		c.ProjectID,
		c.Role,
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "contributors.user_id") {
			return apperror.Conflict("user is already a contributor of this project")
		}
		return fmt.Errorf("sqlite: inserting contributor (user=%d project=%d): %w", c.UserID, c.ProjectID, err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading contributor id: %w", err)
	}
	return nil
}

// ListByProject returns the project's contributors, oldest first, with the
// user record joined in.
func (s *ContributorStore) ListByProject(ctx context.Context, projectID int64) ([]model.Contributor, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.project_id, c.role, c.created_at,
		        u.id, u.username, u.email, u.age, u.can_be_contacted, u.can_data_be_shared, u.created_at
		 FROM contributors c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.project_id = ?
		 ORDER BY c.created_at, c.id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contributors for project %d: %w", projectID, err)
	}
	defer rows.Close()

	contributors := []model.Contributor{}
	for rows.Next() {
		var c model.Contributor
		var u model.User
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.ProjectID, &c.Role, &c.CreatedAt,
			&u.ID, &u.Username, &u.Email, &u.Age, &u.CanBeContacted, &u.CanDataBeShared, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contributor: %w", err)
		}
		c.User = &u
		contributors = append(contributors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing contributors for project %d: %w", projectID, err)
	}
	return contributors, nil
}

// IsContributor reports whether userID belongs to projectID's contributor
// set. Hit fresh on every gated project/issue/comment request.
func (s *ContributorStore) IsContributor(ctx context.Context, userID, projectID int64) (bool, error) {
	var one int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM contributors WHERE user_id = ? AND project_id = ?`,
		userID, projectID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking contributor (user=%d project=%d): %w", userID, projectID, err)
	}
	return true, nil
}
