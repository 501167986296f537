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

// IssueStore implements repository.IssueRepository.
type IssueStore struct {
	db *DB
}

var _ repository.IssueRepository = (*IssueStore)(nil)

const issueColumns = `id, title, description, project_id, author_id, assignee_id, priority, tag, status, created_at`

// Create inserts a new issue and fills in ID and CreatedAt.
func (s *IssueStore) Create(ctx context.Context, issue *model.Issue) error {
	issue.CreatedAt = time.Now().UTC()
	if issue.Status == "" {
		issue.Status = model.StatusTodo
	}

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO issues (title, description, project_id, author_id, assignee_id, priority, tag, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.Title,
		issue.Description,
		issue.ProjectID,
		issue.AuthorID,
		issue.AssigneeID,
		issue.Priority,
		issue.Tag,
		issue.Status,
		issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting issue %q: %w", issue.Title, err)
	}

	issue.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading issue id: %w", err)
	}
	return nil
}

func (s *IssueStore) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	var i model.Issue
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id,
	).Scan(&i.ID, &i.Title, &i.Description, &i.ProjectID, &i.AuthorID, &i.AssigneeID, &i.Priority, &i.Tag, &i.Status, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("issue", id)
		}
		return nil, fmt.Errorf("sqlite: getting issue %d: %w", id, err)
	}
	return &i, nil
}

func (s *IssueStore) ListByProject(ctx context.Context, projectID int64) ([]model.Issue, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE project_id = ? ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing issues for project %d: %w", projectID, err)
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		var i model.Issue
		if err := rows.Scan(&i.ID, &i.Title, &i.Description, &i.ProjectID, &i.AuthorID, &i.AssigneeID, &i.Priority, &i.Tag, &i.Status, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning issue: %w", err)
		}
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing issues for project %d: %w", projectID, err)
	}
	return issues, nil
}

func (s *IssueStore) CountByProject(ctx context.Context, projectID int64) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issues WHERE project_id = ?`, projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting issues for project %d: %w", projectID, err)
	}
	return n, nil
}

func (s *IssueStore) Update(ctx context.Context, issue *model.Issue) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE issues
		 SET title = ?, description = ?, assignee_id = ?, priority = ?, tag = ?, status = ?
		 WHERE id = ?`,
		issue.Title,
		issue.Description,
		issue.AssigneeID,
		issue.Priority,
		issue.Tag,
		issue.Status,
		issue.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating issue %d: %w", issue.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating issue %d: %w", issue.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("issue", issue.ID)
	}
	return nil
}

// Delete removes an issue; its comments cascade.
func (s *IssueStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting issue %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting issue %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("issue", id)
	}
	return nil
}
