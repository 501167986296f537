package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
)

// CommentStore implements repository.CommentRepository.
type CommentStore struct {
	db *DB
}

var _ repository.CommentRepository = (*CommentStore)(nil)

const commentColumns = `id, description, author_id, issue_id, uuid, created_at`

// Create inserts a new comment, filling in ID, UUID, and CreatedAt.
// The UUID is the external-facing identifier; it is generated here and
// never changes.
func (s *CommentStore) Create(ctx context.Context, comment *model.Comment) error {
	comment.CreatedAt = time.Now().UTC()
	comment.UUID = uuid.New()

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO comments (description, author_id, issue_id, uuid, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.Description,
		comment.AuthorID,
		comment.IssueID,
		comment.UUID.String(),
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}

	comment.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading comment id: %w", err)
	}
	return nil
}

func scanComment(scan func(dest ...any) error) (*model.Comment, error) {
	var c model.Comment
	var rawUUID string
	if err := scan(&c.ID, &c.Description, &c.AuthorID, &c.IssueID, &rawUUID, &c.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bad comment uuid %q: %w", rawUUID, err)
	}
	c.UUID = parsed
	return &c, nil
}

func (s *CommentStore) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %d: %w", id, err)
	}
	return c, nil
}

func (s *CommentStore) ListByIssue(ctx context.Context, issueID int64) ([]model.Comment, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE issue_id = ? ORDER BY created_at, id`,
		issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for issue %d: %w", issueID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for issue %d: %w", issueID, err)
	}
	return comments, nil
}

// Update writes a comment's description back. Author, issue, and uuid are
// immutable.
func (s *CommentStore) Update(ctx context.Context, comment *model.Comment) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE comments SET description = ? WHERE id = ?`,
		comment.Description,
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %d: %w", comment.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %d: %w", comment.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("comment", comment.ID)
	}
	return nil
}

func (s *CommentStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}

// BlacklistStore implements repository.TokenBlacklist over the
// token_blacklist table.
type BlacklistStore struct {
	db *DB
}

var _ repository.TokenBlacklist = (*BlacklistStore)(nil)

// Revoke records a refresh-token jti. Revoking the same jti twice is a
// no-op, not an error — logout must be idempotent.
func (s *BlacklistStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO token_blacklist (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: blacklisting token %s: %w", jti, err)
	}
	return nil
}

func (s *BlacklistStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM token_blacklist WHERE jti = ?`, jti,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking blacklist for %s: %w", jti, err)
	}
	return true, nil
}
