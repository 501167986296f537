package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/tracker/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database that is
// closed when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhashnotarealhash",
		Age:          30,
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

// createTestProject creates a project (and its author contributor row).
func createTestProject(t *testing.T, db *DB, authorID int64, title string) *model.Project {
	t.Helper()
	project := &model.Project{
		Title:    title,
		Type:     model.TypeBackend,
		AuthorID: authorID,
	}
	if err := db.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("failed to create test project %q: %v", title, err)
	}
	return project
}

// createTestIssue creates an issue authored by and assigned to authorID.
func createTestIssue(t *testing.T, db *DB, projectID, authorID int64, title string) *model.Issue {
	t.Helper()
	issue := &model.Issue{
		Title:      title,
		ProjectID:  projectID,
		AuthorID:   authorID,
		AssigneeID: authorID,
		Priority:   model.PriorityMedium,
		Tag:        model.TagTask,
	}
	if err := db.Issues().Create(context.Background(), issue); err != nil {
		t.Fatalf("failed to create test issue %q: %v", title, err)
	}
	return issue
}
