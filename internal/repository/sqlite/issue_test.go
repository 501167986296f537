package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
)

func TestIssueCreate_DefaultsStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	project := createTestProject(t, db, alice.ID, "Demo")

	issue := &model.Issue{
		Title:      "crash on startup",
		ProjectID:  project.ID,
		AuthorID:   alice.ID,
		AssigneeID: alice.ID,
		Priority:   model.PriorityHigh,
		Tag:        model.TagBug,
	}
	if err := db.Issues().Create(ctx, issue); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.Issues().GetByID(ctx, issue.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != model.StatusTodo {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusTodo)
	}
	if got.AssigneeID != alice.ID {
		t.Errorf("AssigneeID = %d, want %d", got.AssigneeID, alice.ID)
	}
}

func TestIssueListAndCountByProject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	p1 := createTestProject(t, db, alice.ID, "One")
	p2 := createTestProject(t, db, alice.ID, "Two")

	for _, title := range []string{"a", "b", "c"} {
		createTestIssue(t, db, p1.ID, alice.ID, title)
	}
	createTestIssue(t, db, p2.ID, alice.ID, "elsewhere")

	issues, err := db.Issues().ListByProject(ctx, p1.ID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(issues) != 3 {
		t.Errorf("ListByProject() = %d issues, want 3", len(issues))
	}

	count, err := db.Issues().CountByProject(ctx, p1.ID)
	if err != nil {
		t.Fatalf("CountByProject() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountByProject() = %d, want 3", count)
	}
}

func TestIssueUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	project := createTestProject(t, db, alice.ID, "Demo")
	issue := createTestIssue(t, db, project.ID, alice.ID, "bug")

	issue.Title = "renamed"
	issue.Status = model.StatusInProgress
	issue.AssigneeID = bob.ID
	if err := db.Issues().Update(ctx, issue); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Issues().GetByID(ctx, issue.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "renamed" || got.Status != model.StatusInProgress || got.AssigneeID != bob.ID {
		t.Errorf("updated issue = %+v", got)
	}
}

func TestIssueDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	project := createTestProject(t, db, alice.ID, "Demo")
	issue := createTestIssue(t, db, project.ID, alice.ID, "bug")

	if err := db.Issues().Delete(ctx, issue.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Issues().GetByID(ctx, issue.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrNotFound", err)
	}

	if err := db.Issues().Delete(ctx, issue.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() missing = %v, want ErrNotFound", err)
	}
}
