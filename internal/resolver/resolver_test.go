package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
)

type mockProjects struct {
	byID map[int64]*model.Project
}

func (m *mockProjects) Create(ctx context.Context, p *model.Project) error { return nil }
func (m *mockProjects) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, apperror.NotFound("project", id)
}
func (m *mockProjects) ListForUser(ctx context.Context, userID int64) ([]model.Project, error) {
	return nil, nil
}
func (m *mockProjects) Update(ctx context.Context, p *model.Project) error { return nil }
func (m *mockProjects) Delete(ctx context.Context, id int64) error         { return nil }

type mockIssues struct {
	byID map[int64]*model.Issue
}

func (m *mockIssues) Create(ctx context.Context, i *model.Issue) error { return nil }
func (m *mockIssues) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	if i, ok := m.byID[id]; ok {
		return i, nil
	}
	return nil, apperror.NotFound("issue", id)
}
func (m *mockIssues) ListByProject(ctx context.Context, projectID int64) ([]model.Issue, error) {
	return nil, nil
}
func (m *mockIssues) CountByProject(ctx context.Context, projectID int64) (int, error) {
	return 0, nil
}
func (m *mockIssues) Update(ctx context.Context, i *model.Issue) error { return nil }
func (m *mockIssues) Delete(ctx context.Context, id int64) error       { return nil }

type mockComments struct {
	byID map[int64]*model.Comment
}

func (m *mockComments) Create(ctx context.Context, c *model.Comment) error { return nil }
func (m *mockComments) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, apperror.NotFound("comment", id)
}
func (m *mockComments) ListByIssue(ctx context.Context, issueID int64) ([]model.Comment, error) {
	return nil, nil
}
func (m *mockComments) Update(ctx context.Context, c *model.Comment) error { return nil }
func (m *mockComments) Delete(ctx context.Context, id int64) error         { return nil }

func newTestResolver() *Resolver {
	projects := &mockProjects{byID: map[int64]*model.Project{
		1: {ID: 1, Title: "One", AuthorID: 10},
		2: {ID: 2, Title: "Two", AuthorID: 20},
	}}
	issues := &mockIssues{byID: map[int64]*model.Issue{
		5: {ID: 5, ProjectID: 1, AuthorID: 11},
		6: {ID: 6, ProjectID: 2, AuthorID: 20},
	}}
	comments := &mockComments{byID: map[int64]*model.Comment{
		9: {ID: 9, IssueID: 5, AuthorID: 12},
		8: {ID: 8, IssueID: 6, AuthorID: 20},
	}}
	return New(projects, issues, comments)
}

func TestResolveProject(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	chain, err := r.Project(ctx, 1)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if chain.Project.ID != 1 || chain.Issue != nil || chain.Comment != nil {
		t.Errorf("chain = %+v", chain)
	}
	if chain.AuthorID() != 10 {
		t.Errorf("AuthorID() = %d, want 10", chain.AuthorID())
	}

	if _, err := r.Project(ctx, 99); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Project(99) = %v, want ErrNotFound", err)
	}
}

func TestResolveIssue(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	chain, err := r.Issue(ctx, 1, 5)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if chain.Project.ID != 1 || chain.Issue.ID != 5 {
		t.Errorf("chain = %+v", chain)
	}
	if chain.AuthorID() != 11 {
		t.Errorf("AuthorID() = %d, want issue author 11", chain.AuthorID())
	}
}

func TestResolveIssue_WrongProject(t *testing.T) {
	r := newTestResolver()

	// Issue 6 exists but under project 2.
	_, err := r.Issue(context.Background(), 1, 6)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Issue(1, 6) = %v, want ErrNotFound", err)
	}
}

func TestResolveComment(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	chain, err := r.Comment(ctx, 1, 5, 9)
	if err != nil {
		t.Fatalf("Comment() error = %v", err)
	}
	if chain.Project.ID != 1 || chain.Issue.ID != 5 || chain.Comment.ID != 9 {
		t.Errorf("chain = %+v", chain)
	}
	if chain.AuthorID() != 12 {
		t.Errorf("AuthorID() = %d, want comment author 12", chain.AuthorID())
	}
}

func TestResolveComment_WrongAncestor(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	tests := []struct {
		name                         string
		projectID, issueID, commentID int64
	}{
		{"comment under wrong issue", 1, 5, 8},
		{"issue under wrong project", 1, 6, 8},
		{"missing project", 99, 5, 9},
		{"missing comment", 1, 5, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Comment(ctx, tt.projectID, tt.issueID, tt.commentID)
			if !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("Comment() = %v, want ErrNotFound", err)
			}
		})
	}
}
