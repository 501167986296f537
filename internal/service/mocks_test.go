package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/auth"
	"github.com/sakif/tracker/internal/authz"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/resolver"
)

// memStore is a shared in-memory backing for the repository mocks. One
// instance per test keeps the cross-entity behavior (project create adds
// the author contributor, membership checks see added rows) consistent
// without a real database.
type memStore struct {
	users    map[int64]*model.User
	projects map[int64]*model.Project
	contribs []*model.Contributor
	issues   map[int64]*model.Issue
	comments map[int64]*model.Comment
	revoked  map[string]bool
	nextID   int64

	revokeErr error // injected failure for blacklist writes
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*model.User),
		projects: make(map[int64]*model.Project),
		issues:   make(map[int64]*model.Issue),
		comments: make(map[int64]*model.Comment),
		revoked:  make(map[string]bool),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memUsers struct{ *memStore }

func (m memUsers) Create(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.ConflictField("username", "a user with that username already exists")
		}
		if u.Email == user.Email {
			return apperror.ConflictField("email", "a user with that email already exists")
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (m memUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperror.NotFoundMsg("user not found with username " + username)
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFoundMsg("user not found with email " + email)
}

func (m memUsers) Update(ctx context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	m.users[user.ID] = user
	return nil
}

func (m memUsers) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	return nil
}

type memProjects struct{ *memStore }

func (m memProjects) Create(ctx context.Context, project *model.Project) error {
	project.ID = m.id()
	project.CreatedAt = time.Now()
	m.projects[project.ID] = project
	m.contribs = append(m.contribs, &model.Contributor{
		ID:        m.id(),
		UserID:    project.AuthorID,
		ProjectID: project.ID,
		Role:      model.RoleAuthor,
	})
	return nil
}

func (m memProjects) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, apperror.NotFound("project", id)
}

func (m memProjects) ListForUser(ctx context.Context, userID int64) ([]model.Project, error) {
	var out []model.Project
	for _, c := range m.contribs {
		if c.UserID == userID {
			if p, ok := m.projects[c.ProjectID]; ok {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (m memProjects) Update(ctx context.Context, project *model.Project) error {
	if _, ok := m.projects[project.ID]; !ok {
		return apperror.NotFound("project", project.ID)
	}
	m.projects[project.ID] = project
	return nil
}

func (m memProjects) Delete(ctx context.Context, id int64) error {
	if _, ok := m.projects[id]; !ok {
		return apperror.NotFound("project", id)
	}
	delete(m.projects, id)
	return nil
}

type memContribs struct{ *memStore }

func (m memContribs) Add(ctx context.Context, c *model.Contributor) error {
	for _, existing := range m.contribs {
		if existing.UserID == c.UserID && existing.ProjectID == c.ProjectID {
			return apperror.Conflict("user is already a contributor of this project")
		}
	}
	c.ID = m.id()
	if c.Role == "" {
		c.Role = model.RoleContributor
	}
	m.contribs = append(m.contribs, c)
	return nil
}

func (m memContribs) ListByProject(ctx context.Context, projectID int64) ([]model.Contributor, error) {
	var out []model.Contributor
	for _, c := range m.contribs {
		if c.ProjectID == projectID {
			cc := *c
			cc.User = m.users[c.UserID]
			out = append(out, cc)
		}
	}
	return out, nil
}

func (m memContribs) IsContributor(ctx context.Context, userID, projectID int64) (bool, error) {
	for _, c := range m.contribs {
		if c.UserID == userID && c.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

type memIssues struct{ *memStore }

func (m memIssues) Create(ctx context.Context, issue *model.Issue) error {
	issue.ID = m.id()
	issue.CreatedAt = time.Now()
	if issue.Status == "" {
		issue.Status = model.StatusTodo
	}
	m.issues[issue.ID] = issue
	return nil
}

func (m memIssues) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	if i, ok := m.issues[id]; ok {
		return i, nil
	}
	return nil, apperror.NotFound("issue", id)
}

func (m memIssues) ListByProject(ctx context.Context, projectID int64) ([]model.Issue, error) {
	var out []model.Issue
	for _, i := range m.issues {
		if i.ProjectID == projectID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (m memIssues) CountByProject(ctx context.Context, projectID int64) (int, error) {
	n := 0
	for _, i := range m.issues {
		if i.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (m memIssues) Update(ctx context.Context, issue *model.Issue) error {
	if _, ok := m.issues[issue.ID]; !ok {
		return apperror.NotFound("issue", issue.ID)
	}
	m.issues[issue.ID] = issue
	return nil
}

func (m memIssues) Delete(ctx context.Context, id int64) error {
	if _, ok := m.issues[id]; !ok {
		return apperror.NotFound("issue", id)
	}
	delete(m.issues, id)
	return nil
}

type memComments struct{ *memStore }

func (m memComments) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = m.id()
	comment.UUID = uuid.New()
	comment.CreatedAt = time.Now()
	m.comments[comment.ID] = comment
	return nil
}

func (m memComments) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	if c, ok := m.comments[id]; ok {
		return c, nil
	}
	return nil, apperror.NotFound("comment", id)
}

func (m memComments) ListByIssue(ctx context.Context, issueID int64) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range m.comments {
		if c.IssueID == issueID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m memComments) Update(ctx context.Context, comment *model.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return apperror.NotFound("comment", comment.ID)
	}
	m.comments[comment.ID] = comment
	return nil
}

func (m memComments) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(m.comments, id)
	return nil
}

type memBlacklist struct{ *memStore }

func (m memBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revoked[jti] = true
	return nil
}

func (m memBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return m.revoked[jti], nil
}

// testEnv wires every service onto one shared memStore.
type testEnv struct {
	store    *memStore
	auth     *AuthService
	projects *ProjectService
	issues   *IssueService
	comments *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	res := resolver.New(memProjects{store}, memIssues{store}, memComments{store})
	engine := authz.NewEngine(memContribs{store})

	return &testEnv{
		store: store,
		auth: NewAuthService(
			memUsers{store}, memBlacklist{store}, tokens, passwords, logger),
		projects: NewProjectService(
			memProjects{store}, memContribs{store}, memIssues{store}, memUsers{store}, res, engine, logger),
		issues: NewIssueService(
			memIssues{store}, memComments{store}, memUsers{store}, res, engine, logger),
		comments: NewCommentService(
			memComments{store}, res, engine, logger),
	}
}

func boolPtr(b bool) *bool { return &b }

// signupUser registers a user through the real signup path so the stored
// password hash is verifiable by Login.
func signupUser(t *testing.T, env *testEnv, username string) *model.User {
	t.Helper()
	user, err := env.auth.Signup(context.Background(), SignupInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "correct-horse",
		Password2:       "correct-horse",
		Age:             30,
		CanBeContacted:  boolPtr(true),
		CanDataBeShared: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Signup(%q) error = %v", username, err)
	}
	return user
}
