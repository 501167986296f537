package model

import "time"

// ProjectType tags a project with the kind of product it tracks.
type ProjectType string

const (
	TypeBackend  ProjectType = "BACKEND"
	TypeFrontend ProjectType = "FRONTEND"
	TypeIOS      ProjectType = "IOS"
	TypeAndroid  ProjectType = "ANDROID"
)

func (t ProjectType) Valid() bool {
	switch t {
	case TypeBackend, TypeFrontend, TypeIOS, TypeAndroid:
		return true
	}
	return false
}

// Project is the root of the resource tree. Issues and comments belong to
// exactly one project through it, and every access decision walks back to
// the owning project's contributor set.
//
// Invariant: a project always has at least one contributor — its author,
// inserted in the same transaction that creates the project.
type Project struct {
	ID          int64       `json:"id"          db:"id"`
	Title       string      `json:"title"       db:"title"`
	Description string      `json:"description" db:"description"`
	Type        ProjectType `json:"type"        db:"type"`
	AuthorID    int64       `json:"authorId"    db:"author_id"`
	CreatedAt   time.Time   `json:"createdAt"   db:"created_at"`
}

// Role is a contributor's role within a project.
type Role string

const (
	RoleAuthor      Role = "AUTHOR"
	RoleContributor Role = "CONTRIBUTOR"
)

// Contributor links a user to a project with a role.
// The (UserID, ProjectID) pair is unique — enforced by the store so that
// two racing adds of the same user resolve to exactly one row.
type Contributor struct {
	ID        int64     `json:"id"        db:"id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	ProjectID int64     `json:"projectId" db:"project_id"`
	Role      Role      `json:"role"      db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// User is the joined user record, populated on contributor listings.
	User *User `json:"user,omitempty" db:"-"`
}
