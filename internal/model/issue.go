package model

import "time"

// Priority ranks how urgent an issue is.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Tag classifies what kind of work an issue represents.
type Tag string

const (
	TagBug     Tag = "BUG"
	TagFeature Tag = "FEATURE"
	TagTask    Tag = "TASK"
)

func (t Tag) Valid() bool {
	switch t {
	case TagBug, TagFeature, TagTask:
		return true
	}
	return false
}

// Status tracks an issue through its lifecycle. New issues start at TODO.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// Issue is a unit of work inside a project. It is owned by its project and
// cascade-deleted with it.
//
// AssigneeID always references an existing user: the client may pick any
// user at creation, and when it doesn't, the assignee defaults to the
// issue's creator.
type Issue struct {
	ID          int64     `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	ProjectID   int64     `json:"projectId"   db:"project_id"`
	AuthorID    int64     `json:"authorId"    db:"author_id"`
	AssigneeID  int64     `json:"assigneeId"  db:"assignee_id"`
	Priority    Priority  `json:"priority"    db:"priority"`
	Tag         Tag       `json:"tag"         db:"tag"`
	Status      Status    `json:"status"      db:"status"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
