package model

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a discussion entry on an issue, owned by that issue and
// cascade-deleted with it.
//
// Besides the numeric primary key, every comment carries a random UUID for
// external-facing identification, generated at creation and immutable.
type Comment struct {
	ID          int64     `json:"id"          db:"id"`
	Description string    `json:"description" db:"description"`
	AuthorID    int64     `json:"authorId"    db:"author_id"`
	IssueID     int64     `json:"issueId"     db:"issue_id"`
	UUID        uuid.UUID `json:"uuid"        db:"uuid"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
