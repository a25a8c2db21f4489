package task

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// Valid reports whether s is one of the two representable statuses.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusDone
}

// MaxTitleLen is the maximum title length after trimming.
const MaxTitleLen = 200

// Task represents a to-do item. Deletion is a hard delete: ids are never
// reused and there is no undelete.
type Task struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Status    Status    `gorm:"size:10;not null;default:open" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// NewID generates a new server-assigned task identifier.
func NewID() string {
	return uuid.New().String()
}

// ValidateID rejects identifiers that are not well-formed, distinctly from
// "not found": a malformed id never reaches the database.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
