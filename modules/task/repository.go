package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// normalizeTitle trims a raw title and enforces the length constraints. Both
// the service and the repository call it, so an invalid title can never reach
// persisted state even if a caller skips the service layer.
func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return "", &ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("must be at most %d characters", MaxTitleLen),
		}
	}
	return title, nil
}

// Repository provides access to task storage. It is the only component that
// translates tasks to and from the storage representation.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository over an open database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAll retrieves all tasks, newest first. An empty collection yields an
// empty slice, never an error.
func (r *Repository) FindAll() ([]*Task, error) {
	var tasks []*Task
	if err := r.db.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// Create persists a new task with a fresh id, open status and identical
// creation/update timestamps.
func (r *Repository) Create(title string) (*Task, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &Task{
		ID:        NewID(),
		Title:     title,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.db.Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// FindByID retrieves a task by its id. Malformed ids fail with ErrInvalidID
// before the database is consulted.
func (r *Repository) FindByID(id string) (*Task, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	var task Task
	if err := r.db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// UpdatePatch is the set of fields a partial update may touch. Nil fields are
// left untouched; provided fields are validated and applied together in a
// single UPDATE statement.
type UpdatePatch struct {
	Title  *string
	Status *Status
}

// UpdateByID applies the provided fields to the matching task and refreshes
// its updated_at timestamp. All fields are validated before anything is
// written, so a partial application is never visible.
func (r *Repository) UpdateByID(id string, patch UpdatePatch) (*Task, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		fields["status"] = *patch.Status
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	fields["updated_at"] = time.Now().UTC()

	result := r.db.Model(&Task{}).Where("id = ?", id).Updates(fields)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(id)
}

// DeleteByID removes a task permanently and returns the deleted record.
func (r *Repository) DeleteByID(id string) (*Task, error) {
	task, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Delete(&Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return task, nil
}

// Count returns the total number of tasks.
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&Task{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of tasks in each status. Both statuses are
// always present in the result, zero-filled when absent.
func (r *Repository) CountByStatus() (map[Status]int64, error) {
	type row struct {
		Status Status
		Count  int64
	}
	var rows []row
	err := r.db.Model(&Task{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}

	counts := map[Status]int64{StatusOpen: 0, StatusDone: 0}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
