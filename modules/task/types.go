package task

// CreateTaskInput is the recognized input for creating a task. Title is the
// only client-settable field; id, status and timestamps are server-assigned.
type CreateTaskInput struct {
	Title string `json:"title"`
}

// UpdateTaskInput is the recognized input for a partial update. Nil fields
// are left untouched; at least one must be provided.
type UpdateTaskInput struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
}

// StatusCount is one entry of the status→count aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
