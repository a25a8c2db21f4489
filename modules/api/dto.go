package api

// Envelope is the uniform wrapper around every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// CreateTaskRequest is the HTTP request body for creating a task.
type CreateTaskRequest struct {
	Title string `json:"title"`
}

// UpdateTaskRequest is the HTTP request body for a partial update. At least
// one field must be present.
type UpdateTaskRequest struct {
	Title  *string `json:"title"`
	Status *string `json:"status"`
}
