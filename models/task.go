package models

// Task is a unit of work, optionally attached to a project
type Task struct {
	ID          int64   `json:"id" db:"id"`
	Description string  `json:"description" db:"description"`
	DueDate     *Date   `json:"due_date" db:"due_date"`
	Status      *string `json:"status" db:"status"`
	OwnerID     *int64  `json:"owner_id" db:"owner_id"`
	ProjectID   *int64  `json:"project_id" db:"project_id"`
}

// TableName returns the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a new Task instance
func NewTask(description string) *Task {
	return &Task{Description: description}
}
