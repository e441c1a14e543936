package models

// Project is an owned grouping of tasks
type Project struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description" db:"description"`
	StartDate   *Date   `json:"start_date" db:"start_date"`
	EndDate     *Date   `json:"end_date" db:"end_date"`
	OwnerID     *int64  `json:"owner_id" db:"owner_id"`
}

// TableName returns the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new Project instance
func NewProject(name string) *Project {
	return &Project{Name: name}
}
