package models

// Role is a named permission class. Names are case-sensitive and unique.
type Role struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// TableName returns the table name for the Role model
func (Role) TableName() string {
	return "roles"
}

// NewRole creates a new Role instance
func NewRole(name string) *Role {
	return &Role{Name: name}
}
