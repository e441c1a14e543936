package auth

// Role names. Comparison is case-sensitive.
const (
	RoleAdmin       = "Admin"
	RoleTaskCreator = "Task Creator"
	RoleReadOnly    = "Read Only"
)

// Resource is a guarded entity family
type Resource string

const (
	ResourceProject Resource = "project"
	ResourceTask    Resource = "task"
	ResourceUser    Resource = "user"
	ResourceRole    Resource = "role"
	ResourceProfile Resource = "profile"
)

// Action is an operation on a resource
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// TaskStatusField is the only task field a Read Only caller may change
const TaskStatusField = "status"

var (
	allRoles   = []string{RoleAdmin, RoleTaskCreator, RoleReadOnly}
	adminOnly  = []string{RoleAdmin}
	taskWriter = []string{RoleAdmin, RoleTaskCreator}
)

var permissions = map[Resource]map[Action][]string{
	ResourceProject: {
		ActionCreate: adminOnly,
		ActionRead:   allRoles,
		ActionUpdate: adminOnly,
		ActionDelete: adminOnly,
	},
	ResourceTask: {
		ActionCreate: taskWriter,
		ActionRead:   allRoles,
		ActionUpdate: allRoles, // narrowed per field by CanUpdateTaskFields
		ActionDelete: taskWriter,
	},
	ResourceUser: {
		ActionCreate: adminOnly,
		ActionRead:   allRoles,
		ActionUpdate: adminOnly,
		ActionDelete: adminOnly,
	},
	ResourceRole: {
		ActionCreate: adminOnly,
		ActionRead:   allRoles,
		ActionUpdate: adminOnly,
		ActionDelete: adminOnly,
	},
	ResourceProfile: {
		ActionRead: allRoles,
	},
}

// DefaultRoles returns the fixed role vocabulary, Admin first
func DefaultRoles() []string {
	return append([]string(nil), allRoles...)
}

// AllowedRoles returns the roles permitted to perform action on resource.
// Unknown pairs allow nobody.
func AllowedRoles(resource Resource, action Action) []string {
	return append([]string(nil), permissions[resource][action]...)
}

// RoleAllowed reports whether role is in allowed
func RoleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the principal's role may perform action on resource
func HasPermission(principal Principal, resource Resource, action Action) bool {
	return RoleAllowed(principal.RoleName, permissions[resource][action])
}

// CanUpdateTaskFields applies the field-level refinement on task updates: Read Only
// callers may send exactly one field and it must be status. Other roles with task
// update permission are unrestricted.
func CanUpdateTaskFields(role string, fields []string) bool {
	if !RoleAllowed(role, permissions[ResourceTask][ActionUpdate]) {
		return false
	}
	if role != RoleReadOnly {
		return true
	}
	return len(fields) == 1 && fields[0] == TaskStatusField
}
