package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can approve leave and manage balances
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// Principal is the authenticated caller as read from the access token.
type Principal struct {
	UserID     int64
	EmployeeID *int64
	Role       Role
}

// CanApprove checks if user can approve requests
func (p Principal) CanApprove() bool {
	return HasPermission(p.Role, PermissionLeaveApprove)
}

// OwnsEmployee reports whether the principal is the given employee.
func (p Principal) OwnsEmployee(employeeID int64) bool {
	return p.EmployeeID != nil && *p.EmployeeID == employeeID
}
