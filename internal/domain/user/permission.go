package user

type Permission string

const (
	// Leave Management
	PermissionLeaveViewOwn        Permission = "leave.view_own"
	PermissionLeaveCreate         Permission = "leave.create"
	PermissionLeaveViewAll        Permission = "leave.view_all"
	PermissionLeaveApprove        Permission = "leave.approve"
	PermissionLeaveManagePolicies Permission = "leave.manage_policies"
	PermissionLeaveManageBalances Permission = "leave.manage_balances"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveManagePolicies,
		PermissionLeaveManageBalances,
	},
	RoleManager: {
		// Manager can approve and adjust team balances
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveManageBalances,
	},
	RoleEmployee: {
		// Employee has basic access
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
	},
	RolePending: {
		// Pending role has no permissions
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
