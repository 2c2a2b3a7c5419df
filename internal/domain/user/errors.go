package user

import "github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"

var (
	ErrInvalidToken            = apperror.New(apperror.KindUnauthorized, "INVALID_TOKEN", "invalid or missing access token")
	ErrOwnerAccessRequired     = apperror.New(apperror.KindForbidden, "OWNER_ACCESS_REQUIRED", "owner access required")
	ErrManagerAccessRequired   = apperror.New(apperror.KindForbidden, "MANAGER_ACCESS_REQUIRED", "manager access required")
	ErrInsufficientPermissions = apperror.New(apperror.KindForbidden, "INSUFFICIENT_PERMISSIONS", "insufficient permissions")
	ErrNotOwnEmployee          = apperror.New(apperror.KindForbidden, "NOT_OWN_EMPLOYEE", "employees may only act on their own leave")
	ErrReviewerMismatch        = apperror.New(apperror.KindForbidden, "REVIEWER_MISMATCH", "approver_id must be the authenticated user")
)
