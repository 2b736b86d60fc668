package auth

import "context"

const (
	PermissionAdmin          = "admin"
	PermissionFinance        = "finance"
	PermissionViewAllSheets  = "view_all_sheets"
	PermissionReviewSheets   = "review_sheets"
	PermissionPaySheets      = "pay_sheets"
	PermissionManageAdvances = "manage_advances"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, user *User, permission string) (bool, error)
	IsFinance(ctx context.Context, user *User) (bool, error)
	IsAdmin(ctx context.Context, user *User) (bool, error)
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

// HasPermission grants everything to admins and finance-scoped permissions to the finance role.
func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, user *User, permission string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || user.HasPermission(permission) {
		return true, nil
	}
	if user.Role == RoleFinance {
		switch permission {
		case PermissionFinance, PermissionViewAllSheets, PermissionReviewSheets, PermissionPaySheets, PermissionManageAdvances:
			return true, nil
		}
	}
	return false, nil
}

func (c *DefaultPermissionChecker) IsFinance(ctx context.Context, user *User) (bool, error) {
	return user.IsFinance(), nil
}

func (c *DefaultPermissionChecker) IsAdmin(ctx context.Context, user *User) (bool, error) {
	return user.IsAdmin(), nil
}
