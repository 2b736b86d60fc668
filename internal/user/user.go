package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/user"
)

type User struct {
	ID          int64
	Email       string
	Name        string
	EmpID       string
	Department  string
	Role        string
	IsActive    bool
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		EmpID:       u.EmpID,
		Department:  u.Department,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Permissions: []string{},
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	domainUser.Permissions = permissions
	return domainUser
}
