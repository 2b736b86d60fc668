package user

import "time"

// ProfileResponse is what GET /users/me returns. The password hash never leaves the repository.
type ProfileResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	EmpID       string    `json:"emp_id"`
	Department  string    `json:"department"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewProfileResponse(u *User) ProfileResponse {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		EmpID:       u.EmpID,
		Department:  u.Department,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
