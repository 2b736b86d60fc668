package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/expense-reconciliation/internal"
	userDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-reconciliation/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var row userDatamodel.User
	if err := r.db.WithContext(ctx).First(&row, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	permissions := []string{}
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.Permission{}).
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}
