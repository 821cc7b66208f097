package users

import (
	"fmt"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type UserRepository interface {
	PersistUser(req models.CreateUserRequest, hashedPassword []byte) error
	GetUser(userID int) (*models.User, error)
	GetUsers() ([]models.User, error)
	UpdateUser(userID int, changes *models.UserChanges) error
}

type userRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) UserRepository {
	return &userRepositoryImpl{repository: r}
}

func (r *userRepositoryImpl) PersistUser(req models.CreateUserRequest, hashedPassword []byte) error {
	query := r.repository.GoquDBWrapper.Insert("users").
		Rows(goqu.Record{
			"password_hash": string(hashedPassword),
			"username":      req.Username,
			"fullname":      req.Fullname,
			"email":         req.Email,
			"role":          req.Role,
		})

	if _, err := query.Executor().Exec(); err != nil {
		return apperrors.WrapDBError(fmt.Errorf("failed to insert user: %w", err))
	}

	return nil
}

func (r *userRepositoryImpl) GetUsers() ([]models.User, error) {
	var users []models.User

	query := r.repository.GoquDBWrapper.
		Select("id", "username", "fullname", "email", "role").
		From("users").
		Order(goqu.I("username").Asc())

	if err := query.Executor().ScanStructs(&users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepositoryImpl) GetUser(userID int) (*models.User, error) {
	var user models.User

	found, err := r.repository.GoquDBWrapper.
		Select("id", "username", "fullname", "email", "role").
		From("users").
		Where(goqu.Ex{"id": userID}).
		Executor().
		ScanStruct(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if !found {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}

	return &user, nil
}

func (r *userRepositoryImpl) UpdateUser(userID int, changes *models.UserChanges) error {
	fields := goqu.Record{}
	if changes.PasswordHash != nil {
		fields["password_hash"] = *changes.PasswordHash
	}
	if changes.Fullname != nil {
		fields["fullname"] = *changes.Fullname
	}
	if changes.Email != nil {
		fields["email"] = *changes.Email
	}
	if changes.Role != nil {
		fields["role"] = *changes.Role
	}
	if len(fields) == 0 {
		return nil
	}

	if _, err := r.repository.GoquDBWrapper.Update("users").
		Set(fields).
		Where(goqu.Ex{"id": userID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	return nil
}
