package store

import (
	"context"

	"kbdesk/apperr"
	"kbdesk/models"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	found, err := first(s.conn(ctx).Where("id = ?", id), &user)
	if err != nil {
		return nil, apperr.Store("loading user", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	found, err := first(s.conn(ctx).Where("username = ?", username), &user)
	if err != nil {
		return nil, apperr.Store("loading user", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := first(s.conn(ctx).Where("email = ?", email), &user)
	if err != nil {
		return nil, apperr.Store("loading user", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.conn(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, apperr.Store("listing users", err)
	}
	return users, nil
}

// CreateUser inserts user after checking that neither the username nor the
// email is taken.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	existing, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("username %q is already taken", user.Username)
	}

	existing, err = s.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("email %q is already registered", user.Email)
	}

	if user.Role == "" {
		user.Role = models.RoleEmployee
	}

	if err := s.conn(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("username or email is already taken")
		}
		return apperr.Store("creating user", err)
	}
	return nil
}

// UserPatch lists the user columns that may change after creation.
type UserPatch struct {
	FullName     *string
	Email        *string
	Role         *string
	PasswordHash *string
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.Email != nil {
		other, err := s.GetUserByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, apperr.Conflict("email %q is already registered", *patch.Email)
		}
		updates["email"] = *patch.Email
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}
	if patch.PasswordHash != nil {
		updates["password_hash"] = *patch.PasswordHash
	}

	if len(updates) > 0 {
		result := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			if isDuplicate(result.Error) {
				return nil, apperr.Conflict("email is already registered")
			}
			return nil, apperr.Store("updating user", result.Error)
		}
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// DeleteUser removes a user. Users who authored articles are kept: deleting
// them would orphan content, so the call fails with a conflict instead.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	var authored int64
	if err := s.conn(ctx).Model(&models.Article{}).Where("author_id = ?", id).Count(&authored).Error; err != nil {
		return apperr.Store("counting authored articles", err)
	}
	if authored > 0 {
		return apperr.Conflict("user has authored %d article(s) and cannot be deleted", authored)
	}

	result := s.conn(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return apperr.Store("deleting user", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, apperr.Store("counting users", err)
	}
	return n, nil
}
