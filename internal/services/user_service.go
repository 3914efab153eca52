package services

import (
	"context"
	"log/slog"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/pos-suite/pos-backend/internal/dto"
	"github.com/pos-suite/pos-backend/internal/models"
	"github.com/pos-suite/pos-backend/internal/storage"
	"github.com/pos-suite/pos-backend/internal/stores"
)

// UserService covers profile reads and the admin user-management surface.
type UserService struct {
	users   stores.UserStore
	refresh stores.RefreshTokenStore
	uploads *storage.LocalStore
}

func NewUserService(users stores.UserStore, refresh stores.RefreshTokenStore, uploads *storage.LocalStore) *UserService {
	return &UserService{users: users, refresh: refresh, uploads: uploads}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, offset, limit int) (*dto.ListUsersResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = UserToResponse(&users[i])
	}
	return &dto.ListUsersResponse{Users: out, Total: total}, nil
}

func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	return s.users.AssignRole(ctx, userID, roleName)
}

// Deactivate soft-deletes the account and cuts every open session.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID, ip string) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return err
	}
	if _, err := s.refresh.RevokeFamily(ctx, id, ip); err != nil {
		slog.Warn("failed to revoke sessions on deactivation", "user_id", id, "error", err)
	}
	return nil
}

// SetAvatar stores the uploaded file and swaps it into the profile,
// removing the previous one.
func (s *UserService) SetAvatar(ctx context.Context, id uuid.UUID, file *multipart.FileHeader) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err := s.uploads.Save(file)
	if err != nil {
		return nil, err
	}

	previous := user.Avatar
	user.Avatar = name
	if err := s.users.Update(ctx, user); err != nil {
		s.uploads.Remove(name)
		return nil, err
	}
	if err := s.uploads.Remove(previous); err != nil {
		slog.Warn("failed to remove previous avatar", "user_id", id, "error", err)
	}
	return user, nil
}
