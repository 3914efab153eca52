package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pos-suite/pos-backend/internal/models"
)

type RefreshTokenStore struct{ mock.Mock }

func (m *RefreshTokenStore) Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration, ip string) (*models.RefreshToken, error) {
	args := m.Called(ctx, userID, token, ttl, ip)
	var record *models.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*models.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *RefreshTokenStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	var record *models.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*models.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *RefreshTokenStore) Revoke(ctx context.Context, token, ip string, replacedBy string) error {
	return m.Called(ctx, token, ip, replacedBy).Error(0)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, oldToken, newToken string, ttl time.Duration, ip string) (*models.RefreshToken, error) {
	args := m.Called(ctx, oldToken, newToken, ttl, ip)
	var record *models.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*models.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *RefreshTokenStore) RevokeFamily(ctx context.Context, userID uuid.UUID, ip string) (int64, error) {
	args := m.Called(ctx, userID, ip)
	return args.Get(0).(int64), args.Error(1)
}
