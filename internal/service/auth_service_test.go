package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"payment-hub/internal/core/domain"
	"payment-hub/internal/core/ports"
	"payment-hub/internal/core/ports/mocks"
	"payment-hub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*mocks.MockUserRepository,
	*mocks.MockHashService,
	*mocks.MockTokenService,
	*gomock.Controller,
) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	svc := NewAuthService(userRepo, hashSvc, tokenSvc)
	return svc, userRepo, hashSvc, tokenSvc, ctrl
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Email:       "Ada@Example.com",
		Password:    "StrongP@ss123",
		DisplayName: "Ada",
		Currency:    "xaf",
	}

	userRepo.EXPECT().GetByEmail(ctx, "ada@example.com").Return(nil, nil)
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	userRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, user *domain.User) error {
			assert.Equal(t, "ada@example.com", user.Email)
			assert.Equal(t, "XAF", user.Currency)
			assert.Equal(t, int64(0), user.Balance)
			assert.Equal(t, "$argon2id$hashed", user.PasswordHash)
			return nil
		})

	user, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestAuthService_Register_DefaultsToUSD(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()

	userRepo.EXPECT().GetByEmail(ctx, "a@b.com").Return(nil, nil)
	hashSvc.EXPECT().Hash(gomock.Any()).Return("h", nil)
	userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	user, err := svc.Register(ctx, ports.RegisterRequest{Email: "a@b.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "USD", user.Currency)
	assert.Equal(t, "a", user.DisplayName, "display name falls back to the email local part")
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	svc, userRepo, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userRepo.EXPECT().GetByEmail(ctx, "taken@example.com").
		Return(&domain.User{Email: "taken@example.com"}, nil)

	_, err := svc.Register(ctx, ports.RegisterRequest{Email: "taken@example.com", Password: "longenough"})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_002", appErr.Code)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc, _, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	_, err := svc.Register(context.Background(), ports.RegisterRequest{Email: "a@b.com", Password: "short"})
	require.Error(t, err)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, userRepo, hashSvc, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Email: "ada@example.com", PasswordHash: "$argon2id$hashed"}
	expiry := time.Now().Add(time.Hour)

	userRepo.EXPECT().GetByEmail(ctx, "ada@example.com").Return(user, nil)
	hashSvc.EXPECT().Verify("StrongP@ss123", "$argon2id$hashed").Return(true, nil)
	tokenSvc.EXPECT().Generate(userID, "ada@example.com").Return("jwt-token", expiry, nil)

	token, exp, err := svc.Login(ctx, "ada@example.com", "StrongP@ss123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, exp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "h"}

	userRepo.EXPECT().GetByEmail(ctx, "ada@example.com").Return(user, nil)
	hashSvc.EXPECT().Verify("wrong", "h").Return(false, nil)

	_, _, err := svc.Login(ctx, "ada@example.com", "wrong")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, userRepo, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userRepo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, nil)

	_, _, err := svc.Login(ctx, "ghost@example.com", "whatever")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}
