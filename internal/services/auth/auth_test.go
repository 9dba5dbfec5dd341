package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aprendaplus/platform-backend/internal/lib/jwt"
	"github.com/aprendaplus/platform-backend/internal/lib/password"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) PromoteLead(ctx context.Context, email, name, passwordHash string) (string, error) {
	args := m.Called(ctx, email, name, passwordHash)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) UpdateLastLogin(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestMaker() jwt.Maker {
	return jwt.NewJWTMaker("test-secret", 7*24*time.Hour, 24*time.Hour)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		userName      string
		setupMocks    func(*MockRepository)
		expectedUID   string
		expectedError error
	}{
		{
			name:     "new user - registered as student",
			email:    "maria@example.com",
			userName: "Maria",
			setupMocks: func(r *MockRepository) {
				r.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "maria@example.com" && u.Role == models.RoleStudent && u.PasswordHash != ""
				})).Return("uid-1", nil).Once()
			},
			expectedUID: "uid-1",
		},
		{
			name:     "lead exists - promoted to student",
			email:    "lead@example.com",
			userName: "Lead",
			setupMocks: func(r *MockRepository) {
				r.On("RegisterUser", mock.Anything, mock.Anything).Return("", repository.ErrEmailTaken).Once()
				r.On("PromoteLead", mock.Anything, "lead@example.com", "Lead", mock.Anything).Return("uid-2", nil).Once()
			},
			expectedUID: "uid-2",
		},
		{
			name:     "email taken by full account",
			email:    "taken@example.com",
			userName: "Taken",
			setupMocks: func(r *MockRepository) {
				r.On("RegisterUser", mock.Anything, mock.Anything).Return("", repository.ErrEmailTaken).Once()
				r.On("PromoteLead", mock.Anything, "taken@example.com", "Taken", mock.Anything).Return("", repository.ErrNotFound).Once()
			},
			expectedError: repository.ErrEmailTaken,
		},
		{
			name:     "repository error",
			email:    "maria@example.com",
			userName: "Maria",
			setupMocks: func(r *MockRepository) {
				r.On("RegisterUser", mock.Anything, mock.Anything).Return("", errors.New("db error")).Once()
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			service := NewAuthService(repo, newTestMaker(), newNoopLogger())

			tt.setupMocks(repo)

			uid, err := service.Register(context.Background(), tt.email, tt.userName, "s3cret-pass")

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedUID, uid)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("correct-pass")
	require.NoError(t, err)

	user := &models.User{
		UID:          "uid-1",
		Email:        "maria@example.com",
		PasswordHash: hash,
		Role:         models.RoleStudent,
	}

	tests := []struct {
		name          string
		email         string
		rawPassword   string
		setupMocks    func(*MockRepository)
		expectedRole  string
		expectedError error
	}{
		{
			name:        "success",
			email:       "maria@example.com",
			rawPassword: "correct-pass",
			setupMocks: func(r *MockRepository) {
				r.On("GetUserByEmail", mock.Anything, "maria@example.com").Return(user, nil).Once()
				r.On("UpdateLastLogin", mock.Anything, "uid-1").Return(nil).Once()
			},
			expectedRole: models.RoleStudent,
		},
		{
			name:        "wrong password",
			email:       "maria@example.com",
			rawPassword: "wrong-pass",
			setupMocks: func(r *MockRepository) {
				r.On("GetUserByEmail", mock.Anything, "maria@example.com").Return(user, nil).Once()
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:        "unknown email",
			email:       "nobody@example.com",
			rawPassword: "correct-pass",
			setupMocks: func(r *MockRepository) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound).Once()
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:        "last login update failure does not block login",
			email:       "maria@example.com",
			rawPassword: "correct-pass",
			setupMocks: func(r *MockRepository) {
				r.On("GetUserByEmail", mock.Anything, "maria@example.com").Return(user, nil).Once()
				r.On("UpdateLastLogin", mock.Anything, "uid-1").Return(errors.New("db error")).Once()
			},
			expectedRole: models.RoleStudent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			service := NewAuthService(repo, newTestMaker(), newNoopLogger())

			tt.setupMocks(repo)

			token, role, err := service.Login(context.Background(), tt.email, tt.rawPassword)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, tt.expectedRole, role)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_ValidateToken(t *testing.T) {
	maker := newTestMaker()
	service := NewAuthService(new(MockRepository), maker, newNoopLogger())

	token, err := maker.GenerateToken("uid-1", "maria@example.com", models.RoleStudent)
	require.NoError(t, err)

	user, role, valid, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, models.RoleStudent, role)

	_, _, valid, err = service.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
	assert.False(t, valid)
}
