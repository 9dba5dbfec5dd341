// Package auth содержит логику бизнес-уровня для регистрации и аутентификации.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aprendaplus/platform-backend/internal/lib/jwt"
	"github.com/aprendaplus/platform-backend/internal/lib/password"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// PromoteLead превращает лида в студента, возвращает UID записи.
	PromoteLead(ctx context.Context, email, name, passwordHash string) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateLastLogin фиксирует время последнего входа.
	UpdateLastLogin(ctx context.Context, userUID string) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля и ролью "student".
// Если email уже занят записью лида, лид повышается до студента;
// занятый полноценной учёткой email возвращает ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		Role:         models.RoleStudent,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err == nil {
		return uid, nil
	}
	if !errors.Is(err, repository.ErrEmailTaken) {
		return "", err
	}

	uid, promoteErr := s.users.PromoteLead(ctx, email, name, hashed)
	if promoteErr == nil {
		return uid, nil
	}
	if errors.Is(promoteErr, repository.ErrNotFound) {
		// email занят не лидом, а полноценной учёткой
		return "", err
	}
	return "", promoteErr
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	if err := s.users.UpdateLastLogin(ctx, user.UID); err != nil {
		// вход не блокируется, отметка времени вторична
		s.log.Warn("failed to update last login", sl.Err(err))
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе, роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		UID:   claims.UserUID,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return user, claims.Role, true, nil
}
