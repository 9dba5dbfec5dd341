// Package jwt реализует генерацию и парсинг JWT токенов сессии.
//
// Claims содержат идентификатор пользователя, email и роль.
// Срок жизни токена зависит от роли: у администраторов он короче.
package jwt

import (
	"time"
)

// RoleAdmin роль, для которой выдаётся короткоживущий токен.
const RoleAdmin = "admin"

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken создаёт токен с данными пользователя.
	GenerateToken(userUID, email, role string) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа.
//
// Для обычных пользователей токен живёт userTTL (7 суток по умолчанию),
// для администраторов — adminTTL (24 часа).
type MakerImpl struct {
	secretKey string
	userTTL   time.Duration
	adminTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, userTTL, adminTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		userTTL:   userTTL,
		adminTTL:  adminTTL,
	}
}
