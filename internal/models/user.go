// Package models содержит доменные модели платформы: пользователи, платежи,
// подписки, заказы фулфилмента, заявки на консультации и записи аудита.
package models

import "time"

// Роли пользователей платформы.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleLead       = "lead" // создаётся при захвате лида, без пароля
)

// User представляет зарегистрированного пользователя платформы.
// Email хранится в нижнем регистре и уникален. Пользователи не удаляются,
// лид при полноценной регистрации повышается до студента.
type User struct {
	UID               string     // Уникальный идентификатор пользователя
	Email             string     // Электронная почта (нижний регистр, уникальна)
	Name              string     // Отображаемое имя
	PasswordHash      string     // bcrypt-хэш пароля
	Role              string     // student, instructor, admin или lead
	GatewayCustomerID string     // Идентификатор клиента в платёжном шлюзе
	LastLoginAt       *time.Time // Время последнего входа
	CreatedAt         time.Time
}
