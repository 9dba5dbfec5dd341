// Package repository реализует хранилище данных на основе PostgreSQL:
// пользователи, платежи, подписки, заказы фулфилмента, заявки на
// консультации, каталог и журнал аудита.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound возвращается, когда запись отсутствует.
var ErrNotFound = errors.New("record not found")

// ErrEmailTaken возвращается при попытке зарегистрировать занятый email.
var ErrEmailTaken = errors.New("email already registered")

// Storage инкапсулирует единственное соединение с PostgreSQL,
// разделяемое всеми репозиториями. Открывается один раз при старте.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'payments'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table payments missing or query error: %w", err)
	}
	return nil
}
