package database

import (
	"context"
	"database/sql"
	"time"
)

type Database interface {
	GetDB() *sql.DB

	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error

	GetUser(ctx context.Context, userID int64) (*User, error)
	SaveUser(ctx context.Context, user User) error
	CountUsers(ctx context.Context) (int, error)
}

// User is a Telegram account the bot has seen at least once.
type User struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	Username   string    `json:"username"`
	LastChatID int64     `json:"last_chat_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u User) Equal(user User) bool {
	return u.ID == user.ID &&
		u.FirstName == user.FirstName &&
		u.Username == user.Username &&
		u.LastChatID == user.LastChatID
}
