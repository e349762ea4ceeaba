package database

import (
	"context"
)

// GetUser returns sql.ErrNoRows when the user has never been seen.
func (s *sqliteDB) GetUser(ctx context.Context, userID int64) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, username, last_chat_id, created_at, updated_at
		FROM users WHERE id = ?
	`, userID).Scan(
		&user.ID,
		&user.FirstName,
		&user.Username,
		&user.LastChatID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *sqliteDB) SaveUser(ctx context.Context, user User) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO users (id, first_name, username, last_chat_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			username = excluded.username,
			last_chat_id = excluded.last_chat_id,
			updated_at = CURRENT_TIMESTAMP
	`, user.ID, user.FirstName, user.Username, user.LastChatID)
	return err
}

func (s *sqliteDB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
