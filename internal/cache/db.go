package cache

import (
	"context"
	"time"

	"github.com/muratoffalex/poegram/internal/database"
)

type DBCache struct {
	db  database.Database
	now func() time.Time
}

func NewDBCache(db database.Database) *DBCache {
	return &DBCache{db: db, now: time.Now}
}

func (c *DBCache) Get(key string) ([]byte, bool) {
	var data []byte
	var expiresAt int64

	err := c.db.QueryRow(`
		SELECT data, expires_at
		FROM cache
		WHERE key = ?
	`, key).Scan(&data, &expiresAt)
	if err != nil {
		return nil, false
	}

	if c.now().UnixNano() > expiresAt {
		_ = c.Delete(key)
		return nil, false
	}

	return data, true
}

func (c *DBCache) Set(key string, data []byte, ttl time.Duration) error {
	_, err := c.db.ExecWithRetry(context.Background(), `
		INSERT OR REPLACE INTO cache (key, data, expires_at)
		VALUES (?, ?, ?)
	`, key, data, c.now().Add(ttl).UnixNano())
	return err
}

func (c *DBCache) Delete(key string) error {
	_, err := c.db.Exec("DELETE FROM cache WHERE key = ?", key)
	return err
}

func (c *DBCache) Clear() error {
	_, err := c.db.Exec("DELETE FROM cache")
	return err
}
