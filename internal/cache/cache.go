package cache

import "time"

// Cache stores opaque payloads with a time-to-live.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}
