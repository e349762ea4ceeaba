package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/muratoffalex/poegram/internal/cache"
	"github.com/muratoffalex/poegram/internal/logger"
)

const catalogCacheKey = cache.PersistentPrefix + "poe:catalog"

// CatalogSource lists the models a backend offers.
type CatalogSource interface {
	BotNames(ctx context.Context) ([]Model, error)
}

// ModelRegistry holds the process-wide active model. Every chat shares it:
// the last successful Select wins.
type ModelRegistry struct {
	source       CatalogSource
	cache        cache.Cache
	ttl          time.Duration
	defaultModel string
	account      func() string
	logger       logger.Logger

	mu      sync.RWMutex
	current string
	catalog []Model
}

func NewModelRegistry(source CatalogSource, c cache.Cache, ttl time.Duration, defaultModel string, log logger.Logger) *ModelRegistry {
	return &ModelRegistry{
		source:       source,
		cache:        c,
		ttl:          ttl,
		defaultModel: defaultModel,
		current:      defaultModel,
		logger:       log,
	}
}

// ScopeTo keys the cached catalog by the account credential returned by
// account, so switching Poe cookies never serves another account's models.
func (r *ModelRegistry) ScopeTo(account func() string) *ModelRegistry {
	r.account = account
	return r
}

func (r *ModelRegistry) cacheKey() string {
	if r.account == nil {
		return catalogCacheKey
	}
	sum := sha256.Sum256([]byte(r.account()))
	return catalogCacheKey + ":" + hex.EncodeToString(sum[:8])
}

func (r *ModelRegistry) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *ModelRegistry) Default() string {
	return r.defaultModel
}

func (r *ModelRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = r.defaultModel
}

// List returns the catalog in backend order, fetching it on first use.
func (r *ModelRegistry) List(ctx context.Context) ([]Model, error) {
	r.mu.RLock()
	if r.catalog != nil {
		models := append([]Model(nil), r.catalog...)
		r.mu.RUnlock()
		return models, nil
	}
	r.mu.RUnlock()

	if models, ok := r.cachedCatalog(); ok {
		r.storeCatalog(models)
		return append([]Model(nil), models...), nil
	}

	models, err := r.source.BotNames(ctx)
	if err != nil {
		return nil, err
	}
	r.storeCatalog(models)

	if r.cache != nil {
		if data, err := json.Marshal(models); err == nil {
			if err := r.cache.Set(r.cacheKey(), data, r.ttl); err != nil {
				r.logger.WithError(err).Warn("Failed to cache model catalog")
			}
		}
	}
	r.logger.WithField("models", len(models)).Debug("Model catalog fetched")
	return append([]Model(nil), models...), nil
}

// Select makes codename the active model. Unknown codenames leave the
// current model unchanged and return ErrInvalidSelection.
func (r *ModelRegistry) Select(ctx context.Context, codename string) (Model, error) {
	models, err := r.List(ctx)
	if err != nil {
		return Model{}, err
	}
	for _, m := range models {
		if m.Codename == codename {
			r.mu.Lock()
			r.current = codename
			r.mu.Unlock()
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %s", ErrInvalidSelection, codename)
}

// DisplayName falls back to the codename when the catalog has not been
// fetched or does not contain it.
func (r *ModelRegistry) DisplayName(codename string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.catalog {
		if m.Codename == codename {
			return m.DisplayName
		}
	}
	return codename
}

// Invalidate drops the cached catalog. The active model is kept.
func (r *ModelRegistry) Invalidate() {
	r.mu.Lock()
	r.catalog = nil
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.Delete(r.cacheKey()); err != nil {
			r.logger.WithError(err).Warn("Failed to drop cached model catalog")
		}
	}
}

func (r *ModelRegistry) storeCatalog(models []Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = append([]Model{}, models...)
}

func (r *ModelRegistry) cachedCatalog() ([]Model, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, ok := r.cache.Get(r.cacheKey())
	if !ok {
		return nil, false
	}
	var models []Model
	if err := json.Unmarshal(data, &models); err != nil || len(models) == 0 {
		return nil, false
	}
	return models, true
}
