package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// OAuthStateRepository remembers the anti-forgery state issued with each
// OAuth login redirect until the provider calls back.
type OAuthStateRepository struct {
	cache *cache.Cache
}

func NewOAuthStateRepository(ttl time.Duration) *OAuthStateRepository {
	return &OAuthStateRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *OAuthStateRepository) Save(state, provider string) {
	r.cache.Set(state, provider, cache.DefaultExpiration)
}

// Consume returns the provider bound to state and forgets it.
func (r *OAuthStateRepository) Consume(state string) (string, bool) {
	x, found := r.cache.Get(state)
	if !found {
		return "", false
	}
	r.cache.Delete(state)
	return x.(string), true
}
