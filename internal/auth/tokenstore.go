package auth

import (
	"strings"

	"taskclient/internal/storage"
)

const schemePrefix = "Bearer "

// TokenStore wraps persistent storage for the bearer credential. Values are
// kept without the transport scheme prefix; a prefixed value found in storage
// is rewritten in normalized form on read.
type TokenStore struct {
	kv  storage.KV
	key string
}

func NewTokenStore(kv storage.KV, key string) *TokenStore {
	return &TokenStore{kv: kv, key: key}
}

func (s *TokenStore) Get() (string, bool) {
	raw, ok := s.kv.Get(s.key)
	if !ok || raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, schemePrefix) {
		token := strings.TrimPrefix(raw, schemePrefix)
		if token == "" {
			s.kv.Delete(s.key)
			return "", false
		}
		// Self-healing: persist the normalized form.
		s.kv.Set(s.key, token)
		return token, true
	}
	return raw, true
}

func (s *TokenStore) Set(raw string) {
	token := strings.TrimPrefix(raw, schemePrefix)
	if token == "" {
		s.kv.Delete(s.key)
		return
	}
	s.kv.Set(s.key, token)
}

func (s *TokenStore) Clear() {
	s.kv.Delete(s.key)
}
