package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
)

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// TokenStore is the in-process counterpart of the redis token store.
type TokenStore struct {
	mu      sync.Mutex
	now     func() time.Time
	refresh map[string]tokenEntry
	links   map[string]tokenEntry
}

func NewTokenStore(now func() time.Time) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{
		now:     now,
		refresh: make(map[string]tokenEntry),
		links:   make(map[string]tokenEntry),
	}
}

func (s *TokenStore) SaveRefresh(_ context.Context, userID models.ID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = tokenEntry{value: userID.Key(), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *TokenStore) RefreshOwner(_ context.Context, token string) (models.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.refresh[token]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.refresh, token)
		return "", app_errors.ErrTokenNotFound
	}
	return models.ID(e.value), nil
}

func (s *TokenStore) DeleteUserTokens(_ context.Context, userID models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.refresh {
		if e.value == userID.Key() {
			delete(s.refresh, token)
		}
	}
	return nil
}

func (s *TokenStore) SaveLink(_ context.Context, token, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[token] = tokenEntry{value: email, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *TokenStore) ConsumeLink(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.links[token]
	delete(s.links, token)
	if !ok || !s.now().Before(e.expiresAt) {
		return "", app_errors.ErrLinkExpired
	}
	return e.value, nil
}
