// Package identity verifies client tokens against the user directory.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// tokenValidator validates a token and returns its subject.
type tokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// directory reads user documents.
type directory interface {
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
}

// Service verifies ID tokens and resolves their subject to a profile.
type Service struct {
	log    *slog.Logger
	tokens tokenValidator
	users  directory
	cache  *cache.Cache
}

// NewService creates a new identity service. Directory lookups are cached
// for cacheTTL; a zero cacheTTL disables caching.
func NewService(logger *slog.Logger, tokens tokenValidator, users directory, cacheTTL time.Duration) *Service {
	s := &Service{
		log:    logger.With("service", "identity"),
		tokens: tokens,
		users:  users,
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// Verify validates token and confirms its subject still exists and is
// enabled in the directory.
//
// Returns domain.ErrTokenExpired for an expired token and
// domain.ErrUnauthorized for every other rejection.
func (s *Service) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	subject, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("validate token: %w", domain.ErrUnauthorized)
	}

	user, err := s.lookup(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "token subject not in directory", slog.String("user_id", subject))
			return nil, fmt.Errorf("subject %s: %w", subject, domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("lookup subject: %w", err)
	}

	if user.Disabled {
		s.log.WarnContext(ctx, "token subject disabled", slog.String("user_id", subject))
		return nil, fmt.Errorf("subject %s disabled: %w", subject, domain.ErrUnauthorized)
	}

	return &domain.Identity{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// Forget drops the cached directory entry of userID.
func (s *Service) Forget(userID string) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}

func (s *Service) lookup(ctx context.Context, userID string) (*domain.User, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(userID); ok {
			return v.(*domain.User), nil
		}
	}

	raw, err := s.users.Get(ctx, domain.CollectionUsers, userID)
	if err != nil {
		return nil, err
	}

	user, err := domain.Decode[domain.User](domain.Document{Key: userID, Data: raw})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetDefault(userID, &user)
	}
	return &user, nil
}
