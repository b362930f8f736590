package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/internal/cache"
	"github.com/dyncarl8-oss/signalix-ai/internal/database"
)

// Service is the ledger implementation: Postgres is authoritative, Redis
// fronts reads with a short TTL. Every mutation invalidates the cached
// balance; cache failures degrade silently to the database.
type Service struct {
	store  Store
	cache  *cache.CacheService // nil when redis is disabled
	logger zerolog.Logger
}

// NewService creates a ledger service. cacheService may be nil.
func NewService(store Store, cacheService *cache.CacheService, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cacheService,
		logger: logger,
	}
}

// GetCredits returns the balance, lazily creating it on first access.
func (s *Service) GetCredits(ctx context.Context, userID string) (*database.UserCredits, error) {
	key := fmt.Sprintf(cache.PrefixUserCredits, userID)

	if s.cacheUsable() {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var uc database.UserCredits
			if jsonErr := json.Unmarshal([]byte(raw), &uc); jsonErr == nil {
				return &uc, nil
			}
			// Corrupt entry: drop it and fall through to the database.
			_ = s.cache.Delete(ctx, key)
		}
	}

	uc, err := s.store.GetCredits(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cacheUsable() {
		if err := s.cache.Set(ctx, key, uc, cache.DefaultCreditsTTL); err != nil {
			s.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to cache credits")
		}
	}

	return uc, nil
}

// SetCredits sets an absolute balance.
func (s *Service) SetCredits(ctx context.Context, userID string, credits int) error {
	if err := s.store.SetCredits(ctx, userID, credits); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Decrement atomically consumes one credit. True means unlimited access or a
// unit removed from a positive balance.
func (s *Service) Decrement(ctx context.Context, userID string) (bool, error) {
	ok, err := s.store.Decrement(ctx, userID)
	if err != nil {
		return false, err
	}
	if ok {
		s.invalidate(ctx, userID)
	}
	return ok, nil
}

// GrantUnlimited flags the user for unlimited access.
func (s *Service) GrantUnlimited(ctx context.Context, userID string) error {
	if err := s.store.GrantUnlimited(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	s.logger.Info().Str("user_id", userID).Msg("unlimited access granted")
	return nil
}

// RevokeUnlimited clears the unlimited access flag.
func (s *Service) RevokeUnlimited(ctx context.Context, userID string) error {
	if err := s.store.RevokeUnlimited(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	s.logger.Info().Str("user_id", userID).Msg("unlimited access revoked")
	return nil
}

// UpsertProfile stores or refreshes the user's display profile.
func (s *Service) UpsertProfile(ctx context.Context, userID, username, name string, avatarURL *string) error {
	return s.store.UpsertProfile(ctx, userID, username, name, avatarURL)
}

func (s *Service) cacheUsable() bool {
	return s.cache != nil && s.cache.IsHealthy()
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf(cache.PrefixUserCredits, userID)
	invCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(invCtx, key); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate cached credits")
	}
}
