package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/persistence"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/store"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

const principalKey = "auth_principal"

const apiKeyCachePrefix = "apikey:"

// APIKeyMiddleware authenticates dashboard callers. A request carries either
// an X-API-Key header or a Bearer session token previously minted from one.
// Key lookups are cached in Redis so the document store is not hit on every
// dashboard poll.
type APIKeyMiddleware struct {
	keys     repository.APIKeyRepository
	tokens   *TokenManager
	cache    *persistence.Redis
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAPIKeyMiddleware constructs middleware.
func NewAPIKeyMiddleware(keys repository.APIKeyRepository, tokens *TokenManager, cache *persistence.Redis, cacheTTL time.Duration, logger *zap.Logger) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys, tokens: tokens, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Handle enforces authentication for the read/admin surface.
func (m *APIKeyMiddleware) Handle(c *fiber.Ctx) error {
	if key := c.Get("X-API-Key"); key != "" {
		credential, err := m.resolveKey(c.UserContext(), key)
		if err != nil {
			return err
		}
		c.Locals(principalKey, credential)
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}
		claims, err := m.tokens.ParseToken(parts[1])
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		c.Locals(principalKey, &domain.APIKey{
			Name:     claims.Name,
			Role:     claims.Role,
			ClientID: claims.ClientID,
			Active:   true,
		})
		return c.Next()
	}

	return apperrors.NewUnauthorized("API key required")
}

func (m *APIKeyMiddleware) resolveKey(ctx context.Context, key string) (*domain.APIKey, error) {
	if cached := m.cacheGet(ctx, key); cached != nil {
		if !cached.Active {
			return nil, apperrors.NewForbidden("API key disabled")
		}
		return cached, nil
	}

	credential, err := m.keys.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewForbidden("invalid API key")
		}
		return nil, apperrors.MapError(err)
	}

	m.cacheSet(ctx, key, credential)

	if !credential.Active {
		return nil, apperrors.NewForbidden("API key disabled")
	}
	return credential, nil
}

func (m *APIKeyMiddleware) cacheGet(ctx context.Context, key string) *domain.APIKey {
	if m.cache == nil || m.cache.Client == nil {
		return nil
	}
	raw, err := m.cache.Client.Get(ctx, apiKeyCachePrefix+key).Bytes()
	if err != nil {
		return nil
	}
	var credential domain.APIKey
	if err := json.Unmarshal(raw, &credential); err != nil {
		return nil
	}
	return &credential
}

func (m *APIKeyMiddleware) cacheSet(ctx context.Context, key string, credential *domain.APIKey) {
	if m.cache == nil || m.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(credential)
	if err != nil {
		return
	}
	if err := m.cache.Client.Set(ctx, apiKeyCachePrefix+key, raw, m.cacheTTL).Err(); err != nil {
		m.logger.Warn("api key cache write failed", zap.Error(err))
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*domain.APIKey, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.APIKey)
	return principal, ok
}
