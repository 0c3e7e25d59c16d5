package repository

import (
	"context"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/store"
)

const collAPIKeys = "api_keys"

// APIKeyRepository resolves dashboard credentials. The collection is keyed by
// the API key string itself.
type APIKeyRepository interface {
	GetByKey(ctx context.Context, key string) (*domain.APIKey, error)
}

type apiKeyRepository struct {
	docs store.Store
}

// NewAPIKeyRepository instantiates repository.
func NewAPIKeyRepository(docs store.Store) APIKeyRepository {
	return &apiKeyRepository{docs: docs}
}

func (r *apiKeyRepository) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	doc, err := r.docs.Get(ctx, collAPIKeys, key)
	if err != nil {
		return nil, err
	}

	active, _ := doc["active"].(bool)
	return &domain.APIKey{
		Key:      key,
		Name:     docString(doc, "name"),
		Role:     domain.Role(docString(doc, "role")),
		ClientID: docString(doc, "clientId"),
		Active:   active,
	}, nil
}
