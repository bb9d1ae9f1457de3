package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
)

// InitStoreInput contains the parameters for initializing storage.
type InitStoreInput struct{}

// InitStoreOutput contains the result of initializing storage.
type InitStoreOutput struct {
	Backend string
}

// InitStore is the use case for preparing the configured backend.
// It is idempotent.
type InitStore struct {
	store   domain.StoreInitializer
	logger  domain.Logger
	backend string
}

// NewInitStore creates a new InitStore use case.
func NewInitStore(store domain.StoreInitializer, logger domain.Logger, backend string) *InitStore {
	return &InitStore{
		store:   store,
		logger:  logger,
		backend: backend,
	}
}

// Execute initializes the store.
func (uc *InitStore) Execute(_ context.Context, _ InitStoreInput) (*InitStoreOutput, error) {
	if err := uc.store.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	uc.logger.Info("", "init", fmt.Sprintf("%s store ready", uc.backend))
	return &InitStoreOutput{Backend: uc.backend}, nil
}
