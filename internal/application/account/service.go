package account

import (
	"context"
	"fmt"

	"github.com/nearnest/api/internal/domain"
)

// Service exposes read access to the caller's own account record.
type Service interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountStore is the minimal persistence interface the service needs.
type AccountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

type service struct {
	accounts AccountStore
}

func NewService(accounts AccountStore) Service {
	return &service{accounts: accounts}
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("missing account identifier: %w", domain.ErrUnauthenticated)
	}
	return s.accounts.Get(ctx, accountID)
}
