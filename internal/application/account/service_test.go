package account

import (
	"context"
	"errors"
	"testing"

	"github.com/nearnest/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestGet_Unauthenticated(t *testing.T) {
	svc := NewService(&mockAccountStore{})
	_, err := svc.Get(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestGet_NotFound(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := NewService(as)
	_, err := svc.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGet_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{
		AccountID: "u1",
		Email:     "a@x.com",
		Status:    domain.StatusEmailVerified,
	}, nil)

	svc := NewService(as)
	a, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", a.Email)
	assert.Equal(t, domain.StatusEmailVerified, a.Status)
}
