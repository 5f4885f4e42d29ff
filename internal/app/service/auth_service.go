package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

// AuthService links external identities to accounts.
type AuthService interface {
	// SignIn verifies the identity token and creates or refreshes the
	// matching account.
	SignIn(ctx context.Context, idToken string) (*model.Account, error)
	// GetAccount loads the account behind an already-validated API token.
	GetAccount(ctx context.Context, id uint) (*model.Account, error)
}

type authService struct {
	verifier IdentityVerifier
	accounts repository.AccountRepository
}

// NewAuthService returns an AuthService using the given identity verifier.
func NewAuthService(verifier IdentityVerifier, accounts repository.AccountRepository) AuthService {
	return &authService{verifier: verifier, accounts: accounts}
}

func (s *authService) SignIn(ctx context.Context, idToken string) (*model.Account, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrIdentityRejected) {
			return nil, ErrIdentityRejected
		}
		return nil, fmt.Errorf("verify identity: %w", err)
	}

	account, err := s.accounts.UpsertByGoogleID(ctx, identity.SubjectID, identity.Email, identity.Name)
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return account, nil
}

func (s *authService) GetAccount(ctx context.Context, id uint) (*model.Account, error) {
	return s.accounts.GetByID(ctx, id)
}
