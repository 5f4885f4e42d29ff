package repository

import (
	"context"
	"errors"

	"github.com/linklytics/linklytics/internal/app/model"
	"gorm.io/gorm"
)

// ErrAccountNotFound signals that no account matches the lookup key.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Account, error)
	// UpsertByGoogleID creates the account on first sign-in and refreshes
	// name/email from the identity payload on subsequent ones.
	UpsertByGoogleID(ctx context.Context, googleID, email, name string) (*model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a GORM-backed AccountRepository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) UpsertByGoogleID(ctx context.Context, googleID, email, name string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&account).Error
	switch {
	case err == nil:
		if account.Name == name && account.Email == email {
			return &account, nil
		}
		account.Name = name
		account.Email = email
		if err := r.db.WithContext(ctx).Save(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		account = model.Account{Name: name, Email: email, GoogleID: googleID}
		if err := r.db.WithContext(ctx).Create(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	default:
		return nil, err
	}
}
