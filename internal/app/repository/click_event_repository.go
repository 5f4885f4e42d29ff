package repository

import (
	"context"

	"github.com/linklytics/linklytics/internal/app/model"
	"gorm.io/gorm"
)

// ClickEventRepository is the write-side contract for click events. Events
// are append-only; there are no update or delete operations.
type ClickEventRepository interface {
	Create(ctx context.Context, event *model.ClickEvent) error
}

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a GORM-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

func (r *clickEventRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
