package repository

import (
	"context"
	"iter"

	"github.com/camden-git/contactbook/models"
)

// ContactRepositoryInterface defines the methods for contact data operations
type ContactRepositoryInterface interface {
	Create(ctx context.Context, in models.ContactInput) (*models.Contact, error)
	GetByID(ctx context.Context, id uint) (*models.Contact, error)
	All(ctx context.Context) iter.Seq2[models.Contact, error]
	ListAll(ctx context.Context, order string) ([]models.Contact, error)
	Search(ctx context.Context, term string, order string) ([]models.Contact, error)
	Update(ctx context.Context, contact *models.Contact, patch models.ContactPatch) error
	DeleteByID(ctx context.Context, id uint) (bool, error)
}
