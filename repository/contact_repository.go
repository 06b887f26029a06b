package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/camden-git/contactbook/database"
	"github.com/camden-git/contactbook/models"
)

// ContactRepository handles database operations for Contact entities
type ContactRepository struct {
	DB *gorm.DB
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)

// NewContactRepository creates a new instance of ContactRepository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

// Create validates the input and inserts a new contact. Invalid input is
// reported as models.ValidationErrors and nothing is written.
func (r *ContactRepository) Create(ctx context.Context, in models.ContactInput) (*models.Contact, error) {
	contact := in.Contact()
	if err := models.Validate(contact); err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create contact %s: %w", contact.FullName(), err)
	}
	return &contact, nil
}

// GetByID retrieves a contact by its ID. A miss returns gorm.ErrRecordNotFound.
func (r *ContactRepository) GetByID(ctx context.Context, id uint) (*models.Contact, error) {
	var contact models.Contact
	err := r.DB.WithContext(ctx).First(&contact, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get contact by ID %d: %w", id, err)
	}
	return &contact, nil
}

// All streams every contact in id order. Each range over the returned
// sequence runs a fresh query, so it can be iterated more than once.
func (r *ContactRepository) All(ctx context.Context) iter.Seq2[models.Contact, error] {
	return func(yield func(models.Contact, error) bool) {
		db := r.DB.WithContext(ctx)
		rows, err := db.Model(&models.Contact{}).Order("id ASC").Rows()
		if err != nil {
			yield(models.Contact{}, fmt.Errorf("failed to list contacts: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var contact models.Contact
			if err := db.ScanRows(rows, &contact); err != nil {
				yield(models.Contact{}, fmt.Errorf("failed to scan contact row: %w", err))
				return
			}
			if !yield(contact, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Contact{}, fmt.Errorf("error iterating contact rows: %w", err))
		}
	}
}

// ListAll retrieves all contacts in the given sort order.
func (r *ContactRepository) ListAll(ctx context.Context, order string) ([]models.Contact, error) {
	return r.find(r.DB.WithContext(ctx), order)
}

// Search retrieves the contacts whose first name, last name, phone number or
// contact URL contains term, ignoring case. An empty term matches everything.
func (r *ContactRepository) Search(ctx context.Context, term string, order string) ([]models.Contact, error) {
	if term == "" {
		return r.ListAll(ctx, order)
	}
	where, args, err := database.ContactSearchSQL(term)
	if err != nil {
		return nil, err
	}
	contacts, err := r.find(r.DB.WithContext(ctx).Where(where, args...), order)
	if err != nil {
		return nil, fmt.Errorf("error searching contacts for '%s': %w", term, err)
	}
	return contacts, nil
}

func (r *ContactRepository) find(tx *gorm.DB, order string) ([]models.Contact, error) {
	switch order {
	case database.SortNameAsc:
		tx = tx.Order("last_name ASC").Order("first_name ASC").Order("id ASC")
	default:
		tx = tx.Order("id ASC")
	}

	contacts := []models.Contact{}
	if err := tx.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	if order == database.SortNameNat {
		sort.SliceStable(contacts, func(i, j int) bool {
			a, b := contacts[i].LastName+" "+contacts[i].FirstName, contacts[j].LastName+" "+contacts[j].FirstName
			return natsort.Compare(a, b)
		})
	}
	return contacts, nil
}

// Update applies the patch to contact, validates the result and writes every
// column, even when the patch is empty. On any failure contact is left as it
// was. A contact that no longer exists yields gorm.ErrRecordNotFound.
func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact, patch models.ContactPatch) error {
	updated := *contact
	updated.Apply(patch)
	if err := models.Validate(updated); err != nil {
		return err
	}

	result := r.DB.WithContext(ctx).Model(&updated).Select("*").Updates(&updated)
	if result.Error != nil {
		return fmt.Errorf("failed to update contact ID %d: %w", contact.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	*contact = updated
	return nil
}

// DeleteByID removes a contact. It reports whether a row existed.
func (r *ContactRepository) DeleteByID(ctx context.Context, id uint) (bool, error) {
	result := r.DB.WithContext(ctx).Delete(&models.Contact{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete contact ID %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}
