package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/camden-git/contactbook/models"
	"github.com/camden-git/contactbook/repository"
)

// ContactsAPI is the read-only JSON view of the contact book.
type ContactsAPI struct {
	Repo repository.ContactRepositoryInterface
	Ping func(ctx context.Context) error
}

func (h *ContactsAPI) RegisterAPI(api huma.API) { // called by [huma.AutoRegister]
	api = huma.NewGroup(api, "/api")
	huma.Get(api, "/contacts", h.list)
	huma.Get(api, "/contacts/{id}", h.get)
	huma.Get(api, "/health", h.health)
}

type ContactModel struct {
	ID          uint    `json:"id" example:"111" readOnly:"true"`
	FirstName   string  `json:"first_name" example:"Sergey" maxLength:"20"`
	LastName    string  `json:"last_name" example:"Petrov" maxLength:"20"`
	ContactURL  string  `json:"contact_url" format:"uri" example:"http://day.night" maxLength:"200"`
	PhoneNumber string  `json:"phone_number" example:"1234567" maxLength:"63"`
	Photo       *string `json:"photo" required:"false" nullable:"true" example:"photos/0b1d3c.jpg"`
	Country     string  `json:"country" maxLength:"50"`
	City        string  `json:"city" maxLength:"40"`
	Street      string  `json:"street" maxLength:"50"`
}

// newContactModel carries the same keys as Contact.ToDict.
func newContactModel(c models.Contact) ContactModel {
	return ContactModel{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		ContactURL:  c.ContactURL,
		PhoneNumber: c.PhoneNumber,
		Photo:       c.Photo,
		Country:     c.Country,
		City:        c.City,
		Street:      c.Street,
	}
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *ContactsAPI) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	body := []ContactModel{}
	for contact, err := range h.Repo.All(ctx) {
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list contacts")
			return nil, huma.Error500InternalServerError("failed to list contacts")
		}
		body = append(body, newContactModel(contact))
	}
	return &ContactsListOutput{Body: body}, nil
}

type ContactsGetOutput struct {
	Body ContactModel
}

func (h *ContactsAPI) get(ctx context.Context, input *struct {
	ID uint `path:"id" example:"111" doc:"ID of the contact to get"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Repo.GetByID(ctx, input.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, huma.Error404NotFound("contact not found")
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Uint("contact_id", input.ID).Msg("failed to get contact")
		return nil, huma.Error500InternalServerError("failed to get contact")
	default:
		return &ContactsGetOutput{Body: newContactModel(*contact)}, nil
	}
}

type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

func (h *ContactsAPI) health(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	if h.Ping != nil {
		if err := h.Ping(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("health check failed")
			return nil, huma.Error503ServiceUnavailable("database unavailable")
		}
	}
	out := &HealthOutput{}
	out.Body.Status = "ok"
	return out, nil
}
