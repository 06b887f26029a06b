package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/camden-git/contactbook/config"
	"github.com/camden-git/contactbook/database"
	"github.com/camden-git/contactbook/forms"
	"github.com/camden-git/contactbook/models"
	"github.com/camden-git/contactbook/repository"
	"github.com/camden-git/contactbook/views"
)

// form fields beyond this stay on disk while parsing
const formMemory = 1 << 20

var sortOptions = []struct{ value, label string }{
	{database.SortIDAsc, "Date added"},
	{database.SortNameAsc, "Name"},
	{database.SortNameNat, "Name (natural)"},
}

// ContactHandler serves the HTML pages of the contact book.
type ContactHandler struct {
	Repo   repository.ContactRepositoryInterface
	Photos forms.PhotoProcessor
	Cfg    config.Config
}

func NewContactHandler(repo repository.ContactRepositoryInterface, photos forms.PhotoProcessor, cfg config.Config) *ContactHandler {
	return &ContactHandler{Repo: repo, Photos: photos, Cfg: cfg}
}

func (h *ContactHandler) base() views.Base {
	return views.Base{Prefix: h.Cfg.URLPrefix}
}

func (h *ContactHandler) listURL() string {
	return h.Cfg.URLPrefix + "/list/"
}

// ListContacts handles GET /list/?search-area=<term>&sort=<order>
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search-area")
	order := r.URL.Query().Get("sort")
	if !database.IsValidSortOrder(order) {
		order = database.DefaultSortOrder
	}

	var (
		contacts []models.Contact
		err      error
	)
	if term == "" {
		contacts, err = h.Repo.ListAll(r.Context(), order)
	} else {
		contacts, err = h.Repo.Search(r.Context(), term, order)
	}
	if err != nil {
		h.serverError(w, r, err, "failed to list contacts")
		return
	}

	rows := make([]views.ContactRow, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, views.NewContactRow(h.Cfg.URLPrefix, c, h.Photos.URL(c.PhotoPath())))
	}

	opts := make([]views.SortOption, 0, len(sortOptions))
	for _, o := range sortOptions {
		opts = append(opts, views.SortOption{Value: o.value, Label: o.label, Selected: o.value == order})
	}

	h.render(w, r, http.StatusOK, views.ContactList(views.ListPage{
		Base:        h.base(),
		Contacts:    rows,
		SearchInput: term,
		SortOptions: opts,
	}))
}

// ContactForm handles GET and POST on / (create) and /{id}/ (update).
func (h *ContactHandler) ContactForm(w http.ResponseWriter, r *http.Request) {
	var instance *models.Contact
	if idStr := chi.URLParam(r, "id"); idStr != "" {
		id, ok := parseID(idStr)
		if !ok {
			h.NotFound(w, r)
			return
		}
		contact, err := h.Repo.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.NotFound(w, r)
				return
			}
			h.serverError(w, r, err, "failed to load contact")
			return
		}
		instance = contact
	}

	if r.Method != http.MethodPost {
		h.renderForm(w, r, http.StatusOK, forms.NewContactForm(instance))
		return
	}

	if h.Cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	}
	form, err := forms.BindContactForm(r, instance, formMemory)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("Uploads are limited to %d bytes.", tooLarge.Limit))
			return
		}
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	if _, err := form.Save(r.Context(), h.Repo, h.Photos); err != nil {
		var ve models.ValidationErrors
		switch {
		case errors.As(err, &ve):
			h.renderForm(w, r, http.StatusUnprocessableEntity, form)
		case errors.Is(err, gorm.ErrRecordNotFound):
			h.NotFound(w, r)
		default:
			h.serverError(w, r, err, "failed to save contact")
		}
		return
	}

	http.Redirect(w, r, h.listURL(), http.StatusFound)
}

// DeleteContact handles POST /delete/{id}/. A missing contact is not an
// error, the client is redirected to the list either way.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	logger := zerolog.Ctx(r.Context())
	contact, err := h.Repo.GetByID(r.Context(), id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.serverError(w, r, err, "failed to load contact")
		return
	}

	deleted, err := h.Repo.DeleteByID(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err, "failed to delete contact")
		return
	}
	if deleted && contact != nil && contact.Photo != nil {
		if err := h.Photos.Discard(*contact.Photo); err != nil {
			logger.Warn().Err(err).Uint("contact_id", id).Msg("failed to remove photo of deleted contact")
		}
	}
	logger.Debug().Uint("contact_id", id).Bool("deleted", deleted).Msg("delete contact")

	http.Redirect(w, r, h.listURL(), http.StatusFound)
}

func (h *ContactHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form *forms.ContactForm) {
	page := views.FormPage{
		Base:           h.base(),
		Title:          "New contact",
		Action:         h.Cfg.URLPrefix + "/",
		Fields:         form.Fields(),
		NonFieldErrors: form.NonFieldErrors(),
	}
	if c := form.Instance; c != nil {
		page.Title = "Edit " + c.FullName()
		page.Action = fmt.Sprintf("%s/%d/", h.Cfg.URLPrefix, c.ID)
		page.DeleteURL = fmt.Sprintf("%s/delete/%d/", h.Cfg.URLPrefix, c.ID)
		page.PhotoURL = h.Photos.URL(c.PhotoPath())
	}
	h.render(w, r, status, views.ContactForm(page))
}

func (h *ContactHandler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status), templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		})
	})).ServeHTTP(w, r)
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
