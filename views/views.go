package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/camden-git/contactbook/forms"
	"github.com/camden-git/contactbook/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"contact_list": parsePage("contact_list.html"),
	"contact_form": parsePage("contact_form.html"),
	"error":        parsePage("error.html"),
}

func parsePage(file string) *template.Template {
	return template.Must(template.New(file).ParseFS(templateFS, "templates/base.html", "templates/"+file))
}

// Base carries what every page layout needs.
type Base struct {
	Prefix string // URL prefix the app is mounted under, "" or "/something"
}

// ContactRow is one line of the contact list.
type ContactRow struct {
	ID          uint
	FullName    string
	PhoneNumber string
	ContactURL  string
	PhotoURL    string
	Address     string
	EditURL     string
	DeleteURL   string
}

// NewContactRow prepares c for display. photoURL is the public address of
// the contact's photo or "".
func NewContactRow(prefix string, c models.Contact, photoURL string) ContactRow {
	var addr []string
	for _, part := range []string{c.Street, c.City, c.Country} {
		if part != "" {
			addr = append(addr, part)
		}
	}
	return ContactRow{
		ID:          c.ID,
		FullName:    c.FullName(),
		PhoneNumber: c.PhoneNumber,
		ContactURL:  c.ContactURL,
		PhotoURL:    photoURL,
		Address:     strings.Join(addr, ", "),
		EditURL:     fmt.Sprintf("%s/%d/", prefix, c.ID),
		DeleteURL:   fmt.Sprintf("%s/delete/%d/", prefix, c.ID),
	}
}

type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

// ListPage is the view model of /list/.
type ListPage struct {
	Base        Base
	Contacts    []ContactRow
	SearchInput string
	SortOptions []SortOption
}

// FormPage is the view model of the create and edit form.
type FormPage struct {
	Base           Base
	Title          string
	Action         string
	Fields         []forms.Field
	NonFieldErrors []string
	PhotoURL       string
	DeleteURL      string
}

// ErrorPage is rendered for 4xx/5xx responses of the HTML routes.
type ErrorPage struct {
	Base    Base
	Status  int
	Title   string
	Message string
}

func ContactList(p ListPage) templ.Component {
	return page("contact_list", p)
}

func ContactForm(p FormPage) templ.Component {
	return page("contact_form", p)
}

func Error(p ErrorPage) templ.Component {
	return page("error", p)
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if err := pages[name].ExecuteTemplate(w, "base", data); err != nil {
			return fmt.Errorf("failed to render %s page: %w", name, err)
		}
		return nil
	})
}
