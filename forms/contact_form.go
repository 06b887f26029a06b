package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/camden-git/contactbook/media"
	"github.com/camden-git/contactbook/models"
	"github.com/camden-git/contactbook/repository"
)

// Form field names.
const (
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldContactURL  = "contact_url"
	FieldPhoneNumber = "phone_number"
	FieldPhoto       = "photo"
	FieldCountry     = "country"
	FieldCity        = "city"
	FieldStreet      = "street"

	// PhotoClearField is the checkbox that removes the current photo.
	PhotoClearField = "photo-clear"

	// NonFieldKey collects errors that belong to no single field.
	NonFieldKey = "__all__"
)

const (
	msgInvalidImage   = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgFileAndClear   = "Please either submit a file or check the clear checkbox, not both."
	defaultFormMemory = 10 << 20
)

// PhotoProcessor stores uploaded photos. *media.Processor implements it.
type PhotoProcessor interface {
	ProcessPhoto(data io.Reader) (string, error)
	Discard(relativePath string) error
	URL(relativePath string) string
}

type fieldDef struct {
	name      string
	inputType string
	required  bool
	maxLength int
}

var fieldDefs = []fieldDef{
	{FieldFirstName, "text", true, models.MaxFirstNameLength},
	{FieldLastName, "text", true, models.MaxLastNameLength},
	{FieldContactURL, "url", true, models.MaxContactURLLength},
	{FieldPhoneNumber, "tel", true, models.MaxPhoneNumberLength},
	{FieldPhoto, "file", false, 0},
	{FieldCountry, "text", false, models.MaxCountryLength},
	{FieldCity, "text", false, models.MaxCityLength},
	{FieldStreet, "text", false, models.MaxStreetLength},
}

// Label turns a field name into its human readable label.
func Label(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// Field is one rendered form input.
type Field struct {
	Name      string
	Label     string
	Type      string
	Value     string
	Required  bool
	MaxLength int
	Errors    []string
}

// ContactForm binds submitted form data to a contact. Instance is nil when
// the form creates a new contact.
type ContactForm struct {
	Instance *models.Contact
	Errors   models.ValidationErrors

	values     map[string]string
	submitted  map[string]bool
	photo      *multipart.FileHeader
	clearPhoto bool
	bound      bool
	validated  bool
}

// NewContactForm returns an unbound form, pre-filled from instance if given.
func NewContactForm(instance *models.Contact) *ContactForm {
	f := &ContactForm{
		Instance:  instance,
		Errors:    models.ValidationErrors{},
		values:    make(map[string]string, len(fieldDefs)),
		submitted: make(map[string]bool, len(fieldDefs)),
	}
	if instance != nil {
		for k, v := range instanceValues(instance) {
			f.values[k] = v
		}
	}
	return f
}

// BindContactForm parses the request body into a form. Multipart bodies keep
// at most maxMemory bytes in memory; the rest of an upload spills to disk.
func BindContactForm(r *http.Request, instance *models.Contact, maxMemory int64) (*ContactForm, error) {
	if maxMemory <= 0 {
		maxMemory = defaultFormMemory
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("failed to parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	f := NewContactForm(instance)
	f.bound = true

	for _, def := range fieldDefs {
		if def.name == FieldPhoto {
			continue
		}
		vals, ok := r.PostForm[def.name]
		if !ok {
			continue
		}
		value := ""
		if len(vals) > 0 {
			value = strings.TrimSpace(vals[0])
		}
		f.values[def.name] = value
		f.submitted[def.name] = true
	}

	if r.MultipartForm != nil {
		if fhs := r.MultipartForm.File[FieldPhoto]; len(fhs) > 0 && fhs[0].Filename != "" {
			f.photo = fhs[0]
		}
	}
	switch strings.ToLower(r.PostForm.Get(PhotoClearField)) {
	case "on", "true", "1":
		f.clearPhoto = true
	}

	return f, nil
}

// IsBound reports whether the form holds submitted data.
func (f *ContactForm) IsBound() bool {
	return f.bound
}

// IsValid validates the merged values and the photo upload. Errors are
// collected per field in f.Errors.
func (f *ContactForm) IsValid() bool {
	if !f.bound {
		return false
	}
	if f.validated {
		return len(f.Errors) == 0
	}
	f.validated = true

	if err := models.Validate(f.merged()); err != nil {
		var ve models.ValidationErrors
		if errors.As(err, &ve) {
			f.merge(ve)
		} else {
			f.Errors.Add(NonFieldKey, err.Error())
		}
	}

	if f.photo != nil {
		if f.clearPhoto {
			f.Errors.Add(FieldPhoto, msgFileAndClear)
		} else if !f.photoIsImage() {
			f.Errors.Add(FieldPhoto, msgInvalidImage)
		}
	}

	return len(f.Errors) == 0
}

func (f *ContactForm) photoIsImage() bool {
	if !media.IsRasterImage(f.photo.Filename) {
		return false
	}
	file, err := f.photo.Open()
	if err != nil {
		return false
	}
	defer file.Close()
	_, err = media.CheckImage(file)
	return err == nil
}

// Save stores the uploaded photo and creates or updates the contact. Invalid
// data is reported as models.ValidationErrors and nothing is persisted.
func (f *ContactForm) Save(ctx context.Context, repo repository.ContactRepositoryInterface, photos PhotoProcessor) (*models.Contact, error) {
	if !f.IsValid() {
		return nil, f.Errors
	}
	logger := zerolog.Ctx(ctx)

	newPhoto := ""
	if f.photo != nil {
		rel, err := f.storePhoto(photos)
		if err != nil {
			if errors.Is(err, media.ErrInvalidImage) {
				f.Errors.Add(FieldPhoto, msgInvalidImage)
				return nil, f.Errors
			}
			return nil, err
		}
		newPhoto = rel
	}

	discardNew := func() {
		if newPhoto == "" {
			return
		}
		if err := photos.Discard(newPhoto); err != nil {
			logger.Warn().Err(err).Str("photo", newPhoto).Msg("failed to discard unsaved photo")
		}
	}

	if f.Instance == nil {
		in := f.input()
		if newPhoto != "" {
			in.Photo = models.StringPtr(newPhoto)
		}
		contact, err := repo.Create(ctx, in)
		if err != nil {
			discardNew()
			return nil, f.repoError(err)
		}
		f.Instance = contact
		return contact, nil
	}

	patch := f.patch()
	if newPhoto != "" {
		patch.Photo = models.StringPtr(newPhoto)
	} else if f.clearPhoto {
		patch.Photo = models.StringPtr("")
	}

	oldPhoto := f.Instance.PhotoPath()
	if err := repo.Update(ctx, f.Instance, patch); err != nil {
		discardNew()
		return nil, f.repoError(err)
	}

	if oldPhoto != "" && oldPhoto != f.Instance.PhotoPath() {
		if err := photos.Discard(oldPhoto); err != nil {
			logger.Warn().Err(err).Str("photo", oldPhoto).Msg("failed to discard replaced photo")
		}
	}
	return f.Instance, nil
}

func (f *ContactForm) storePhoto(photos PhotoProcessor) (string, error) {
	file, err := f.photo.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded photo: %w", err)
	}
	defer file.Close()
	return photos.ProcessPhoto(file)
}

func (f *ContactForm) repoError(err error) error {
	var ve models.ValidationErrors
	if errors.As(err, &ve) {
		f.merge(ve)
		return f.Errors
	}
	return err
}

func (f *ContactForm) merge(ve models.ValidationErrors) {
	for field, msgs := range ve {
		for _, msg := range msgs {
			f.Errors.Add(field, msg)
		}
	}
}

// merged is the record the submitted values would produce.
func (f *ContactForm) merged() models.Contact {
	var c models.Contact
	if f.Instance != nil {
		c = *f.Instance
	}
	c.Apply(f.patch())
	if f.clearPhoto && f.photo == nil {
		c.Photo = nil
	}
	return c
}

func (f *ContactForm) patch() models.ContactPatch {
	var p models.ContactPatch
	targets := map[string]**string{
		FieldFirstName:   &p.FirstName,
		FieldLastName:    &p.LastName,
		FieldContactURL:  &p.ContactURL,
		FieldPhoneNumber: &p.PhoneNumber,
		FieldCountry:     &p.Country,
		FieldCity:        &p.City,
		FieldStreet:      &p.Street,
	}
	for name, target := range targets {
		if f.submitted[name] {
			*target = models.StringPtr(f.values[name])
		}
	}
	return p
}

func (f *ContactForm) input() models.ContactInput {
	return models.ContactInput{
		FirstName:   f.values[FieldFirstName],
		LastName:    f.values[FieldLastName],
		ContactURL:  f.values[FieldContactURL],
		PhoneNumber: f.values[FieldPhoneNumber],
		Country:     f.values[FieldCountry],
		City:        f.values[FieldCity],
		Street:      f.values[FieldStreet],
	}
}

// Fields returns the inputs in display order. The photo field's Value is the
// stored photo path of the instance.
func (f *ContactForm) Fields() []Field {
	fields := make([]Field, 0, len(fieldDefs))
	for _, def := range fieldDefs {
		value := f.values[def.name]
		if def.name == FieldPhoto {
			value = ""
			if f.Instance != nil {
				value = f.Instance.PhotoPath()
			}
		}
		fields = append(fields, Field{
			Name:      def.name,
			Label:     Label(def.name),
			Type:      def.inputType,
			Value:     value,
			Required:  def.required,
			MaxLength: def.maxLength,
			Errors:    f.Errors[def.name],
		})
	}
	return fields
}

// NonFieldErrors returns errors not tied to a field.
func (f *ContactForm) NonFieldErrors() []string {
	return f.Errors[NonFieldKey]
}

func instanceValues(c *models.Contact) map[string]string {
	return map[string]string{
		FieldFirstName:   c.FirstName,
		FieldLastName:    c.LastName,
		FieldContactURL:  c.ContactURL,
		FieldPhoneNumber: c.PhoneNumber,
		FieldCountry:     c.Country,
		FieldCity:        c.City,
		FieldStreet:      c.Street,
	}
}
