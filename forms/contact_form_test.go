package forms

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/contactbook/media"
	"github.com/camden-git/contactbook/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockRepo struct {
	CreateFn func(ctx context.Context, in models.ContactInput) (*models.Contact, error)
	UpdateFn func(ctx context.Context, c *models.Contact, p models.ContactPatch) error

	created []models.ContactInput
	patches []models.ContactPatch
}

func (m *mockRepo) Create(ctx context.Context, in models.ContactInput) (*models.Contact, error) {
	m.created = append(m.created, in)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, in)
	}
	c := in.Contact()
	c.ID = 1
	return &c, nil
}

func (m *mockRepo) GetByID(context.Context, uint) (*models.Contact, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRepo) All(context.Context) iter.Seq2[models.Contact, error] {
	return func(func(models.Contact, error) bool) {}
}

func (m *mockRepo) ListAll(context.Context, string) ([]models.Contact, error) { return nil, nil }

func (m *mockRepo) Search(context.Context, string, string) ([]models.Contact, error) {
	return nil, nil
}

func (m *mockRepo) Update(ctx context.Context, c *models.Contact, p models.ContactPatch) error {
	m.patches = append(m.patches, p)
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, c, p)
	}
	c.Apply(p)
	return nil
}

func (m *mockRepo) DeleteByID(context.Context, uint) (bool, error) { return false, nil }

type mockPhotos struct {
	ProcessFn func(io.Reader) (string, error)
	discarded []string
}

func (m *mockPhotos) ProcessPhoto(r io.Reader) (string, error) {
	if m.ProcessFn != nil {
		return m.ProcessFn(r)
	}
	return "photos/new.jpg", nil
}

func (m *mockPhotos) Discard(rel string) error {
	m.discarded = append(m.discarded, rel)
	return nil
}

func (m *mockPhotos) URL(rel string) string { return "/media/" + rel }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func validValues() url.Values {
	return url.Values{
		"first_name":   {"Sergey"},
		"last_name":    {"Petrov"},
		"contact_url":  {"http://sergey.example"},
		"phone_number": {"5551234"},
		"country":      {"Ukraine"},
	}
}

func urlencoded(t *testing.T, vals url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartReq(t *testing.T, vals url.Values, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range vals {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("photo", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func existing() *models.Contact {
	return &models.Contact{
		ID:          7,
		FirstName:   "Day",
		LastName:    "Night",
		ContactURL:  "http://day.com",
		PhoneNumber: "7654321",
		Photo:       models.StringPtr("photos/old.jpg"),
		Country:     "Russia",
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLabel(t *testing.T) {
	assert.Equal(t, "first name", Label("first_name"))
	assert.Equal(t, "contact url", Label("contact_url"))
	assert.Equal(t, "city", Label("city"))
}

func TestNewContactForm_Fields(t *testing.T) {
	f := NewContactForm(existing())
	assert.False(t, f.IsBound())
	assert.False(t, f.IsValid())

	fields := f.Fields()
	require.Len(t, fields, 8)
	names := make([]string, len(fields))
	for i, fld := range fields {
		names[i] = fld.Name
	}
	assert.Equal(t, []string{"first_name", "last_name", "contact_url", "phone_number", "photo", "country", "city", "street"}, names)

	assert.Equal(t, "first name", fields[0].Label)
	assert.Equal(t, "Day", fields[0].Value)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "url", fields[2].Type)
	assert.Equal(t, "photos/old.jpg", fields[4].Value)
	assert.False(t, fields[5].Required)

	empty := NewContactForm(nil).Fields()
	assert.Equal(t, "", empty[0].Value)
	assert.Equal(t, "", empty[4].Value)
}

func TestCreate_Valid(t *testing.T) {
	f, err := BindContactForm(urlencoded(t, validValues()), nil, 0)
	require.NoError(t, err)
	require.True(t, f.IsValid(), f.Errors)

	repo := &mockRepo{}
	photos := &mockPhotos{}
	c, err := f.Save(context.Background(), repo, photos)
	require.NoError(t, err)
	assert.Equal(t, uint(1), c.ID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Sergey", repo.created[0].FirstName)
	assert.Equal(t, "Ukraine", repo.created[0].Country)
	assert.Nil(t, repo.created[0].Photo)
	assert.Empty(t, photos.discarded)
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(url.Values)
		field string
	}{
		{"missing first name", func(v url.Values) { v.Del("first_name") }, "first_name"},
		{"blank last name", func(v url.Values) { v.Set("last_name", "   ") }, "last_name"},
		{"first name too long", func(v url.Values) { v.Set("first_name", strings.Repeat("x", 21)) }, "first_name"},
		{"bad url", func(v url.Values) { v.Set("contact_url", "not a url") }, "contact_url"},
		{"city too long", func(v url.Values) { v.Set("city", strings.Repeat("c", 41)) }, "city"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := validValues()
			tt.edit(vals)
			f, err := BindContactForm(urlencoded(t, vals), nil, 0)
			require.NoError(t, err)
			assert.False(t, f.IsValid())
			assert.Contains(t, f.Errors, tt.field)

			repo := &mockRepo{}
			_, err = f.Save(context.Background(), repo, &mockPhotos{})
			var ve models.ValidationErrors
			require.ErrorAs(t, err, &ve)
			assert.Empty(t, repo.created)

			for _, fld := range f.Fields() {
				if fld.Name == tt.field {
					assert.NotEmpty(t, fld.Errors)
				}
			}
		})
	}
}

func TestCreate_WithPhoto(t *testing.T) {
	f, err := BindContactForm(multipartReq(t, validValues(), "me.png", pngData(t)), nil, 0)
	require.NoError(t, err)
	require.True(t, f.IsValid(), f.Errors)

	repo := &mockRepo{}
	c, err := f.Save(context.Background(), repo, &mockPhotos{})
	require.NoError(t, err)
	assert.Equal(t, "photos/new.jpg", c.PhotoPath())
}

func TestCreate_RejectsNonImagePhoto(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"wrong extension", "cv.pdf", []byte("%PDF-1.4")},
		{"garbage with image extension", "me.jpg", []byte("not really a jpeg")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := BindContactForm(multipartReq(t, validValues(), tt.filename, tt.data), nil, 0)
			require.NoError(t, err)
			assert.False(t, f.IsValid())
			assert.Equal(t, []string{msgInvalidImage}, f.Errors["photo"])
		})
	}
}

func TestCreate_RepositoryFailureDiscardsPhoto(t *testing.T) {
	f, err := BindContactForm(multipartReq(t, validValues(), "me.png", pngData(t)), nil, 0)
	require.NoError(t, err)

	repo := &mockRepo{CreateFn: func(context.Context, models.ContactInput) (*models.Contact, error) {
		return nil, errors.New("disk full")
	}}
	photos := &mockPhotos{}
	_, err = f.Save(context.Background(), repo, photos)
	require.EqualError(t, err, "disk full")
	assert.Equal(t, []string{"photos/new.jpg"}, photos.discarded)
}

func TestCreate_UndecodablePhotoBecomesFieldError(t *testing.T) {
	f, err := BindContactForm(multipartReq(t, validValues(), "me.png", pngData(t)), nil, 0)
	require.NoError(t, err)

	photos := &mockPhotos{ProcessFn: func(io.Reader) (string, error) {
		return "", media.ErrInvalidImage
	}}
	_, err = f.Save(context.Background(), &mockRepo{}, photos)
	var ve models.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve, "photo")
}

func TestUpdate_PatchesOnlySubmittedFields(t *testing.T) {
	instance := existing()
	f, err := BindContactForm(urlencoded(t, url.Values{"first_name": {"Dawn"}, "city": {""}}), instance, 0)
	require.NoError(t, err)
	require.True(t, f.IsValid(), f.Errors)

	repo := &mockRepo{}
	photos := &mockPhotos{}
	c, err := f.Save(context.Background(), repo, photos)
	require.NoError(t, err)

	require.Len(t, repo.patches, 1)
	p := repo.patches[0]
	require.NotNil(t, p.FirstName)
	assert.Equal(t, "Dawn", *p.FirstName)
	require.NotNil(t, p.City)
	assert.Equal(t, "", *p.City)
	assert.Nil(t, p.LastName)
	assert.Nil(t, p.Photo)

	assert.Equal(t, "Dawn", c.FirstName)
	assert.Equal(t, "Night", c.LastName)
	assert.Equal(t, "photos/old.jpg", c.PhotoPath())
	assert.Empty(t, photos.discarded)
}

func TestUpdate_ReplacePhotoDiscardsOld(t *testing.T) {
	f, err := BindContactForm(multipartReq(t, url.Values{}, "me.png", pngData(t)), existing(), 0)
	require.NoError(t, err)

	photos := &mockPhotos{}
	c, err := f.Save(context.Background(), &mockRepo{}, photos)
	require.NoError(t, err)
	assert.Equal(t, "photos/new.jpg", c.PhotoPath())
	assert.Equal(t, []string{"photos/old.jpg"}, photos.discarded)
}

func TestUpdate_ClearPhoto(t *testing.T) {
	f, err := BindContactForm(urlencoded(t, url.Values{PhotoClearField: {"on"}}), existing(), 0)
	require.NoError(t, err)

	repo := &mockRepo{}
	photos := &mockPhotos{}
	c, err := f.Save(context.Background(), repo, photos)
	require.NoError(t, err)
	require.NotNil(t, repo.patches[0].Photo)
	assert.Equal(t, "", *repo.patches[0].Photo)
	assert.Nil(t, c.Photo)
	assert.Equal(t, []string{"photos/old.jpg"}, photos.discarded)
}

func TestUpdate_FileAndClearConflict(t *testing.T) {
	vals := url.Values{PhotoClearField: {"on"}}
	f, err := BindContactForm(multipartReq(t, vals, "me.png", pngData(t)), existing(), 0)
	require.NoError(t, err)
	assert.False(t, f.IsValid())
	assert.Equal(t, []string{msgFileAndClear}, f.Errors["photo"])
}

func TestUpdate_RepositoryValidationMerged(t *testing.T) {
	f, err := BindContactForm(urlencoded(t, url.Values{"street": {"Mira"}}), existing(), 0)
	require.NoError(t, err)

	repo := &mockRepo{UpdateFn: func(context.Context, *models.Contact, models.ContactPatch) error {
		return models.ValidationErrors{"street": {"rejected by store"}}
	}}
	_, err = f.Save(context.Background(), repo, &mockPhotos{})
	var ve models.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"rejected by store"}, f.Errors["street"])
}

func TestBind_RejectsBrokenMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	_, err := BindContactForm(req, nil, 0)
	assert.Error(t, err)
}
