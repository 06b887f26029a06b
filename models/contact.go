package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Field bounds of the contacts table.
const (
	MaxFirstNameLength   = 20
	MaxLastNameLength    = 20
	MaxContactURLLength  = 200
	MaxPhoneNumberLength = 63
	MaxPhotoPathLength   = 100
	MaxCountryLength     = 50
	MaxCityLength        = 40
	MaxStreetLength      = 50
)

// Contact represents one entry of the address book.
// It corresponds to the 'contacts' table.
type Contact struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string  `gorm:"size:20;not null" json:"first_name" validate:"required,max=20"`
	LastName    string  `gorm:"size:20;not null" json:"last_name" validate:"required,max=20"`
	ContactURL  string  `gorm:"size:200;not null" json:"contact_url" validate:"required,max=200,web_url"`
	PhoneNumber string  `gorm:"size:63;not null;index" json:"phone_number" validate:"required,max=63"`
	Photo       *string `gorm:"size:100" json:"photo" validate:"omitempty,max=100"` // Nullable, relative path into the media store
	Country     string  `gorm:"size:50;not null;default:''" json:"country" validate:"max=50"`
	City        string  `gorm:"size:40;not null;default:''" json:"city" validate:"max=40"`
	Street      string  `gorm:"size:50;not null;default:''" json:"street" validate:"max=50"`
}

// TableName explicitly sets the table name for GORM.
func (Contact) TableName() string {
	return "contacts"
}

// FieldNames lists the record attributes in their canonical order.
var FieldNames = []string{
	"id",
	"first_name",
	"last_name",
	"contact_url",
	"phone_number",
	"photo",
	"country",
	"city",
	"street",
}

// Field is one attribute of a contact.
type Field struct {
	Key   string
	Value any
}

// Fields returns the attributes of c in the order of FieldNames. An absent
// photo has a nil Value.
func (c Contact) Fields() []Field {
	var photo any
	if c.Photo != nil {
		photo = *c.Photo
	}
	return []Field{
		{Key: "id", Value: c.ID},
		{Key: "first_name", Value: c.FirstName},
		{Key: "last_name", Value: c.LastName},
		{Key: "contact_url", Value: c.ContactURL},
		{Key: "phone_number", Value: c.PhoneNumber},
		{Key: "photo", Value: photo},
		{Key: "country", Value: c.Country},
		{Key: "city", Value: c.City},
		{Key: "street", Value: c.Street},
	}
}

// ToDict maps every attribute name to its value.
func (c Contact) ToDict() map[string]any {
	fields := c.Fields()
	dict := make(map[string]any, len(fields))
	for _, f := range fields {
		dict[f.Key] = f.Value
	}
	return dict
}

// String renders the attributes as 'key': value pairs separated by ", ".
func (c Contact) String() string {
	fields := c.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("'%s': %s", f.Key, formatValue(f.Value)))
	}
	return strings.Join(parts, ", ")
}

// GoString is the debug form, e.g. Contact(id=111).
func (c Contact) GoString() string {
	return fmt.Sprintf("Contact(id=%d)", c.ID)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return "'" + val + "'"
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	default:
		return fmt.Sprint(val)
	}
}

// PhotoPath returns the stored photo path or an empty string.
func (c Contact) PhotoPath() string {
	if c.Photo == nil {
		return ""
	}
	return *c.Photo
}

// FullName joins first and last name for display.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
