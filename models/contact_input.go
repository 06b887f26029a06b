package models

// ContactInput carries the attributes of a contact that is about to be created.
// Missing names stay empty strings and are rejected by validation.
type ContactInput struct {
	FirstName   string
	LastName    string
	ContactURL  string
	PhoneNumber string
	Photo       *string
	Country     string
	City        string
	Street      string
}

// Contact builds an unsaved record from the input.
func (in ContactInput) Contact() Contact {
	return Contact{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		ContactURL:  in.ContactURL,
		PhoneNumber: in.PhoneNumber,
		Photo:       in.Photo,
		Country:     in.Country,
		City:        in.City,
		Street:      in.Street,
	}
}

// ContactPatch describes an update. A nil field is absent and leaves the
// stored value unchanged; a non-nil field overwrites it, even when empty.
// A non-nil empty Photo removes the photo.
type ContactPatch struct {
	FirstName   *string
	LastName    *string
	ContactURL  *string
	PhoneNumber *string
	Photo       *string
	Country     *string
	City        *string
	Street      *string
}

// NonEmptyPatch builds a patch holding only the non-empty values of in, so
// empty strings and a nil photo leave the stored values alone.
func NonEmptyPatch(in ContactInput) ContactPatch {
	var p ContactPatch
	p.FirstName = nonEmpty(in.FirstName)
	p.LastName = nonEmpty(in.LastName)
	p.ContactURL = nonEmpty(in.ContactURL)
	p.PhoneNumber = nonEmpty(in.PhoneNumber)
	if in.Photo != nil {
		p.Photo = nonEmpty(*in.Photo)
	}
	p.Country = nonEmpty(in.Country)
	p.City = nonEmpty(in.City)
	p.Street = nonEmpty(in.Street)
	return p
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.ContactURL == nil && p.PhoneNumber == nil &&
		p.Photo == nil && p.Country == nil && p.City == nil && p.Street == nil
}

// Apply overwrites the fields of c that are present in p.
func (c *Contact) Apply(p ContactPatch) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.ContactURL != nil {
		c.ContactURL = *p.ContactURL
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = *p.PhoneNumber
	}
	if p.Photo != nil {
		if *p.Photo == "" {
			c.Photo = nil
		} else {
			photo := *p.Photo
			c.Photo = &photo
		}
	}
	if p.Country != nil {
		c.Country = *p.Country
	}
	if p.City != nil {
		c.City = *p.City
	}
	if p.Street != nil {
		c.Street = *p.Street
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
