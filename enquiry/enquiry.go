// Package enquiry maps heterogeneous inbound lead payloads into the
// canonical enquiry row shape. Each lead source has an adapter registered by
// source tag; mapped rows pass through a common set of normalizers and a
// validation step before being stored.
package enquiry

import (
	"fmt"
	"strings"
	"time"
)

// Canonical is a fully mapped enquiry ready for storage. Required fields are
// plain strings; optional fields are pointers since absent and empty are
// stored differently.
type Canonical struct {
	DateTime time.Time `json:"datetime"`
	Stage    string    `json:"stage"`
	Aow      string    `json:"aow"`
	Moc      string    `json:"moc"`
	First    string    `json:"first"`
	Last     string    `json:"last"`
	Email    string    `json:"email"`
	Source   string    `json:"source"`
	Rank     string    `json:"rank"`

	// Rep is required when the method of contact is call based.
	Rep *string `json:"rep,omitempty"`

	Claim           *time.Time `json:"claim,omitempty"`
	Poc             *string    `json:"poc,omitempty"`
	Pitch           *int       `json:"pitch,omitempty"`
	Tow             *string    `json:"tow,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Value           *string    `json:"value,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Rating          *string    `json:"rating,omitempty"`
	Acid            *string    `json:"acid,omitempty"`
	CardID          *string    `json:"cardId,omitempty"`
	URL             *string    `json:"url,omitempty"`
	ContactReferrer *string    `json:"contactReferrer,omitempty"`
	CompanyReferrer *string    `json:"companyReferrer,omitempty"`
	Gclid           *string    `json:"gclid,omitempty"`
}

// normalize applies the post-mapping transformations common to all sources.
func (c *Canonical) normalize() {
	if c.Phone != nil {
		phone := NormalizePhone(*c.Phone)
		c.Phone = &phone
	}
	c.First = TitleCase(c.First)
	c.Last = TitleCase(c.Last)
	c.Email = NormalizeEmail(c.Email)
	c.Rank = ValidateRank(c.Rank)
	c.DateTime = EnsureDateTime(c.DateTime)
}

// callBased reports whether the enquiry's method of contact involves a call,
// in which case a representative must be recorded.
func (c *Canonical) callBased() bool {
	return strings.Contains(strings.ToLower(c.Moc), "call")
}

// Validate checks the mapped enquiry for required fields, returning a list
// of human readable problems.
func (c *Canonical) Validate() []string {
	var errs []string
	if c.Aow == "" {
		errs = append(errs, "aow (area of work) is required")
	}
	if c.Moc == "" {
		errs = append(errs, "moc (method of contact) is required")
	}
	if c.First == "" {
		errs = append(errs, "first (first name) is required")
	}
	if c.Last == "" {
		errs = append(errs, "last (last name) is required")
	}
	if c.Email == "" {
		errs = append(errs, "email is required")
	}
	if c.callBased() && (c.Rep == nil || *c.Rep == "") {
		errs = append(errs, "rep (representative) is required when the method of contact involves a call")
	}
	if c.Email == "" && (c.Phone == nil || *c.Phone == "") {
		errs = append(errs, "at least one of email or phone is required")
	}
	return errs
}

// Map finds the adapter for sourceType (falling back to the generic
// adapter), maps the payload, normalizes it and validates the result. The
// mapped enquiry is returned even on validation failure for error reporting.
func (r *Registry) Map(payload map[string]any, sourceType string) (Canonical, error) {
	c := r.Get(sourceType).Map(payload)
	c.normalize()
	if errs := c.Validate(); len(errs) > 0 {
		return c, fmt.Errorf("enquiry validation failed: %s", strings.Join(errs, "; "))
	}
	return c, nil
}
