package web

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/schema"
)

// ------------------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------------------

// Validator holds a map of validation errors, keyed by the form field name.
type Validator struct {
	Errors map[string]string
}

// NewValidator creates a new, initialized Validator.
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map is empty.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map for a given field if one
// doesn't already exist for that field.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check is a helper for conditional validation. If `ok` is false, it
// calls AddError with the provided key and message.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// FieldError is a helper to check if the specified field has triggered
// an error.
func (v *Validator) FieldError(field string) bool {
	_, ok := v.Errors[field]
	return ok
}

// ------------------------------------------------------------------------------
// Forms
// ------------------------------------------------------------------------------

// SearchEnquiriesForm represents the URL query parameter filters for the
// enquiry listing.
type SearchEnquiriesForm struct {
	DateFrom     time.Time `schema:"date-from"`
	DateTo       time.Time `schema:"date-to"`
	Source       string    `schema:"source"`
	SearchString string    `schema:"search"`
	Page         int       `schema:"page"`
}

// defaultDateToAndFrom sets the default dateFrom and dateTo dates, covering
// the last quarter.
func defaultDateToAndFrom() (time.Time, time.Time) {
	now := time.Now().UTC()
	dt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	df := dt.AddDate(0, -3, 0)
	return df, dt
}

// NewSearchEnquiriesForm creates a SearchEnquiriesForm with defaults.
func NewSearchEnquiriesForm() *SearchEnquiriesForm {
	dateFrom, dateTo := defaultDateToAndFrom()
	return &SearchEnquiriesForm{
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Page:     1, // 1-based pagination.
	}
}

// Validate checks SearchEnquiriesForm fields and populates Validator with
// any errors. Note that the `Check` is like an assertion of truth, if that
// fails, the provided message is recorded against the field.
func (f *SearchEnquiriesForm) Validate(v *Validator) {

	v.Check(!f.DateTo.Before(f.DateFrom), "date-to", "End date cannot be before the start date.")
	v.Check(!f.DateFrom.IsZero(), "date-from", "From date must be provided.")

	if f.Page < 1 {
		f.Page = 1
	}
}

// Offset calculates the database offset for (1-based) pagination.
func (f *SearchEnquiriesForm) Offset() int {
	return (f.Page - 1) * pageLen
}

// ------------------------------------------------------------------------------
// General decoding funcs
// ------------------------------------------------------------------------------

// newSchemaDecoder creates a new schema.Decoder instance and registers
// a custom converter for the time.Time type.
func newSchemaDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	decoder.RegisterConverter(time.Time{}, func(value string) reflect.Value {
		t, err := time.Parse("2006-01-02", value) // other patterns can be tried here.
		if err != nil {
			return reflect.ValueOf(time.Time{})
		}
		return reflect.ValueOf(t)
	})

	return decoder
}

// DecodeURLParams is helper that decodes URL query parameters from a request
// into a destination struct (dst).
func DecodeURLParams(r *http.Request, dst any) error {
	decoder := newSchemaDecoder()
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("url parameter decoding error: %v", err)
	}
	return nil
}
