package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"hlxportal/apiclients/activecampaign"
	"hlxportal/db"
	"hlxportal/enquiry"
)

// contactSyncer is the part of the ActiveCampaign client used when recording
// enquiries, extracted for substitution in tests.
type contactSyncer interface {
	SyncContact(ctx context.Context, contact activecampaign.Contact) (*activecampaign.Contact, error)
}

// handleEnquiryCreate accepts a lead payload from any registered source,
// maps it to the canonical enquiry shape and stores it. The source tag comes
// from the `source` query parameter or body field; unknown tags fall back to
// the generic alias-cascade adapter. With `updateAC=true` and a configured
// ActiveCampaign account the contact is synced and the enquiry's acid set
// from the contact id.
func (web *WebApp) handleEnquiryCreate() http.Handler {

	type createResponse struct {
		ID        int64  `json:"id"`
		Source    string `json:"source"`
		ContactID string `json:"contactId,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := web.readJSON(r, &body); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		sourceType := r.URL.Query().Get("source")
		if sourceType == "" {
			if s, ok := body["source"].(string); ok {
				sourceType = s
			}
		}
		payload := body
		if data, ok := body["data"].(map[string]any); ok {
			payload = data
		}

		canonical, err := web.enquiries.Map(payload, sourceType)
		if err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		response := createResponse{Source: canonical.Source}

		// Contact sync failure is logged but never blocks the enquiry.
		if web.ac != nil && r.URL.Query().Get("updateAC") == "true" {
			contact, err := web.ac.SyncContact(r.Context(), contactFromEnquiry(canonical))
			if err != nil {
				web.log.Warn("activecampaign contact sync failed",
					"email", canonical.Email, "error", err)
			} else {
				canonical.Acid = &contact.ID
				response.ContactID = contact.ID
			}
		}

		id, err := web.db.EnquiryInsert(r.Context(), canonical)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		response.ID = id
		web.writeJSON(w, http.StatusCreated, response)
	})
}

// contactFromEnquiry builds the ActiveCampaign contact for an enquiry.
func contactFromEnquiry(canonical enquiry.Canonical) activecampaign.Contact {
	contact := activecampaign.Contact{
		Email:     canonical.Email,
		FirstName: canonical.First,
		LastName:  canonical.Last,
	}
	if canonical.Phone != nil {
		contact.Phone = *canonical.Phone
	}
	return contact
}

// handleEnquiries serves the paged enquiry listing with date range, source
// and free text filters.
func (web *WebApp) handleEnquiries() http.Handler {

	type listResponse struct {
		Enquiries   []db.Enquiry `json:"enquiries"`
		Total       int          `json:"total"`
		Page        int          `json:"page"`
		Pages       int          `json:"pages"`
		NextURL     string       `json:"nextUrl,omitempty"`
		PreviousURL string       `json:"previousUrl,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := NewSearchEnquiriesForm()
		if err := DecodeURLParams(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			message, _ := json.Marshal(validator.Errors)
			web.clientError(w, string(message), http.StatusBadRequest)
			return
		}

		enquiries, err := web.db.EnquiriesGet(
			r.Context(), form.DateFrom, form.DateTo, form.Source, form.SearchString,
			pageLen, form.Offset(),
		)
		if errors.Is(err, sql.ErrNoRows) {
			web.writeJSON(w, http.StatusOK, listResponse{Enquiries: []db.Enquiry{}, Page: form.Page, Pages: 1})
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		total := enquiries[0].RowCount
		pagination, err := NewPagination(pageLen, total, form.Page, r.URL.Query())
		if err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		web.writeJSON(w, http.StatusOK, listResponse{
			Enquiries:   enquiries,
			Total:       total,
			Page:        pagination.PageNo,
			Pages:       pagination.Pages,
			NextURL:     pagination.NextURL(),
			PreviousURL: pagination.PreviousURL(),
		})
	})
}
