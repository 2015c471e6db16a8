package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"hlxportal/db"
)

// sessionProspectKey carries the authorised prospect id in a claim session.
const sessionProspectKey = "claimedProspectId"

// handleDealClaim authorises a client against the most recent unclaimed deal
// matching the posted passcode. A successful match is proof of identity; the
// response carries the deal and a generated instruction reference, and the
// session records the claim so later uploads need not repeat the passcode.
func (web *WebApp) handleDealClaim() http.Handler {

	type claimRequest struct {
		Passcode   string `json:"passcode"`
		ProspectID *int64 `json:"prospectId,omitempty"`
	}
	type claimResponse struct {
		Deal           *db.Deal `json:"deal"`
		InstructionRef string   `json:"instructionRef"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request claimRequest
		if err := web.readJSON(r, &request); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if request.Passcode == "" {
			web.clientError(w, "passcode is required", http.StatusBadRequest)
			return
		}

		deal, err := web.db.DealByPasscode(r.Context(), request.Passcode, request.ProspectID)
		if errors.Is(err, sql.ErrNoRows) {
			web.forbidden(w)
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		response := claimResponse{Deal: deal}
		if deal.ProspectId != nil {
			response.InstructionRef = db.NewInstructionRef(int(*deal.ProspectId))
			web.sessions.Put(r.Context(), sessionProspectKey, *deal.ProspectId)
		}
		web.writeJSON(w, http.StatusOK, response)
	})
}

// handleDealLatest serves the most recent unclaimed deal for a prospect for
// prefilling the instruction form. This is not an authorisation check so the
// passcode is never included.
func (web *WebApp) handleDealLatest() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prospectID, err := strconv.ParseInt(r.URL.Query().Get("prospectId"), 10, 64)
		if err != nil {
			web.clientError(w, "a numeric prospectId is required", http.StatusBadRequest)
			return
		}

		deal, err := web.db.DealLatest(r.Context(), prospectID)
		if errors.Is(err, sql.ErrNoRows) {
			web.notFound(w, "no unclaimed deal found")
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.writeJSON(w, http.StatusOK, deal)
	})
}
