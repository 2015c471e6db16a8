package web

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

// handleInstructionUpsert serves partial writes to an instruction as the
// client progresses through the instruction form. The body is a flat JSON
// object of fields; keys outside the instruction allow-list are dropped.
func (web *WebApp) handleInstructionUpsert() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := mux.Vars(r)["ref"]

		var fields map[string]any
		if err := web.readJSON(r, &fields); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		instruction, err := web.db.InstructionUpsert(r.Context(), ref, fields)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.writeJSON(w, http.StatusOK, instruction)
	})
}

// handleInstructionGet serves a single instruction.
func (web *WebApp) handleInstructionGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := mux.Vars(r)["ref"]

		instruction, err := web.db.InstructionGet(r.Context(), ref)
		if errors.Is(err, sql.ErrNoRows) {
			web.notFound(w, "no instruction found")
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.writeJSON(w, http.StatusOK, instruction)
	})
}

// handleInstructionComplete marks an instruction as completed once its
// matter has been opened.
func (web *WebApp) handleInstructionComplete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := mux.Vars(r)["ref"]

		instruction, err := web.db.InstructionComplete(r.Context(), ref)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.writeJSON(w, http.StatusOK, instruction)
	})
}

// handleDocuments lists the documents recorded against an instruction.
func (web *WebApp) handleDocuments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := mux.Vars(r)["ref"]

		documents, err := web.db.DocumentsGet(r.Context(), ref)
		if errors.Is(err, sql.ErrNoRows) {
			web.writeJSON(w, http.StatusOK, map[string]any{"documents": []any{}})
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.writeJSON(w, http.StatusOK, map[string]any{"documents": documents})
	})
}
