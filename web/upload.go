package web

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"hlxportal/db"
)

// maxUploadBytes is the document size ceiling.
const maxUploadBytes = 10 << 20

// allowedExtensions is the allow-set for uploaded document types.
var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".txt": true, ".zip": true, ".rar": true,
	".jpg": true, ".jpeg": true, ".png": true,
	".mp3": true, ".mp4": true,
}

// handleUpload accepts a multipart document upload against an instruction.
// The file is validated (extension allow-set, size ceiling) before the
// caller is authorised by claim session or deal passcode; an invalid file is
// a 400 even with a valid passcode. A missing instructionRef is generated
// from the prospect id. The blob write and the catalogue row are two side
// effects with no shared transaction; the blob write goes first so a partial
// failure leaves an orphan blob rather than a dangling catalogue row.
func (web *WebApp) handleUpload() http.Handler {

	type uploadResponse struct {
		BlobName       string `json:"blobName"`
		URL            string `json:"url"`
		InstructionRef string `json:"instructionRef"`
		DocumentID     int64  `json:"documentId"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow some overhead above the document ceiling for the other
		// form fields.
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			web.clientError(w, "could not parse multipart form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			web.clientError(w, "a file is required", http.StatusBadRequest)
			return
		}
		defer func() {
			_ = file.Close()
		}()

		// File validation precedes authorisation.
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			web.clientError(w,
				fmt.Sprintf("file type %q is not accepted", ext),
				http.StatusBadRequest)
			return
		}
		if header.Size > maxUploadBytes {
			web.clientError(w, "file exceeds the 10MB limit", http.StatusBadRequest)
			return
		}

		prospectID, authorised := web.authoriseUpload(r)
		if !authorised {
			web.forbidden(w)
			return
		}

		ref := r.FormValue("instructionRef")
		if ref == "" {
			ref = db.NewInstructionRef(int(prospectID))
		}

		blobName, url, err := web.store.Put(r.Context(), ref, header.Filename, file)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		documentID, err := web.db.DocumentInsert(r.Context(), ref, header.Filename, url)
		if err != nil {
			web.ServerError(w, r, fmt.Errorf("blob %q stored but not catalogued: %w", blobName, err))
			return
		}

		web.writeJSON(w, http.StatusOK, uploadResponse{
			BlobName:       blobName,
			URL:            url,
			InstructionRef: ref,
			DocumentID:     documentID,
		})
	})
}

// authoriseUpload checks for an earlier claim session, falling back to a
// passcode match against an unclaimed deal. The returned prospect id may be
// zero when the deal carries none.
func (web *WebApp) authoriseUpload(r *http.Request) (int64, bool) {
	if web.sessions.Exists(r.Context(), sessionProspectKey) {
		return web.sessions.GetInt64(r.Context(), sessionProspectKey), true
	}

	passcode := r.FormValue("passcode")
	if passcode == "" {
		return 0, false
	}
	var prospectID *int64
	if clientID := r.FormValue("clientId"); clientID != "" {
		id, err := strconv.ParseInt(clientID, 10, 64)
		if err != nil {
			return 0, false
		}
		prospectID = &id
	}

	deal, err := web.db.DealByPasscode(r.Context(), passcode, prospectID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	if err != nil {
		web.log.Error("upload authorisation error", "error", err)
		return 0, false
	}
	if deal.ProspectId == nil {
		return 0, true
	}
	return *deal.ProspectId, true
}
