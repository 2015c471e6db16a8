package web

// This file describes the web server for this project.
//
// Note that modules called by this server should provide self-describing
// errors since these are sent directly to an internal server error func:
//
//	web.ServerError(w, r, err)
//
// This web server also sets out each endpoint handler as a HandlerFunc. This
// allows for the router to provide arguments to the handler, as discussed in
// Mat Ryer's post at
//
//	https://grafana.com/blog/how-i-write-http-services-in-go-after-13-years/
//
// Helper functions, such as `ServerError` and `clientError` are at the end
// of the file.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"hlxportal/apiclients/activecampaign"
	"hlxportal/config"
	"hlxportal/db"
	"hlxportal/enquiry"
	"hlxportal/notify"
	"hlxportal/storage"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// pageLen is the number of items to show in a page listing.
const pageLen = 15

// WebApp is the configuration object for the web server.
type WebApp struct {
	log       *log.Logger
	cfg       *config.Config
	db        *db.DB
	mailer    *notify.Mailer
	store     storage.BlobStore
	enquiries *enquiry.Registry
	ac        contactSyncer
	sessions  *scs.SessionManager
	server    *http.Server

	// notifications tracks in-flight mail fan-outs so shutdown and tests
	// can wait for them.
	notifications sync.WaitGroup
}

// New initialises a WebApp.
func New(
	logger *log.Logger,
	cfg *config.Config,
	db *db.DB,
	mailer *notify.Mailer,
	store storage.BlobStore,
) (*WebApp, error) {

	server := &http.Server{
		Addr:              cfg.Web.ListenAddress,
		ReadHeaderTimeout: time.Duration(30 * time.Second),
		WriteTimeout:      time.Duration(30 * time.Second),
		MaxHeaderBytes:    1 << 19, // 100k ish
	}

	sessions := scs.New()
	sessions.Lifetime = 12 * time.Hour
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Secure = !cfg.Web.DevelopmentMode

	webApp := &WebApp{
		log:       logger,
		cfg:       cfg,
		db:        db,
		mailer:    mailer,
		store:     store,
		enquiries: enquiry.NewRegistry(),
		sessions:  sessions,
		server:    server,
	}

	if cfg.ActiveCampaign.Configured() {
		ac, err := activecampaign.NewClient(cfg, slog.Default())
		if err != nil {
			return nil, err
		}
		webApp.ac = ac
	}

	return webApp, nil
}

// StartServer starts a WebApp.
func (web *WebApp) StartServer() error {
	web.server.Handler = web.routes()
	web.log.Info("starting server", "address", web.cfg.Web.ListenAddress)
	return web.server.ListenAndServe()
}

// routes connects all of the endpoints and provides middleware.
func (web *WebApp) routes() http.Handler {

	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Instructions.
	api.Handle(
		"/instructions/{ref:HLX-[0-9]+-[0-9]+}",
		web.handleInstructionUpsert(),
	).Methods("POST")
	api.Handle(
		"/instructions/{ref:HLX-[0-9]+-[0-9]+}",
		web.handleInstructionGet(),
	).Methods("GET")
	api.Handle(
		"/instructions/{ref:HLX-[0-9]+-[0-9]+}/confirm-payment",
		web.handleConfirmPayment(),
	).Methods("POST")
	api.Handle(
		"/instructions/{ref:HLX-[0-9]+-[0-9]+}/complete",
		web.handleInstructionComplete(),
	).Methods("POST")
	api.Handle(
		"/instructions/{ref:HLX-[0-9]+-[0-9]+}/documents",
		web.handleDocuments(),
	).Methods("GET")

	// Deals.
	api.Handle(
		"/deals/claim",
		web.handleDealClaim(),
	).Methods("POST")
	api.Handle(
		"/deals/latest",
		web.handleDealLatest(),
	).Methods("GET")

	// Enquiries.
	api.Handle(
		"/enquiries",
		web.handleEnquiryCreate(),
	).Methods("POST")
	api.Handle(
		"/enquiries",
		web.handleEnquiries(),
	).Methods("GET")

	// Document upload, gated by passcode or a claim session.
	r.Handle(
		"/upload",
		web.handleUpload(),
	).Methods("POST")

	logging := handlers.LoggingHandler(os.Stdout, r)
	return web.sessions.LoadAndSave(logging)
}

/* -------------------------------------------------------------------------- */
// Helpers
/* -------------------------------------------------------------------------- */

// writeJSON renders a JSON response.
func (web *WebApp) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		web.log.Error("json encoding error", "error", err)
	}
}

// readJSON decodes a JSON request body into dst, limiting the body size.
func (web *WebApp) readJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("json body decoding error: %w", err)
	}
	return nil
}

// ServerError logs and returns an internal server error. The error should
// contain the information needed for logging.
func (web *WebApp) ServerError(w http.ResponseWriter, r *http.Request, errs ...error) {
	err := errors.Join(errs...)
	web.log.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
	web.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": http.StatusText(http.StatusInternalServerError),
	})
}

// clientError returns a client error with a JSON body.
func (web *WebApp) clientError(w http.ResponseWriter, message string, status int) {
	if message == "" {
		message = http.StatusText(status)
	}
	web.writeJSON(w, status, map[string]string{"error": message})
}

// forbidden raises a 403 clientError. Passcode mismatches share one message
// so callers cannot distinguish a wrong passcode from a claimed deal.
func (web *WebApp) forbidden(w http.ResponseWriter) {
	web.clientError(w, "not authorised", http.StatusForbidden)
}

// notFound raises a 404 clientError.
func (web *WebApp) notFound(w http.ResponseWriter, message string) {
	web.clientError(w, message, http.StatusNotFound)
}
