package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"hlxportal/apiclients/activecampaign"
	"hlxportal/apiclients/graph"
	"hlxportal/config"
	"hlxportal/db"
	"hlxportal/enquiry"
	"hlxportal/notify"
	"hlxportal/storage"
	"hlxportal/web"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// App is the central orchestrator for the application's business logic,
// wiring configuration, the database, the mail transports and the blob
// store into the commands exposed by the CLI.
type App struct {
	log *log.Logger
}

// NewApp creates and returns a new App instance.
func NewApp() *App {
	return &App{
		log: log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true}),
	}
}

// openDB loads the configuration and opens the database, initialising the
// schema when needed.
func (a *App) openDB(cfgPath string) (*config.Config, *db.DB, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.NewConnection(cfg.DatabasePath, nil, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("database setup error: %w", err)
	}
	return cfg, database, nil
}

// Serve runs the portal web server until it exits.
func (a *App) Serve(ctx context.Context, cfgPath string) error {
	cfg, database, err := a.openDB(cfgPath)
	if err != nil {
		return err
	}
	defer database.Close()

	// A nil graph client leaves the mailer on its SMTP or drop path; the
	// typed nil must not reach the interface value.
	var graphSender notify.GraphSender
	if cfg.Graph.Configured() {
		graphClient, err := graph.NewClient(ctx, cfg, slog.Default())
		if err != nil {
			return fmt.Errorf("graph client error: %w", err)
		}
		graphSender = graphClient
	} else {
		a.log.Warn("graph mail is not configured")
	}

	mailer, err := notify.NewMailer(cfg, graphSender, a.log)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("blob store error: %w", err)
	}

	webApp, err := web.New(a.log, cfg, database, mailer, store)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Web.DevelopmentMode && cfg.Mail.TemplatesPath != "" {
		g.Go(func() error {
			return mailer.WatchTemplates(ctx)
		})
	}
	g.Go(func() error {
		return webApp.StartServer()
	})
	return g.Wait()
}

// InitDB creates the database file and schema without starting the server.
func (a *App) InitDB(ctx context.Context, cfgPath string) error {
	cfg, database, err := a.openDB(cfgPath)
	if err != nil {
		return err
	}
	defer database.Close()
	a.log.Info("database initialised", "path", cfg.DatabasePath)
	return nil
}

// ImportEnquiries backfills enquiries from the ActiveCampaign contact list.
// Each contact passes through the activecampaign source adapter so the
// stored rows match those recorded by the live enquiry endpoint; contacts
// failing validation are logged and skipped.
func (a *App) ImportEnquiries(ctx context.Context, cfgPath, areaOfWork, search string) error {
	cfg, database, err := a.openDB(cfgPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if !cfg.ActiveCampaign.Configured() {
		return fmt.Errorf("activecampaign is not configured in %s", cfgPath)
	}
	ac, err := activecampaign.NewClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	contacts, err := ac.Contacts(ctx, activecampaign.ListOptions{
		Limit:   100,
		Search:  search,
		OrderBy: "ASC",
	})
	if err != nil {
		return fmt.Errorf("could not list contacts: %w", err)
	}
	a.log.Info("fetched contacts", "count", len(contacts))

	registry := enquiry.NewRegistry()
	var imported, skipped int
	for _, contact := range contacts {
		payload := map[string]any{
			"aow":        areaOfWork,
			"firstName":  contact.FirstName,
			"lastName":   contact.LastName,
			"email":      contact.Email,
			"phone":      contact.Phone,
			"contact_id": contact.ID,
		}
		canonical, err := registry.Map(payload, "activecampaign")
		if err != nil {
			a.log.Warn("skipping contact", "email", contact.Email, "error", err)
			skipped++
			continue
		}
		if _, err := database.EnquiryInsert(ctx, canonical); err != nil {
			return fmt.Errorf("could not record enquiry for %q: %w", contact.Email, err)
		}
		imported++
	}
	a.log.Info("import complete", "imported", imported, "skipped", skipped)
	return nil
}

// Wipe deletes the local database file.
func (a *App) Wipe(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	a.log.Info("deleting database file", "path", cfg.DatabasePath)
	if err := os.Remove(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	return nil
}
