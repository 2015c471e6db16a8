package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Applicator defines the interface for the core application logic. This
// allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Serve(ctx context.Context, cfgPath string) error
	InitDB(ctx context.Context, cfgPath string) error
	ImportEnquiries(ctx context.Context, cfgPath, areaOfWork, search string) error
	Wipe(ctx context.Context, cfgPath string) error
}

// BuildCLI creates the full CLI command structure for the application,
// injecting the core application logic (the Applicator) into the command
// actions.
func BuildCLI(app Applicator) *cli.Command {

	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.yaml",
		Usage:   "path to the configuration file",
	}

	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Run the client portal web server",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	initDBCmd := &cli.Command{
		Name:  "init-db",
		Usage: "Create the database file and schema without serving",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.InitDB(ctx, c.String("config"))
		},
	}

	importCmd := &cli.Command{
		Name:    "import-enquiries",
		Usage:   "Backfill enquiries from the ActiveCampaign contact list",
		Aliases: []string{"import"},
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:     "aow",
				Usage:    "area of work to record against the imported enquiries",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "only import contacts matching this search string",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.ImportEnquiries(ctx, c.String("config"), c.String("aow"), c.String("search"))
		},
	}

	wipeCmd := &cli.Command{
		Name:  "wipe",
		Usage: "Delete the local database file",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Wipe(ctx, c.String("config"))
		},
	}

	rootCmd := &cli.Command{
		Name:     "hlxportal",
		Usage:    "Law firm client onboarding and enquiry portal",
		Commands: []*cli.Command{serveCmd, initDBCmd, importCmd, wipeCmd},
	}

	return rootCmd
}
