// Package db provides the database component of the instructions portal.
//
// Although the database backend is sqlite to allow for simple single-node
// deployment, the database is not treated as a dumb storage layer. Each query
// below is held in an sql file in the `sql` directory which can be run as-is
// on the sqlite command line, with example values standing in for arguments.
//
// The use of external, runnable sql files as Go prepared statements is made
// possible through the parameterization scheme set out in parameterize.go.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/jmoiron/sqlx" // helper library
	_ "modernc.org/sqlite"    // pure go sqlite driver
)

//go:embed sql
var SQLEmbeddedFS embed.FS

// parameterizedStmt describes an sql file parsed into an sqlx NamedStmt
// expecting the provided args.
type parameterizedStmt struct {
	sqlFile string
	args    []string
	*sqlx.NamedStmt
}

// verifyArgs determines if the number of arguments provided to a
// parameterizedStmt is as expected. This check could be more thorough.
func (p *parameterizedStmt) verifyArgs(args map[string]any) error {
	if got, want := len(args), len(p.args); got != want {
		return fmt.Errorf(
			"argument length to named statement from %q incorrect: got %d want %d",
			p.sqlFile,
			got,
			want,
		)
	}
	return nil
}

// DB provides a wrapper around the sql.DB connection for application-specific
// db operations.
type DB struct {
	*sqlx.DB
	sqlFS    fs.FS
	log      *slog.Logger
	logLevel *slog.LevelVar

	// Prepared statements.
	instructionGetStmt      *parameterizedStmt
	instructionCompleteStmt *parameterizedStmt
	paymentUpdateStmt       *parameterizedStmt

	dealByPasscodeStmt         *parameterizedStmt
	dealByPasscodeProspectStmt *parameterizedStmt
	dealLatestStmt             *parameterizedStmt
	dealAttachStmt             *parameterizedStmt
	dealCloseUpdateStmt        *parameterizedStmt
	dealCloseInsertStmt        *parameterizedStmt
	dealInsertStmt             *parameterizedStmt

	enquiryInsertStmt *parameterizedStmt
	enquiriesGetStmt  *parameterizedStmt

	documentInsertStmt *parameterizedStmt
	documentsGetStmt   *parameterizedStmt
}

// NewConnection creates a new connection to an SQLite database at the given
// path, initialises the schema (idempotently) and prepares the statements.
// If sqlFS is nil the embedded sql directory is used; passing a directory
// mount allows the sql files to be edited without recompilation during
// development.
func NewConnection(dbPath string, sqlFS fs.FS, logger *slog.Logger) (*DB, error) {

	// dataSource is the default setting for file-based databases. The
	// _time_format option stores time.Time values in the format sqlite's
	// date and time functions can parse.
	dataSource := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite", dbPath)

	// for in-memory test databases, check the necessary cached setting is used.
	if strings.Contains(dbPath, ":memory:") {
		if !strings.Contains(dbPath, "cache=shared") {
			return nil, fmt.Errorf("in-memory connection %q should contain '?cache=shared'", dbPath)
		}
		dataSource = dbPath + "&_time_format=sqlite"
	}
	dbDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, err
	}

	if err := dbDB.Ping(); err != nil {
		return nil, err
	}

	if sqlFS == nil {
		sqlFS, err = fs.Sub(SQLEmbeddedFS, "sql")
		if err != nil {
			return nil, fmt.Errorf("could not mount embedded sql files: %w", err)
		}
	}

	// Logger setup.
	logLevel := new(slog.LevelVar)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(
			os.Stdout,
			&slog.HandlerOptions{Level: logLevel},
		))
	}

	// Wrap the standard library *sql.DB with sqlx.
	db := &DB{
		DB:       sqlx.NewDb(dbDB, "sqlite"),
		sqlFS:    sqlFS,
		log:      logger,
		logLevel: logLevel,
	}

	// The schema load must precede statement preparation since sqlite
	// validates table names at prepare time.
	if err := db.InitSchema(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.prepareNamedStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare named statements: %w", err)
	}

	return db, nil
}

// SetLogLevel adjusts the level of the default database logger.
func (db *DB) SetLogLevel(level slog.Level) {
	db.logLevel.Set(level)
}

// prepareNamedStatements prepares all the named statements for this database
// connection.
func (db *DB) prepareNamedStatements() error {
	var err error

	// Instructions.
	db.instructionGetStmt, err = db.prepNamedStatement(instructionGetSQL)
	if err != nil {
		return fmt.Errorf("instruction get statement error: %w", err)
	}
	db.instructionCompleteStmt, err = db.prepNamedStatement(instructionCompleteSQL)
	if err != nil {
		return fmt.Errorf("instruction complete statement error: %w", err)
	}
	db.paymentUpdateStmt, err = db.prepNamedStatement(paymentUpdateSQL)
	if err != nil {
		return fmt.Errorf("payment update statement error: %w", err)
	}

	// Deals.
	db.dealByPasscodeStmt, err = db.prepNamedStatement(dealByPasscodeSQL)
	if err != nil {
		return fmt.Errorf("deal by passcode statement error: %w", err)
	}
	db.dealByPasscodeProspectStmt, err = db.prepNamedStatement(dealByPasscodeProspectSQL)
	if err != nil {
		return fmt.Errorf("deal by passcode and prospect statement error: %w", err)
	}
	db.dealLatestStmt, err = db.prepNamedStatement(dealLatestSQL)
	if err != nil {
		return fmt.Errorf("latest deal statement error: %w", err)
	}
	db.dealAttachStmt, err = db.prepNamedStatement(dealAttachSQL)
	if err != nil {
		return fmt.Errorf("deal attach statement error: %w", err)
	}
	db.dealCloseUpdateStmt, err = db.prepNamedStatement(dealCloseUpdateSQL)
	if err != nil {
		return fmt.Errorf("deal close update statement error: %w", err)
	}
	db.dealCloseInsertStmt, err = db.prepNamedStatement(dealCloseInsertSQL)
	if err != nil {
		return fmt.Errorf("deal close insert statement error: %w", err)
	}
	db.dealInsertStmt, err = db.prepNamedStatement(dealInsertSQL)
	if err != nil {
		return fmt.Errorf("deal insert statement error: %w", err)
	}

	// Enquiries.
	db.enquiryInsertStmt, err = db.prepNamedStatement(enquiryInsertSQL)
	if err != nil {
		return fmt.Errorf("enquiry insert statement error: %w", err)
	}
	db.enquiriesGetStmt, err = db.prepNamedStatement(enquiriesGetSQL)
	if err != nil {
		return fmt.Errorf("enquiries get statement error: %w", err)
	}

	// Documents.
	db.documentInsertStmt, err = db.prepNamedStatement(documentInsertSQL)
	if err != nil {
		return fmt.Errorf("document insert statement error: %w", err)
	}
	db.documentsGetStmt, err = db.prepNamedStatement(documentsGetSQL)
	if err != nil {
		return fmt.Errorf("documents get statement error: %w", err)
	}

	return nil
}

// prepNamedStatement prepares one SQL query from its file.
func (db *DB) prepNamedStatement(filePath string) (*parameterizedStmt, error) {
	query, err := ParameterizeFile(db.sqlFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("could not parameterize %q: %w", filePath, err)
	}

	pQuery, err := db.PrepareNamed(string(query.Body))
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement %q: %w", filePath, err)
	}
	return &parameterizedStmt{
		filePath,
		query.Parameters,
		pQuery,
	}, nil
}

// InitSchema creates the necessary tables if they don't already exist. The
// schema file can be run idempotently.
func (db *DB) InitSchema(filePath string) error {

	schema, err := fs.ReadFile(db.sqlFS, filePath)
	if err != nil {
		return fmt.Errorf("could not read schema file at %q: %w", filePath, err)
	}

	_, err = db.ExecContext(context.Background(), string(schema))
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// execNamed runs a prepared named statement, optionally inside the provided
// transaction, after verifying the argument set.
func (db *DB) execNamed(ctx context.Context, tx *sqlx.Tx, stmt *parameterizedStmt, args map[string]any) (sql.Result, error) {
	if err := stmt.verifyArgs(args); err != nil {
		return nil, err
	}
	ns := stmt.NamedStmt
	if tx != nil {
		ns = tx.NamedStmtContext(ctx, ns)
	}
	res, err := ns.ExecContext(ctx, args)
	db.logQuery(stmt, args, err)
	return res, err
}

// logQuery is for helping debug SQL issues.
func (db *DB) logQuery(stmt *parameterizedStmt, args map[string]any, err error) {
	db.log.Debug("sql",
		"file", stmt.sqlFile,
		"args", fmt.Sprintf("%#v", args),
		"error", err,
	)
}
