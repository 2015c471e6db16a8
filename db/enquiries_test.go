package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"hlxportal/enquiry"
)

// insertTestEnquiry stores a minimal valid enquiry for the given day.
func insertTestEnquiry(t *testing.T, db *DB, day time.Time, first, email, source string) int64 {
	t.Helper()
	id, err := db.EnquiryInsert(context.Background(), enquiry.Canonical{
		DateTime: day,
		Stage:    "enquiry",
		Aow:      "commercial",
		Moc:      "web form",
		First:    first,
		Last:     "Tester",
		Email:    email,
		Source:   source,
		Rank:     "4",
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestEnquiryInsert(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()

	day := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	id := insertTestEnquiry(t, db, day, "Jane", "jane@example.com", "webform")
	if id == 0 {
		t.Error("expected a non-zero enquiry id")
	}

	var rank string
	if err := db.Get(&rank, `SELECT "rank" FROM enquiries WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	if rank != "4" {
		t.Errorf("rank got %s want 4", rank)
	}
}

func TestEnquiriesGet(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()
	ctx := context.Background()

	march := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	april := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	insertTestEnquiry(t, db, march, "Jane", "jane@example.com", "webform")
	insertTestEnquiry(t, db, march.Add(2*time.Hour), "Sam", "sam@example.com", "phonecall")
	insertTestEnquiry(t, db, april, "Ade", "ade@example.com", "webform")

	dateFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dateTo := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// Date range filter.
	enquiries, err := db.EnquiriesGet(ctx, dateFrom, dateTo, "", "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(enquiries), 2; got != want {
		t.Fatalf("got %d enquiries want %d", got, want)
	}
	if got, want := enquiries[0].RowCount, 2; got != want {
		t.Errorf("row count got %d want %d", got, want)
	}
	// Most recent first.
	if got, want := *enquiries[0].First, "Sam"; got != want {
		t.Errorf("first enquiry got %s want %s", got, want)
	}

	// Source filter.
	enquiries, err = db.EnquiriesGet(ctx, dateFrom, dateTo, "phonecall", "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(enquiries), 1; got != want {
		t.Fatalf("got %d enquiries want %d", got, want)
	}

	// Text search over email.
	enquiries, err = db.EnquiriesGet(ctx, dateFrom, dateTo, "", "jane@", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(enquiries), 1; got != want {
		t.Fatalf("got %d enquiries want %d", got, want)
	}

	// Pagination.
	enquiries, err = db.EnquiriesGet(ctx, dateFrom, dateTo, "", "", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(enquiries), 1; got != want {
		t.Fatalf("got %d enquiries want %d", got, want)
	}
	if got, want := enquiries[0].RowCount, 2; got != want {
		t.Errorf("paged row count got %d want %d", got, want)
	}

	// An empty page is sql.ErrNoRows.
	_, err = db.EnquiriesGet(ctx, dateFrom, dateTo, "nonesuch", "", 10, 0)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}
