package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestDealCreateAndClaim(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()
	ctx := context.Background()

	deal, err := db.DealCreate(ctx, 2744, "Debt recovery advice", 1500.00, "commercial")
	if err != nil {
		t.Fatal(err)
	}
	if deal.DealId == 0 {
		t.Error("expected a non-zero deal id")
	}
	if len(*deal.Passcode) != 6 {
		t.Errorf("unexpected passcode %q", *deal.Passcode)
	}

	// Claim by passcode.
	found, err := db.DealByPasscode(ctx, *deal.Passcode, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := found.DealId, deal.DealId; got != want {
		t.Errorf("deal id got %d want %d", got, want)
	}

	// Scoped to the wrong prospect there is no match.
	_, err = db.DealByPasscode(ctx, *deal.Passcode, ptrInt64(9999))
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	// The wrong passcode never matches.
	_, err = db.DealByPasscode(ctx, "WRONG1", nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDealLatest(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()
	ctx := context.Background()

	if _, err := db.DealCreate(ctx, 55, "First matter", 500, "family"); err != nil {
		t.Fatal(err)
	}
	second, err := db.DealCreate(ctx, 55, "Second matter", 900, "family")
	if err != nil {
		t.Fatal(err)
	}

	latest, err := db.DealLatest(ctx, 55)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := latest.DealId, second.DealId; got != want {
		t.Errorf("latest deal got %d want %d", got, want)
	}

	_, err = db.DealLatest(ctx, 9999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDealAttachInstructionRef(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()
	ctx := context.Background()

	deal, err := db.DealCreate(ctx, 2744, "Advice", 100, "commercial")
	if err != nil {
		t.Fatal(err)
	}

	ref := "HLX-2744-0918"
	if err := db.DealAttachInstructionRef(ctx, ref); err != nil {
		t.Fatal(err)
	}

	// The deal is now claimed so the passcode no longer matches.
	_, err = db.DealByPasscode(ctx, *deal.Passcode, nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after claim, got %v", err)
	}

	var attached string
	if err := db.Get(&attached, "SELECT InstructionRef FROM deals WHERE DealId = ?", deal.DealId); err != nil {
		t.Fatal(err)
	}
	if attached != ref {
		t.Errorf("attached ref got %s want %s", attached, ref)
	}

	// References in other formats are a no-op, not an error.
	if err := db.DealAttachInstructionRef(ctx, "LEGACY-1234"); err != nil {
		t.Fatal(err)
	}
}

func TestDealClose(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 14, 5, 0, 0, time.UTC)

	// Closing an attached deal updates it in place.
	deal, err := db.DealCreate(ctx, 7, "Advice", 100, "family")
	if err != nil {
		t.Fatal(err)
	}
	ref := "HLX-7-0007"
	if err := db.DealAttachInstructionRef(ctx, ref); err != nil {
		t.Fatal(err)
	}
	if err := db.DealClose(ctx, ref, now); err != nil {
		t.Fatal(err)
	}
	var status string
	if err := db.Get(&status, "SELECT Status FROM deals WHERE DealId = ?", deal.DealId); err != nil {
		t.Fatal(err)
	}
	if status != "closed" {
		t.Errorf("status got %s want closed", status)
	}

	// Closing an unattached reference records a fresh closed row.
	if err := db.DealClose(ctx, "HLX-8-0008", now); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM deals WHERE InstructionRef = ? AND Status = 'closed'", "HLX-8-0008"); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 closed fallback row, got %d", count)
	}
}

func TestProspectIDFromRef(t *testing.T) {
	tests := []struct {
		ref string
		id  int64
		ok  bool
	}{
		{"HLX-2744-0918", 2744, true},
		{"HLX-1-0001", 1, true},
		{"LEGACY-1234", 0, false},
		{"HLX--0001", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := ProspectIDFromRef(tt.ref)
		if id != tt.id || ok != tt.ok {
			t.Errorf("ProspectIDFromRef(%q) got (%d, %t) want (%d, %t)",
				tt.ref, id, ok, tt.id, tt.ok)
		}
	}
}
