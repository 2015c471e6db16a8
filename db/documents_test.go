package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestDocuments(t *testing.T) {
	db, closer := setupTestDB(t)
	defer closer()
	ctx := context.Background()

	ref := "HLX-2744-0918"
	id, err := db.DocumentInsert(ctx, ref, "passport.pdf", "https://blobs.example.com/abc/passport.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Error("expected a non-zero document id")
	}
	if _, err := db.DocumentInsert(ctx, ref, "bank-statement.pdf", "https://blobs.example.com/def/bank-statement.pdf"); err != nil {
		t.Fatal(err)
	}

	documents, err := db.DocumentsGet(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(documents), 2; got != want {
		t.Fatalf("got %d documents want %d", got, want)
	}
	// Upload order is preserved.
	if got, want := documents[0].FileName, "passport.pdf"; got != want {
		t.Errorf("first document got %s want %s", got, want)
	}
	if documents[0].UploadedAt.IsZero() {
		t.Error("uploaded at not set")
	}

	_, err = db.DocumentsGet(ctx, "HLX-404-0000")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}
