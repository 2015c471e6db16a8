package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Document records a file uploaded against an instruction. The blob itself
// lives in object storage at BlobUrl; rows here are append only.
type Document struct {
	DocumentId     int64     `db:"DocumentId" json:"documentId"`
	InstructionRef string    `db:"InstructionRef" json:"instructionRef"`
	FileName       string    `db:"FileName" json:"fileName"`
	BlobUrl        string    `db:"BlobUrl" json:"blobUrl"`
	UploadedAt     time.Time `db:"UploadedAt" json:"uploadedAt"`
}

// DocumentInsert records an uploaded document, returning its id.
func (db *DB) DocumentInsert(ctx context.Context, ref, fileName, blobURL string) (int64, error) {
	args := map[string]any{
		"InstructionRef": ref,
		"FileName":       fileName,
		"BlobUrl":        blobURL,
	}
	res, err := db.execNamed(ctx, nil, db.documentInsertStmt, args)
	if err != nil {
		return 0, fmt.Errorf("document insert error: %w", err)
	}
	return res.LastInsertId()
}

// DocumentsGet returns the documents recorded against an instruction in
// upload order, returning sql.ErrNoRows when there are none.
func (db *DB) DocumentsGet(ctx context.Context, ref string) ([]Document, error) {
	args := map[string]any{"InstructionRef": ref}
	if err := db.documentsGetStmt.verifyArgs(args); err != nil {
		return nil, err
	}
	documents := []Document{}
	err := db.documentsGetStmt.SelectContext(ctx, &documents, args)
	db.logQuery(db.documentsGetStmt, args, err)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, sql.ErrNoRows
	}
	return documents, nil
}
