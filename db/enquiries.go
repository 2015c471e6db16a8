package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hlxportal/enquiry"
)

// Enquiry is a row from the paged enquiry listing, including the windowed
// row_count column used for pagination.
type Enquiry struct {
	ID       int64     `db:"id" json:"id"`
	DateTime time.Time `db:"datetime" json:"datetime"`
	Stage    *string   `db:"stage" json:"stage,omitempty"`
	Aow      *string   `db:"aow" json:"aow,omitempty"`
	Tow      *string   `db:"tow" json:"tow,omitempty"`
	Moc      *string   `db:"moc" json:"moc,omitempty"`
	Rep      *string   `db:"rep" json:"rep,omitempty"`
	First    *string   `db:"first" json:"first,omitempty"`
	Last     *string   `db:"last" json:"last,omitempty"`
	Email    *string   `db:"email" json:"email,omitempty"`
	Phone    *string   `db:"phone" json:"phone,omitempty"`
	Value    *string   `db:"value" json:"value,omitempty"`
	Rank     *string   `db:"rank" json:"rank,omitempty"`
	Source   *string   `db:"source" json:"source,omitempty"`
	RowCount int       `db:"row_count" json:"-"`
}

// EnquiryInsert stores a canonical enquiry, returning its id.
func (db *DB) EnquiryInsert(ctx context.Context, enq enquiry.Canonical) (int64, error) {
	args := map[string]any{
		"EnquiryDateTime": enq.DateTime,
		"Stage":           enq.Stage,
		"Claim":           enq.Claim,
		"Poc":             enq.Poc,
		"Pitch":           enq.Pitch,
		"Aow":             enq.Aow,
		"Tow":             enq.Tow,
		"Moc":             enq.Moc,
		"Rep":             enq.Rep,
		"First":           enq.First,
		"Last":            enq.Last,
		"Email":           enq.Email,
		"Phone":           enq.Phone,
		"Value":           enq.Value,
		"Notes":           enq.Notes,
		"Rank":            enq.Rank,
		"Rating":          enq.Rating,
		"Acid":            enq.Acid,
		"CardId":          enq.CardID,
		"Source":          enq.Source,
		"Url":             enq.URL,
		"ContactReferrer": enq.ContactReferrer,
		"CompanyReferrer": enq.CompanyReferrer,
		"Gclid":           enq.Gclid,
	}
	res, err := db.execNamed(ctx, nil, db.enquiryInsertStmt, args)
	if err != nil {
		return 0, fmt.Errorf("enquiry insert error: %w", err)
	}
	return res.LastInsertId()
}

// EnquiriesGet returns a page of enquiries between the two dates, optionally
// filtered by source and a free text search over name, email and notes
// columns. An empty page returns sql.ErrNoRows.
func (db *DB) EnquiriesGet(ctx context.Context, dateFrom, dateTo time.Time, source, search string, limit, offset int) ([]Enquiry, error) {
	args := map[string]any{
		"DateFrom":     dateFrom.Format("2006-01-02"),
		"DateTo":       dateTo.Format("2006-01-02"),
		"SourceFilter": source,
		"TextSearch":   search,
		"HereLimit":    limit,
		"HereOffset":   offset,
	}
	if err := db.enquiriesGetStmt.verifyArgs(args); err != nil {
		return nil, err
	}
	enquiries := []Enquiry{}
	err := db.enquiriesGetStmt.SelectContext(ctx, &enquiries, args)
	db.logQuery(db.enquiriesGetStmt, args, err)
	if err != nil {
		return nil, err
	}
	if len(enquiries) == 0 {
		return nil, sql.ErrNoRows
	}
	return enquiries, nil
}
