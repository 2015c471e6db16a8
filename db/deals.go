package db

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// Deal is a pre-instruction sales deal. A deal is unclaimed until an
// instruction reference is attached to it.
type Deal struct {
	DealId             int64    `db:"DealId" json:"dealId"`
	ProspectId         *int64   `db:"ProspectId" json:"prospectId,omitempty"`
	Passcode           *string  `db:"Passcode" json:"-"`
	ServiceDescription *string  `db:"ServiceDescription" json:"serviceDescription,omitempty"`
	Amount             *float64 `db:"Amount" json:"amount,omitempty"`
	AreaOfWork         *string  `db:"AreaOfWork" json:"areaOfWork,omitempty"`
	Status             *string  `db:"Status" json:"status,omitempty"`
	InstructionRef     *string  `db:"InstructionRef" json:"instructionRef,omitempty"`
}

// instructionRefRegexp extracts the prospect id from an instruction
// reference such as HLX-2744-0918.
var instructionRefRegexp = regexp.MustCompile(`^HLX-(\d+)-`)

// ProspectIDFromRef extracts the prospect id embedded in an instruction
// reference, reporting false for references in any other format.
func ProspectIDFromRef(ref string) (int64, bool) {
	matches := instructionRefRegexp.FindStringSubmatch(ref)
	if matches == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DealByPasscode finds the most recent unclaimed deal matching the passcode,
// optionally scoped to a prospect. Matching is an authorisation check so
// claimed deals are never returned; no match returns sql.ErrNoRows.
func (db *DB) DealByPasscode(ctx context.Context, passcode string, prospectID *int64) (*Deal, error) {
	stmt := db.dealByPasscodeStmt
	args := map[string]any{"Passcode": passcode}
	if prospectID != nil {
		stmt = db.dealByPasscodeProspectStmt
		args["ProspectId"] = *prospectID
	}
	if err := stmt.verifyArgs(args); err != nil {
		return nil, err
	}
	deal := Deal{}
	err := stmt.GetContext(ctx, &deal, args)
	db.logQuery(stmt, args, err)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// DealLatest returns the most recent unclaimed deal for a prospect. This is
// a convenience for prefilling the instruction form, not an authorisation
// check.
func (db *DB) DealLatest(ctx context.Context, prospectID int64) (*Deal, error) {
	args := map[string]any{"ProspectId": prospectID}
	if err := db.dealLatestStmt.verifyArgs(args); err != nil {
		return nil, err
	}
	deal := Deal{}
	err := db.dealLatestStmt.GetContext(ctx, &deal, args)
	db.logQuery(db.dealLatestStmt, args, err)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// dealAttachTx attaches the instruction reference to the prospect's most
// recent unclaimed deal. References not carrying a prospect id, and
// prospects without an unclaimed deal, are no-ops rather than errors since
// deals are optional for many instructions.
func (db *DB) dealAttachTx(ctx context.Context, tx *sqlx.Tx, ref string) error {
	prospectID, ok := ProspectIDFromRef(ref)
	if !ok {
		return nil
	}
	args := map[string]any{
		"InstructionRef": ref,
		"ProspectId":     prospectID,
	}
	_, err := db.execNamed(ctx, tx, db.dealAttachStmt, args)
	if err != nil {
		return fmt.Errorf("deal attach error: %w", err)
	}
	return nil
}

// DealAttachInstructionRef attaches an instruction reference to the most
// recent unclaimed deal for the prospect encoded in the reference.
func (db *DB) DealAttachInstructionRef(ctx context.Context, ref string) error {
	return db.dealAttachTx(ctx, nil, ref)
}

// dealCloseTx closes the deal carrying the instruction reference. When the
// reference was never attached to a deal a fresh closed row is inserted so
// the closure is still recorded.
func (db *DB) dealCloseTx(ctx context.Context, tx *sqlx.Tx, ref string, now time.Time) error {
	args := map[string]any{
		"InstructionRef": ref,
		"CloseDate":      now.Format("2006-01-02"),
		"CloseTime":      now.Format("15:04:05"),
	}
	res, err := db.execNamed(ctx, tx, db.dealCloseUpdateStmt, args)
	if err != nil {
		return fmt.Errorf("deal close error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	_, err = db.execNamed(ctx, tx, db.dealCloseInsertStmt, args)
	if err != nil {
		return fmt.Errorf("deal close insert error: %w", err)
	}
	return nil
}

// DealClose closes the deal attached to an instruction, inserting a closed
// record if none was attached.
func (db *DB) DealClose(ctx context.Context, ref string, now time.Time) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deal close transaction error: %w", err)
	}
	defer tx.Rollback()
	if err := db.dealCloseTx(ctx, tx, ref, now); err != nil {
		return err
	}
	return tx.Commit()
}

// DealCreate captures a new open deal for a prospect, returning the deal
// with its generated id and passcode.
func (db *DB) DealCreate(ctx context.Context, prospectID int64, serviceDescription string, amount float64, areaOfWork string) (*Deal, error) {
	passcode := NewPasscode()
	args := map[string]any{
		"ProspectId":         prospectID,
		"Passcode":           passcode,
		"ServiceDescription": serviceDescription,
		"Amount":             amount,
		"AreaOfWork":         areaOfWork,
	}
	res, err := db.execNamed(ctx, nil, db.dealInsertStmt, args)
	if err != nil {
		return nil, fmt.Errorf("deal insert error: %w", err)
	}
	dealID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	status := "open"
	return &Deal{
		DealId:             dealID,
		ProspectId:         &prospectID,
		Passcode:           &passcode,
		ServiceDescription: &serviceDescription,
		Amount:             &amount,
		AreaOfWork:         &areaOfWork,
		Status:             &status,
	}, nil
}

// passcodeAlphabet omits easily confused characters.
const passcodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewPasscode generates a six character deal passcode.
func NewPasscode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = passcodeAlphabet[rand.IntN(len(passcodeAlphabet))]
	}
	return string(b)
}
