package db

import (
	"context"
	"fmt"
	"time"
)

// PaymentUpdate carries the outcome of a payment attempt reported by either
// the card gateway callback or the bank transfer flow.
type PaymentUpdate struct {
	InstructionRef string   `json:"instructionRef"`
	PaymentMethod  string   `json:"paymentMethod"`
	Success        bool     `json:"success"`
	PaymentAmount  *float64 `json:"paymentAmount,omitempty"`
	PaymentProduct string   `json:"paymentProduct,omitempty"`
	AliasID        string   `json:"aliasId,omitempty"`
	OrderID        string   `json:"orderId,omitempty"`
	SHASign        string   `json:"shaSign,omitempty"`
}

// statuses resolves the payment result and internal status columns from the
// payment method and outcome. A successful card payment is final; a failed
// card payment leaves the internal status untouched (signalled by nil, which
// the update statement passes through a CASE); anything other than card is a
// bank transfer needing manual verification but the client may proceed.
func (p PaymentUpdate) statuses() (paymentResult string, internalStatus any) {
	if p.PaymentMethod == "card" {
		if p.Success {
			return "successful", "paid"
		}
		return "rejected", nil
	}
	return "verifying", "paid"
}

// nullIfEmpty converts an empty string to nil so the column is set to null
// rather than the empty string.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (p PaymentUpdate) args() map[string]any {
	paymentResult, internalStatus := p.statuses()
	var amount any
	if p.PaymentAmount != nil {
		amount = *p.PaymentAmount
	}
	return map[string]any{
		"InstructionRef": p.InstructionRef,
		"PaymentMethod":  p.PaymentMethod,
		"PaymentResult":  paymentResult,
		"PaymentAmount":  amount,
		"PaymentProduct": nullIfEmpty(p.PaymentProduct),
		"AliasId":        nullIfEmpty(p.AliasID),
		"OrderId":        nullIfEmpty(p.OrderID),
		"SHASign":        nullIfEmpty(p.SHASign),
		"InternalStatus": internalStatus,
	}
}

// PaymentStatusUpdate records a payment outcome against an instruction
// without any of the deal bookkeeping performed by ConfirmPayment.
func (db *DB) PaymentStatusUpdate(ctx context.Context, update PaymentUpdate) (*Instruction, error) {
	if update.InstructionRef == "" {
		return nil, fmt.Errorf("an instruction reference is required")
	}
	res, err := db.execNamed(ctx, nil, db.paymentUpdateStmt, update.args())
	if err != nil {
		return nil, fmt.Errorf("payment update error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("no instruction found for reference %q", update.InstructionRef)
	}
	return db.InstructionGet(ctx, update.InstructionRef)
}

// ConfirmPayment records a payment outcome and, in the same transaction,
// attaches the instruction reference to the prospect's most recent unclaimed
// deal and closes the attached deal. Running the three steps in one
// transaction means a failure part way leaves no half-updated state for a
// retried gateway callback to trip over.
func (db *DB) ConfirmPayment(ctx context.Context, update PaymentUpdate) (*Instruction, error) {
	if update.InstructionRef == "" {
		return nil, fmt.Errorf("an instruction reference is required")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("confirm payment transaction error: %w", err)
	}
	defer tx.Rollback()

	res, err := db.execNamed(ctx, tx, db.paymentUpdateStmt, update.args())
	if err != nil {
		return nil, fmt.Errorf("payment update error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("no instruction found for reference %q", update.InstructionRef)
	}

	if err := db.dealAttachTx(ctx, tx, update.InstructionRef); err != nil {
		return nil, err
	}
	if err := db.dealCloseTx(ctx, tx, update.InstructionRef, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("confirm payment commit error: %w", err)
	}
	return db.InstructionGet(ctx, update.InstructionRef)
}
