package notify

import (
	"context"
	"fmt"

	"hlxportal/db"
)

// instructionData is the template data shared by the prebuilt notification
// messages.
type instructionData struct {
	Instruction *db.Instruction
	Documents   []db.Document
	// Name is the client's display name, falling back to the reference.
	Name string
	// Amount is the payment amount formatted to two decimal places, empty
	// when no amount is recorded.
	Amount string
	// BankTransfer is set when payment verification is pending.
	BankTransfer bool
}

func (m *Mailer) instructionData(instruction *db.Instruction, documents []db.Document) instructionData {
	data := instructionData{
		Instruction: instruction,
		Documents:   documents,
		Name:        instruction.InstructionRef,
	}
	if instruction.FirstName != nil && *instruction.FirstName != "" {
		data.Name = *instruction.FirstName
	}
	if instruction.PaymentAmount != nil {
		data.Amount = fmt.Sprintf("%.2f", *instruction.PaymentAmount)
	}
	if instruction.PaymentMethod != nil && *instruction.PaymentMethod != "card" {
		data.BankTransfer = true
	}
	return data
}

// clientAddress is the instruction's email recipient, reporting false when
// none is recorded.
func clientAddress(instruction *db.Instruction) (string, bool) {
	if instruction.Email == nil || *instruction.Email == "" {
		return "", false
	}
	return *instruction.Email, true
}

// ClientSuccess emails the client confirming a successfully received
// instruction and payment, listing any documents already provided.
func (m *Mailer) ClientSuccess(ctx context.Context, instruction *db.Instruction, documents []db.Document) error {
	to, ok := clientAddress(instruction)
	if !ok {
		m.log.Warn("client success mail skipped, no email on instruction",
			"ref", instruction.InstructionRef)
		return nil
	}
	body, err := m.render("client_success.tmpl", m.instructionData(instruction, documents))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Instruction %s received", instruction.InstructionRef)
	return m.Send(ctx, []string{to}, subject, body)
}

// ClientFailure emails the client after a failed card payment with
// instructions for trying again.
func (m *Mailer) ClientFailure(ctx context.Context, instruction *db.Instruction) error {
	to, ok := clientAddress(instruction)
	if !ok {
		m.log.Warn("client failure mail skipped, no email on instruction",
			"ref", instruction.InstructionRef)
		return nil
	}
	body, err := m.render("client_failure.tmpl", m.instructionData(instruction, nil))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Payment problem for instruction %s", instruction.InstructionRef)
	return m.Send(ctx, []string{to}, subject, body)
}

// FeeEarnerNotify emails the instruction's fee earner that a new
// instruction has come in, with the document list and payment state.
func (m *Mailer) FeeEarnerNotify(ctx context.Context, instruction *db.Instruction, documents []db.Document) error {
	if instruction.FeeEarner == nil || *instruction.FeeEarner == "" {
		m.log.Warn("fee earner mail skipped, no fee earner on instruction",
			"ref", instruction.InstructionRef)
		return nil
	}
	to := m.DeriveEmail(*instruction.FeeEarner)
	body, err := m.render("fee_earner.tmpl", m.instructionData(instruction, documents))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("New instruction %s", instruction.InstructionRef)
	return m.Send(ctx, []string{to}, subject, body)
}

// AccountsPending emails the accounts team that a bank transfer payment
// needs verifying against the ledger.
func (m *Mailer) AccountsPending(ctx context.Context, instruction *db.Instruction) error {
	body, err := m.render("accounts_pending.tmpl", m.instructionData(instruction, nil))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Bank transfer pending for %s", instruction.InstructionRef)
	return m.Send(ctx, []string{m.accountsAddress()}, subject, body)
}
