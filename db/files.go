package db

// The runnable sql files making up the database layer. Each file other than
// the schema is parameterized as set out in parameterize.go.
const (
	schemaSQL = "schema.sql"

	instructionGetSQL      = "instruction.sql"
	instructionCompleteSQL = "instruction_complete.sql"
	paymentUpdateSQL       = "payment_update.sql"

	dealByPasscodeSQL         = "deal_by_passcode.sql"
	dealByPasscodeProspectSQL = "deal_by_passcode_prospect.sql"
	dealLatestSQL             = "deal_latest.sql"
	dealAttachSQL             = "deal_attach.sql"
	dealCloseUpdateSQL        = "deal_close_update.sql"
	dealCloseInsertSQL        = "deal_close_insert.sql"
	dealInsertSQL             = "deal_insert.sql"

	enquiryInsertSQL = "enquiry_insert.sql"
	enquiriesGetSQL  = "enquiries.sql"

	documentInsertSQL = "document_insert.sql"
	documentsGetSQL   = "documents.sql"
)
