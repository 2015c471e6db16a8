package db

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Instruction is a client instruction record. The column set follows the
// firm's case management schema; apart from the reference all fields are
// nullable since the record accretes over several partial writes as the
// client progresses through the instruction form.
type Instruction struct {
	InstructionRef string  `db:"InstructionRef" json:"instructionRef"`
	Stage          *string `db:"Stage" json:"stage,omitempty"`
	ClientType     *string `db:"ClientType" json:"clientType,omitempty"`
	FeeEarner      *string `db:"FeeEarner" json:"feeEarner,omitempty"`
	ConsentGiven   *bool   `db:"ConsentGiven" json:"consentGiven,omitempty"`
	InternalStatus *string `db:"InternalStatus" json:"internalStatus,omitempty"`

	SubmissionDate *time.Time `db:"SubmissionDate" json:"submissionDate,omitempty"`
	SubmissionTime *string    `db:"SubmissionTime" json:"submissionTime,omitempty"`
	LastUpdated    *time.Time `db:"LastUpdated" json:"lastUpdated,omitempty"`

	ClientId        *string `db:"ClientId" json:"clientId,omitempty"`
	RelatedClientId *string `db:"RelatedClientId" json:"relatedClientId,omitempty"`
	MatterId        *string `db:"MatterId" json:"matterId,omitempty"`

	Title             *string    `db:"Title" json:"title,omitempty"`
	FirstName         *string    `db:"FirstName" json:"firstName,omitempty"`
	LastName          *string    `db:"LastName" json:"lastName,omitempty"`
	Nationality       *string    `db:"Nationality" json:"nationality,omitempty"`
	NationalityAlpha2 *string    `db:"NationalityAlpha2" json:"nationalityAlpha2,omitempty"`
	DOB               *time.Time `db:"DOB" json:"dob,omitempty"`
	Gender            *string    `db:"Gender" json:"gender,omitempty"`
	Phone             *string    `db:"Phone" json:"phone,omitempty"`
	Email             *string    `db:"Email" json:"email,omitempty"`

	PassportNumber       *string `db:"PassportNumber" json:"passportNumber,omitempty"`
	DriversLicenseNumber *string `db:"DriversLicenseNumber" json:"driversLicenseNumber,omitempty"`
	IdType               *string `db:"IdType" json:"idType,omitempty"`

	HouseNumber *string `db:"HouseNumber" json:"houseNumber,omitempty"`
	Street      *string `db:"Street" json:"street,omitempty"`
	City        *string `db:"City" json:"city,omitempty"`
	County      *string `db:"County" json:"county,omitempty"`
	Postcode    *string `db:"Postcode" json:"postcode,omitempty"`
	Country     *string `db:"Country" json:"country,omitempty"`
	CountryCode *string `db:"CountryCode" json:"countryCode,omitempty"`

	CompanyName        *string `db:"CompanyName" json:"companyName,omitempty"`
	CompanyNumber      *string `db:"CompanyNumber" json:"companyNumber,omitempty"`
	CompanyHouseNumber *string `db:"CompanyHouseNumber" json:"companyHouseNumber,omitempty"`
	CompanyStreet      *string `db:"CompanyStreet" json:"companyStreet,omitempty"`
	CompanyCity        *string `db:"CompanyCity" json:"companyCity,omitempty"`
	CompanyCounty      *string `db:"CompanyCounty" json:"companyCounty,omitempty"`
	CompanyPostcode    *string `db:"CompanyPostcode" json:"companyPostcode,omitempty"`
	CompanyCountry     *string `db:"CompanyCountry" json:"companyCountry,omitempty"`
	CompanyCountryCode *string `db:"CompanyCountryCode" json:"companyCountryCode,omitempty"`

	Notes *string `db:"Notes" json:"notes,omitempty"`

	PaymentMethod    *string    `db:"PaymentMethod" json:"paymentMethod,omitempty"`
	PaymentResult    *string    `db:"PaymentResult" json:"paymentResult,omitempty"`
	PaymentAmount    *float64   `db:"PaymentAmount" json:"paymentAmount,omitempty"`
	PaymentProduct   *string    `db:"PaymentProduct" json:"paymentProduct,omitempty"`
	AliasId          *string    `db:"AliasId" json:"aliasId,omitempty"`
	OrderId          *string    `db:"OrderId" json:"orderId,omitempty"`
	SHASign          *string    `db:"SHASign" json:"shaSign,omitempty"`
	PaymentTimestamp *time.Time `db:"PaymentTimestamp" json:"paymentTimestamp,omitempty"`
}

// instructionColumns is the allow-list of columns which may be written
// through InstructionUpsert. Unknown payload keys are silently dropped rather
// than erroring, since clients send vendor fields the portal does not track.
var instructionColumns = map[string]bool{
	"Stage":                true,
	"ClientType":           true,
	"FeeEarner":            true,
	"ConsentGiven":         true,
	"InternalStatus":       true,
	"SubmissionDate":       true,
	"SubmissionTime":       true,
	"ClientId":             true,
	"RelatedClientId":      true,
	"MatterId":             true,
	"Title":                true,
	"FirstName":            true,
	"LastName":             true,
	"Nationality":          true,
	"NationalityAlpha2":    true,
	"DOB":                  true,
	"Gender":               true,
	"Phone":                true,
	"Email":                true,
	"PassportNumber":       true,
	"DriversLicenseNumber": true,
	"IdType":               true,
	"HouseNumber":          true,
	"Street":               true,
	"City":                 true,
	"County":               true,
	"Postcode":             true,
	"Country":              true,
	"CountryCode":          true,
	"CompanyName":          true,
	"CompanyNumber":        true,
	"CompanyHouseNumber":   true,
	"CompanyStreet":        true,
	"CompanyCity":          true,
	"CompanyCounty":        true,
	"CompanyPostcode":      true,
	"CompanyCountry":       true,
	"CompanyCountryCode":   true,
	"Notes":                true,
	"PaymentMethod":        true,
	"PaymentResult":        true,
	"PaymentAmount":        true,
	"PaymentProduct":       true,
	"AliasId":              true,
	"OrderId":              true,
	"SHASign":              true,
	"PaymentTimestamp":     true,
}

// columnExceptions maps payload keys whose column name is not a simple
// initial-capital of the key.
var columnExceptions = map[string]string{
	"dob":     "DOB",
	"shaSign": "SHASign",
}

// canonicalColumn resolves a payload key to a column name, reporting whether
// the column may be written.
func canonicalColumn(key string) (string, bool) {
	if col, ok := columnExceptions[key]; ok {
		return col, instructionColumns[col]
	}
	if key == "" {
		return "", false
	}
	col := strings.ToUpper(key[:1]) + key[1:]
	return col, instructionColumns[col]
}

// dateLayouts are the formats accepted for date-typed payload values, tried
// in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// coerceValue converts a decoded json payload value into a value suitable
// for the column. Unparseable dates are stored as null so a malformed
// browser date never blocks the rest of a write.
func coerceValue(col string, val any) (any, error) {
	if val == nil {
		return nil, nil
	}
	switch col {
	case "ConsentGiven":
		switch v := val.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("cannot read %q as a %s boolean", v, col)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("cannot read %T as a %s boolean", val, col)
		}
	case "DOB", "SubmissionDate", "PaymentTimestamp":
		switch v := val.(type) {
		case time.Time:
			return v, nil
		case string:
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return t, nil
				}
			}
			return nil, nil
		default:
			return nil, nil
		}
	case "PaymentAmount":
		switch v := val.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot read %q as a %s number", v, col)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot read %T as a %s number", val, col)
		}
	}
	// Remaining columns are text.
	switch v := val.(type) {
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

// InstructionUpsert writes the allow-listed fields for the instruction with
// the provided reference, inserting the row if it does not yet exist. The
// upsert is a single INSERT .. ON CONFLICT statement so concurrent first
// writes for the same reference serialise inside sqlite rather than racing
// an existence check. The statement is built dynamically from the payload
// keys and so is not a prepared statement like the other queries here; only
// allow-listed column names are ever interpolated.
func (db *DB) InstructionUpsert(ctx context.Context, ref string, fields map[string]any) (*Instruction, error) {
	if ref == "" {
		return nil, errors.New("an instruction reference is required")
	}

	namedArgs := map[string]any{"InstructionRef": ref}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var cols []string
	for _, k := range keys {
		col, ok := canonicalColumn(k)
		if !ok || col == "InstructionRef" {
			continue
		}
		if _, dup := namedArgs[col]; dup {
			continue
		}
		v, err := coerceValue(col, fields[k])
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		namedArgs[col] = v
	}

	insertCols := append([]string{"InstructionRef"}, cols...)
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO instructions (%s) VALUES (:%s)",
		strings.Join(insertCols, ", "),
		strings.Join(insertCols, ", :"),
	)
	if len(cols) == 0 {
		b.WriteString(" ON CONFLICT (InstructionRef) DO NOTHING")
	} else {
		sets := make([]string, len(cols)+1)
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		sets[len(cols)] = "LastUpdated = datetime('now')"
		fmt.Fprintf(&b, " ON CONFLICT (InstructionRef) DO UPDATE SET %s", strings.Join(sets, ", "))
	}

	if _, err := db.NamedExecContext(ctx, b.String(), namedArgs); err != nil {
		return nil, fmt.Errorf("instruction upsert error: %w", err)
	}
	return db.InstructionGet(ctx, ref)
}

// InstructionGet retrieves an instruction by reference, returning
// sql.ErrNoRows via the driver if none exists.
func (db *DB) InstructionGet(ctx context.Context, ref string) (*Instruction, error) {
	args := map[string]any{"InstructionRef": ref}
	if err := db.instructionGetStmt.verifyArgs(args); err != nil {
		return nil, err
	}
	instruction := Instruction{}
	err := db.instructionGetStmt.GetContext(ctx, &instruction, args)
	db.logQuery(db.instructionGetStmt, args, err)
	if err != nil {
		return nil, err
	}
	return &instruction, nil
}

// InstructionComplete marks an instruction's stage as completed, typically
// after the matter has been opened in the case management system.
func (db *DB) InstructionComplete(ctx context.Context, ref string) (*Instruction, error) {
	args := map[string]any{"InstructionRef": ref}
	res, err := db.execNamed(ctx, nil, db.instructionCompleteStmt, args)
	if err != nil {
		return nil, fmt.Errorf("instruction complete error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("no instruction found for reference %q", ref)
	}
	return db.InstructionGet(ctx, ref)
}

// NewInstructionRef generates a reference for a new instruction from the
// prospect id and a random four digit suffix, for example HLX-2744-0918.
func NewInstructionRef(prospectID int) string {
	return fmt.Sprintf("HLX-%d-%04d", prospectID, rand.IntN(10000))
}
