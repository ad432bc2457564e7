package ingest

import "regexp"

// Field identifies a recognized spreadsheet column.
type Field string

const (
	FieldFirstName       Field = "first_name"
	FieldLastName        Field = "last_name"
	FieldFullName        Field = "full_name"
	FieldPhone           Field = "phone"
	FieldBirthDate       Field = "birth_date"
	FieldEmail           Field = "email"
	FieldAddress         Field = "address"
	FieldRegisteredVoter Field = "registered_voter"
	FieldComments        Field = "comments"
	FieldVillage         Field = "village"
)

// headerRule binds one recognized field to the header spellings that claim it.
type headerRule struct {
	field   Field
	pattern *regexp.Regexp
}

// supporterHeaderRules is evaluated in priority order: earlier rules claim
// columns first, so "Email Address" lands on email, not address, and no
// column is ever assigned to two fields.
var supporterHeaderRules = []headerRule{
	{FieldFirstName, regexp.MustCompile(`(?i)first\s*name|fname|given\s*name`)},
	{FieldLastName, regexp.MustCompile(`(?i)last\s*name|lname|surname|family\s*name`)},
	{FieldFullName, regexp.MustCompile(`(?i)full\s*name|^\s*name\s*$|supporter\s*name|voter\s*name`)},
	{FieldPhone, regexp.MustCompile(`(?i)phone|cell|mobile|contact\s*(no|num|#)|telephone`)},
	{FieldBirthDate, regexp.MustCompile(`(?i)birth|\bdob\b|d\.o\.b`)},
	{FieldEmail, regexp.MustCompile(`(?i)e-?mail`)},
	{FieldAddress, regexp.MustCompile(`(?i)address|street|mailing`)},
	{FieldRegisteredVoter, regexp.MustCompile(`(?i)registered|\bvoter\b|reg\.?\s*voter`)},
	{FieldComments, regexp.MustCompile(`(?i)comment|note|remark`)},
	{FieldVillage, regexp.MustCompile(`(?i)village|municipality|town|city`)},
}

// registryHeaderRules covers the spellings voter-roll exports use. The village
// and registration number aliases differ from volunteer sheets; the mechanics
// are shared.
var registryHeaderRules = []headerRule{
	{FieldFirstName, regexp.MustCompile(`(?i)first\s*name|fname|given\s*name`)},
	{FieldLastName, regexp.MustCompile(`(?i)last\s*name|lname|surname|family\s*name`)},
	{FieldBirthDate, regexp.MustCompile(`(?i)birth|\bdob\b|d\.o\.b`)},
	{FieldVillage, regexp.MustCompile(`(?i)village|municipality|precinct\s*village|district`)},
	{FieldRegistrationNumber, regexp.MustCompile(`(?i)reg(istration)?\s*(no|num|#|number)|voter\s*id`)},
}

// FieldRegistrationNumber is only produced by the registry rule set.
const FieldRegistrationNumber Field = "registration_number"

// truthyTokens is the accepted set mapping free text to a true
// registered-voter flag. Everything else is false or unset.
var truthyTokens = map[string]struct{}{
	"y":    {},
	"yes":  {},
	"true": {},
	"1":    {},
}
