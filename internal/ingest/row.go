package ingest

import (
	"strings"
	"time"

	"canvass/internal/normalize"
)

// StagingRow is one parsed data row awaiting staff confirmation. It lives for
// a single import session and is never persisted.
type StagingRow struct {
	// Number is the 1-based row number in the original sheet.
	Number int

	FirstName          string
	LastName           string
	DisplayName        string
	NameUncertain      bool
	Phone              string
	RawPhone           string
	Email              string
	Address            string
	BirthDate          *time.Time
	BirthDateAmbiguous bool
	RegisteredVoter    *bool
	Comments           string
	VillageName        string

	// Issues collects human-readable problems staff should review. Issues do
	// not force a skip.
	Issues []string
	// Skip marks rows excluded from commit. Staff can toggle it before
	// confirming.
	Skip bool
}

func (r *StagingRow) addIssue(issue string) {
	r.Issues = append(r.Issues, issue)
}

// rowOptions carries the normalization settings a parse run uses.
type rowOptions struct {
	areaCode     string
	minBirthYear int
	today        time.Time
}

func parseDataRow(number int, row []string, mapping ColumnMapping, opts rowOptions) *StagingRow {
	staged := &StagingRow{Number: number}

	staged.resolveName(row, mapping)
	staged.resolvePhone(row, mapping, opts.areaCode)
	staged.resolveBirthDate(row, mapping, opts)

	if col, ok := mapping[FieldEmail]; ok {
		staged.Email = cellAt(row, col)
	}
	if col, ok := mapping[FieldAddress]; ok {
		staged.Address = cellAt(row, col)
	}
	if col, ok := mapping[FieldComments]; ok {
		staged.Comments = cellAt(row, col)
	}
	if col, ok := mapping[FieldVillage]; ok {
		staged.VillageName = cellAt(row, col)
	}
	if col, ok := mapping[FieldRegisteredVoter]; ok {
		if raw := cellAt(row, col); raw != "" {
			_, truthy := truthyTokens[strings.ToLower(raw)]
			staged.RegisteredVoter = &truthy
		}
	}

	return staged
}

func (r *StagingRow) resolveName(row []string, mapping ColumnMapping) {
	if col, ok := mapping[FieldFirstName]; ok {
		r.FirstName = cellAt(row, col)
	}
	if col, ok := mapping[FieldLastName]; ok {
		r.LastName = cellAt(row, col)
	}

	if r.FirstName == "" && r.LastName == "" {
		if col, ok := mapping[FieldFullName]; ok {
			if raw := cellAt(row, col); raw != "" {
				parts := normalize.SplitName(raw)
				r.FirstName = parts.First
				r.LastName = parts.Last
				r.NameUncertain = parts.Uncertain
				if parts.Note != "" {
					r.addIssue(parts.Note)
				} else if parts.Uncertain {
					r.addIssue("Name was split automatically; please verify.")
				}
			}
		}
	} else if r.FirstName != "" && r.LastName == "" {
		// A first-name column holding a full name still gets split.
		parts := normalize.SplitName(r.FirstName)
		if parts.Last != "" && parts.First != "" {
			r.FirstName = parts.First
			r.LastName = parts.Last
		}
	}

	if r.FirstName == "" && r.LastName == "" {
		r.Skip = true
		r.addIssue("No name found.")
		return
	}
	r.DisplayName = normalize.DisplayName(r.FirstName, r.LastName)
}

func (r *StagingRow) resolvePhone(row []string, mapping ColumnMapping, areaCode string) {
	col, ok := mapping[FieldPhone]
	if !ok {
		return
	}
	r.RawPhone = cellAt(row, col)
	r.Phone = normalize.Phone(r.RawPhone, areaCode)
	if r.Phone == "" {
		r.addIssue("Missing phone number.")
	}
}

func (r *StagingRow) resolveBirthDate(row []string, mapping ColumnMapping, opts rowOptions) {
	col, ok := mapping[FieldBirthDate]
	if !ok {
		return
	}
	raw := cellAt(row, col)
	if raw == "" {
		return
	}
	date, ambiguous, ok := normalize.ParseDate(raw)
	if !ok {
		r.addIssue("Unreadable date of birth: " + raw)
		return
	}
	r.BirthDate = &date
	r.BirthDateAmbiguous = ambiguous
	if ambiguous {
		r.addIssue("Date of birth may have month and day transposed.")
	}
	if date.Year() < opts.minBirthYear || date.After(opts.today) {
		r.addIssue("Suspicious date of birth: " + date.Format("2006-01-02"))
	}
}
