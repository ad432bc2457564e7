package ingest

import (
	"fmt"
	"sort"
)

// headerScanDepth bounds how many leading rows are considered as header
// candidates.
const headerScanDepth = 10

// ColumnMapping records which column index each recognized field was found in.
type ColumnMapping map[Field]int

// Fields returns the mapped fields sorted by column index, for stable preview
// output.
func (m ColumnMapping) Fields() []Field {
	fields := make([]Field, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return m[fields[i]] < m[fields[j]] })
	return fields
}

func (m ColumnMapping) hasName() bool {
	_, hasFull := m[FieldFullName]
	_, hasFirst := m[FieldFirstName]
	return hasFull || hasFirst
}

// DetectRegistryHeader locates the header row of a voter-roll export. The
// shared detection mechanics apply; registry files use their own column
// spellings (registration number, district).
func DetectRegistryHeader(sheet *Sheet) (int, ColumnMapping, error) {
	return detectHeader(sheet, registryHeaderRules)
}

// mapColumns applies the rule table to one candidate row. Rules claim columns
// in priority order; a field maps at most once and a column serves at most
// one field.
func mapColumns(row []string, rules []headerRule) ColumnMapping {
	mapping := make(ColumnMapping)
	usedColumns := make(map[int]struct{})
	for _, rule := range rules {
		if _, mapped := mapping[rule.field]; mapped {
			continue
		}
		for col, cell := range row {
			if _, used := usedColumns[col]; used {
				continue
			}
			if cell == "" || !rule.pattern.MatchString(cell) {
				continue
			}
			mapping[rule.field] = col
			usedColumns[col] = struct{}{}
			break
		}
	}
	return mapping
}

// detectHeader scans the sheet's leading rows and picks the one whose column
// mapping covers the most distinct fields, requiring at least a full-name or
// first-name mapping. Ties keep the topmost row.
func detectHeader(sheet *Sheet, rules []headerRule) (int, ColumnMapping, error) {
	bestRow := -1
	var bestMapping ColumnMapping

	limit := headerScanDepth
	if len(sheet.Rows) < limit {
		limit = len(sheet.Rows)
	}
	for i := 0; i < limit; i++ {
		mapping := mapColumns(sheet.Rows[i], rules)
		if !mapping.hasName() {
			continue
		}
		if len(mapping) > len(bestMapping) {
			bestRow = i
			bestMapping = mapping
		}
	}

	if bestRow < 0 {
		return 0, nil, fmt.Errorf("%w: no row in the first %d rows looks like a header with a name column; add a header row and re-upload", ErrNoHeader, headerScanDepth)
	}
	return bestRow, bestMapping, nil
}
