package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameParts is the result of splitting a free-text name into fields.
type NameParts struct {
	First     string
	Last      string
	Uncertain bool
	Note      string
}

var (
	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)
	titleCaser      = cases.Title(language.Und)
)

// SplitName extracts first and last name from the free-text forms volunteers
// actually write. Handled in priority order: "Last, First"; a parenthetical
// maiden-name suffix (stripped); a joint "A & B" entry (second person kept);
// "First Last"; a lone word (treated as last name); and longer entries where
// everything but the final word is absorbed into the first-name field.
func SplitName(raw string) NameParts {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NameParts{}
	}

	if before, after, found := strings.Cut(trimmed, ","); found {
		return NameParts{
			First: strings.TrimSpace(after),
			Last:  strings.TrimSpace(before),
		}
	}

	trimmed = strings.TrimSpace(parentheticalRe.ReplaceAllString(trimmed, ""))
	if trimmed == "" {
		return NameParts{Uncertain: true, Note: "Name was only a parenthetical; please re-enter."}
	}

	if before, after, found := strings.Cut(trimmed, "&"); found {
		second := SplitName(strings.TrimSpace(after))
		second.Uncertain = true
		firstPerson := strings.TrimSpace(before)
		if firstPerson != "" {
			second.Note = fmt.Sprintf("Joint entry: only the second name was kept; add %q as a separate entry.", firstPerson)
		}
		return second
	}

	words := strings.Fields(trimmed)
	switch len(words) {
	case 1:
		return NameParts{Last: words[0], Uncertain: true}
	case 2:
		return NameParts{First: words[0], Last: words[1]}
	default:
		return NameParts{
			First:     strings.Join(words[:len(words)-1], " "),
			Last:      words[len(words)-1],
			Uncertain: len(words) > 3,
		}
	}
}

// DisplayName builds the "First Last" form shown in lists. Input that arrives
// all-caps or all-lowercase is title-cased; mixed-case input is preserved.
func DisplayName(first, last string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{strings.TrimSpace(first), strings.TrimSpace(last)} {
		if p == "" {
			continue
		}
		if p == strings.ToUpper(p) || p == strings.ToLower(p) {
			p = titleCaser.String(strings.ToLower(p))
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}
