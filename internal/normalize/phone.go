package normalize

import "strings"

// DefaultAreaCode is the regional area code collapsed by Phone when callers
// have no campaign configuration in hand.
const DefaultAreaCode = "671"

// Phone reduces a free-text phone number to bare digits, collapsing the
// leading country-code/area-code combination down to the local seven-digit
// form so equivalent representations compare equal. Blank input returns "".
func Phone(raw, areaCode string) string {
	digits := digitsOnly(raw)
	if digits == "" {
		return ""
	}
	areaCode = digitsOnly(areaCode)
	if areaCode == "" {
		areaCode = DefaultAreaCode
	}

	if len(digits) == len(areaCode)+8 && strings.HasPrefix(digits, "1"+areaCode) {
		return digits[len(areaCode)+1:]
	}
	if len(digits) == len(areaCode)+7 && strings.HasPrefix(digits, areaCode) {
		return digits[len(areaCode):]
	}
	return digits
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
