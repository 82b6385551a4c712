package ledger

import (
	"fmt"
	"regexp"
	"strconv"
)

// =============================================================================
// ENTRY NUMBERING - "PREFIX-YYYY-NNNN", sequential per prefix and year
// =============================================================================

// Entry number prefixes by entry type. The sequence is tracked per
// prefix and year, gap-tolerant: the next number is max-in-year + 1.
var entryPrefixes = map[EntryType]string{
	TypeStandard:   "JE",
	TypeAdjustment: "ADJ",
	TypeOpening:    "OPN",
	TypeReversal:   "RJE",
}

var entryNumberPattern = regexp.MustCompile(`^([A-Z-]+)-(\d{4})-(\d+)$`)

// EntryPrefix returns the number prefix for an entry type.
func EntryPrefix(t EntryType) string {
	if p, ok := entryPrefixes[t]; ok {
		return p
	}
	return "JE"
}

// FormatEntryNumber renders "PREFIX-YYYY-NNNN" with a 4-digit
// zero-padded sequence. Sequences past 9999 simply grow wider.
func FormatEntryNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

// ParseEntryNumber splits an entry number into prefix, year and
// sequence.
func ParseEntryNumber(number string) (prefix string, year, seq int, err error) {
	m := entryNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return "", 0, 0, fmt.Errorf("malformed entry number %q", number)
	}
	year, _ = strconv.Atoi(m[2])
	seq, err = strconv.Atoi(m[3])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed entry number %q", number)
	}
	return m[1], year, seq, nil
}
