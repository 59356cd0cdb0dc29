package xp3

const (
	maxNameBytes   = 255
	shortenKeep    = 126
	shortenEllipsis = "..."
)

// shortenName shortens a name longer than 255 bytes to a 126-byte prefix
// plus a 126-byte suffix joined by "...", splitting only on rune (scalar)
// boundaries so a multi-byte character is never cut in half.
func shortenName(name string) string {
	if len(name) <= maxNameBytes {
		return name
	}

	runes := []rune(name)

	prefixEnd := scalarBoundaryAtOrBefore(runes, shortenKeep)
	suffixStart := scalarBoundaryAtOrAfter(runes, len(name)-shortenKeep)

	return string(runes[:prefixEnd]) + shortenEllipsis + string(runes[suffixStart:])
}

// scalarBoundaryAtOrBefore returns the largest rune index i such that the
// byte length of runes[:i] is <= limit.
func scalarBoundaryAtOrBefore(runes []rune, limit int) int {
	total := 0
	for i, r := range runes {
		n := runeLen(r)
		if total+n > limit {
			return i
		}
		total += n
	}
	return len(runes)
}

// scalarBoundaryAtOrAfter returns the smallest rune index i such that the
// byte offset of runes[i] (i.e. the byte length of runes[:i]) is >= limit.
func scalarBoundaryAtOrAfter(runes []rune, limit int) int {
	if limit <= 0 {
		return 0
	}

	total := 0
	for i, r := range runes {
		if total >= limit {
			return i
		}
		total += runeLen(r)
	}
	return len(runes)
}

func runeLen(r rune) int {
	return len(string(r))
}
