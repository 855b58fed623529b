package search

import "unicode"

// Range is a half-open [Start, End) span of rune offsets into the
// matched text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// HighlightRanges finds every case-insensitive occurrence of query as a
// literal substring of text, left to right and non-overlapping: after
// each match the scan resumes past the match's end. Offsets are rune
// indices, so callers can slice the original text safely.
//
// Note this is deliberately coarser than the FTS match that selected
// the row: a prefix or multi-word query may rank an annotation without
// producing any literal occurrence, in which case no ranges are
// returned and the row simply renders unhighlighted.
func HighlightRanges(text, query string) []Range {
	if text == "" || query == "" {
		return nil
	}

	haystack := foldRunes(text)
	needle := foldRunes(query)
	if len(needle) > len(haystack) {
		return nil
	}

	var ranges []Range
	for i := 0; i+len(needle) <= len(haystack); {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			ranges = append(ranges, Range{Start: i, End: i + len(needle)})
			i += len(needle)
		} else {
			i++
		}
	}
	return ranges
}

func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
