package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchKey folds s into the lower-case, accent-free form stored next to
// searchable names, so "João" and "joao" share a key.
func SearchKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// LikePattern builds an ILIKE pattern for a folded search term, escaping the
// wildcard characters the user typed.
func LikePattern(term string) string {
	return ContainsPattern(SearchKey(term))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern escapes term for LIKE/ILIKE and wraps it in wildcards
// without folding it, for columns that have no search key.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
