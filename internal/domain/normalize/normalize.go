// Package normalize canonicalizes free-text attribute values into a
// comparable "<number> <unit>" form.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/okian/attreval/internal/domain/model"
)

// valuePattern matches a leading number (digits with an optional fractional
// part), optional whitespace and an alphabetic unit. Anything after the unit
// is ignored. Digits and whitespace are Unicode-aware: RE2's \d and \s are
// ASCII only, so "5\u00a0kg" would otherwise pass through unmatched.
var valuePattern = regexp.MustCompile(`^(\p{Nd}+(?:\.\p{Nd}+)?)[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]*([a-zA-Z]+)`)

// Normalizer maps raw text to its canonical form.
type Normalizer interface {
	Normalize(value string) string
}

// Default is the Normalizer backed by Normalize.
type Default struct{}

// Normalize implements Normalizer.
func (Default) Normalize(value string) string { return Normalize(value) }

// Normalize trims and lowercases value, then rewrites a leading
// number-and-unit prefix as "<number> <unit>". Text without such a prefix is
// returned trimmed and lowercased. Blank input yields "".
func Normalize(value string) string {
	value = strings.ToLower(strings.TrimFunc(value, isSpace))
	if value == "" {
		return ""
	}
	m := valuePattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	return m[1] + " " + m[2]
}

// isSpace is unicode.IsSpace plus the ASCII file, group, record and unit
// separators, which text tools commonly treat as whitespace as well.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// NormalizeText normalizes an optional value; absent text yields "".
func NormalizeText(t model.Text) string {
	if !t.Valid {
		return ""
	}
	return Normalize(t.Value)
}

// Pair holds the normalized ground truth and prediction of one record.
type Pair struct {
	GroundTruth string
	Prediction  string
}

// Records normalizes both fields of every record.
func Records(records []model.ValueRecord) []Pair {
	out := make([]Pair, len(records))
	for i, r := range records {
		out[i] = Pair{
			GroundTruth: NormalizeText(r.GroundTruth),
			Prediction:  NormalizeText(r.Prediction),
		}
	}
	return out
}
