package logs

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldRunes covers letters that carry no combining mark after NFD
var foldRunes = map[rune]rune{
	'ł': 'l',
	'æ': 'a',
	'ø': 'o',
	'ð': 'o',
	'đ': 'd',
	'ħ': 'h',
	'ı': 'i',
	'ŀ': 'l',
}

// expandLetters folds letters whose base form is more than one letter
var expandLetters = strings.NewReplacer("ß", "ss")

// Normalize lower-cases s and folds accented letters to their ASCII base,
// so that "Héllo Wörld" and "hello world" compare equal.
func Normalize(s string) string {
	lower := strings.ToLower(s)
	if isASCII(lower) {
		return lower
	}

	// Transformers are stateful, so a chain is built per call
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(foldRune),
		norm.NFC,
	)
	folded, _, err := transform.String(t, expandLetters.Replace(lower))
	if err != nil {
		return lower
	}
	return folded
}

func foldRune(r rune) rune {
	if f, ok := foldRunes[r]; ok {
		return f
	}
	return r
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
