// Package labels turns raw classifier labels into food search terms.
package labels

import "strings"

// Resolve normalises a classifier label such as "Granny_Smith" into a lower-case,
// space separated query ("granny smith"). Runs of separators collapse to one
// space and surrounding whitespace is dropped. Empty input yields "".
func Resolve(raw string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		}
		return r
	}, raw)
	return strings.ToLower(strings.Join(strings.Fields(replaced), " "))
}
