// SPDX-License-Identifier: Apache-2.0

package store

import (
	"strconv"
	"strings"
)

// decodeUnicodeEscapes decodes \uXXXX and \UXXXXXXXX escape sequences that
// show up in the flat config files (descriptions are often stored escaped).
// A malformed sequence leaves the whole input untouched.
func decodeUnicodeEscapes(text string) string {
	if !strings.Contains(text, `\u`) && !strings.Contains(text, `\U`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '\\' || i+1 >= len(text) || (text[i+1] != 'u' && text[i+1] != 'U') {
			b.WriteByte(text[i])
			i++
			continue
		}

		digits := 4
		if text[i+1] == 'U' {
			digits = 8
		}

		start := i + 2
		end := start + digits
		if end > len(text) {
			return text
		}

		code, err := strconv.ParseUint(text[start:end], 16, 32)
		if err != nil {
			return text
		}

		b.WriteRune(rune(code))
		i = end
	}

	return b.String()
}
