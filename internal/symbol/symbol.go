// internal/symbol/symbol.go
// Package symbol maps text onto the display's numeric symbol codes.
//
// The display understands a closed, fixed table of codes: 0 is blank,
// 1-26 are A-Z, and a reserved range holds named tokens (colors and a
// filled block) that occupy one cell each. Text may embed tokens inline
// as {NAME}. The codec is total: unmapped input degrades to blank.
package symbol

import "strings"

// Blank is the code for an empty cell.
const Blank = 0

// charCodes maps single characters to symbol codes. Input is uppercased
// before lookup, so only uppercase letters appear here.
var charCodes = map[rune]int{
	' ': 0,
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8, 'I': 9,
	'J': 10, 'K': 11, 'L': 12, 'M': 13, 'N': 14, 'O': 15, 'P': 16, 'Q': 17,
	'R': 18, 'S': 19, 'T': 20, 'U': 21, 'V': 22, 'W': 23, 'X': 24, 'Y': 25,
	'Z': 26,
	'1': 27, '2': 28, '3': 29, '4': 30, '5': 31, '6': 32, '7': 33, '8': 34,
	'9': 35, '0': 36,
	'!': 37, '@': 38, '#': 39, '$': 40, '(': 41, ')': 42,
	'-': 44, '+': 46, '&': 47, '=': 48, ';': 49, ':': 50,
	'\'': 52, '"': 53, '%': 54, ',': 55, '.': 56,
	'/': 59, '?': 60, '°': 62,
	'█': 71,
}

// tokenCodes maps bracketed token names to symbol codes. Tokens occupy a
// single display cell regardless of name length.
var tokenCodes = map[string]int{
	"RED":    63,
	"ORANGE": 64,
	"YELLOW": 65,
	"GREEN":  66,
	"BLUE":   67,
	"VIOLET": 68,
	"WHITE":  69,
	"BLACK":  70,
	"FILLED": 71,
}

// codeNames is the reverse lookup, preferring token names for the
// reserved range.
var codeNames = buildCodeNames()

func buildCodeNames() map[int]string {
	names := make(map[int]string, len(charCodes)+len(tokenCodes))
	for r, code := range charCodes {
		names[code] = string(r)
	}
	for name, code := range tokenCodes {
		names[code] = name
	}
	return names
}

// Encode converts text to symbol codes. Text is uppercased first. A
// {NAME} sequence matching the token set emits one code; anything else
// is encoded character by character, with unmapped characters (including
// stray braces) becoming Blank.
func Encode(text string) []int {
	runes := []rune(strings.ToUpper(text))
	codes := make([]int, 0, len(runes))

	for i := 0; i < len(runes); i++ {
		if runes[i] == '{' {
			if n, ok := matchToken(runes[i:]); ok {
				codes = append(codes, tokenCodes[string(runes[i+1:i+n-1])])
				i += n - 1
				continue
			}
		}
		codes = append(codes, charCodes[runes[i]])
	}
	return codes
}

// matchToken reports whether runes begins with a {NAME} sequence whose
// name is in the token set, returning the sequence length in runes.
func matchToken(runes []rune) (int, bool) {
	for j := 1; j < len(runes); j++ {
		if runes[j] == '}' {
			_, ok := tokenCodes[string(runes[1:j])]
			return j + 1, ok
		}
		if runes[j] == '{' {
			return 0, false
		}
	}
	return 0, false
}

// Decode returns the character or token name for a code, or "" if the
// code is not in the table.
func Decode(code int) string {
	return codeNames[code]
}

// DisplayLength returns the number of display cells Encode(text) would
// occupy. A 5-character token like {RED} counts as one cell.
func DisplayLength(text string) int {
	return len(Encode(text))
}
