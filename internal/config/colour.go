// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package config

import (
	"strings"
	"unicode"
)

// sectionSign introduces a formatting code in Minecraft chat.
const sectionSign = '§'

const colourCodes = "0123456789abcdefklmnorx"

// TranslateColourCodes replaces alt followed by a colour or format code with
// the section sign and the lowercased code. Other occurrences of alt are
// left alone, so "&&c" becomes "&§c".
func TranslateColourCodes(alt rune, s string) string {
	if !strings.ContainsRune(s, alt) {
		return s
	}

	runes := []rune(s)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] != alt {
			continue
		}
		code := unicode.ToLower(runes[i+1])
		if strings.ContainsRune(colourCodes, code) {
			runes[i] = sectionSign
			runes[i+1] = code
		}
	}
	return string(runes)
}
