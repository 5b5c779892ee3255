// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns arbitrary Unicode text into ASCII path segments.
//
// # Usage
//
// Blob keys are built from usernames and file names ("files/alice-smith/...").
// Accents are folded so "Rivière" and "Riviere" land on the same segment.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// From converts text into a lowercase, hyphen-separated ASCII segment.
//
// The result is empty when text has no letters or digits.
func From(text string) string {
	folding := transform.Chain(norm.NFD, transform.RemoveFunc(isMark))
	result, _, _ := transform.String(folding, text)

	result = strings.ToLower(result)
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// Letters outside ASCII survive folding; drop them here
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// isMark reports whether r is a non-spacing combining mark.
func isMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
