// Package criteria holds the password rules for the reset form. Everything
// here is pure: no I/O, no HTTP, no templates.
package criteria

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

const (
	MinLength = 8
	MaxLength = 64

	// SpecialCharacters is the set rule 6 draws from. Nothing outside of it
	// counts as "special".
	SpecialCharacters = "!@#$%^&*"

	// RuleCount is the number of per-password rules (excluding the
	// passwords-match check).
	RuleCount = 7
)

// Rule is a single password-strength check.
type Rule struct {
	Label string
	Test  func(password string) bool
}

// Rules are evaluated in this order and reported in this order.
var Rules = [RuleCount]Rule{{
	Label: "Min length: 8 characters",
	Test: func(p string) bool {
		return Length(p) >= MinLength
	},
}, {
	Label: "Max length: 64 characters",
	Test: func(p string) bool {
		return Length(p) <= MaxLength
	},
}, {
	Label: "At least 1 uppercase letter",
	Test:  func(p string) bool { return containsFunc(p, isASCIIUpper) },
}, {
	Label: "At least 1 lowercase letter",
	Test:  func(p string) bool { return containsFunc(p, isASCIILower) },
}, {
	Label: "At least 1 number",
	Test:  func(p string) bool { return containsFunc(p, isASCIIDigit) },
}, {
	Label: "At least 1 special character (" + SpecialCharacters + ")",
	Test: func(p string) bool {
		return strings.ContainsAny(p, SpecialCharacters)
	},
}, {
	Label: "No spaces",
	Test:  func(p string) bool { return !containsFunc(p, isSpace) },
}}

// MatchLabel labels the passwords-match item of the checklist.
const MatchLabel = "Passwords match"

// Status is the result of evaluating a password / confirmation pair. It is
// always derived from the pair and never stored.
type Status struct {
	Rules          [RuleCount]bool `json:"rules"`
	PasswordsMatch bool            `json:"passwordsMatch"`
	AllValid       bool            `json:"allValid"`
}

// Evaluate runs every rule against `password` and compares it with
// `confirmPassword`. Two empty strings match each other.
func Evaluate(password, confirmPassword string) Status {
	var s Status
	s.AllValid = true
	for i := range Rules {
		s.Rules[i] = Rules[i].Test(password)
		s.AllValid = s.AllValid && s.Rules[i]
	}
	s.PasswordsMatch = password == confirmPassword
	s.AllValid = s.AllValid && s.PasswordsMatch
	return s
}

// Item is one line of the rendered checklist.
type Item struct {
	Label string `json:"label"`
	Met   bool   `json:"met"`
}

// Marker is the glyph shown next to the item's label.
func (item Item) Marker() string {
	if item.Met {
		return "✅"
	}
	return "❌"
}

// Checklist projects a `Status` onto the rule labels, followed by the
// passwords-match item.
func Checklist(s Status) []Item {
	items := make([]Item, 0, RuleCount+1)
	for i := range Rules {
		items = append(items, Item{Label: Rules[i].Label, Met: s.Rules[i]})
	}
	return append(items, Item{Label: MatchLabel, Met: s.PasswordsMatch})
}

func containsFunc(s string, f func(rune) bool) bool {
	return strings.IndexFunc(s, f) >= 0
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// Length counts UTF-16 code units, the way browsers measure a form field, so
// a character outside the Basic Multilingual Plane counts twice.
func Length(password string) int {
	var n int
	for _, r := range password {
		n += utf16.RuneLen(r)
	}
	return n
}

// isSpace matches the browser's `\s` class: `unicode.IsSpace` without U+0085
// and with U+FEFF.
func isSpace(r rune) bool {
	switch r {
	case '\u0085':
		return false
	case '\uFEFF':
		return true
	}
	return unicode.IsSpace(r)
}
