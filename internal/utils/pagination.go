// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a parsed limit/offset pair from query parameters.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset strings. A missing or malformed limit
// becomes def; values are clamped to [1, max] and offset to >= 0.
func ParsePage(limit, offset string, def, max int) Page {
	p := Page{
		Limit:  AtoiDefault(strings.TrimSpace(limit), def),
		Offset: AtoiDefault(strings.TrimSpace(offset), 0),
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
