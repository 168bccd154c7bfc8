package models

import (
	"sort"
	"strings"

	"vellum/internal/tabular"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/email"
)

// DefaultProgram is recorded when an input row carries no program column.
const DefaultProgram = "General Program"

// Column aliases recognized case-insensitively; the first present wins.
var (
	nameAliases    = []string{"name", "student name", "student_name"}
	emailAliases   = []string{"email"}
	programAliases = []string{"program"}
)

// Validation errors. Messages are stable because operators and tests match
// on them through the coded-error equality in pkg/domain-errors.
var (
	ErrMissingName  = dErrors.New(dErrors.CodeValidation, "missing required field: name")
	ErrMissingEmail = dErrors.New(dErrors.CodeValidation, "missing required field: email")
	ErrInvalidEmail = dErrors.New(dErrors.CodeValidation, "invalid email address")
)

// ValidateRow normalizes one raw input row into a Recipient or rejects it.
// Pure and deterministic: no side effects, same row always yields the same
// outcome.
func ValidateRow(row tabular.Row) (Recipient, error) {
	name := strings.TrimSpace(resolve(row, nameAliases))
	if name == "" {
		return Recipient{}, ErrMissingName
	}

	addr := email.Normalize(resolve(row, emailAliases))
	if addr == "" {
		return Recipient{}, ErrMissingEmail
	}
	if !email.Valid(addr) {
		return Recipient{}, ErrInvalidEmail
	}

	program := strings.TrimSpace(resolve(row, programAliases))
	if program == "" {
		program = DefaultProgram
	}

	return Recipient{Name: name, Email: addr, Program: program}, nil
}

// resolve returns the value of the first alias present in the row,
// matching column names case-insensitively. Keys are scanned in sorted
// order so colliding header spellings resolve deterministically.
func resolve(row tabular.Row, aliases []string) string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, alias := range aliases {
		for _, key := range keys {
			if strings.EqualFold(strings.TrimSpace(key), alias) {
				return row[key]
			}
		}
	}
	return ""
}
