package testutil

import "testing"

// Given, When, and Then nest subtests under readable scenario names. The
// Gherkin-proper suite lives in e2e; these cover in-process tests that
// want the same phrasing.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
