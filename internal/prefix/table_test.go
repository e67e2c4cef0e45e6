package prefix

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefixes.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		table := Load(filepath.Join(t.TempDir(), "nope.csv"))
		if len(table) != 0 {
			t.Errorf("expected empty table, got %d entries", len(table))
		}
	})

	t.Run("SkipsMalformedRows", func(t *testing.T) {
		table := Load(writeCSV(t, "prefix,circle\n98765,Punjab\n,Delhi\n98300,\n98310,Kolkata\n"))
		if len(table) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(table))
		}
		if table["98765"] != "Punjab" || table["98310"] != "Kolkata" {
			t.Errorf("unexpected table contents: %v", table)
		}
	})

	t.Run("TrimsWhitespace", func(t *testing.T) {
		table := Load(writeCSV(t, "prefix,circle\n 98100 , Delhi \n"))
		if table["98100"] != "Delhi" {
			t.Errorf("expected trimmed entry, got %v", table)
		}
	})
}

func TestLookup(t *testing.T) {
	table := Table{
		"98765":  "Delhi",
		"983":    "Kolkata",
		"991234": "Chennai",
	}

	t.Run("LongestPrefixWins", func(t *testing.T) {
		// No 6-digit entry for 987654; falls through to the 5-digit match.
		circle, ok := table.Lookup("9876543210")
		if !ok || circle != "Delhi" {
			t.Errorf("got %q/%v, want Delhi", circle, ok)
		}
	})

	t.Run("SixDigitMatch", func(t *testing.T) {
		circle, ok := table.Lookup("9912340000")
		if !ok || circle != "Chennai" {
			t.Errorf("got %q/%v, want Chennai", circle, ok)
		}
	})

	t.Run("ThreeDigitMatch", func(t *testing.T) {
		circle, ok := table.Lookup("9830011223")
		if !ok || circle != "Kolkata" {
			t.Errorf("got %q/%v, want Kolkata", circle, ok)
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		if _, ok := table.Lookup("98"); ok {
			t.Error("expected no match for input shorter than 3 digits")
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		if _, ok := table.Lookup("7000000000"); ok {
			t.Error("expected no match")
		}
	})

	t.Run("ExactOnly", func(t *testing.T) {
		// A 4-digit input must not match the 5-digit entry it prefixes.
		if _, ok := table.Lookup("9876"); ok {
			t.Error("expected no partial match")
		}
	})
}
