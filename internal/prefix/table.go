// Package prefix maps leading digits of Indian mobile numbers to telecom
// circles. The table is loaded once at startup and read-only after that.
package prefix

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

type Table map[string]string

// Load reads a prefix,circle CSV into a Table. A missing or unreadable file
// yields an empty table: circle resolution degrades, the app still runs.
// Rows without both fields are skipped.
func Load(path string) Table {
	t := Table{}

	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("prefix data unavailable, circle lookup disabled")
		return t
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("prefix data truncated")
			break
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 2 {
			continue
		}
		p := strings.TrimSpace(rec[0])
		c := strings.TrimSpace(rec[1])
		if p == "" || c == "" {
			continue
		}
		t[p] = c
	}
	return t
}

// Lookup returns the circle for the longest matching prefix of the national
// number, trying lengths 6 down to 3. Exact matches only.
func (t Table) Lookup(national string) (string, bool) {
	for _, n := range []int{6, 5, 4, 3} {
		if len(national) < n {
			continue
		}
		if c, ok := t[national[:n]]; ok {
			return c, true
		}
	}
	return "", false
}
