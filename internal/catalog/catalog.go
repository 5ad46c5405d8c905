// Package catalog loads the game's item data files into an immutable set
// of canonical display names. The set is built once at startup and is
// safe for unsynchronized concurrent reads.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// noTier is the sentinel tier for items without a tier marker.
const noTier = -1

type Catalog struct {
	names map[string]struct{}
}

// Load reads each source file and merges its records into one catalog.
// Sources are UTF-16 text with '|'-delimited fields and a header line;
// each record is "name|tier". A tier other than the -1 sentinel renders
// the display name as "<name> (T<tier>)".
func Load(paths ...string) (*Catalog, error) {
	c := &Catalog{names: make(map[string]struct{})}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open item data: %w", err)
		}
		err = c.merge(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse item data %s: %w", path, err)
		}
	}
	return c, nil
}

func (c *Catalog) merge(r io.Reader) error {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	rd := csv.NewReader(transform.NewReader(r, utf16.NewDecoder()))
	rd.Comma = '|'
	rd.LazyQuotes = true
	rd.FieldsPerRecord = -1

	header := true
	for {
		record, err := rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if header {
			header = false
			continue
		}
		if len(record) < 2 {
			return fmt.Errorf("record has %d fields, want 2", len(record))
		}
		name := strings.TrimSpace(record[0])
		tier, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return fmt.Errorf("tier for %q: %w", name, err)
		}
		c.names[DisplayName(name, tier)] = struct{}{}
	}
}

// DisplayName renders the canonical display form of an item.
func DisplayName(name string, tier int) string {
	if tier == noTier {
		return name
	}
	return fmt.Sprintf("%s (T%d)", name, tier)
}

// Contains reports whether name is a valid item display name.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.names[name]
	return ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Suggest yields up to limit catalog names containing partial as a
// case-insensitive substring. The sequence is lazy and single-use;
// iteration order is unspecified.
func (c *Catalog) Suggest(partial string, limit int) iter.Seq[string] {
	needle := strings.ToLower(partial)
	return func(yield func(string) bool) {
		n := 0
		for name := range c.names {
			if n >= limit {
				return
			}
			if !strings.Contains(strings.ToLower(name), needle) {
				continue
			}
			if !yield(name) {
				return
			}
			n++
		}
	}
}
