package defaults

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Entry is one module to install: where to clone it from and the directory
// name it gets under the modules root.
type Entry struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%s <- %s", e.Name, e.Source)
}

// Validate reports whether the entry can be installed. Names must be a single
// path element so an entry can never write outside the modules root.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Source) == "" {
		return fmt.Errorf("entry %q has no source location", e.Name)
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return fmt.Errorf("entry for %s has no name", e.Source)
	}
	if name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("entry name %q is not a plain directory name", e.Name)
	}
	return nil
}

// FromRows converts [source, name] pairs into entries. Rows are taken as
// given; a short row produces an entry that fails Validate at install time
// rather than being dropped here.
func FromRows(rows [][]string) []Entry {
	if len(rows) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		var e Entry
		if len(row) > 0 {
			e.Source = row[0]
		}
		if len(row) > 1 {
			e.Name = row[1]
		}
		entries = append(entries, e)
	}
	return entries
}

// Rows is the inverse of FromRows.
func Rows(entries []Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Source, e.Name}
	}
	return rows
}

// DecodeList parses a JSON install list: an array of [source, name] arrays,
// optionally prefixed with a UTF-8 byte order mark.
func DecodeList(data []byte) ([]Entry, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding install list: %w", err)
	}
	return FromRows(rows), nil
}
