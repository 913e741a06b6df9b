package defaults

import (
	"regexp"
	"strings"
)

const tableMarker = "***"

var (
	// headerEnd matches the tail of the table's separator row.
	headerEnd = regexp.MustCompile(`--\|\r?\n`)
	lineBreak = regexp.MustCompile(`\r?\n`)
)

// ParseTable extracts install entries from the defaults wiki page.
//
// The table must sit between the first and last "***" of the document. Data
// rows start after the last "--|" that ends a line. Each row is split on
// "|", cells are trimmed, empty cells dropped and the first two kept. The
// page lists "name | location", so the pair is reversed into an Entry. Rows
// that do not yield exactly two cells are skipped. Malformed documents give
// an empty result; ParseTable never fails.
func ParseTable(doc string) []Entry {
	start := strings.Index(doc, tableMarker)
	end := strings.LastIndex(doc, tableMarker)
	if start < 0 || end < start+len(tableMarker) {
		return nil
	}
	region := doc[start+len(tableMarker) : end]

	locs := headerEnd.FindAllStringIndex(region, -1)
	if len(locs) == 0 {
		return nil
	}
	data := region[locs[len(locs)-1][1]:]

	var entries []Entry
	for _, line := range lineBreak.Split(data, -1) {
		cells := rowCells(line)
		if len(cells) != 2 {
			continue
		}
		entries = append(entries, Entry{Source: cells[1], Name: cells[0]})
	}
	return entries
}

// rowCells returns at most the first two non-empty trimmed cells of a row.
func rowCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		cells = append(cells, c)
		if len(cells) == 2 {
			break
		}
	}
	return cells
}
