package core

// parser.go turns delimited text into Records.
//
// The parser is deliberately forgiving: blank lines are dropped, rows whose
// field count differs from the header are skipped, and rows without both a
// customer and product ID are discarded. It never returns a content error;
// an import that yields nothing is the caller's failure to report.

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseCSV parses the full text of a CSV export into records.
func ParseCSV(text string) []Record {
	return slices.Collect(ScanRecords(text))
}

// ParseCSVReader reads r to the end and parses it. A leading UTF-8 BOM is
// removed and invalid UTF-8 is replaced before tokenising. The only error
// returned is a read error.
func ParseCSVReader(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(NormalizeReader(r))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseCSV(string(data)), nil
}

// NormalizeReader strips a UTF-8 BOM and replaces invalid UTF-8 sequences
// with U+FFFD, so spreadsheet exports from Windows parse like any other.
func NormalizeReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ScanRecords yields the records of text one at a time, in row order.
func ScanRecords(text string) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		lines := nonBlankLines(text)
		if len(lines) == 0 {
			return
		}

		header := splitLine(lines[0])
		setters := make([]fieldSetter, len(header))
		for i, h := range header {
			setters[i] = lookupHeader(h)
		}

		for _, line := range lines[1:] {
			values := splitLine(line)
			if len(values) != len(header) {
				continue
			}

			var rec Record
			for i, v := range values {
				if setters[i] == nil {
					continue
				}
				if v = CleanCell(v); v != "" {
					setters[i](&rec, v)
				}
			}

			if rec.CustomerID == "" || rec.ProductID == "" {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// nonBlankLines splits text on newlines, dropping CR and whitespace-only lines.
func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// splitLine tokenises one CSV line. A double quote toggles quoted state and
// is itself dropped; commas split only outside quotes. Tokens are trimmed.
func splitLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}

	return append(fields, strings.TrimSpace(cur.String()))
}
