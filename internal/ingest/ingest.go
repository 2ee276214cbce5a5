// Package ingest turns pasted numbers and uploaded contact tables into the
// ordered phone list of a campaign.
package ingest

import (
	"strings"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/util"
)

const DefaultPhoneColumn = "phone"

type Options struct {
	PhoneColumn string // header name, matched case-insensitively
	Dedupe      bool
	Normalize   bool
}

// Table is a parsed upload: the first row is the header.
type Table [][]string

// Collect merges freeform text and an optional table into one phone list.
// Text numbers come first, then table rows, each in input order. Blank lines
// and rows with an empty phone cell are skipped. A nil table means no upload.
func Collect(text string, table Table, opts Options) ([]string, error) {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			out = append(out, p)
		}
	}

	if table != nil {
		phones, err := table.Phones(opts.PhoneColumn)
		if err != nil {
			return nil, err
		}
		out = append(out, phones...)
	}

	if opts.Normalize {
		kept := out[:0]
		for _, p := range out {
			if n := util.NormalizePhone(p); n != "" {
				kept = append(kept, n)
			}
		}
		out = kept
	}
	if opts.Dedupe {
		out = dedupe(out)
	}
	return out, nil
}

// Phones returns the non-empty cells of the phone column.
func (t Table) Phones(column string) ([]string, error) {
	if len(t) == 0 {
		return nil, &errs.ParseError{Reason: "missing header row"}
	}
	if column == "" {
		column = DefaultPhoneColumn
	}

	idx := -1
	for i, h := range t[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &errs.ParseError{Line: 1, Reason: "no " + column + " column"}
	}

	var out []string
	for _, row := range t[1:] {
		if idx >= len(row) {
			continue
		}
		if p := strings.TrimSpace(row[idx]); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
