// Package leads parses uploaded recipient files into ordered field-map
// rows. Header order is preserved because the deduplicator's email-column
// fallback walks columns left to right.
package leads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/campaign-runner/internal/domain"
)

// ErrEmptyFile reports a leads file with no header row.
var ErrEmptyFile = errors.New("leads: file is empty")

// ParseCSV reads a CSV document whose first row is the header. Short rows
// leave trailing columns empty; extra cells beyond the header are dropped.
// Blank lines are skipped by the reader.
func ParseCSV(r io.Reader) (domain.LeadList, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return domain.LeadList{}, ErrEmptyFile
	}
	if err != nil {
		return domain.LeadList{}, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	list := domain.LeadList{Columns: columns, Rows: []domain.LeadRow{}}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.LeadList{}, fmt.Errorf("read line %d: %w", line, err)
		}
		row := make(domain.LeadRow, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		list.Rows = append(list.Rows, row)
	}
	return list, nil
}
